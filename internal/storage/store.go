package storage

import (
	"sync"
)

// Document is a named piece of content owned by exactly one server.
type Document struct {
	Name     string
	Content  string
	NameHash uint32
	// OwnerReplica is the index of the owning server's replica that claims
	// this document. It is local bookkeeping, not global routing.
	OwnerReplica int
}

// Store defines the interface for a server's local document storage.
type Store interface {
	// Get returns a copy of the named document, or nil if absent.
	Get(name string) *Document
	// Append adds a document at the end of the store, replacing any
	// document with the same name in place.
	Append(doc Document)
	// SetContent overwrites the content of an existing document.
	// Returns false if the document does not exist.
	SetContent(name, content string) bool
	// Extract removes and returns every document matching match, in order.
	Extract(match func(Document) bool) []Document
	// Reassign recomputes OwnerReplica for every document.
	Reassign(owner func(Document) int)
	// Documents returns a copy of all documents in order.
	Documents() []Document
	// Len returns the number of documents.
	Len() int
}

// InMemoryStore is an in-memory implementation of Store.
// It's thread-safe.
type InMemoryStore struct {
	mu    sync.RWMutex
	order []*Document
	byKey map[string]*Document
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byKey: make(map[string]*Document),
	}
}

// Get retrieves a document by name.
func (s *InMemoryStore) Get(name string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.byKey[name]
	if !exists {
		return nil
	}

	// Return a copy to avoid external modifications
	cp := *doc
	return &cp
}

// Append adds a document to the end of the store.
func (s *InMemoryStore) Append(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.byKey[doc.Name]; exists {
		*existing = doc
		return
	}

	stored := doc
	s.order = append(s.order, &stored)
	s.byKey[doc.Name] = &stored
}

// SetContent overwrites the content of an existing document.
func (s *InMemoryStore) SetContent(name, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.byKey[name]
	if !exists {
		return false
	}
	doc.Content = content
	return true
}

// Extract removes every document for which match returns true.
func (s *InMemoryStore) Extract(match func(Document) bool) []Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	var extracted []Document
	kept := s.order[:0]
	for _, doc := range s.order {
		if match(*doc) {
			extracted = append(extracted, *doc)
			delete(s.byKey, doc.Name)
			continue
		}
		kept = append(kept, doc)
	}
	// Clear the tail so removed documents can be collected
	for i := len(kept); i < len(s.order); i++ {
		s.order[i] = nil
	}
	s.order = kept
	return extracted
}

// Reassign recomputes the owning replica of every document.
func (s *InMemoryStore) Reassign(owner func(Document) int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.order {
		doc.OwnerReplica = owner(*doc)
	}
}

// Documents returns a copy of all documents in insertion order.
func (s *InMemoryStore) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.order))
	for _, doc := range s.order {
		docs = append(docs, *doc)
	}
	return docs
}

// Len returns the number of stored documents.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
