package server

import (
	"docring/internal/storage"
)

// Extract removes every document matching match from the store and
// invalidates its cache entry. Callers drain the queue first.
func (s *Server) Extract(match func(storage.Document) bool) []storage.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.store.Extract(match)
	for _, doc := range docs {
		s.cache.Remove(doc.Name)
	}
	return docs
}

// ExtractAll empties the store.
func (s *Server) ExtractAll() []storage.Document {
	return s.Extract(func(storage.Document) bool { return true })
}

// Adopt appends migrated documents to the store as they are.
func (s *Server) Adopt(docs ...storage.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		s.store.Append(doc)
	}
}

// ReassignOwners recomputes every document's owning replica with the local
// replica-executor rule.
func (s *Server) ReassignOwners() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Reassign(func(doc storage.Document) int {
		return s.ReplicaExecutor(doc.NameHash)
	})
}

// Documents returns a copy of the store in order.
func (s *Server) Documents() []storage.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Documents()
}

// QueueLen returns the number of pending edits.
func (s *Server) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// CacheKeys returns the cached keys from least to most recently used.
func (s *Server) CacheKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Keys()
}

// Stats returns a copy of the counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
