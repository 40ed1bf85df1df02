package server

import (
	"fmt"
	"sync"

	"docring/internal/hashing"
	"docring/internal/logging"
	"docring/internal/lru"
	"docring/internal/message"
	"docring/internal/storage"
	"docring/internal/taskqueue"
)

// Config holds the parameters of a server.
type Config struct {
	ID            uint32
	CacheCapacity int
	// Replicas is 1, or message.MaxReplicas with virtual nodes.
	Replicas      int
	QueueCapacity int
	// RejectOverflow reports REJECTED for edits that do not fit in the
	// queue instead of dropping them silently.
	RejectOverflow bool
	Hasher         hashing.Hasher
	Logger         logging.Logger
}

// Stats are cumulative counters for diagnostics.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Faults    uint64
	Queued    uint64
	Dropped   uint64
	Applied   uint64
}

// Server owns a cache, a task queue and a document store.
type Server struct {
	mu             sync.Mutex
	id             uint32
	replicas       []uint32
	hasher         hashing.Hasher
	cache          *lru.Cache
	queue          *taskqueue.Queue
	store          storage.Store
	rejectOverflow bool
	stats          Stats
	logger         logging.Logger
}

// New creates a server and places its replicas on the ring by hashing their labels.
func New(cfg Config) (*Server, error) {
	if cfg.Replicas != 1 && cfg.Replicas != message.MaxReplicas {
		return nil, fmt.Errorf("server %d: replica count must be 1 or %d, got %d",
			cfg.ID, message.MaxReplicas, cfg.Replicas)
	}
	cache, err := lru.New(cfg.CacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("server %d: %w", cfg.ID, err)
	}
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = hashing.Default
	}

	replicas := make([]uint32, cfg.Replicas)
	for i := range replicas {
		replicas[i] = hasher.Replica(message.ReplicaLabel(cfg.ID, i))
	}

	return &Server{
		id:             cfg.ID,
		replicas:       replicas,
		hasher:         hasher,
		cache:          cache,
		queue:          taskqueue.New(cfg.QueueCapacity),
		store:          storage.NewInMemoryStore(),
		rejectOverflow: cfg.RejectOverflow,
		logger:         logging.OrNop(cfg.Logger),
	}, nil
}

// ID returns the server id.
func (s *Server) ID() uint32 { return s.id }

// Replicas returns a copy of the replica hashes, indexed by replica.
func (s *Server) Replicas() []uint32 {
	return append([]uint32(nil), s.replicas...)
}

// ReplicaHash returns the ring position of one replica.
func (s *Server) ReplicaHash(replica int) uint32 { return s.replicas[replica] }

// ReplicaExecutor returns the local replica that claims a data hash: the
// replica with the smallest hash strictly greater than it, or this server's
// smallest replica hash when none is greater. Only this server's replicas
// are considered.
func (s *Server) ReplicaExecutor(hash uint32) int {
	found := false
	best, lowest := 0, 0
	for i, h := range s.replicas {
		if h < s.replicas[lowest] {
			lowest = i
		}
		if h > hash && (!found || h < s.replicas[best]) {
			best, found = i, true
		}
	}
	if !found {
		return lowest
	}
	return best
}

// HandleRequest serves one request routed to replica req.ReplicaIndex.
// Edits are only queued; reads drain the queue first.
func (s *Server) HandleRequest(req message.Request) message.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Kind {
	case message.Edit:
		return s.enqueueLocked(req)
	case message.Get:
		applied := s.drainLocked(req.ReplicaIndex)
		res := s.getLocked(req)
		res.Applied = applied
		return res
	default:
		s.logger.Warnf("[server %d] ignoring request of unknown kind %d", s.id, req.Kind)
		return message.Response{Label: message.ReplicaLabel(s.id, req.ReplicaIndex), Outcome: message.Outcome{Kind: message.Fault}}
	}
}

// Drain applies every pending edit in arrival order. handlerReplica is the
// replica reported as responder in the edit results.
func (s *Server) Drain(handlerReplica int) []message.EditResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drainLocked(handlerReplica)
}

func (s *Server) enqueueLocked(req message.Request) message.Response {
	label := message.ReplicaLabel(s.id, req.ReplicaIndex)
	edit := taskqueue.PendingEdit{Name: req.DocName, Content: req.DocContent}

	if !s.queue.Push(edit) {
		s.stats.Dropped++
		s.logger.Warnf("[server %d] task queue full (%d), dropping edit of %s",
			s.id, s.queue.Len(), req.DocName)
		kind := message.Queued
		if s.rejectOverflow {
			kind = message.Rejected
		}
		return message.Response{Label: label, Outcome: message.Outcome{Kind: kind, QueueLen: s.queue.Len()}}
	}

	s.stats.Queued++
	return message.Response{
		Label:   label,
		Outcome: message.Outcome{Kind: message.Queued, QueueLen: s.queue.Len()},
	}
}

func (s *Server) drainLocked(handlerReplica int) []message.EditResult {
	edits := s.queue.Drain()
	if len(edits) == 0 {
		return nil
	}

	label := message.ReplicaLabel(s.id, handlerReplica)
	results := make([]message.EditResult, 0, len(edits))
	for _, edit := range edits {
		res := s.applyLocked(edit)
		res.Label = label
		s.logger.Debugf("[server %d] applied edit %s: %s, cache %s",
			s.id, edit.Name, res.Outcome, res.Cache)
		results = append(results, res)
	}
	s.stats.Applied += uint64(len(results))
	return results
}

func (s *Server) applyLocked(edit taskqueue.PendingEdit) message.EditResult {
	res := message.EditResult{DocName: edit.Name}

	if s.store.SetContent(edit.Name, edit.Content) {
		res.Outcome = message.Outcome{Kind: message.Edited}
	} else {
		h := s.hasher.Document(edit.Name)
		s.store.Append(storage.Document{
			Name:         edit.Name,
			Content:      edit.Content,
			NameHash:     h,
			OwnerReplica: s.ReplicaExecutor(h),
		})
		res.Outcome = message.Outcome{Kind: message.Created}
	}

	res.Cache = s.cachePutLocked(edit.Name, edit.Content)
	return res
}

func (s *Server) getLocked(req message.Request) message.Response {
	res := message.Response{Label: message.ReplicaLabel(s.id, req.ReplicaIndex)}

	if content, ok := s.cache.Get(req.DocName); ok {
		s.stats.Hits++
		res.Outcome = message.Outcome{Kind: message.Hit}
		res.Payload = content
		return res
	}

	doc := s.store.Get(req.DocName)
	if doc == nil {
		s.stats.Faults++
		res.Outcome = message.Outcome{Kind: message.Fault}
		return res
	}

	res.Outcome = s.cachePutLocked(doc.Name, doc.Content)
	res.Payload = doc.Content
	return res
}

// cachePutLocked writes through the cache and classifies the effect.
func (s *Server) cachePutLocked(name, content string) message.Outcome {
	put := s.cache.Put(name, content)
	switch {
	case put.Replaced:
		s.stats.Hits++
		return message.Outcome{Kind: message.Hit}
	case put.DidEvict:
		s.stats.Evictions++
		return message.Outcome{Kind: message.Evict, EvictedKey: put.Evicted}
	default:
		s.stats.Misses++
		return message.Outcome{Kind: message.Miss}
	}
}
