package balancer

import (
	"errors"
	"fmt"
	"sync"

	"docring/internal/hashing"
	"docring/internal/logging"
	"docring/internal/message"
	"docring/internal/ring"
	"docring/internal/server"
	"docring/internal/storage"
	"docring/internal/taskqueue"
)

var (
	ErrNoServers       = errors.New("no servers on the ring")
	ErrServerExists    = errors.New("server already exists")
	ErrInvalidServerID = errors.New("server id must be below the replica offset")
	ErrInvalidCapacity = errors.New("cache capacity must be at least 1")
	ErrEmptyName       = errors.New("document name cannot be empty")
	ErrUnknownKind     = errors.New("unknown request kind")
)

// Option configures a LoadBalancer.
type Option func(*LoadBalancer)

// WithHasher sets the hash functions used for documents and replicas.
func WithHasher(h hashing.Hasher) Option {
	return func(lb *LoadBalancer) {
		if h != nil {
			lb.hasher = h
		}
	}
}

// WithLogger sets the logger shared by the balancer and its servers.
func WithLogger(l logging.Logger) Option {
	return func(lb *LoadBalancer) { lb.logger = logging.OrNop(l) }
}

// WithQueueCapacity sets the task queue capacity of servers added later.
func WithQueueCapacity(n int) Option {
	return func(lb *LoadBalancer) { lb.queueCapacity = n }
}

// WithRejectOverflow makes servers answer REJECTED for edits that do not
// fit in their queue instead of dropping them silently.
func WithRejectOverflow(reject bool) Option {
	return func(lb *LoadBalancer) { lb.rejectOverflow = reject }
}

// LoadBalancer routes document requests over a consistent hash ring.
type LoadBalancer struct {
	// mu serializes topology changes against in-flight requests.
	mu             sync.RWMutex
	virtualNodes   bool
	ring           *ring.Ring
	servers        map[uint32]*server.Server
	hasher         hashing.Hasher
	queueCapacity  int
	rejectOverflow bool
	logger         logging.Logger
}

// New creates an empty load balancer. With virtualNodes every server is
// placed on the ring through three replicas instead of one.
func New(virtualNodes bool, opts ...Option) *LoadBalancer {
	lb := &LoadBalancer{
		virtualNodes:  virtualNodes,
		ring:          ring.NewRing(),
		servers:       make(map[uint32]*server.Server),
		hasher:        hashing.Default,
		queueCapacity: taskqueue.DefaultCapacity,
		logger:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(lb)
	}
	return lb
}

// ReplicasPerServer returns 3 with virtual nodes, 1 otherwise.
func (lb *LoadBalancer) ReplicasPerServer() int {
	if lb.virtualNodes {
		return message.MaxReplicas
	}
	return 1
}

// AddServer places a new server on the ring and moves to it the documents
// its replicas now own.
func (lb *LoadBalancer) AddServer(id, cacheCapacity uint32) error {
	if id >= message.ReplicaOffset {
		return fmt.Errorf("add server %d: %w", id, ErrInvalidServerID)
	}
	if cacheCapacity < 1 {
		return fmt.Errorf("add server %d: %w", id, ErrInvalidCapacity)
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	if _, exists := lb.servers[id]; exists {
		return fmt.Errorf("add server %d: %w", id, ErrServerExists)
	}

	srv, err := server.New(server.Config{
		ID:             id,
		CacheCapacity:  int(cacheCapacity),
		Replicas:       lb.ReplicasPerServer(),
		QueueCapacity:  lb.queueCapacity,
		RejectOverflow: lb.rejectOverflow,
		Hasher:         lb.hasher,
		Logger:         lb.logger,
	})
	if err != nil {
		return fmt.Errorf("add server %d: %w", id, err)
	}

	moved := 0
	for replica, hash := range srv.Replicas() {
		pos, ok := lb.ring.Locate(hash)
		if !ok {
			break
		}
		next := lb.servers[pos.ServerID]
		next.Drain(pos.Replica)

		docs := next.Extract(func(doc storage.Document) bool {
			return doc.OwnerReplica == pos.Replica &&
				captures(hash, id, pos.Hash, pos.ServerID, doc.NameHash)
		})
		for i := range docs {
			docs[i].OwnerReplica = replica
		}
		srv.Adopt(docs...)
		moved += len(docs)

		if len(docs) > 0 {
			lb.logger.Debugf("[lb] replica %d of server %d took %d documents from server %d replica %d",
				replica, id, len(docs), pos.ServerID, pos.Replica)
		}
	}
	srv.ReassignOwners()

	lb.ring.AddMember(ring.Member{ID: id, Hashes: srv.Replicas()})
	lb.servers[id] = srv

	lb.logger.Infof("[lb] added server %d (%d replicas, cache %d), moved %d documents",
		id, len(srv.Replicas()), cacheCapacity, moved)
	return nil
}

// captures reports whether a new replica at newHash takes over a document
// at docHash from its ring successor at nextHash.
func captures(newHash, newID, nextHash, nextID, docHash uint32) bool {
	switch {
	case newHash < nextHash:
		return docHash < newHash || docHash > nextHash
	case newHash > nextHash:
		// the new replica sits past the top of the ring
		return docHash > nextHash && docHash < newHash
	default:
		return newID < nextID
	}
}

// RemoveServer takes a server off the ring and hands each of its documents
// to the replica that now follows the document's former replica. It returns
// false if no server has that id. When the last server is removed its
// documents are lost.
func (lb *LoadBalancer) RemoveServer(id uint32) bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	srv, ok := lb.servers[id]
	if !ok {
		return false
	}
	lb.ring.RemoveMember(id)
	delete(lb.servers, id)

	srv.Drain(0)
	docs := srv.ExtractAll()

	if lb.ring.Len() == 0 {
		if len(docs) > 0 {
			lb.logger.Warnf("[lb] removed last server %d, dropping %d documents", id, len(docs))
		}
		return true
	}

	for _, doc := range docs {
		pos, _ := lb.ring.Locate(srv.ReplicaHash(doc.OwnerReplica))
		doc.OwnerReplica = pos.Replica
		lb.servers[pos.ServerID].Adopt(doc)
	}

	lb.logger.Infof("[lb] removed server %d, moved %d documents", id, len(docs))
	return true
}

// Forward routes a request to the replica responsible for its document.
func (lb *LoadBalancer) Forward(req message.Request) (message.Response, error) {
	if req.DocName == "" {
		return message.Response{}, ErrEmptyName
	}
	if req.Kind != message.Edit && req.Kind != message.Get {
		return message.Response{}, fmt.Errorf("forward %s: %w (%d)", req.DocName, ErrUnknownKind, req.Kind)
	}

	lb.mu.RLock()
	defer lb.mu.RUnlock()

	pos, ok := lb.ring.Locate(lb.hasher.Document(req.DocName))
	if !ok {
		return message.Response{}, fmt.Errorf("forward %s: %w", req.DocName, ErrNoServers)
	}
	req.ReplicaIndex = pos.Replica

	res := lb.servers[pos.ServerID].HandleRequest(req)
	lb.logger.Debugf("[lb] %s %s -> server %d replica %d: %s",
		req.Kind, req.DocName, pos.ServerID, pos.Replica, res.Outcome)
	return res, nil
}

// Locate returns the server and replica a document name is routed to.
func (lb *LoadBalancer) Locate(name string) (serverID uint32, replica int, ok bool) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	pos, ok := lb.ring.Locate(lb.hasher.Document(name))
	return pos.ServerID, pos.Replica, ok
}

// Servers returns the ids of all servers in insertion order.
func (lb *LoadBalancer) Servers() []uint32 {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	members := lb.ring.Members()
	ids := make([]uint32, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids
}
