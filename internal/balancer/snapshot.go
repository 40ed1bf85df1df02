package balancer

import (
	"docring/internal/message"
	"docring/internal/server"
	"docring/internal/storage"
)

// ReplicaInfo describes one ring position of a server.
type ReplicaInfo struct {
	Index int
	Label uint32
	Hash  uint32
}

// ServerSnapshot is a point-in-time view of one server. Taking a snapshot
// does not drain pending edits.
type ServerSnapshot struct {
	ID        uint32
	Replicas  []ReplicaInfo
	Documents []storage.Document
	QueueLen  int
	CacheKeys []string
	Stats     server.Stats
}

// Snapshot returns a view of every server in insertion order.
func (lb *LoadBalancer) Snapshot() []ServerSnapshot {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	members := lb.ring.Members()
	snaps := make([]ServerSnapshot, 0, len(members))
	for _, m := range members {
		srv := lb.servers[m.ID]
		snap := ServerSnapshot{
			ID:        m.ID,
			Documents: srv.Documents(),
			QueueLen:  srv.QueueLen(),
			CacheKeys: srv.CacheKeys(),
			Stats:     srv.Stats(),
		}
		for i, h := range m.Hashes {
			snap.Replicas = append(snap.Replicas, ReplicaInfo{
				Index: i,
				Label: message.ReplicaLabel(m.ID, i),
				Hash:  h,
			})
		}
		snaps = append(snaps, snap)
	}
	return snaps
}
