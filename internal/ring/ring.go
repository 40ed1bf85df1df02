package ring

import (
	"sync"
)

// Member is a server placed on the ring through its replica hashes.
type Member struct {
	ID     uint32
	Hashes []uint32
}

// Position identifies the replica responsible for a hash.
type Position struct {
	ServerID uint32
	Replica  int
	Hash     uint32
}

// Ring is a consistent hashing ring over server replicas.
type Ring struct {
	mu      sync.RWMutex
	members []Member
}

// NewRing creates an empty ring.
func NewRing() *Ring {
	return &Ring{}
}

// AddMember appends a member. Returns false if the id is already present.
func (r *Ring) AddMember(m Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(m.ID) >= 0 {
		return false // already exists
	}
	r.members = append(r.members, Member{
		ID:     m.ID,
		Hashes: append([]uint32(nil), m.Hashes...),
	})
	return true
}

// RemoveMember removes a member. Returns false if it was not present.
func (r *Ring) RemoveMember(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return false // doesn't exist
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	return true
}

// Locate returns the replica responsible for hash: the replica with the
// smallest hash strictly greater than it, or the globally smallest replica
// hash when the query wraps past the top of the ring. Equal replica hashes
// are resolved in favour of the smaller server id.
// Returns (Position{}, false) if the ring is empty.
func (r *Ring) Locate(hash uint32) (Position, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return locate(r.members, hash)
}

func locate(members []Member, hash uint32) (Position, bool) {
	var next, lowest Position
	foundNext, foundAny := false, false

	for _, m := range members {
		for replica, h := range m.Hashes {
			p := Position{ServerID: m.ID, Replica: replica, Hash: h}
			if h > hash && (!foundNext || precedes(p, next)) {
				next, foundNext = p, true
			}
			if !foundAny || precedes(p, lowest) {
				lowest, foundAny = p, true
			}
		}
	}

	if foundNext {
		return next, true
	}
	return lowest, foundAny
}

// precedes orders positions by hash, then by server id.
func precedes(a, b Position) bool {
	if a.Hash != b.Hash {
		return a.Hash < b.Hash
	}
	return a.ServerID < b.ServerID
}

// Members returns all members in insertion order.
func (r *Ring) Members() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, Member{ID: m.ID, Hashes: append([]uint32(nil), m.Hashes...)})
	}
	return members
}

// Has reports whether id is a member.
func (r *Ring) Has(id uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(id) >= 0
}

// Len returns the number of members.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Ring) indexOf(id uint32) int {
	for i, m := range r.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}
