package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docring/internal/message"
	"docring/internal/storage"
)

// stubHasher places documents and replica labels at fixed positions.
type stubHasher struct {
	docs     map[string]uint32
	replicas map[uint32]uint32
}

func (h stubHasher) Document(name string) uint32 { return h.docs[name] }
func (h stubHasher) Replica(label uint32) uint32 { return h.replicas[label] }

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Replicas == 0 {
		cfg.Replicas = 1
	}
	if cfg.CacheCapacity == 0 {
		cfg.CacheCapacity = 2
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func edit(name, content string) message.Request {
	return message.Request{Kind: message.Edit, DocName: name, DocContent: content}
}

func get(name string) message.Request {
	return message.Request{Kind: message.Get, DocName: name}
}

func TestNew_ReplicaCount(t *testing.T) {
	single := newTestServer(t, Config{ID: 4, Replicas: 1})
	assert.Len(t, single.Replicas(), 1)

	virtual := newTestServer(t, Config{ID: 4, Replicas: message.MaxReplicas})
	assert.Len(t, virtual.Replicas(), 3)

	_, err := New(Config{ID: 4, Replicas: 2, CacheCapacity: 1})
	assert.Error(t, err)
	_, err = New(Config{ID: 4, Replicas: 1, CacheCapacity: 0})
	assert.Error(t, err)
}

func TestNew_ReplicaHashesUseLabels(t *testing.T) {
	h := stubHasher{replicas: map[uint32]uint32{7: 70, 100007: 170, 200007: 270}}
	s := newTestServer(t, Config{ID: 7, Replicas: 3, Hasher: h})
	assert.Equal(t, []uint32{70, 170, 270}, s.Replicas())
	assert.Equal(t, uint32(170), s.ReplicaHash(1))
}

func TestReplicaExecutor(t *testing.T) {
	h := stubHasher{replicas: map[uint32]uint32{1: 500, 100001: 100, 200001: 300}}
	s := newTestServer(t, Config{ID: 1, Replicas: 3, Hasher: h})

	tests := []struct {
		hash uint32
		want int
	}{
		{hash: 50, want: 1},  // below everything -> 100
		{hash: 100, want: 2}, // strictly greater -> 300
		{hash: 299, want: 2},
		{hash: 300, want: 0}, // -> 500
		{hash: 500, want: 1}, // wraps to the smallest -> 100
		{hash: 900, want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.ReplicaExecutor(tt.hash), "hash %d", tt.hash)
	}
}

func TestHandleRequest_EditIsLazy(t *testing.T) {
	s := newTestServer(t, Config{ID: 2})

	res := s.HandleRequest(edit("x", "v1"))
	assert.Equal(t, message.Outcome{Kind: message.Queued, QueueLen: 1}, res.Outcome)
	assert.Equal(t, uint32(2), res.Label)
	assert.False(t, res.HasPayload())

	res = s.HandleRequest(edit("x", "v2"))
	assert.Equal(t, 2, res.Outcome.QueueLen)

	assert.Empty(t, s.Documents(), "edits must not touch the store before a drain")
	assert.Empty(t, s.CacheKeys())
	assert.Equal(t, 2, s.QueueLen())
}

func TestHandleRequest_GetDrainsInOrder(t *testing.T) {
	s := newTestServer(t, Config{ID: 1})
	s.HandleRequest(edit("x", "v1"))
	s.HandleRequest(edit("x", "v2"))

	res := s.HandleRequest(get("x"))
	require.Len(t, res.Applied, 2)
	assert.Equal(t, message.Created, res.Applied[0].Outcome.Kind)
	assert.Equal(t, message.Miss, res.Applied[0].Cache.Kind)
	assert.Equal(t, message.Edited, res.Applied[1].Outcome.Kind)
	assert.Equal(t, message.Hit, res.Applied[1].Cache.Kind)

	assert.Equal(t, message.Hit, res.Outcome.Kind)
	assert.Equal(t, "v2", res.Payload)
	assert.Equal(t, 0, s.QueueLen())

	doc := s.Documents()
	require.Len(t, doc, 1)
	assert.Equal(t, "v2", doc[0].Content)
}

func TestHandleRequest_GetOutcomes(t *testing.T) {
	s := newTestServer(t, Config{ID: 1, CacheCapacity: 2})

	res := s.HandleRequest(get("missing"))
	assert.Equal(t, message.Fault, res.Outcome.Kind)
	assert.Empty(t, res.Payload)
	assert.False(t, res.HasPayload())

	for _, name := range []string{"a", "b", "c"} {
		s.HandleRequest(edit(name, "content-"+name))
	}
	res = s.HandleRequest(get("c"))
	assert.Equal(t, message.Hit, res.Outcome.Kind)
	// drain cached a then b then c; c evicted a
	require.Len(t, res.Applied, 3)
	assert.Equal(t, message.Outcome{Kind: message.Evict, EvictedKey: "a"}, res.Applied[2].Cache)
	assert.Equal(t, []string{"b", "c"}, s.CacheKeys())

	res = s.HandleRequest(get("a"))
	assert.Equal(t, message.Outcome{Kind: message.Evict, EvictedKey: "b"}, res.Outcome)
	assert.Equal(t, "content-a", res.Payload)
	assert.Nil(t, res.Applied)

	s.Extract(func(d storage.Document) bool { return d.Name == "c" })
	res = s.HandleRequest(get("b"))
	assert.Equal(t, message.Miss, res.Outcome.Kind)
	assert.Equal(t, "content-b", res.Payload)
}

func TestHandleRequest_QueueOverflow(t *testing.T) {
	t.Run("silent drop", func(t *testing.T) {
		s := newTestServer(t, Config{ID: 1, QueueCapacity: 2})
		s.HandleRequest(edit("a", "1"))
		s.HandleRequest(edit("b", "2"))

		res := s.HandleRequest(edit("c", "3"))
		assert.Equal(t, message.Outcome{Kind: message.Queued, QueueLen: 2}, res.Outcome)
		assert.Equal(t, uint64(1), s.Stats().Dropped)

		res = s.HandleRequest(get("c"))
		assert.Equal(t, message.Fault, res.Outcome.Kind)
	})

	t.Run("reject", func(t *testing.T) {
		s := newTestServer(t, Config{ID: 1, QueueCapacity: 1, RejectOverflow: true})
		s.HandleRequest(edit("a", "1"))
		res := s.HandleRequest(edit("b", "2"))
		assert.Equal(t, message.Outcome{Kind: message.Rejected, QueueLen: 1}, res.Outcome)
	})
}

func TestHandleRequest_LabelFollowsReplica(t *testing.T) {
	s := newTestServer(t, Config{ID: 9, Replicas: 3})
	req := edit("x", "v")
	req.ReplicaIndex = 2
	res := s.HandleRequest(req)
	assert.Equal(t, uint32(200009), res.Label)

	g := get("x")
	g.ReplicaIndex = 1
	res = s.HandleRequest(g)
	assert.Equal(t, uint32(100009), res.Label)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, uint32(100009), res.Applied[0].Label)
}

func TestNewDocumentOwnerUsesLocalRule(t *testing.T) {
	h := stubHasher{
		docs:     map[string]uint32{"low": 10, "mid": 200, "high": 999},
		replicas: map[uint32]uint32{1: 500, 100001: 100, 200001: 300},
	}
	s := newTestServer(t, Config{ID: 1, Replicas: 3, Hasher: h, CacheCapacity: 4})
	for _, name := range []string{"low", "mid", "high"} {
		s.HandleRequest(edit(name, name))
	}
	s.Drain(0)

	owners := make(map[string]int)
	for _, d := range s.Documents() {
		owners[d.Name] = d.OwnerReplica
	}
	assert.Equal(t, map[string]int{"low": 1, "mid": 2, "high": 1}, owners)
}

func TestExtractInvalidatesCache(t *testing.T) {
	s := newTestServer(t, Config{ID: 1, CacheCapacity: 4})
	for i := 0; i < 3; i++ {
		s.HandleRequest(edit(fmt.Sprintf("d%d", i), "v"))
	}
	s.Drain(0)
	require.Len(t, s.CacheKeys(), 3)

	moved := s.Extract(func(d storage.Document) bool { return d.Name != "d1" })
	assert.Len(t, moved, 2)
	assert.Equal(t, []string{"d1"}, s.CacheKeys())

	s.Adopt(moved...)
	assert.Len(t, s.Documents(), 3)
	assert.Equal(t, []string{"d1"}, s.CacheKeys(), "adopting must not warm the cache")

	assert.Len(t, s.ExtractAll(), 3)
	assert.Empty(t, s.CacheKeys())
}

func TestReassignOwners(t *testing.T) {
	h := stubHasher{replicas: map[uint32]uint32{1: 500, 100001: 100, 200001: 300}}
	s := newTestServer(t, Config{ID: 1, Replicas: 3, Hasher: h})
	s.Adopt(
		storage.Document{Name: "a", NameHash: 150, OwnerReplica: 0},
		storage.Document{Name: "b", NameHash: 600, OwnerReplica: 2},
	)

	s.ReassignOwners()

	docs := s.Documents()
	assert.Equal(t, 2, docs[0].OwnerReplica)
	assert.Equal(t, 1, docs[1].OwnerReplica)
}
