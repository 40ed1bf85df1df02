package rpc

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"docring/internal/balancer"
	"docring/internal/message"
	"docring/internal/server"
	"docring/internal/storage"
)

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func intField(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}

func uint64Field(s *structpb.Struct, key string) uint64 {
	return uint64(s.GetFields()[key].GetNumberValue())
}

// uint32Field reads a required non-negative integer.
func uint32Field(s *structpb.Struct, key string) (uint32, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, fmt.Errorf("field %q is not a number", key)
	}
	f := n.NumberValue
	if f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0, fmt.Errorf("field %q: %v is not a valid uint32", key, f)
	}
	return uint32(f), nil
}

func listField(s *structpb.Struct, key string) []*structpb.Value {
	return s.GetFields()[key].GetListValue().GetValues()
}

func requestToStruct(req message.Request) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"kind":    req.Kind.String(),
		"name":    req.DocName,
		"content": req.DocContent,
	})
}

func structToRequest(s *structpb.Struct) (message.Request, error) {
	kind, err := message.ParseKind(stringField(s, "kind"))
	if err != nil {
		return message.Request{}, err
	}
	return message.Request{
		Kind:       kind,
		DocName:    stringField(s, "name"),
		DocContent: stringField(s, "content"),
	}, nil
}

func outcomeToMap(o message.Outcome) map[string]any {
	return map[string]any{
		"kind":      o.Kind.String(),
		"evicted":   o.EvictedKey,
		"queue_len": o.QueueLen,
	}
}

func structToOutcome(s *structpb.Struct) (message.Outcome, error) {
	kind, err := message.ParseOutcomeKind(stringField(s, "kind"))
	if err != nil {
		return message.Outcome{}, err
	}
	return message.Outcome{
		Kind:       kind,
		EvictedKey: stringField(s, "evicted"),
		QueueLen:   intField(s, "queue_len"),
	}, nil
}

func responseToStruct(res message.Response) (*structpb.Struct, error) {
	applied := make([]any, 0, len(res.Applied))
	for _, r := range res.Applied {
		applied = append(applied, map[string]any{
			"label":   r.Label,
			"name":    r.DocName,
			"outcome": outcomeToMap(r.Outcome),
			"cache":   outcomeToMap(r.Cache),
		})
	}
	return structpb.NewStruct(map[string]any{
		"label":   res.Label,
		"outcome": outcomeToMap(res.Outcome),
		"payload": res.Payload,
		"applied": applied,
	})
}

func structToResponse(s *structpb.Struct) (message.Response, error) {
	outcome, err := structToOutcome(s.GetFields()["outcome"].GetStructValue())
	if err != nil {
		return message.Response{}, err
	}
	res := message.Response{
		Label:   uint32(uint64Field(s, "label")),
		Outcome: outcome,
		Payload: stringField(s, "payload"),
	}
	for _, v := range listField(s, "applied") {
		entry := v.GetStructValue()
		o, err := structToOutcome(entry.GetFields()["outcome"].GetStructValue())
		if err != nil {
			return message.Response{}, err
		}
		c, err := structToOutcome(entry.GetFields()["cache"].GetStructValue())
		if err != nil {
			return message.Response{}, err
		}
		res.Applied = append(res.Applied, message.EditResult{
			Label:   uint32(uint64Field(entry, "label")),
			DocName: stringField(entry, "name"),
			Outcome: o,
			Cache:   c,
		})
	}
	return res, nil
}

func serversToStruct(ids []uint32) (*structpb.Struct, error) {
	list := make([]any, len(ids))
	for i, id := range ids {
		list[i] = id
	}
	return structpb.NewStruct(map[string]any{"servers": list})
}

func structToServers(s *structpb.Struct) ([]uint32, error) {
	values := listField(s, "servers")
	ids := make([]uint32, 0, len(values))
	for _, v := range values {
		ids = append(ids, uint32(v.GetNumberValue()))
	}
	return ids, nil
}

func snapshotToStruct(snaps []balancer.ServerSnapshot) (*structpb.Struct, error) {
	servers := make([]any, 0, len(snaps))
	for _, snap := range snaps {
		replicas := make([]any, 0, len(snap.Replicas))
		for _, r := range snap.Replicas {
			replicas = append(replicas, map[string]any{
				"index": r.Index,
				"label": r.Label,
				"hash":  r.Hash,
			})
		}
		docs := make([]any, 0, len(snap.Documents))
		for _, d := range snap.Documents {
			docs = append(docs, map[string]any{
				"name":          d.Name,
				"content":       d.Content,
				"name_hash":     d.NameHash,
				"owner_replica": d.OwnerReplica,
			})
		}
		keys := make([]any, 0, len(snap.CacheKeys))
		for _, k := range snap.CacheKeys {
			keys = append(keys, k)
		}
		servers = append(servers, map[string]any{
			"id":         snap.ID,
			"replicas":   replicas,
			"documents":  docs,
			"queue_len":  snap.QueueLen,
			"cache_keys": keys,
			"stats": map[string]any{
				"hits":      snap.Stats.Hits,
				"misses":    snap.Stats.Misses,
				"evictions": snap.Stats.Evictions,
				"faults":    snap.Stats.Faults,
				"queued":    snap.Stats.Queued,
				"dropped":   snap.Stats.Dropped,
				"applied":   snap.Stats.Applied,
			},
		})
	}
	return structpb.NewStruct(map[string]any{"servers": servers})
}

func structToSnapshot(s *structpb.Struct) ([]balancer.ServerSnapshot, error) {
	values := listField(s, "servers")
	snaps := make([]balancer.ServerSnapshot, 0, len(values))
	for _, v := range values {
		entry := v.GetStructValue()
		if entry == nil {
			return nil, fmt.Errorf("snapshot entry is not a struct")
		}
		snap := balancer.ServerSnapshot{
			ID:       uint32(uint64Field(entry, "id")),
			QueueLen: intField(entry, "queue_len"),
		}
		for _, r := range listField(entry, "replicas") {
			rs := r.GetStructValue()
			snap.Replicas = append(snap.Replicas, balancer.ReplicaInfo{
				Index: intField(rs, "index"),
				Label: uint32(uint64Field(rs, "label")),
				Hash:  uint32(uint64Field(rs, "hash")),
			})
		}
		for _, d := range listField(entry, "documents") {
			ds := d.GetStructValue()
			snap.Documents = append(snap.Documents, storage.Document{
				Name:         stringField(ds, "name"),
				Content:      stringField(ds, "content"),
				NameHash:     uint32(uint64Field(ds, "name_hash")),
				OwnerReplica: intField(ds, "owner_replica"),
			})
		}
		for _, k := range listField(entry, "cache_keys") {
			snap.CacheKeys = append(snap.CacheKeys, k.GetStringValue())
		}
		stats := entry.GetFields()["stats"].GetStructValue()
		snap.Stats = server.Stats{
			Hits:      uint64Field(stats, "hits"),
			Misses:    uint64Field(stats, "misses"),
			Evictions: uint64Field(stats, "evictions"),
			Faults:    uint64Field(stats, "faults"),
			Queued:    uint64Field(stats, "queued"),
			Dropped:   uint64Field(stats, "dropped"),
			Applied:   uint64Field(stats, "applied"),
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
