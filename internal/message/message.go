package message

import "fmt"

const (
	// ReplicaOffset separates the replica index from the server id inside a
	// replica label. Server ids must stay below it.
	ReplicaOffset = 100000
	// MaxReplicas is the replica count of a server when virtual nodes are enabled.
	MaxReplicas = 3
)

// ReplicaLabel encodes a (server, replica) pair as serverID + replica*ReplicaOffset.
func ReplicaLabel(serverID uint32, replica int) uint32 {
	return serverID + uint32(replica)*ReplicaOffset
}

// SplitLabel is the inverse of ReplicaLabel.
func SplitLabel(label uint32) (serverID uint32, replica int) {
	return label % ReplicaOffset, int(label / ReplicaOffset)
}

// Kind is the request type.
type Kind int

const (
	Edit Kind = iota
	Get
)

func (k Kind) String() string {
	switch k {
	case Edit:
		return "EDIT"
	case Get:
		return "GET"
	default:
		return "UNKNOWN"
	}
}

// ParseKind converts "EDIT" or "GET" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "EDIT", "edit":
		return Edit, nil
	case "GET", "get":
		return Get, nil
	default:
		return 0, fmt.Errorf("unknown request kind %q", s)
	}
}

// Request is a caller-submitted operation on one document.
type Request struct {
	Kind       Kind
	DocName    string
	DocContent string // EDIT only
	// ReplicaIndex is stamped by the router.
	ReplicaIndex int
}

// OutcomeKind categorizes what a server did with a request.
type OutcomeKind int

const (
	Created OutcomeKind = iota
	Edited
	Hit
	Miss
	Evict
	Fault
	Queued
	Rejected
)

func (k OutcomeKind) String() string {
	switch k {
	case Created:
		return "CREATED"
	case Edited:
		return "EDITED"
	case Hit:
		return "HIT"
	case Miss:
		return "MISS"
	case Evict:
		return "EVICT"
	case Fault:
		return "FAULT"
	case Queued:
		return "QUEUED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// ParseOutcomeKind is the inverse of OutcomeKind.String.
func ParseOutcomeKind(s string) (OutcomeKind, error) {
	for k := Created; k <= Rejected; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// Outcome is the categorical result of a request. EvictedKey is set for
// Evict and QueueLen for Queued and Rejected.
type Outcome struct {
	Kind       OutcomeKind
	EvictedKey string
	QueueLen   int
}

func (o Outcome) String() string {
	switch o.Kind {
	case Evict:
		return fmt.Sprintf("EVICT(%s)", o.EvictedKey)
	case Queued, Rejected:
		return fmt.Sprintf("%s(%d)", o.Kind, o.QueueLen)
	default:
		return o.Kind.String()
	}
}

// EditResult records the application of one queued edit.
type EditResult struct {
	Label   uint32
	DocName string
	// Outcome is Created or Edited.
	Outcome Outcome
	// Cache is the cache effect of writing the new content: Hit, Miss or Evict.
	Cache Outcome
}

// Response is what a server returns for a request.
type Response struct {
	Label   uint32
	Outcome Outcome
	// Payload holds the document content for a successful GET.
	Payload string
	// Applied lists the queued edits a GET drained before it was served.
	Applied []EditResult
}

// HasPayload reports whether the response carries document content.
func (r Response) HasPayload() bool {
	switch r.Outcome.Kind {
	case Hit, Miss, Evict:
		return true
	default:
		return false
	}
}
