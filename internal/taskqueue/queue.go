package taskqueue

// DefaultCapacity is the number of edits a server queues before dropping.
const DefaultCapacity = 1000

// PendingEdit is a queued (name, content) pair.
type PendingEdit struct {
	Name    string
	Content string
}

// Queue is a bounded FIFO of pending edits.
// It is not safe for concurrent use; the owning server serializes access.
type Queue struct {
	capacity int
	edits    []PendingEdit
}

// New creates a queue that holds at most capacity edits. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{capacity: capacity}
}

// Push appends an edit. It returns false, leaving the queue unchanged, when
// the queue is full.
func (q *Queue) Push(edit PendingEdit) bool {
	if len(q.edits) >= q.capacity {
		return false
	}
	q.edits = append(q.edits, edit)
	return true
}

// Peek returns the oldest pending edit.
func (q *Queue) Peek() (PendingEdit, bool) {
	if len(q.edits) == 0 {
		return PendingEdit{}, false
	}
	return q.edits[0], true
}

// Drain removes and returns every pending edit in arrival order.
func (q *Queue) Drain() []PendingEdit {
	edits := q.edits
	q.edits = nil
	return edits
}

func (q *Queue) Len() int      { return len(q.edits) }
func (q *Queue) Cap() int      { return q.capacity }
func (q *Queue) IsEmpty() bool { return len(q.edits) == 0 }
