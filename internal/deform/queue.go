package deform

import "fmt"

// OverflowPolicy decides what a full queue does with a new stamp.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest pending stamp to make room.
	DropOldest OverflowPolicy = iota
	// Unbounded grows without limit.
	Unbounded
)

// DefaultQueueCapacity bounds the pending stamps between two ticks.
const DefaultQueueCapacity = 4096

// ParseOverflowPolicy parses a config value ("drop_oldest" or "unbounded").
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "drop_oldest":
		return DropOldest, nil
	case "unbounded":
		return Unbounded, nil
	}
	return DropOldest, fmt.Errorf("unknown overflow policy %q", s)
}

func (p OverflowPolicy) String() string {
	if p == Unbounded {
		return "unbounded"
	}
	return "drop_oldest"
}

// Queue is the FIFO of pending stamps. It is a ring buffer while bounded.
// Not safe for concurrent use.
type Queue struct {
	items    []Stamp
	head     int
	count    int
	capacity int
	policy   OverflowPolicy
	dropped  uint64
}

// NewQueue creates a queue. A capacity <= 0 or the Unbounded policy means no limit.
func NewQueue(capacity int, policy OverflowPolicy) *Queue {
	if capacity <= 0 {
		policy = Unbounded
	}
	q := &Queue{capacity: capacity, policy: policy}
	if policy == DropOldest {
		q.items = make([]Stamp, capacity)
	}
	return q
}

// Push appends a stamp. It reports whether an older stamp was evicted.
func (q *Queue) Push(s Stamp) (evicted bool) {
	if q.policy == Unbounded {
		q.items = append(q.items, s)
		q.count++
		return false
	}

	if q.count == q.capacity {
		q.items[q.head] = s
		q.head = (q.head + 1) % q.capacity
		q.dropped++
		return true
	}
	q.items[(q.head+q.count)%q.capacity] = s
	q.count++
	return false
}

// Len returns the number of pending stamps.
func (q *Queue) Len() int {
	return q.count
}

// Dropped returns how many stamps were evicted since creation.
func (q *Queue) Dropped() uint64 {
	return q.dropped
}

// Drain returns pending stamps oldest first and empties the queue.
func (q *Queue) Drain() []Stamp {
	if q.count == 0 {
		return nil
	}

	out := make([]Stamp, q.count)
	if q.policy == Unbounded {
		copy(out, q.items)
		q.items = q.items[:0]
	} else {
		for i := range out {
			out[i] = q.items[(q.head+i)%q.capacity]
		}
		q.head = 0
	}
	q.count = 0
	return out
}
