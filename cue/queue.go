package cue

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a dispatch state of a Queue.
type State int

const (
	// StateIdle means dispatch has not started.
	StateIdle State = iota
	// StateAwaitingItem means an item is in flight and the queue is
	// waiting for its completion signal.
	StateAwaitingItem
	// StateSpacing means the queue is waiting out the inter-item gap.
	StateSpacing
	// StateCanceled means the queue was canceled; nothing further is
	// dispatched even if items remain.
	StateCanceled
	// StateDrained means every item completed.
	StateDrained
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingItem:
		return "awaiting-item"
	case StateSpacing:
		return "spacing"
	case StateCanceled:
		return "canceled"
	case StateDrained:
		return "drained"
	default:
		return "unknown"
	}
}

// Queue is one narration request in flight. At most one queue per
// sequencer is active; starting a new one cancels the previous.
type Queue struct {
	// ID correlates notifications and logs with one narration request.
	ID string

	mu         sync.Mutex
	items      []Item
	state      State
	spacing    time.Duration
	canceled   chan struct{}
	cancelOnce sync.Once
}

func newQueue(items []Item, spacing time.Duration) *Queue {
	return &Queue{
		ID:       uuid.NewString(),
		items:    items,
		state:    StateIdle,
		spacing:  spacing,
		canceled: make(chan struct{}),
	}
}

// Cancel marks the queue inactive and empties its remaining items. An
// item already in flight finishes naturally but its completion dispatches
// nothing further.
func (q *Queue) Cancel() {
	q.cancelOnce.Do(func() {
		q.mu.Lock()
		q.state = StateCanceled
		q.items = nil
		q.mu.Unlock()
		close(q.canceled)
	})
}

// Active reports whether the queue may still dispatch items.
func (q *Queue) Active() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state != StateCanceled && q.state != StateDrained
}

// State returns the current dispatch state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Spacing returns the inter-item gap.
func (q *Queue) Spacing() time.Duration {
	return q.spacing
}

// Remaining returns the number of items not yet dispatched.
func (q *Queue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Done returns a channel closed when the queue is canceled.
func (q *Queue) Done() <-chan struct{} {
	return q.canceled
}

// pop removes and returns the head item, moving the queue to
// StateAwaitingItem. Returns false when the queue is canceled or empty;
// an empty queue is marked drained.
func (q *Queue) pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state == StateCanceled {
		return Item{}, false
	}
	if len(q.items) == 0 {
		q.state = StateDrained
		return Item{}, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.state = StateAwaitingItem
	return item, true
}

// setState transitions the queue unless it was canceled in the meantime.
func (q *Queue) setState(s State) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != StateCanceled {
		q.state = s
	}
}
