package engine

import "sync"

// Source names the producer of an event. It shows up in logs and lets
// tests assert on ordering.
type Source string

const (
	SourcePull    Source = "pull"
	SourcePush    Source = "push"
	SourceLocal   Source = "local"
	SourceControl Source = "control"
)

// Transition is applied by the Run loop to a transaction over the current
// snapshot. Returning an error discards every change made through tx.
type Transition func(tx *Tx) error

// Event is one unit of work for the Run loop.
type Event struct {
	Source Source
	Name   string // short label for logs, e.g. "game", "award-tossup"
	Apply  Transition

	reply chan error // set by Engine.Apply; nil for fire-and-forget events
}

// eventQueue is a thread-safe unbounded FIFO of events.
//
// Producers enqueue from any goroutine; the Run loop dequeues. A buffered
// signal channel lets the loop wait on the queue and on context
// cancellation at the same time.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	// Drop the slot's references so the backing array does not pin closures.
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// It is closed when the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops accepting events and wakes the waiter.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Drain removes and returns every queued event.
func (q *eventQueue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.events
	q.events = nil
	return out
}
