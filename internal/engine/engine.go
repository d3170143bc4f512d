package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Engine is the single-writer state store of one client session.
//
// Thread-safety model:
//   - Enqueue(), Apply(), Snapshot(), Updates(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// INVARIANTS:
//   - events are applied in enqueue order
//   - a published Snapshot is never modified
//   - Revision strictly increases with every published change
type Engine struct {
	clock   *Clock
	queue   *eventQueue
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger

	updates  chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithPrivileged sets the initial privilege of the session.
func WithPrivileged(v bool) Option {
	return func(e *Engine) {
		s := *e.current.Load()
		s.Privileged = v
		e.current.Store(&s)
	}
}

// WithClock uses a pre-configured revision clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine with empty mirrors.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:   NewClock(),
		queue:   newEventQueue(),
		logger:  slog.Default(),
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	e.current.Store(&Snapshot{})

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Snapshot returns the latest published state.
func (e *Engine) Snapshot() Snapshot {
	return *e.current.Load()
}

// Updates signals after every published change. Signals coalesce, so a
// reader should always re-read Snapshot rather than count signals.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

// Enqueue submits an event without waiting for it to be applied.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	ev.reply = nil
	return e.queue.Enqueue(ev)
}

// Apply submits a transition and blocks until the Run loop has applied it.
// It returns the transition's error, ErrStopped if the engine stops first,
// or ctx.Err() if ctx is done first. In the last case the transition may
// still be applied later.
func (e *Engine) Apply(ctx context.Context, source Source, name string, fn Transition) error {
	reply := make(chan error, 1)
	if !e.queue.Enqueue(Event{Source: source, Name: name, Apply: fn, reply: reply}) {
		return ErrStopped
	}

	select {
	case err := <-reply:
		return err
	case <-e.done:
		// Run may have replied just before exiting.
		select {
		case err := <-reply:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueLen returns the number of pending events.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Done is closed when Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run starts the single-writer event loop.
// Blocks until ctx is cancelled or Stop() is called.
//
// A failing transition is rolled back, logged at debug level and reported
// to its Apply caller; the loop continues. Events still queued when the
// loop exits are answered with ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Debug("engine starting")
	defer e.shutdown()

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			e.process(event)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Debug("engine stopping: context cancelled")
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue; an empty closed
			// queue ends the loop.
			if e.queue.Len() == 0 && e.closed() {
				e.logger.Debug("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once the events queued before Stop
// have been applied.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) closed() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

func (e *Engine) shutdown() {
	e.queue.Close()
	for _, ev := range e.queue.Drain() {
		if ev.reply != nil {
			ev.reply <- ErrStopped
		}
	}
	e.doneOnce.Do(func() { close(e.done) })
}

// process applies one event.
// CRITICAL: called only from the Run goroutine.
func (e *Engine) process(ev Event) {
	var err error
	if ev.Apply != nil {
		cur := e.current.Load()
		tx := newTx(*cur)
		if err = ev.Apply(tx); err != nil {
			err = &TransitionError{Source: ev.Source, Name: ev.Name, Err: err}
			e.logger.Debug("transition rejected",
				"source", ev.Source,
				"event", ev.Name,
				"error", err,
			)
		} else if tx.changed {
			next := tx.next
			next.Revision = e.clock.Next()
			e.current.Store(&next)
			e.logger.Debug("snapshot published",
				"source", ev.Source,
				"event", ev.Name,
				"revision", next.Revision,
			)
			select {
			case e.updates <- struct{}{}:
			default:
			}
		}
	}

	if ev.reply != nil {
		ev.reply <- err
	}
}
