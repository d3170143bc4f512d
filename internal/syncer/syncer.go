// Package syncer keeps the engine's mirrors in step with the backend.
//
// Two channels feed the engine: a pull loop that fetches game and bracket on
// a cadence set by the session's privilege, and a push subscription that
// replaces the bracket whenever the server announces one. Both submit
// transitions to the engine; neither writes state directly.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/stream"
)

// Default pull cadences.
const (
	DefaultOperatorInterval = 1200 * time.Millisecond
	DefaultViewerInterval   = 5000 * time.Millisecond
)

// Fetcher reads the backend. *api.Client implements it.
type Fetcher interface {
	Game(ctx context.Context) (*model.GameState, error)
	Bracket(ctx context.Context) (*model.BracketState, error)
}

// Config holds the pull cadences.
type Config struct {
	OperatorInterval time.Duration
	ViewerInterval   time.Duration
}

func (c Config) withDefaults() Config {
	if c.OperatorInterval <= 0 {
		c.OperatorInterval = DefaultOperatorInterval
	}
	if c.ViewerInterval <= 0 {
		c.ViewerInterval = DefaultViewerInterval
	}
	return c
}

// Synchronizer drives the pull and push channels of one session.
type Synchronizer struct {
	engine *engine.Engine
	fetch  Fetcher
	push   stream.Subscriber // nil disables the push channel
	clock  clockwork.Clock
	cfg    Config
	logger *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock sets the clock that drives the pull ticker.
func WithClock(c clockwork.Clock) Option {
	return func(s *Synchronizer) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = l
	}
}

// WithPush enables the push channel.
func WithPush(sub stream.Subscriber) Option {
	return func(s *Synchronizer) {
		s.push = sub
	}
}

// New creates a Synchronizer writing into e.
func New(e *engine.Engine, fetch Fetcher, cfg Config, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		engine: e,
		fetch:  fetch,
		clock:  clockwork.NewRealClock(),
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the pull cadence for a privilege level.
func (s *Synchronizer) Interval(privileged bool) time.Duration {
	if privileged {
		return s.cfg.OperatorInterval
	}
	return s.cfg.ViewerInterval
}

// Run pulls once immediately, then keeps pulling on the cadence and
// consuming the push stream until ctx is done. It returns only after the
// ticker is stopped and the push goroutine has exited.
func (s *Synchronizer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if s.push != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runPush(ctx)
		}()
	}

	s.pullAll(ctx)

	privileged := s.engine.Snapshot().Privileged
	interval := s.Interval(privileged)
	ticker := s.clock.NewTicker(interval)

	s.logger.Debug("pull loop started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			cancel()
			wg.Wait()
			s.logger.Debug("synchronizer stopped")
			return nil

		case <-ticker.Chan():
			s.pullAll(ctx)

			// Cadence follows privilege; a change restarts the ticker.
			if now := s.engine.Snapshot().Privileged; now != privileged {
				privileged = now
				interval = s.Interval(privileged)
				ticker.Reset(interval)
				s.logger.Debug("pull cadence changed", "interval", interval, "privileged", privileged)
			}
		}
	}
}

func (s *Synchronizer) pullAll(ctx context.Context) {
	if err := s.PullGame(ctx); err != nil && ctx.Err() == nil {
		s.logger.Debug("game pull failed", "error", err)
	}
	if err := s.PullBracket(ctx); err != nil && ctx.Err() == nil {
		s.logger.Debug("bracket pull failed", "error", err)
	}
}
