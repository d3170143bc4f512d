// Package optimistic simulates scoring locally for viewer sessions.
//
// A viewer has no authority to change the server's game, so its actions are
// applied to its own mirror instead. Each operation is one engine
// transaction: it reads the current mirror, builds a modified copy and
// publishes it, or leaves everything untouched.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/timer"
)

// ErrInvalidSide is returned for a side other than A or B.
var ErrInvalidSide = errors.New("side must be A or B")

// Store is the part of the engine the mutator writes through.
type Store interface {
	Apply(ctx context.Context, source engine.Source, name string, fn engine.Transition) error
}

// Timer is the part of the countdown the mutator resets.
type Timer interface {
	SwitchMode(mode timer.Mode)
}

// Mutator applies viewer-local scoring rules.
type Mutator struct {
	store  Store
	timer  Timer // may be nil
	clock  clockwork.Clock
	logger *slog.Logger
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithClock sets the clock history timestamps come from.
func WithClock(c clockwork.Clock) Option {
	return func(m *Mutator) {
		m.clock = c
	}
}

// WithTimer sets the countdown reset by AdvanceQuestion and ResetGame.
func WithTimer(t Timer) Option {
	return func(m *Mutator) {
		m.timer = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mutator) {
		m.logger = l
	}
}

// New creates a Mutator writing through store.
func New(store Store, opts ...Option) *Mutator {
	m := &Mutator{
		store:  store,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AwardTossup adds a tossup to side, synthesizing a default game if none
// has loaded yet.
func (m *Mutator) AwardTossup(ctx context.Context, side model.Side) error {
	if !side.Valid() {
		return fmt.Errorf("award tossup %q: %w", side, ErrInvalidSide)
	}
	return m.apply(ctx, "award-tossup", func(tx *engine.Tx) error {
		g := tx.Game().Clone()
		if g == nil {
			g = model.DefaultGame()
		}
		g.AddPoints(side, model.TossupPoints)
		g.LastTossupWinner = side
		g.History = append(g.History, m.event(g, model.EventTossup, side))
		tx.SetGame(g)
		return nil
	})
}

// AwardBonus adds a bonus to the last tossup winner. Without a loaded game
// or a tossup winner it does nothing.
func (m *Mutator) AwardBonus(ctx context.Context) error {
	return m.apply(ctx, "award-bonus", func(tx *engine.Tx) error {
		cur := tx.Game()
		if cur == nil || !cur.LastTossupWinner.Valid() {
			return nil
		}
		g := cur.Clone()
		side := g.LastTossupWinner
		g.AddPoints(side, model.TossupPoints)
		g.History = append(g.History, m.event(g, model.EventBonus, side))
		tx.SetGame(g)
		return nil
	})
}

// AdvanceQuestion moves to the next question and clears the tossup winner.
// The countdown is reset to tossup and stopped either way.
func (m *Mutator) AdvanceQuestion(ctx context.Context) error {
	err := m.apply(ctx, "advance", func(tx *engine.Tx) error {
		cur := tx.Game()
		if cur == nil {
			return nil
		}
		g := cur.Clone()
		g.QuestionNumber++
		g.LastTossupWinner = model.SideNone
		tx.SetGame(g)
		return nil
	})
	if err != nil {
		return err
	}
	m.resetTimer()
	return nil
}

// ResetGame replaces the local game with defaults and resets the countdown.
func (m *Mutator) ResetGame(ctx context.Context) error {
	err := m.apply(ctx, "reset", func(tx *engine.Tx) error {
		tx.SetGame(model.DefaultGame())
		return nil
	})
	if err != nil {
		return err
	}
	m.resetTimer()
	return nil
}

// RenameTeams renames both teams locally. Blank names fall back to the
// defaults when displayed.
func (m *Mutator) RenameTeams(ctx context.Context, a, b string) error {
	a, b = model.NormalizeName(a), model.NormalizeName(b)
	return m.apply(ctx, "rename", func(tx *engine.Tx) error {
		g := tx.Game().Clone()
		if g == nil {
			g = model.DefaultGame()
		}
		g.TeamAName = a
		g.TeamBName = b
		tx.SetGame(g)
		return nil
	})
}

func (m *Mutator) apply(ctx context.Context, name string, fn engine.Transition) error {
	if err := m.store.Apply(ctx, engine.SourceLocal, name, fn); err != nil {
		return fmt.Errorf("local %s: %w", name, err)
	}
	m.logger.Debug("local update applied", "event", name)
	return nil
}

// event builds a history entry stamped with the clock, never earlier than
// the newest entry already recorded.
func (m *Mutator) event(g *model.GameState, kind model.EventKind, side model.Side) model.HistoryEvent {
	ts := m.clock.Now().UnixMilli()
	if last := g.LastTimestamp(); ts < last {
		ts = last
	}

	label := "Tossup"
	if kind == model.EventBonus {
		label = "Bonus"
	}
	return model.HistoryEvent{
		Type:        kind,
		Description: fmt.Sprintf("%s +%d → %s", label, model.TossupPoints, g.Name(side)),
		Timestamp:   ts,
		Team:        side,
		Points:      model.TossupPoints,
	}
}

func (m *Mutator) resetTimer() {
	if m.timer != nil {
		m.timer.SwitchMode(timer.ModeTossup)
	}
}
