// Package control is the session facade behind the CLI.
//
// Every user action goes through a Controller, which routes it by the
// session's privilege: an operator's action is sent to the backend and
// followed by an immediate pull, a viewer's scoring action is simulated
// locally. Bracket administration is operator-only.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/api"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/bracket"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/cue"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/optimistic"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/timer"
)

// Backend is the write side of the API. *api.Client implements it.
type Backend interface {
	AwardTossup(ctx context.Context, side model.Side) error
	AwardBonus(ctx context.Context) error
	NextTossup(ctx context.Context) error
	ResetGame(ctx context.Context) error
	SetTeamNames(ctx context.Context, a, b string) error
	InitBracket(ctx context.Context, names []string) error
	ResetBracket(ctx context.Context) error
	SetCurrent(ctx context.Context, a, b model.ID) error
	FinalizeCurrent(ctx context.Context) error
}

// Puller refreshes the mirrors. *syncer.Synchronizer implements it.
type Puller interface {
	PullGame(ctx context.Context) error
	PullBracket(ctx context.Context) error
}

// Local simulates scoring for viewers. *optimistic.Mutator implements it.
type Local interface {
	AwardTossup(ctx context.Context, side model.Side) error
	AwardBonus(ctx context.Context) error
	AdvanceQuestion(ctx context.Context) error
	ResetGame(ctx context.Context) error
	RenameTeams(ctx context.Context, a, b string) error
}

// Timer is the countdown. *timer.Countdown implements it.
type Timer interface {
	Start(mode timer.Mode)
	Pause()
	Reset()
	SwitchMode(mode timer.Mode)
	Snapshot() timer.State
	OnExpire(fn func())
}

// Deps are the collaborators of a Controller. Cue and Logger are optional.
type Deps struct {
	Engine  *engine.Engine
	Backend Backend
	Puller  Puller
	Local   Local
	Timer   Timer
	Cue     cue.Player
	Logger  *slog.Logger
}

// Controller routes user actions for one session.
//
// Thread-safety: all methods are safe for concurrent use. State changes go
// through the engine; the controller itself only holds the pairing and
// focus selections.
type Controller struct {
	engine  *engine.Engine
	backend Backend
	puller  Puller
	local   Local
	timer   Timer
	cue     cue.Player
	logger  *slog.Logger

	mu           sync.Mutex
	pairA, pairB model.ID
	focus        model.ID
}

// New creates a Controller. The timer's expiration is wired to the
// timer-end cue.
func New(d Deps) *Controller {
	c := &Controller{
		engine:  d.Engine,
		backend: d.Backend,
		puller:  d.Puller,
		local:   d.Local,
		timer:   d.Timer,
		cue:     d.Cue,
		logger:  d.Logger,
	}
	if c.cue == nil {
		c.cue = cue.Discard{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.timer.OnExpire(func() { c.cue.Play(cue.TimerEnd) })
	return c
}

// Privileged reports whether the session currently acts as operator.
func (c *Controller) Privileged() bool {
	return c.engine.Snapshot().Privileged
}

// SetPrivileged switches the session between operator and viewer.
func (c *Controller) SetPrivileged(ctx context.Context, v bool) error {
	return c.engine.Apply(ctx, engine.SourceControl, "privilege", func(tx *engine.Tx) error {
		tx.SetPrivileged(v)
		return nil
	})
}

// --- scoring -------------------------------------------------------------

// AwardTossup awards a tossup to side.
func (c *Controller) AwardTossup(ctx context.Context, side model.Side) error {
	if !side.Valid() {
		return fmt.Errorf("award tossup %q: %w", side, optimistic.ErrInvalidSide)
	}
	if c.Privileged() {
		if err := c.write(ctx, "award tossup", MsgWriteFailed, func(ctx context.Context) error {
			return c.backend.AwardTossup(ctx, side)
		}); err != nil {
			return err
		}
		c.cue.Play(cue.Correct)
		c.pullGame(ctx)
		return nil
	}

	if err := c.local.AwardTossup(ctx, side); err != nil {
		return err
	}
	c.cue.Play(cue.Correct)
	return nil
}

// AwardBonus awards a bonus to the last tossup winner. For a viewer
// without a tossup winner nothing changes, but the cue still plays.
func (c *Controller) AwardBonus(ctx context.Context) error {
	if c.Privileged() {
		if err := c.write(ctx, "award bonus", MsgWriteFailed, c.backend.AwardBonus); err != nil {
			return err
		}
		c.cue.Play(cue.Bonus)
		c.pullGame(ctx)
		return nil
	}

	if err := c.local.AwardBonus(ctx); err != nil {
		return err
	}
	c.cue.Play(cue.Bonus)
	return nil
}

// NextTossup advances to the next question. The timer is reset to tossup
// on both paths.
func (c *Controller) NextTossup(ctx context.Context) error {
	if !c.Privileged() {
		return c.local.AdvanceQuestion(ctx)
	}

	if err := c.write(ctx, "next tossup", MsgWriteFailed, c.backend.NextTossup); err != nil {
		return err
	}
	c.timer.SwitchMode(timer.ModeTossup)
	c.pullGame(ctx)
	return nil
}

// ResetGame resets the game. An operator reset also resets the bracket
// and clears the pairing and focus selections.
func (c *Controller) ResetGame(ctx context.Context) error {
	if !c.Privileged() {
		return c.local.ResetGame(ctx)
	}

	err := c.write(ctx, "reset game", MsgResetFailed, func(ctx context.Context) error {
		if err := c.backend.ResetGame(ctx); err != nil {
			return err
		}
		return c.backend.ResetBracket(ctx)
	})
	if err != nil {
		return err
	}

	c.timer.SwitchMode(timer.ModeTossup)
	c.mu.Lock()
	c.pairA, c.pairB, c.focus = "", "", ""
	c.mu.Unlock()

	c.pullGame(ctx)
	c.pullBracket(ctx)
	return nil
}

// SaveTeamNames renames the two teams of the game.
func (c *Controller) SaveTeamNames(ctx context.Context, a, b string) error {
	if !c.Privileged() {
		return c.local.RenameTeams(ctx, a, b)
	}

	a, b = model.NormalizeName(a), model.NormalizeName(b)
	if err := c.write(ctx, "save team names", MsgWriteFailed, func(ctx context.Context) error {
		return c.backend.SetTeamNames(ctx, a, b)
	}); err != nil {
		return err
	}
	c.pullGame(ctx)
	return nil
}

// --- timer ---------------------------------------------------------------

// StartTimer starts a countdown in the given mode.
func (c *Controller) StartTimer(mode timer.Mode) { c.timer.Start(mode) }

// PauseTimer pauses the countdown.
func (c *Controller) PauseTimer() { c.timer.Pause() }

// ResetTimer refills the countdown for its current mode and stops it.
func (c *Controller) ResetTimer() { c.timer.Reset() }

// SwitchTimer changes the countdown mode and stops it.
func (c *Controller) SwitchTimer(mode timer.Mode) { c.timer.SwitchMode(mode) }

// Timer returns the countdown state.
func (c *Controller) Timer() timer.State { return c.timer.Snapshot() }

// --- bracket administration ----------------------------------------------

// InitBracket starts a bracket from newline-separated team names.
func (c *Controller) InitBracket(ctx context.Context, text string) error {
	if err := c.requireOperator("init bracket"); err != nil {
		return err
	}
	names := model.ParseTeamNames(text)
	if err := c.write(ctx, "init bracket", MsgWriteFailed, func(ctx context.Context) error {
		return c.backend.InitBracket(ctx, names)
	}); err != nil {
		return err
	}
	c.pullBracket(ctx)
	return nil
}

// ResetBracket clears the bracket and the pairing selection.
func (c *Controller) ResetBracket(ctx context.Context) error {
	if err := c.requireOperator("reset bracket"); err != nil {
		return err
	}
	if err := c.write(ctx, "reset bracket", MsgWriteFailed, c.backend.ResetBracket); err != nil {
		return err
	}
	c.mu.Lock()
	c.pairA, c.pairB = "", ""
	c.mu.Unlock()
	c.pullBracket(ctx)
	return nil
}

// SelectPair records the pairing to push. Empty ids clear a slot.
func (c *Controller) SelectPair(a, b model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairA, c.pairB = a, b
}

// Pairing returns the selected pairing, with empty slots filled from the
// first two available teams of the current bracket.
func (c *Controller) Pairing() (model.ID, model.ID) {
	c.mu.Lock()
	a, b := c.pairA, c.pairB
	c.mu.Unlock()
	return bracket.DefaultPairing(c.engine.Snapshot().Bracket, a, b)
}

// PushPairing makes the pairing the current match. It does nothing unless
// both teams are chosen.
func (c *Controller) PushPairing(ctx context.Context) error {
	if err := c.requireOperator("push pairing"); err != nil {
		return err
	}
	a, b := c.Pairing()
	if a == "" || b == "" {
		return nil
	}
	if err := c.write(ctx, "push pairing", MsgWriteFailed, func(ctx context.Context) error {
		return c.backend.SetCurrent(ctx, a, b)
	}); err != nil {
		return err
	}
	c.pullBracket(ctx)
	c.pullGame(ctx)
	return nil
}

// FinalizeCurrent records the result of the current match.
func (c *Controller) FinalizeCurrent(ctx context.Context) error {
	if err := c.requireOperator("finalize match"); err != nil {
		return err
	}
	if err := c.write(ctx, "finalize match", MsgWriteFailed, c.backend.FinalizeCurrent); err != nil {
		return err
	}
	c.pullBracket(ctx)
	return nil
}

// Focus selects the team whose next match is shown.
func (c *Controller) Focus(id model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus = id
}

// NextMatch returns the next match of the focused team, or nil.
func (c *Controller) NextMatch() *bracket.NextMatch {
	c.mu.Lock()
	id := c.focus
	c.mu.Unlock()
	return bracket.NextMatchForTeam(c.engine.Snapshot().Bracket, id)
}

// --- helpers -------------------------------------------------------------

func (c *Controller) requireOperator(op string) error {
	if c.Privileged() {
		return nil
	}
	return fmt.Errorf("%s: %w", op, ErrNotPermitted)
}

// write runs an operator call. A 401 or 403 answer demotes the session to
// viewer.
func (c *Controller) write(ctx context.Context, op, fallback string, call func(context.Context) error) error {
	err := call(ctx)
	if err == nil {
		return nil
	}

	uerr := &UserError{Op: op, Message: api.MessageOr(err, fallback), Err: err}
	if api.IsUnauthorized(err) {
		if derr := c.SetPrivileged(context.WithoutCancel(ctx), false); derr == nil {
			uerr.Demoted = true
		} else if !errors.Is(derr, engine.ErrStopped) {
			c.logger.Debug("demote failed", "error", derr)
		}
		c.logger.Warn("operator write rejected, session demoted", "op", op, "error", err)
	} else {
		c.logger.Debug("operator write failed", "op", op, "error", err)
	}
	return uerr
}

func (c *Controller) pullGame(ctx context.Context) {
	if err := c.puller.PullGame(ctx); err != nil {
		c.logger.Debug("game refresh failed", "error", err)
	}
}

func (c *Controller) pullBracket(ctx context.Context) {
	if err := c.puller.PullBracket(ctx); err != nil {
		c.logger.Debug("bracket refresh failed", "error", err)
	}
}
