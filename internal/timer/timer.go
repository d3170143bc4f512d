// Package timer implements the per-question countdown.
//
// A Countdown is either Idle (holding its last set value), Running (losing
// one second per second of clock time) or Expired (ran down to zero and
// stopped itself). All transitions happen under one mutex, so a tick never
// interleaves with a command.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Mode selects the countdown duration.
type Mode string

const (
	ModeTossup Mode = "tossup"
	ModeBonus  Mode = "bonus"
)

// Full durations in seconds.
const (
	TossupSeconds = 7
	BonusSeconds  = 20
)

// Seconds returns the full duration of a mode. Unknown modes count as tossup.
func (m Mode) Seconds() int {
	if m == ModeBonus {
		return BonusSeconds
	}
	return TossupSeconds
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeTossup || m == ModeBonus
}

// Status is the countdown state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusExpired Status = "expired"
)

// Band classifies progress for display.
type Band string

const (
	BandGreen  Band = "green"
	BandYellow Band = "yellow"
	BandOrange Band = "orange"
)

// BandFor classifies a progress fraction.
func BandFor(progress float64) Band {
	switch {
	case progress > 0.5:
		return BandGreen
	case progress > 0.25:
		return BandYellow
	default:
		return BandOrange
	}
}

// State is a point-in-time copy of a Countdown.
type State struct {
	Mode      Mode   `json:"mode"`
	Remaining int    `json:"remaining"`
	Full      int    `json:"full"`
	Status    Status `json:"status"`
}

// Running reports whether the countdown is ticking.
func (s State) Running() bool {
	return s.Status == StatusRunning
}

// Progress is Remaining/Full clamped to [0,1].
func (s State) Progress() float64 {
	if s.Full <= 0 {
		return 0
	}
	p := float64(s.Remaining) / float64(s.Full)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Band classifies the current progress.
func (s State) Band() Band {
	return BandFor(s.Progress())
}

// Countdown is the question timer. The zero value is not usable; call New.
type Countdown struct {
	clock clockwork.Clock

	mu        sync.Mutex
	mode      Mode
	remaining int
	status    Status
	epoch     uint64 // bumped on every entry into Running
	onExpire  func()

	wake    chan struct{}
	changes chan struct{}
}

// New returns an idle tossup countdown. A nil clock means the real clock.
func New(clock clockwork.Clock) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{
		clock:     clock,
		mode:      ModeTossup,
		remaining: TossupSeconds,
		status:    StatusIdle,
		wake:      make(chan struct{}, 1),
		changes:   make(chan struct{}, 1),
	}
}

// OnExpire registers the callback fired once each time the countdown runs
// out. It is called without the lock held.
func (c *Countdown) OnExpire(fn func()) {
	c.mu.Lock()
	c.onExpire = fn
	c.mu.Unlock()
}

// Changes signals after every state change. Signals coalesce.
func (c *Countdown) Changes() <-chan struct{} {
	return c.changes
}

// Start sets the mode, restores its full duration and starts ticking.
func (c *Countdown) Start(mode Mode) {
	if !mode.Valid() {
		mode = ModeTossup
	}
	c.mu.Lock()
	c.mode = mode
	c.remaining = mode.Seconds()
	c.status = StatusRunning
	c.epoch++
	c.mu.Unlock()
	c.notify(true)
}

// Pause stops ticking without touching the remaining value.
func (c *Countdown) Pause() {
	c.mu.Lock()
	if c.status != StatusRunning {
		c.mu.Unlock()
		return
	}
	c.status = StatusIdle
	c.mu.Unlock()
	c.notify(true)
}

// Reset stops and restores the current mode's full duration.
func (c *Countdown) Reset() {
	c.mu.Lock()
	c.remaining = c.mode.Seconds()
	c.status = StatusIdle
	c.mu.Unlock()
	c.notify(true)
}

// SwitchMode stops and loads the new mode's full duration, whatever the
// current state.
func (c *Countdown) SwitchMode(mode Mode) {
	if !mode.Valid() {
		mode = ModeTossup
	}
	c.mu.Lock()
	c.mode = mode
	c.remaining = mode.Seconds()
	c.status = StatusIdle
	c.mu.Unlock()
	c.notify(true)
}

// Tick removes one second. It has no effect unless the countdown is
// running. It reports whether this tick expired the countdown.
func (c *Countdown) Tick() bool {
	return c.tick(0, false)
}

func (c *Countdown) tick(epoch uint64, checkEpoch bool) bool {
	c.mu.Lock()
	if c.status != StatusRunning || (checkEpoch && epoch != c.epoch) {
		c.mu.Unlock()
		return false
	}

	c.remaining--
	expired := false
	if c.remaining <= 0 {
		c.remaining = 0
		c.status = StatusExpired
		expired = true
	}
	cb := c.onExpire
	c.mu.Unlock()

	c.notify(expired)
	if expired && cb != nil {
		cb()
	}
	return expired
}

// Snapshot returns the current state.
func (c *Countdown) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Mode:      c.mode,
		Remaining: c.remaining,
		Full:      c.mode.Seconds(),
		Status:    c.status,
	}
}

// Progress is the remaining fraction of the full duration.
func (c *Countdown) Progress() float64 {
	return c.Snapshot().Progress()
}

// Band classifies the current progress.
func (c *Countdown) Band() Band {
	return c.Snapshot().Band()
}

// notify signals watchers. When runState is set the Run loop is also woken
// to re-evaluate its ticker.
func (c *Countdown) notify(runState bool) {
	if runState {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func (c *Countdown) runState() (bool, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == StatusRunning, c.epoch
}

// Run drives ticks from the clock until ctx is done. A fresh one-second
// ticker is created on every entry into Running, so the first tick lands
// one second after Start. Ticks left over from an earlier run are ignored.
func (c *Countdown) Run(ctx context.Context) error {
	var (
		ticker clockwork.Ticker
		tickCh <-chan time.Time
		epoch  uint64
	)
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickCh = nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-c.wake:
			running, current := c.runState()
			switch {
			case !running:
				stop()
			case ticker == nil || current != epoch:
				stop()
				epoch = current
				ticker = c.clock.NewTicker(time.Second)
				tickCh = ticker.Chan()
			}

		case <-tickCh:
			c.tick(epoch, true)
		}
	}
}
