// Package cue plays the short audible signals of a match.
package cue

import (
	"io"
	"sync"
)

// Kind names a cue.
type Kind string

const (
	Correct  Kind = "correct"
	Bonus    Kind = "bonus"
	TimerEnd Kind = "timer-end"
)

// Player plays cues. Play must not block for long; callers invoke it from
// the goroutine that caused the cue.
type Player interface {
	Play(k Kind)
}

// Discard ignores every cue.
type Discard struct{}

// Play does nothing.
func (Discard) Play(Kind) {}

// Bell writes the terminal bell character, once for most cues and twice
// when the timer runs out.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell returns a Bell writing to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// Play writes the bell.
func (b *Bell) Play(k Kind) {
	seq := "\a"
	if k == TimerEnd {
		seq = "\a\a"
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = io.WriteString(b.w, seq)
}

// Recorder remembers the cues it was asked to play.
type Recorder struct {
	mu     sync.Mutex
	played []Kind
}

// Play records k.
func (r *Recorder) Play(k Kind) {
	r.mu.Lock()
	r.played = append(r.played, k)
	r.mu.Unlock()
}

// Played returns the recorded cues in order.
func (r *Recorder) Played() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Kind(nil), r.played...)
}
