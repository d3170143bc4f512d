package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/control"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/cue"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/optimistic"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/syncer"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/timer"
)

// errFetchFailed is what a pull_game step with fail: true makes the fetch
// return.
var errFetchFailed = errors.New("scripted fetch failure")

// Harness is one scenario execution: a viewer session on a fake clock.
type Harness struct {
	engine *engine.Engine
	ctrl   *control.Controller
	puller *syncer.Synchronizer
	fetch  *scriptedFetcher
	timer  *timer.Countdown
	clock  *clockwork.FakeClock
	cues   *cue.Recorder
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh session. The fake clock starts at the
// scenario's StartMillis, so history timestamps are reproducible.
//
// Execution flow:
// 1. Start an engine, mutator, countdown and controller
// 2. Execute setup steps (any error aborts the run)
// 3. Execute flow steps, validating expect clauses
// 4. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	start := scenario.StartMillis
	if start == 0 {
		start = DefaultStartMillis
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := newHarness(clockwork.NewFakeClockAt(time.UnixMilli(start)), logger)

	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = h.engine.Run(runCtx) }()
	defer func() {
		cancel()
		<-h.engine.Done()
	}()

	result := NewResult()
	for i, step := range scenario.Setup {
		ev, err := h.execute(ctx, step)
		ev.Setup = true
		result.AddStep(ev)
		if err != nil {
			return nil, fmt.Errorf("failed to execute setup: step %d (%s): %w", i, step.Invoke, err)
		}
	}

	for i, step := range scenario.Flow {
		ev, err := h.execute(ctx, step)
		result.AddStep(ev)
		for _, msg := range checkExpect(step, ev, err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Invoke, msg))
		}
		h.logger.Info("flow step completed", "step", i, "action", step.Invoke)
	}

	result.State = h.view()
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(clock *clockwork.FakeClock, logger *slog.Logger) *Harness {
	eng := engine.New(engine.WithLogger(logger))
	countdown := timer.New(clock)
	fetch := &scriptedFetcher{}
	puller := syncer.New(eng, fetch, syncer.Config{}, syncer.WithClock(clock), syncer.WithLogger(logger))
	recorder := &cue.Recorder{}

	// Viewer sessions never write to the backend, so none is wired.
	ctrl := control.New(control.Deps{
		Engine: eng,
		Puller: puller,
		Local: optimistic.New(eng,
			optimistic.WithClock(clock),
			optimistic.WithTimer(countdown),
			optimistic.WithLogger(logger),
		),
		Timer:  countdown,
		Cue:    recorder,
		Logger: logger,
	})

	return &Harness{
		engine: eng,
		ctrl:   ctrl,
		puller: puller,
		fetch:  fetch,
		timer:  countdown,
		clock:  clock,
		cues:   recorder,
		logger: logger,
	}
}

// execute runs one step and captures its trace event.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	before := len(h.cues.Played())
	err := h.apply(ctx, step)

	ev := TraceEvent{
		Step:  step.Invoke,
		Args:  step.Args,
		State: h.view(),
	}
	for _, k := range h.cues.Played()[before:] {
		ev.Cues = append(ev.Cues, string(k))
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev, err
}

func (h *Harness) apply(ctx context.Context, step Step) error {
	switch step.Invoke {
	case StepAwardTossup:
		return h.ctrl.AwardTossup(ctx, model.Side(stringArg(step, "side")))
	case StepAwardBonus:
		return h.ctrl.AwardBonus(ctx)
	case StepAdvance:
		return h.ctrl.NextTossup(ctx)
	case StepReset:
		return h.ctrl.ResetGame(ctx)
	case StepRename:
		return h.ctrl.SaveTeamNames(ctx, stringArg(step, "a"), stringArg(step, "b"))

	case StepPullGame:
		if fail, _ := step.Args["fail"].(bool); fail {
			h.fetch.set(nil, errFetchFailed)
		} else {
			g, err := decodeGameArg(step.Args["game"])
			if err != nil {
				return err
			}
			h.fetch.set(g, nil)
		}
		// A failed read is ignored by the session; only engine errors count.
		if err := h.puller.PullGame(ctx); err != nil && !errors.Is(err, errFetchFailed) {
			return err
		}
		return nil

	case StepTimerStart:
		h.ctrl.StartTimer(timer.Mode(stringArg(step, "mode")))
	case StepTimerPause:
		h.ctrl.PauseTimer()
	case StepTimerReset:
		h.ctrl.ResetTimer()
	case StepTimerMode:
		h.ctrl.SwitchTimer(timer.Mode(stringArg(step, "mode")))
	case StepTick:
		n := 1
		if v, ok := step.Args["seconds"].(int); ok {
			n = v
		}
		for i := 0; i < n; i++ {
			h.clock.Advance(time.Second)
			h.timer.Tick()
		}
	default:
		return fmt.Errorf("unknown step %q", step.Invoke)
	}
	return nil
}

// view flattens the session state for expect clauses and traces.
func (h *Harness) view() map[string]any {
	snap := h.engine.Snapshot()
	st := h.timer.Snapshot()

	v := map[string]any{
		"game_loaded":     snap.Game != nil,
		"timer_mode":      string(st.Mode),
		"timer_remaining": st.Remaining,
		"timer_status":    string(st.Status),
		"timer_band":      string(st.Band()),
	}
	if g := snap.Game; g != nil {
		v["team_a_name"] = g.Name(model.SideA)
		v["team_b_name"] = g.Name(model.SideB)
		v["team_a_score"] = g.TeamAScore
		v["team_b_score"] = g.TeamBScore
		v["question"] = g.QuestionNumber
		v["last_tossup_winner"] = string(g.LastTossupWinner)
		v["history_len"] = len(g.History)
		if n := len(g.History); n > 0 {
			v["last_event"] = g.History[n-1].Description
		}
	}
	return v
}

func checkExpect(step Step, ev TraceEvent, err error) []string {
	var msgs []string
	exp := step.Expect

	switch {
	case exp != nil && exp.Error != "":
		if err == nil {
			msgs = append(msgs, fmt.Sprintf("expected error containing %q, got success", exp.Error))
		} else if !strings.Contains(err.Error(), exp.Error) {
			msgs = append(msgs, fmt.Sprintf("expected error containing %q, got %q", exp.Error, err.Error()))
		}
	case err != nil:
		msgs = append(msgs, fmt.Sprintf("unexpected error: %v", err))
	}
	if exp == nil {
		return msgs
	}

	keys := make([]string, 0, len(exp.State))
	for k := range exp.State {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		got, ok := ev.State[k]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("state %q not present", k))
			continue
		}
		if !valuesEqual(got, exp.State[k]) {
			msgs = append(msgs, fmt.Sprintf("state %q = %v, want %v", k, got, exp.State[k]))
		}
	}

	if exp.Cues != nil && strings.Join(exp.Cues, ",") != strings.Join(ev.Cues, ",") {
		msgs = append(msgs, fmt.Sprintf("cues = %v, want %v", ev.Cues, exp.Cues))
	}
	return msgs
}

func stringArg(step Step, key string) string {
	s, _ := step.Args[key].(string)
	return s
}

// decodeGameArg turns a YAML game mapping into a validated GameState by
// way of its JSON wire form.
func decodeGameArg(v any) (*model.GameState, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode game arg: %w", err)
	}
	return model.DecodeGame(data)
}

// scriptedFetcher answers game pulls with whatever the last pull_game step
// offered. Bracket pulls are not scripted.
type scriptedFetcher struct {
	mu   sync.Mutex
	game *model.GameState
	err  error
}

func (f *scriptedFetcher) set(g *model.GameState, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.game, f.err = g, err
}

func (f *scriptedFetcher) Game(context.Context) (*model.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.game.Clone(), f.err
}

func (f *scriptedFetcher) Bracket(context.Context) (*model.BracketState, error) {
	return nil, errFetchFailed
}
