package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Step: StepPullGame, Setup: true},
		{Seq: 2, Step: StepAwardTossup, Args: map[string]any{"side": "A"}},
		{Seq: 3, Step: StepTimerStart, Args: map[string]any{"mode": "bonus"}},
		{Seq: 4, Step: StepTick, Args: map[string]any{"seconds": 3}},
		{Seq: 5, Step: StepAwardBonus},
		{Seq: 6, Step: StepAdvance},
	}
}

func TestAssertTraceContains_Found(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Type:   AssertTraceContains,
		Action: StepAwardTossup,
		Args:   map[string]any{"side": "A"},
	})
	assert.NoError(t, err)
}

func TestAssertTraceContains_NotFound(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Action: StepRename})
	require.Error(t, err)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertTraceContains, aerr.Type)
	assert.Equal(t, "not found in trace", aerr.Actual)
}

func TestAssertTraceContains_WrongArgs(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Type:   AssertTraceContains,
		Action: StepAwardTossup,
		Args:   map[string]any{"side": "B"},
	})
	assert.Error(t, err)
}

func TestAssertTraceContains_NoArgsRequired(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Action: StepTick})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_Correct(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type:    AssertTraceOrder,
		Actions: []string{StepAwardTossup, StepAwardBonus, StepAdvance},
	})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_WrongOrder(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type:    AssertTraceOrder,
		Actions: []string{StepAdvance, StepAwardTossup},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advance (pos 6) should be before award_tossup (pos 2)")
}

func TestAssertTraceOrder_MissingAction(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type:    AssertTraceOrder,
		Actions: []string{StepAwardTossup, StepReset},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing step: reset")
}

func TestAssertTraceCount(t *testing.T) {
	trace := append(sampleTrace(), TraceEvent{Seq: 7, Step: StepTick})

	tests := []struct {
		name    string
		action  string
		count   int
		wantErr bool
	}{
		{name: "exact", action: StepTick, count: 2},
		{name: "too few", action: StepTick, count: 3, wantErr: true},
		{name: "too many", action: StepTick, count: 1, wantErr: true},
		{name: "zero", action: StepReset, count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceCount(trace, Assertion{Type: AssertTraceCount, Action: tt.action, Count: tt.count})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAssertFinalState(t *testing.T) {
	state := map[string]any{
		"team_a_score": 20,
		"question":     4,
		"timer_mode":   "tossup",
		"game_loaded":  true,
	}

	tests := []struct {
		name    string
		expect  map[string]any
		wantErr string
	}{
		{name: "subset match", expect: map[string]any{"team_a_score": 20, "game_loaded": true}},
		{name: "int64 against int", expect: map[string]any{"question": int64(4)}},
		{name: "value mismatch", expect: map[string]any{"team_a_score": 30}, wantErr: `field "team_a_score" = 20`},
		{name: "missing field", expect: map[string]any{"last_event": "x"}, wantErr: `field "last_event" not present`},
		{name: "type mismatch", expect: map[string]any{"question": "4"}, wantErr: "(type int)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(state, Assertion{Type: AssertFinalState, Expect: tt.expect})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMatchArgs_SubsetSemantics(t *testing.T) {
	actual := map[string]any{"side": "A", "seconds": 3}

	assert.True(t, matchArgs(actual, nil))
	assert.True(t, matchArgs(actual, map[string]any{"side": "A"}))
	assert.True(t, matchArgs(actual, map[string]any{"seconds": int64(3)}))
	assert.False(t, matchArgs(actual, map[string]any{"side": "B"}))
	assert.False(t, matchArgs(actual, map[string]any{"mode": "bonus"}))
	assert.False(t, matchArgs(nil, map[string]any{"side": "A"}))
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		expected any
		want     bool
	}{
		{name: "strings", actual: "A", expected: "A", want: true},
		{name: "different strings", actual: "A", expected: "B", want: false},
		{name: "int and int64", actual: 10, expected: int64(10), want: true},
		{name: "int and whole float", actual: 10, expected: float64(10), want: true},
		{name: "int and fractional float", actual: 10, expected: 10.5, want: false},
		{name: "int and string", actual: 10, expected: "10", want: false},
		{name: "bools", actual: true, expected: true, want: true},
		{name: "nil", actual: nil, expected: nil, want: true},
		{name: "slices", actual: []any{"a"}, expected: []any{"a"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.actual, tt.expected))
		})
	}
}

func TestEvaluateAssertions_SkipsSetup(t *testing.T) {
	result := &Result{Trace: sampleTrace()}
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Action: StepPullGame, Count: 0},
		{Type: AssertTraceContains, Action: StepPullGame},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "trace_contains")
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	result := &Result{
		Trace: sampleTrace(),
		State: map[string]any{"question": 2},
	}
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Action: StepTimerStart, Args: map[string]any{"mode": "bonus"}},
		{Type: AssertTraceOrder, Actions: []string{StepTimerStart, StepTick}},
		{Type: AssertTraceCount, Action: StepAdvance, Count: 1},
		{Type: AssertFinalState, Expect: map[string]any{"question": 2}},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	result := &Result{Trace: sampleTrace()}
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Action: StepAdvance},
		{Type: AssertTraceCount, Action: StepAdvance, Count: 5},
		{Type: AssertFinalState, Expect: map[string]any{"question": 2}},
	})
	assert.Len(t, errs, 2)
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(&Result{}, []Assertion{{Type: "trace_sometimes"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "trace_sometimes"`)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "1 occurrences of advance",
		Actual:   "0 occurrences",
		Trace:    []TraceEvent{{Seq: 1, Step: StepReset}},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "Expected: 1 occurrences of advance")
	assert.Contains(t, msg, "Actual: 0 occurrences")
	assert.Contains(t, msg, "[1] reset")
}
