package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedGame() map[string]any {
	return map[string]any{
		"teamAName":      "Faze Clan",
		"teamBName":      "Team Liquid",
		"teamAScore":     0,
		"teamBScore":     0,
		"questionNumber": 1,
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Flow: []Step{
			{Invoke: StepAwardTossup, Args: map[string]any{"side": "A"}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceContains, Action: StepAwardTossup},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, 1, result.Trace[0].Seq)
	assert.Equal(t, []string{"correct"}, result.Trace[0].Cues)

	// A tossup before any game loaded synthesizes the default game.
	assert.Equal(t, "Team A", result.State["team_a_name"])
	assert.Equal(t, 10, result.State["team_a_score"])
}

func TestRun_WithSetup(t *testing.T) {
	scenario := &Scenario{
		Name:        "with_setup",
		Description: "Setup loads a game",
		Setup: []Step{
			{Invoke: StepPullGame, Args: map[string]any{"game": loadedGame()}},
		},
		Flow: []Step{
			{Invoke: StepAwardTossup, Args: map[string]any{"side": "B"}},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Expect: map[string]any{"team_b_name": "Team Liquid", "team_b_score": 10}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 2)
	assert.True(t, result.Trace[0].Setup)
	assert.False(t, result.Trace[1].Setup)
	assert.Equal(t, true, result.Trace[0].State["game_loaded"])
}

func TestRun_SetupFailureAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_setup",
		Description: "Setup game fails validation",
		Setup: []Step{
			{Invoke: StepPullGame, Args: map[string]any{"game": map[string]any{"teamAScore": -1, "teamBScore": 0, "questionNumber": 1}}},
		},
		Flow:       []Step{{Invoke: StepAdvance}},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: StepAdvance, Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute setup")
}

func TestRun_WithExpectClause(t *testing.T) {
	scenario := &Scenario{
		Name:        "with_expect",
		Description: "Expect clause passes",
		Setup: []Step{
			{Invoke: StepPullGame, Args: map[string]any{"game": loadedGame()}},
		},
		Flow: []Step{
			{
				Invoke: StepAwardTossup,
				Args:   map[string]any{"side": "A"},
				Expect: &ExpectClause{
					State: map[string]any{"team_a_score": 10, "last_tossup_winner": "A"},
					Cues:  []string{"correct"},
				},
			},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: StepAwardTossup, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "expect_mismatch",
		Description: "Expect clause fails",
		Flow: []Step{
			{
				Invoke: StepAwardBonus,
				Expect: &ExpectClause{
					State: map[string]any{"team_a_score": 10, "no_such_key": 1},
					Cues:  []string{"correct"},
				},
			},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: StepAwardBonus, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `state "no_such_key" not present`)
	assert.Contains(t, result.Errors[1], `state "team_a_score" not present`)
	assert.Contains(t, result.Errors[2], "cues = [bonus], want [correct]")
}

func TestRun_WithErrorExpect(t *testing.T) {
	scenario := &Scenario{
		Name:        "with_error",
		Description: "Error expectation on an invalid game payload",
		Flow: []Step{
			{
				Invoke: StepPullGame,
				Args:   map[string]any{"game": map[string]any{"teamAScore": 0, "teamBScore": 0, "questionNumber": 0}},
				Expect: &ExpectClause{Error: "invalid game payload"},
			},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Expect: map[string]any{"game_loaded": false}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.NotEmpty(t, result.Trace[0].Error)
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_error",
		Description: "A step error without an expect clause fails the run",
		Flow: []Step{
			{Invoke: StepAwardTossup, Args: map[string]any{"side": "C"}},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: StepAwardTossup, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
	assert.Contains(t, result.Errors[0], "side must be A or B")
}

func TestRun_StickyViewerMirror(t *testing.T) {
	later := loadedGame()
	later["teamAScore"] = 40

	scenario := &Scenario{
		Name:        "sticky",
		Description: "Pulls after the first load are ignored",
		Setup: []Step{
			{Invoke: StepPullGame, Args: map[string]any{"game": loadedGame()}},
		},
		Flow: []Step{
			{Invoke: StepPullGame, Args: map[string]any{"game": later}},
			{Invoke: StepPullGame, Args: map[string]any{"fail": true}},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Expect: map[string]any{"team_a_score": 0, "game_loaded": true}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_TimerExpiry(t *testing.T) {
	scenario := &Scenario{
		Name:        "expiry",
		Description: "The tossup timer runs out after seven ticks",
		Flow: []Step{
			{Invoke: StepTimerStart, Args: map[string]any{"mode": "tossup"}},
			{Invoke: StepTick, Args: map[string]any{"seconds": 6}},
			{Invoke: StepTick},
			{Invoke: StepTick},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Expect: map[string]any{"timer_status": "expired", "timer_remaining": 0}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 4)
	assert.Equal(t, 1, result.Trace[1].State["timer_remaining"])
	assert.Equal(t, "orange", result.Trace[1].State["timer_band"])
	assert.Equal(t, []string{"timer-end"}, result.Trace[2].Cues)
	assert.Empty(t, result.Trace[3].Cues)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/viewer_tossup_bonus_advance.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalTrace(scenario.Name, first.Trace)
	require.NoError(t, err)
	b, err := MarshalTrace(scenario.Name, second.Trace)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ExampleScenarios(t *testing.T) {
	for _, name := range []string{"viewer_tossup_bonus_advance", "viewer_sticky_mirror"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestRun_TraceAssertionsSkipSetup(t *testing.T) {
	scenario := &Scenario{
		Name:        "skip_setup",
		Description: "Setup pulls are not counted",
		Setup: []Step{
			{Invoke: StepPullGame, Args: map[string]any{"game": loadedGame()}},
		},
		Flow: []Step{{Invoke: StepAdvance}},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: StepPullGame, Count: 0},
			{Type: AssertFinalState, Expect: map[string]any{"question": 2}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_AssertionFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "assert_fail",
		Description: "A failed assertion fails the run",
		Flow:        []Step{{Invoke: StepAdvance}},
		Assertions: []Assertion{
			{Type: AssertTraceOrder, Actions: []string{StepAdvance, StepReset}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "missing step: reset")
}

func TestResult_AddError(t *testing.T) {
	result := NewResult()
	assert.True(t, result.Pass)

	result.AddError("boom")
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"boom"}, result.Errors)
}

func TestResult_AddStep(t *testing.T) {
	result := NewResult()
	assert.Equal(t, 1, result.AddStep(TraceEvent{Step: StepAdvance}))
	assert.Equal(t, 2, result.AddStep(TraceEvent{Step: StepReset}))
	assert.Equal(t, 2, result.Trace[1].Seq)
}
