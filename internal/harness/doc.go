// Package harness replays viewer-side scenarios against a real session.
//
// A scenario drives the engine, the optimistic mutator and the countdown
// through the same controller the CLI uses, on a fake clock, and records
// one trace event per step. Traces are deterministic and can be compared
// against golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: viewer_tossup_bonus
//	description: "What this scenario validates"
//	start_millis: 1700000000000
//	setup:
//	  - invoke: pull_game
//	    args: { game: { teamAName: Faze, questionNumber: 1, ... } }
//	flow:
//	  - invoke: award_tossup
//	    args: { side: A }
//	    expect:
//	      state: { team_a_score: 10, last_tossup_winner: A }
//	  - invoke: tick
//	    args: { seconds: 3 }
//	assertions:
//	  - type: trace_order
//	    actions: [award_tossup, tick]
//	  - type: final_state
//	    expect: { team_a_score: 10 }
//
// # Steps
//
//   - award_tossup {side}, award_bonus, advance, reset, rename {a, b}
//   - pull_game {game} offers a payload through the pull path; {fail: true}
//     makes the fetch fail
//   - timer_start {mode}, timer_pause, timer_reset, timer_mode {mode}
//   - tick {seconds} advances the fake clock and the countdown one second
//     at a time
//
// # Assertion Types
//
//   - trace_contains: a step with matching args appears in the trace
//   - trace_order: steps appear in the given order
//   - trace_count: a step appears exactly N times
//   - final_state: fields of the final state view match
//
// # State View
//
// Expect clauses and final_state compare against a flat view with the keys
// game_loaded, team_a_name, team_b_name, team_a_score, team_b_score,
// question, last_tossup_winner, history_len, last_event, timer_mode,
// timer_remaining, timer_status and timer_band.
package harness
