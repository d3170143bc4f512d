package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/timer"
)

// DefaultStartMillis is the fake clock start when a scenario sets none.
const DefaultStartMillis int64 = 1_700_000_000_000

// Scenario is a scripted viewer session.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StartMillis is the fake clock start in unix milliseconds.
	StartMillis int64 `yaml:"start_millis,omitempty"`

	// Setup steps run before the flow. They are traced but not asserted on
	// by trace assertions.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the main sequence of steps.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scripted action.
type Step struct {
	// Invoke names the step (see the Step* constants).
	Invoke string `yaml:"invoke"`

	// Args are the step arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect validates the step outcome. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is a substring of the expected error. Empty means success.
	Error string `yaml:"error,omitempty"`

	// State is a subset of the state view after the step.
	State map[string]any `yaml:"state,omitempty"`

	// Cues are the cues the step must play, in order. Nil skips the check.
	Cues []string `yaml:"cues,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is the step name (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are the expected step arguments (trace_contains), subset match.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect is a subset of the final state view (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected step order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Step names.
const (
	StepAwardTossup = "award_tossup"
	StepAwardBonus  = "award_bonus"
	StepAdvance     = "advance"
	StepReset       = "reset"
	StepRename      = "rename"
	StepPullGame    = "pull_game"
	StepTimerStart  = "timer_start"
	StepTimerPause  = "timer_pause"
	StepTimerReset  = "timer_reset"
	StepTimerMode   = "timer_mode"
	StepTick        = "tick"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.StartMillis == 0 {
		scenario.StartMillis = DefaultStartMillis
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Invoke {
	case "":
		return fmt.Errorf("invoke is required")
	case StepAwardBonus, StepAdvance, StepReset, StepTimerPause, StepTimerReset:
		return nil
	case StepAwardTossup:
		if _, ok := step.Args["side"].(string); !ok {
			return fmt.Errorf("%s: side is required", step.Invoke)
		}
	case StepRename:
		_, okA := step.Args["a"].(string)
		_, okB := step.Args["b"].(string)
		if !okA || !okB {
			return fmt.Errorf("%s: a and b are required", step.Invoke)
		}
	case StepPullGame:
		_, hasGame := step.Args["game"].(map[string]any)
		fail, _ := step.Args["fail"].(bool)
		if hasGame == fail {
			return fmt.Errorf("%s: exactly one of game or fail: true is required", step.Invoke)
		}
	case StepTimerStart, StepTimerMode:
		mode, _ := step.Args["mode"].(string)
		if !timer.Mode(mode).Valid() {
			return fmt.Errorf("%s: mode must be tossup or bonus", step.Invoke)
		}
	case StepTick:
		if v, ok := step.Args["seconds"]; ok {
			if n, isInt := v.(int); !isInt || n <= 0 {
				return fmt.Errorf("%s: seconds must be a positive integer", step.Invoke)
			}
		}
	default:
		return fmt.Errorf("unknown step %q", step.Invoke)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
