package harness

// TraceEvent records one executed step and the state it left behind.
type TraceEvent struct {
	Seq   int            `json:"seq"`
	Step  string         `json:"step"`
	Setup bool           `json:"setup,omitempty"`
	Args  map[string]any `json:"args,omitempty"`
	Cues  []string       `json:"cues,omitempty"`
	Error string         `json:"error,omitempty"`
	State map[string]any `json:"state"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per setup and flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds the failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final state view.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a trace event and returns its sequence number.
func (r *Result) AddStep(ev TraceEvent) int {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
	return ev.Seq
}
