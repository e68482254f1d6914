package harness

// Outcome types, mirroring the envelope type tag.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// TraceEvent records one dispatched step and the envelope it produced.
type TraceEvent struct {
	Step        int    `json:"step"`
	Operation   string `json:"operation"`
	As          string `json:"as,omitempty"`
	Input       any    `json:"input,omitempty"`
	Type        string `json:"type"`
	Composition string `json:"composition,omitempty"`
	RequestID   string `json:"request_id"`
	// Error is the failure kind; empty on success.
	Error   string `json:"error,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors explains every failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// Vars holds the values saved by steps.
	Vars map[string]any `json:"vars,omitempty"`
}

// NewResult creates a passing, empty result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Vars:   make(map[string]any),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
