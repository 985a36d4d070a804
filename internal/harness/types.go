package harness

import (
	"github.com/roach88/remap/internal/event"
)

// TraceEvent is the recorded outcome of one scenario case.
type TraceEvent struct {
	Case    string       `json:"case"`
	Seq     int64        `json:"seq"`
	Input   *event.Event `json:"input"`
	Output  *event.Event `json:"output"`
	Error   string       `json:"error,omitempty"`
	Dropped bool         `json:"dropped,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses match.
	Pass bool `json:"pass"`

	// RunID is the run the cases were recorded under.
	RunID string `json:"run_id"`

	// Trace contains one entry per case, in case order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
