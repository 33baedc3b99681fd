package harness

import (
	"github.com/roach88/objkernel/internal/incident"
)

// Step outcomes.
const (
	OutcomeCaught   = "caught"
	OutcomeUncaught = "uncaught"
	OutcomeError    = "error"
)

// StepOutcome records what happened to one step.
type StepOutcome struct {
	Step      int    `json:"step"`
	Throwable string `json:"throwable"`
	Outcome   string `json:"outcome"`

	// Rendered is the throwable's string form after the raise.
	Rendered string `json:"rendered,omitempty"`

	// Error is the runtime error for OutcomeError steps.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Steps lists step outcomes in order.
	Steps []StepOutcome `json:"steps"`

	// Incidents are read back from the store, ordered by seq.
	Incidents []incident.Incident `json:"incidents"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Steps:     []StepOutcome{},
		Incidents: []incident.Incident{},
		Errors:    []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step outcome.
func (r *Result) AddStep(o StepOutcome) {
	r.Steps = append(r.Steps, o)
}
