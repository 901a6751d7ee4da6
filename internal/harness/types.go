package harness

import (
	"github.com/roach88/nomina/internal/dataset"
	"github.com/roach88/nomina/internal/engine"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass indicates overall test success.
	// True if every expectation held.
	Pass bool `json:"pass"`

	// Errors contains one message per failed expectation.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Warnings are ingestion warnings for the scenario's dataset.
	Warnings []dataset.ParseWarning `json:"warnings,omitempty"`

	// Report is the engine report the expectations ran against.
	Report *engine.Report `json:"report"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
