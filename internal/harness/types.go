package harness

import (
	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
)

// StepResult records the outcome of one step.
type StepResult struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	// Error is the step's error message; empty on success.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Steps holds one entry per executed step.
	Steps []StepResult `json:"steps"`

	// Errors contains step and assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Attributes and Variants are the final matrix.
	Attributes []ir.Attribute `json:"attributes"`
	Variants   []ir.Variant   `json:"variants"`

	// MatrixErrors is the editor's final error map.
	MatrixErrors map[string]string `json:"matrix_errors,omitempty"`

	// Summary is computed over the final variants.
	Summary matrix.Summary `json:"summary"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:         true,
		Steps:        []StepResult{},
		Errors:       []string{},
		MatrixErrors: map[string]string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep records a step outcome.
func (r *Result) AddStep(index int, op string, err error) {
	sr := StepResult{Index: index, Op: op}
	if err != nil {
		sr.Error = err.Error()
	}
	r.Steps = append(r.Steps, sr)
}
