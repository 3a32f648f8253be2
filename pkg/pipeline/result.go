package pipeline

import (
	"fmt"
	"time"
)

// Status is the outcome of a completed step.
type Status string

// Step statuses.
const (
	StatusDone    Status = "done"
	StatusNoFiles Status = "no files"
	StatusSkipped Status = "skipped"
)

// StepResult summarizes one completed step.
type StepResult struct {
	Step     string        `json:"step" yaml:"step"`
	Status   Status        `json:"status" yaml:"status"`
	Files    int           `json:"files" yaml:"files"`
	Records  int           `json:"records,omitempty" yaml:"records,omitempty"`
	Years    []int         `json:"years,omitempty" yaml:"years,omitempty"`
	Outputs  []string      `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Warnings []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// warn records a non-fatal issue.
func (r *StepResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Summary returns a one-line description of the result.
func (r *StepResult) Summary() string {
	s := fmt.Sprintf("%s: %s", r.Step, r.Status)
	if r.Files > 0 {
		s += fmt.Sprintf(", %d files", r.Files)
	}
	if r.Records > 0 {
		s += fmt.Sprintf(", %d records", r.Records)
	}
	if n := len(r.Years); n > 0 {
		s += fmt.Sprintf(", years %d-%d", r.Years[0], r.Years[n-1])
	}
	return s
}
