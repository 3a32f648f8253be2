// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols used in step result tables.
const (
	// Success marks a completed step.
	Success = "✓"

	// Error marks a failed step.
	Error = "✗"

	// Warning marks a step that completed with warnings.
	Warning = "!"

	// Optional marks a skipped step or one with nothing to do.
	Optional = "-"
)
