// Package gss recodes ONS Government Statistical Service (GSS) area codes
// between geography vintages.
//
// A GSS code starts with a letter and digit that identify country and area
// type (E06 unitary authority, E07 district, W06 Welsh authority, ...).
// Boundary changes retire some codes and merge or split others; a
// RecodeMap records those changes between two vintage years and Recode
// applies them to one area field of a set of flow records.
package gss

import (
	"strings"
	"unicode"

	"github.com/agentstation/odflow/pkg/errors"
)

// Pattern selects the area codes that are subject to recoding. It is an
// alternation of code prefixes such as "E0|W0".
type Pattern struct {
	expr     string
	prefixes []string
}

// CompilePattern parses a prefix alternation.
func CompilePattern(expr string) (Pattern, error) {
	var prefixes []string
	for _, part := range strings.Split(expr, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for _, r := range part {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return Pattern{}, errors.NewValidationError("pattern", expr, "prefixes may only contain letters and digits")
			}
		}
		prefixes = append(prefixes, part)
	}
	if len(prefixes) == 0 {
		return Pattern{}, errors.NewValidationError("pattern", expr, "at least one prefix is required")
	}
	return Pattern{expr: strings.Join(prefixes, "|"), prefixes: prefixes}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(expr string) Pattern {
	p, err := CompilePattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether code starts with one of the pattern's prefixes.
func (p Pattern) Match(code string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// IsZero reports whether the pattern was never compiled.
func (p Pattern) IsZero() bool {
	return len(p.prefixes) == 0
}

// String returns the normalized alternation.
func (p Pattern) String() string {
	return p.expr
}
