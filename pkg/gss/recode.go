package gss

import (
	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
)

// Partition splits records into those whose field matches the pattern and
// the rest. Both results are new slices.
func Partition(records []flows.Record, field flows.Field, pattern Pattern) (eligible, rest []flows.Record) {
	for _, r := range records {
		if pattern.Match(field.Get(r)) {
			eligible = append(eligible, r)
		} else {
			rest = append(rest, r)
		}
	}
	return eligible, rest
}

// EligibleCodes returns the distinct field codes that match the pattern.
func EligibleCodes(records []flows.Record, field flows.Field, pattern Pattern) []string {
	return distinctCodes(records, field, pattern.Match)
}

func distinctCodes(records []flows.Record, field flows.Field, keep func(string) bool) []string {
	var codes []string
	seen := make(map[string]struct{})
	for _, r := range records {
		code := field.Get(r)
		if keep != nil && !keep(code) {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

// CheckCoverage returns a MissingMappingError for the first field with
// eligible codes absent from m.
func CheckCoverage(records []flows.Record, pattern Pattern, m *RecodeMap, fields ...flows.Field) error {
	for _, field := range fields {
		if missing := m.Missing(EligibleCodes(records, field, pattern)); len(missing) > 0 {
			return errors.NewMissingMappingError(field.String(), missing)
		}
	}
	return nil
}

// Recode rewrites field of every record through m, attributing split
// volumes by share, then collapses records that now share a key with agg.
// Every record's code must be present in m.
func Recode(records []flows.Record, field flows.Field, m *RecodeMap, agg flows.Aggregator) ([]flows.Record, error) {
	if missing := m.Missing(distinctCodes(records, field, nil)); len(missing) > 0 {
		return nil, errors.NewMissingMappingError(field.String(), missing)
	}

	out := make([]flows.Record, 0, len(records))
	for _, r := range records {
		code := field.Get(r)
		targets, _ := m.Lookup(code)
		if len(targets) == 0 {
			return nil, errors.NewValidationError(field.String(), code, "recode entry has no target codes")
		}
		if len(targets) == 1 {
			out = append(out, field.With(r, targets[0].Code))
			continue
		}
		for _, t := range targets {
			split := field.With(r, t.Code)
			split.Value = r.Value * t.Share
			out = append(out, split)
		}
	}
	return flows.Group(out, agg), nil
}

// FieldStats describes one recoding pass.
type FieldStats struct {
	Field    string `json:"field" yaml:"field"`
	Eligible int    `json:"eligible" yaml:"eligible"`
	Recoded  int    `json:"recoded" yaml:"recoded"`
	Passed   int    `json:"passed_through" yaml:"passed_through"`
}

// RecodeField partitions records on field, recodes the eligible subset
// and appends the untouched remainder after it.
func RecodeField(records []flows.Record, field flows.Field, pattern Pattern, m *RecodeMap, agg flows.Aggregator) ([]flows.Record, FieldStats, error) {
	eligible, rest := Partition(records, field, pattern)
	stats := FieldStats{Field: field.String(), Eligible: len(eligible), Passed: len(rest)}

	recoded, err := Recode(eligible, field, m, agg)
	if err != nil {
		return nil, stats, err
	}
	stats.Recoded = len(recoded)

	out := make([]flows.Record, 0, len(recoded)+len(rest))
	out = append(out, recoded...)
	out = append(out, rest...)
	return out, stats, nil
}
