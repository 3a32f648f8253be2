package reconciler

import (
	"slices"

	"github.com/agentstation/odflow/pkg/flows"
)

// beforeCutover returns the records dated strictly before year.
func beforeCutover(records []flows.Record, year int) []flows.Record {
	out := make([]flows.Record, 0, len(records))
	for _, r := range records {
		if r.Year < year {
			out = append(out, r)
		}
	}
	return out
}

// yearsBefore returns the entries of sorted years below year.
func yearsBefore(years []int, year int) []int {
	i, _ := slices.BinarySearch(years, year)
	return slices.Clone(years[:i])
}

// withoutYears drops records whose year is in years.
func withoutYears(records []flows.Record, years []int) []flows.Record {
	if len(years) == 0 {
		return records
	}
	out := make([]flows.Record, 0, len(records))
	for _, r := range records {
		if _, found := slices.BinarySearch(years, r.Year); !found {
			out = append(out, r)
		}
	}
	return out
}

// dropSelfFlows removes records whose origin equals their destination.
func dropSelfFlows(records []flows.Record) ([]flows.Record, int) {
	out := make([]flows.Record, 0, len(records))
	for _, r := range records {
		if !r.IsSelfFlow() {
			out = append(out, r)
		}
	}
	return out, len(records) - len(out)
}
