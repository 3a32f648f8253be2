package flows

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical storage column names.
const (
	ColOrigin      = "gss_out"
	ColDestination = "gss_in"
	ColYear        = "year"
	ColSex         = "sex"
	ColAge         = "age"
	ColValue       = "value"
)

// CanonicalColumns is the column set written by every flow writer.
var CanonicalColumns = []string{ColOrigin, ColDestination, ColYear, ColSex, ColAge, ColValue}

// Series is a set of flow records plus the column set it was loaded with.
type Series struct {
	Columns []string
	Records []Record
}

// NewSeries builds a series with normalized columns. A nil columns slice
// means the canonical column set.
func NewSeries(columns []string, records []Record) Series {
	if columns == nil {
		columns = CanonicalColumns
	}
	return Series{Columns: NormalizeColumns(columns), Records: records}
}

// Len returns the number of records.
func (s Series) Len() int {
	return len(s.Records)
}

// IsEmpty reports whether the series has no records.
func (s Series) IsEmpty() bool {
	return len(s.Records) == 0
}

// Years returns the distinct years in ascending order.
func (s Series) Years() []int {
	return Years(s.Records)
}

// Total sums every record value.
func (s Series) Total() float64 {
	var total float64
	for _, r := range s.Records {
		total += r.Value
	}
	return total
}

// Filter returns a new series holding the records keep accepts.
func (s Series) Filter(keep func(Record) bool) Series {
	out := make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return Series{Columns: slices.Clone(s.Columns), Records: out}
}

// Years returns the distinct years of records in ascending order.
func Years(records []Record) []int {
	set := make(map[int]struct{})
	for _, r := range records {
		set[r.Year] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// ByYear partitions records by year, preserving order within a year.
func ByYear(records []Record) map[int][]Record {
	out := make(map[int][]Record)
	for _, r := range records {
		out[r.Year] = append(out[r.Year], r)
	}
	return out
}

// TotalByYear sums record values per year.
func TotalByYear(records []Record) map[int]float64 {
	out := make(map[int]float64)
	for _, r := range records {
		out[r.Year] += r.Value
	}
	return out
}

var lower = cases.Lower(language.Und)

// NormalizeHeader lower-cases and trims a column header.
func NormalizeHeader(h string) string {
	return lower.String(strings.TrimSpace(h))
}

// NormalizeColumns returns normalized copies of the headers.
func NormalizeColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = NormalizeHeader(c)
	}
	return out
}

// DiffColumns compares two column sets after normalization and returns
// the columns present only in a and only in b, both sorted.
func DiffColumns(a, b []string) (onlyA, onlyB []string) {
	setA := make(map[string]struct{}, len(a))
	for _, c := range NormalizeColumns(a) {
		setA[c] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, c := range NormalizeColumns(b) {
		setB[c] = struct{}{}
	}
	for c := range setA {
		if _, ok := setB[c]; !ok {
			onlyA = append(onlyA, c)
		}
	}
	for c := range setB {
		if _, ok := setA[c]; !ok {
			onlyB = append(onlyB, c)
		}
	}
	slices.Sort(onlyA)
	slices.Sort(onlyB)
	return onlyA, onlyB
}
