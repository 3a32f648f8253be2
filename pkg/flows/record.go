package flows

import (
	"cmp"
	"slices"
)

// Record is a single migration flow. Struct tags give the storage column names.
type Record struct {
	Origin      string  `parquet:"gss_out" json:"gss_out" yaml:"gss_out"`
	Destination string  `parquet:"gss_in" json:"gss_in" yaml:"gss_in"`
	Year        int     `parquet:"year" json:"year" yaml:"year"`
	Sex         string  `parquet:"sex" json:"sex,omitempty" yaml:"sex,omitempty"`
	Age         int     `parquet:"age" json:"age" yaml:"age"`
	Value       float64 `parquet:"value" json:"value" yaml:"value"`
}

// Key identifies a record by every field except Value.
type Key struct {
	Origin      string
	Destination string
	Year        int
	Sex         string
	Age         int
}

// Key returns the grouping key of the record.
func (r Record) Key() Key {
	return Key{
		Origin:      r.Origin,
		Destination: r.Destination,
		Year:        r.Year,
		Sex:         r.Sex,
		Age:         r.Age,
	}
}

// IsSelfFlow reports whether the record describes a move within one area.
func (r Record) IsSelfFlow() bool {
	return r.Origin == r.Destination
}

// Field selects one of the two area code fields of a record.
type Field int

const (
	// Origin is the area people moved out of (gss_out).
	Origin Field = iota
	// Destination is the area people moved into (gss_in).
	Destination
)

// String returns the field name used in logs and errors.
func (f Field) String() string {
	switch f {
	case Origin:
		return "origin"
	case Destination:
		return "destination"
	default:
		return "unknown"
	}
}

// Get returns the area code held in the field.
func (f Field) Get(r Record) string {
	if f == Destination {
		return r.Destination
	}
	return r.Origin
}

// With returns a copy of r with the field set to code.
func (f Field) With(r Record, code string) Record {
	if f == Destination {
		r.Destination = code
	} else {
		r.Origin = code
	}
	return r
}

// Compare orders records by year, origin, destination, sex and age.
func Compare(a, b Record) int {
	return cmp.Or(
		cmp.Compare(a.Year, b.Year),
		cmp.Compare(a.Origin, b.Origin),
		cmp.Compare(a.Destination, b.Destination),
		cmp.Compare(a.Sex, b.Sex),
		cmp.Compare(a.Age, b.Age),
	)
}

// Sorted returns a sorted copy of records.
func Sorted(records []Record) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, Compare)
	return out
}
