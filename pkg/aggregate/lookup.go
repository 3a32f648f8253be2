package aggregate

import (
	"io"
	"maps"
	"slices"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/tabular"
)

// Lookup maps local authority codes to a higher geography.
type Lookup struct {
	Name    string
	entries map[string]string
}

// NewLookup builds a lookup from a code map.
func NewLookup(name string, entries map[string]string) *Lookup {
	return &Lookup{Name: name, entries: maps.Clone(entries)}
}

// LoadLookup reads a lookup CSV, taking keys from keyCol and targets from
// valueCol. Header names are matched case-insensitively.
func LoadLookup(r io.Reader, name, keyCol, valueCol string) (*Lookup, error) {
	t, err := tabular.ReadCSV(r, name)
	if err != nil {
		return nil, err
	}
	k, v := t.Column(keyCol), t.Column(valueCol)
	if k < 0 || v < 0 {
		return nil, errors.NewParseError("csv", name, "lookup needs columns "+keyCol+" and "+valueCol, nil)
	}

	entries := make(map[string]string, t.Len())
	for i := range t.Rows {
		key, value := t.Cell(i, k), t.Cell(i, v)
		if key == "" || value == "" {
			continue
		}
		if prev, dup := entries[key]; dup && prev != value {
			return nil, errors.NewParseError("csv", name, "code "+key+" maps to both "+prev+" and "+value, nil)
		}
		entries[key] = value
	}
	if len(entries) == 0 {
		return nil, &errors.EmptyInputError{Input: name}
	}
	return &Lookup{Name: name, entries: entries}, nil
}

// Get returns the target of code.
func (l *Lookup) Get(code string) (string, bool) {
	v, ok := l.entries[code]
	return v, ok
}

// Len returns the number of codes in the lookup.
func (l *Lookup) Len() int {
	return len(l.entries)
}

// Targets returns the distinct target codes in ascending order.
func (l *Lookup) Targets() []string {
	set := make(map[string]struct{})
	for _, v := range l.entries {
		set[v] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// ToGeography re-keys both ends of every record through the lookup and
// sums records that now share a key. Records with an end missing from
// the lookup are dropped; the second result counts them.
func ToGeography(records []flows.Record, l *Lookup) ([]flows.Record, int) {
	out := make([]flows.Record, 0, len(records))
	for _, r := range records {
		in, okIn := l.Get(r.Destination)
		from, okOut := l.Get(r.Origin)
		if !okIn || !okOut {
			continue
		}
		r.Origin, r.Destination = from, in
		out = append(out, r)
	}
	dropped := len(records) - len(out)
	return flows.Sorted(flows.Group(out, flows.Sum)), dropped
}

// Collapse removes the sex breakdown, and the age breakdown unless keepAge
// is set, summing records that then share a key.
func Collapse(records []flows.Record, keepAge bool) []flows.Record {
	out := make([]flows.Record, len(records))
	for i, r := range records {
		r.Sex = ""
		if !keepAge {
			r.Age = 0
		}
		out[i] = r
	}
	return flows.Sorted(flows.Group(out, flows.Sum))
}
