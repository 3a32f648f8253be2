package gss

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
)

// shareTolerance is the allowed rounding error when split shares are summed.
const shareTolerance = 1e-6

// Target is one new-vintage code an old code maps to. Share is the
// fraction of the old code's volume attributed to Code; it is only
// required when an old code splits into several targets.
type Target struct {
	Code  string
	Share float64
}

// RecodeMap maps old-vintage codes to their new-vintage targets.
type RecodeMap struct {
	From    int
	To      int
	entries map[string][]Target
}

// NewRecodeMap creates an empty map between two vintage years.
func NewRecodeMap(from, to int) *RecodeMap {
	return &RecodeMap{
		From:    from,
		To:      to,
		entries: make(map[string][]Target),
	}
}

// Add registers targets for an old code. Repeated targets for the same
// old code accumulate their shares.
func (m *RecodeMap) Add(old string, targets ...Target) {
	existing := m.entries[old]
	for _, t := range targets {
		i := slices.IndexFunc(existing, func(e Target) bool { return e.Code == t.Code })
		if i >= 0 {
			existing[i].Share += t.Share
			continue
		}
		existing = append(existing, t)
	}
	m.entries[old] = existing
}

// Lookup returns the targets of an old code.
func (m *RecodeMap) Lookup(code string) ([]Target, bool) {
	targets, ok := m.entries[code]
	return targets, ok
}

// Len returns the number of old codes in the map.
func (m *RecodeMap) Len() int {
	return len(m.entries)
}

// Codes returns the old codes in ascending order.
func (m *RecodeMap) Codes() []string {
	return slices.Sorted(maps.Keys(m.entries))
}

// Missing returns the codes that have no entry in the map, sorted and unique.
func (m *RecodeMap) Missing(codes []string) []string {
	var missing []string
	seen := make(map[string]struct{})
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := m.entries[c]; !ok {
			missing = append(missing, c)
		}
	}
	slices.Sort(missing)
	return missing
}

// Validate checks every entry. A single target is a rename or merge and
// may omit its share; several targets are a split and need positive
// shares that sum to one.
func (m *RecodeMap) Validate() error {
	for _, old := range m.Codes() {
		targets := m.entries[old]
		switch {
		case len(targets) == 0:
			return errors.NewValidationError("recode_map", old, "code has no targets")
		case len(targets) == 1:
			if s := targets[0].Share; s != 0 && math.Abs(s-1) > shareTolerance {
				return errors.NewValidationError("recode_map", old,
					fmt.Sprintf("single target %s must carry the full volume, got share %g", targets[0].Code, s))
			}
		default:
			var total float64
			for _, t := range targets {
				if t.Share <= 0 {
					return errors.NewValidationError("recode_map", old,
						fmt.Sprintf("split into %d codes needs a positive share for %s", len(targets), t.Code))
				}
				total += t.Share
			}
			if math.Abs(total-1) > shareTolerance {
				return errors.NewValidationError("recode_map", old,
					fmt.Sprintf("split shares sum to %g, want 1", total))
			}
		}
	}
	return nil
}

// LoadRecodeMap reads a recode lookup table. The CSV must have the columns
// old_code and new_code, and may have share, from_year and to_year. When
// the year columns are present only rows for the (from, to) vintage pair
// are kept. Header names are matched case-insensitively.
func LoadRecodeMap(r io.Reader, from, to int) (*RecodeMap, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.WrapParse("csv", "recode lookup", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range flows.NormalizeColumns(header) {
		col[h] = i
	}
	oldIdx, okOld := col["old_code"]
	newIdx, okNew := col["new_code"]
	if !okOld || !okNew {
		return nil, errors.NewParseError("csv", "recode lookup", "header needs old_code and new_code columns", nil)
	}
	shareIdx, hasShare := col["share"]
	fromIdx, hasFrom := col["from_year"]
	toIdx, hasTo := col["to_year"]

	m := NewRecodeMap(from, to)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &errors.ParseError{Format: "csv", File: "recode lookup", Line: line, Message: err.Error(), Err: err}
		}

		field := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		if hasFrom && hasTo {
			f, errF := strconv.Atoi(field(fromIdx))
			t, errT := strconv.Atoi(field(toIdx))
			if errF != nil || errT != nil {
				return nil, &errors.ParseError{Format: "csv", File: "recode lookup", Line: line, Message: "invalid vintage year"}
			}
			if f != from || t != to {
				continue
			}
		}

		old, target := field(oldIdx), field(newIdx)
		if old == "" || target == "" {
			return nil, &errors.ParseError{Format: "csv", File: "recode lookup", Line: line, Message: "empty code"}
		}

		var share float64
		if hasShare {
			if s := field(shareIdx); s != "" {
				share, err = strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, &errors.ParseError{Format: "csv", File: "recode lookup", Line: line, Message: "invalid share", Err: err}
				}
			}
		}
		m.Add(old, Target{Code: target, Share: share})
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
