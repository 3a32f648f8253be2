package tabular

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
)

// columnAliases maps ONS publication headers to storage column names.
var columnAliases = map[string]string{
	"outla":       flows.ColOrigin,
	"inla":        flows.ColDestination,
	"la_out":      flows.ColOrigin,
	"la_in":       flows.ColDestination,
	"origin":      flows.ColOrigin,
	"destination": flows.ColDestination,
	"moves":       flows.ColValue,
	"flow":        flows.ColValue,
}

// CanonicalHeader normalizes a header and resolves ONS aliases.
func CanonicalHeader(h string) string {
	h = flows.NormalizeHeader(h)
	if alias, ok := columnAliases[h]; ok {
		return alias
	}
	return h
}

var yearPattern = regexp.MustCompile(`(?:19|20)\d{2}`)

// YearFromName returns the last four-digit year in a file name.
func YearFromName(name string) (int, bool) {
	matches := yearPattern.FindAllString(name, -1)
	if len(matches) == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(matches[len(matches)-1])
	return year, err == nil
}

// RecordsFromTable converts a table of flows into a series. Headers are
// normalized and aliased first. When the table has no year column every
// row gets defaultYear, which must then be positive.
func RecordsFromTable(t *Table, name string, defaultYear int) (flows.Series, error) {
	col := make(map[string]int, len(t.Header))
	columns := make([]string, 0, len(t.Header))
	for i, h := range t.Header {
		c := CanonicalHeader(h)
		if _, dup := col[c]; dup {
			return flows.Series{}, errors.NewParseError("table", name, "duplicate column "+c, nil)
		}
		col[c] = i
		columns = append(columns, c)
	}
	for _, required := range []string{flows.ColOrigin, flows.ColDestination, flows.ColValue} {
		if _, ok := col[required]; !ok {
			return flows.Series{}, errors.NewParseError("table", name, "missing column "+required, nil)
		}
	}
	yearIdx, hasYear := col[flows.ColYear]
	if !hasYear {
		if defaultYear <= 0 {
			return flows.Series{}, errors.NewParseError("table", name, "no year column and no year in file name", nil)
		}
		columns = append(columns, flows.ColYear)
	}
	sexIdx, hasSex := col[flows.ColSex]
	ageIdx, hasAge := col[flows.ColAge]

	records := make([]flows.Record, 0, t.Len())
	for r := range t.Rows {
		line := r + 2
		rec := flows.Record{
			Origin:      t.Cell(r, col[flows.ColOrigin]),
			Destination: t.Cell(r, col[flows.ColDestination]),
			Year:        defaultYear,
		}
		value, err := strconv.ParseFloat(t.Cell(r, col[flows.ColValue]), 64)
		if err != nil {
			return flows.Series{}, rowError(name, line, "value", err)
		}
		rec.Value = value
		if hasYear {
			if rec.Year, err = parseInt(t.Cell(r, yearIdx)); err != nil {
				return flows.Series{}, rowError(name, line, "year", err)
			}
		}
		if hasAge {
			if rec.Age, err = parseInt(t.Cell(r, ageIdx)); err != nil {
				return flows.Series{}, rowError(name, line, "age", err)
			}
		}
		if hasSex {
			rec.Sex = t.Cell(r, sexIdx)
		}
		records = append(records, rec)
	}
	return flows.NewSeries(columns, records), nil
}

// TableFromRecords renders records as a table with the canonical columns.
func TableFromRecords(records []flows.Record) *Table {
	t := &Table{Header: append([]string(nil), flows.CanonicalColumns...), Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			r.Origin,
			r.Destination,
			strconv.Itoa(r.Year),
			r.Sex,
			strconv.Itoa(r.Age),
			strconv.FormatFloat(r.Value, 'f', -1, 64),
		})
	}
	return t
}

// parseInt accepts integers written as floats ("2015.0") and open-ended
// ages ("90+").
func parseInt(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "+")
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}

func rowError(name string, line int, column string, err error) error {
	return &errors.ParseError{
		Format:  "table",
		File:    name,
		Line:    line,
		Message: "invalid " + column,
		Err:     err,
	}
}
