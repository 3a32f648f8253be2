// Package tabular reads and writes the file formats the pipeline moves
// between steps: Excel workbooks published by ONS, CSV, Parquet (single
// files and year-partitioned datasets) and zip archives.
package tabular

import (
	"slices"
	"strings"

	"github.com/agentstation/odflow/pkg/flows"
)

// Table is a header row plus string cells. Rows may be ragged.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the named column, matched after
// normalization, or -1.
func (t *Table) Column(name string) int {
	name = flows.NormalizeHeader(name)
	for i, h := range t.Header {
		if flows.NormalizeHeader(h) == name {
			return i
		}
	}
	return -1
}

// Cell returns a trimmed cell, or "" when the row is too short.
func (t *Table) Cell(row, col int) string {
	if col < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// NormalizeHeader lower-cases and trims every header cell in place.
func (t *Table) NormalizeHeader() {
	t.Header = flows.NormalizeColumns(t.Header)
}

// DropIncomplete returns a copy of t without rows that are shorter than
// the header or have a blank cell, and the number of rows dropped.
func DropIncomplete(t *Table) (*Table, int) {
	out := &Table{Header: slices.Clone(t.Header), Rows: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		if complete(row, len(t.Header)) {
			out.Rows = append(out.Rows, row[:len(t.Header)])
		}
	}
	return out, len(t.Rows) - len(out.Rows)
}

func complete(row []string, width int) bool {
	if len(row) < width {
		return false
	}
	for _, cell := range row[:width] {
		if strings.TrimSpace(cell) == "" {
			return false
		}
	}
	return true
}

// Concat appends the rows of b to a copy of a, aligning b's columns to
// a's header by name. Columns of b missing from a are dropped; columns
// of a missing from b are left blank.
func Concat(a, b *Table) *Table {
	out := &Table{Header: slices.Clone(a.Header), Rows: slices.Clone(a.Rows)}
	index := make([]int, len(a.Header))
	for i, h := range a.Header {
		index[i] = b.Column(h)
	}
	for r := range b.Rows {
		row := make([]string, len(a.Header))
		for i, src := range index {
			row[i] = b.Cell(r, src)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
