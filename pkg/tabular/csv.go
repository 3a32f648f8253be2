package tabular

import (
	"encoding/csv"
	"io"

	"github.com/agentstation/odflow/pkg/errors"
)

// ReadCSV reads a CSV document whose first record is the header.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", name, err)
	}
	if len(records) == 0 {
		return nil, errors.NewParseError("csv", name, "missing header row", nil)
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// WriteCSV writes the header and rows of t.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return errors.WrapIO("write", "csv header", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return errors.WrapIO("write", "csv rows", err)
	}
	return nil
}
