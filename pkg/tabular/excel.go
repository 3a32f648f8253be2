package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/odflow/pkg/errors"
)

// SheetNames lists the worksheets of a workbook in order.
func SheetNames(r io.Reader, name string) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.WrapParse("xlsx", name, err)
	}
	defer func() { _ = f.Close() }()
	return f.GetSheetList(), nil
}

// ReadSheet reads the worksheet at the zero-based index. The first row is
// the header.
func ReadSheet(r io.Reader, name string, index int) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.WrapParse("xlsx", name, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if index < 0 || index >= len(sheets) {
		return nil, errors.NewValidationError("sheet_index", index,
			fmt.Sprintf("%s has %d sheets", name, len(sheets)))
	}

	rows, err := f.GetRows(sheets[index])
	if err != nil {
		return nil, errors.WrapParse("xlsx", name, err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParseError("xlsx", name, fmt.Sprintf("sheet %q is empty", sheets[index]), nil)
	}
	return &Table{Header: rows[0], Rows: rows[1:]}, nil
}
