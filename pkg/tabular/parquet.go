package tabular

import (
	"bytes"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
)

// ReadParquet decodes every row of a Parquet file into T. File columns
// are matched to T by the parquet struct tags; differing physical types
// are converted.
func ReadParquet[T any](data []byte, name string) ([]T, error) {
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.WrapParse("parquet", name, err)
	}
	return rows, nil
}

// WriteParquet encodes rows as a Parquet file.
func WriteParquet[T any](w io.Writer, rows []T) error {
	if err := parquet.Write(w, rows); err != nil {
		return errors.WrapIO("write", "parquet", err)
	}
	return nil
}

// ParquetColumns returns the top-level column names of a Parquet file.
func ParquetColumns(data []byte, name string) ([]string, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.WrapParse("parquet", name, err)
	}
	fields := f.Schema().Fields()
	cols := make([]string, len(fields))
	for i, field := range fields {
		cols[i] = field.Name()
	}
	return cols, nil
}

// ReadFlows decodes a Parquet file of flow records. The series keeps the
// file's column set for schema checks.
func ReadFlows(data []byte, name string) (flows.Series, error) {
	cols, err := ParquetColumns(data, name)
	if err != nil {
		return flows.Series{}, err
	}
	records, err := ReadParquet[flows.Record](data, name)
	if err != nil {
		return flows.Series{}, err
	}
	return flows.NewSeries(cols, records), nil
}

// EncodeFlows writes records as a Parquet file in memory.
func EncodeFlows(records []flows.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
