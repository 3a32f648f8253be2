package output

import (
	"io"

	"github.com/agentstation/odflow/internal/cmd/constants"
	"github.com/agentstation/odflow/internal/cmd/table"
	"github.com/agentstation/odflow/pkg/pipeline"
)

// Results formats step results. Table formats get one row per step;
// JSON and YAML get the results as they are.
func Results(w io.Writer, results []*pipeline.StepResult, format string) error {
	formatter := NewFormatter(Format(format))

	var outputData any
	switch format {
	case constants.FormatTable, constants.FormatWide, "":
		outputData = table.StepResultsToTableData(results, format == constants.FormatWide)
	default:
		outputData = results
	}

	return formatter.Format(w, outputData)
}

// Any formats any data type for output.
func Any(w io.Writer, data any, format string) error {
	return NewFormatter(Format(format)).Format(w, data)
}
