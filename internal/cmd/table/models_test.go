package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/odflow/internal/cmd/emoji"
	"github.com/agentstation/odflow/pkg/pipeline"
)

func TestStepResultsToTableData(t *testing.T) {
	results := []*pipeline.StepResult{
		{Step: "clean", Status: pipeline.StatusDone, Files: 3, Records: 4200, Warnings: []string{"skipped legacy workbook raw/a.xls"}},
		{Step: "scrape", Status: pipeline.StatusNoFiles},
	}

	data := StepResultsToTableData(results, false)
	assert.Len(t, data.Headers, 6)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"clean", emoji.Warning + " done", "3", "4,200", "-", "0s"}, data.Rows[0])
	assert.Equal(t, emoji.Optional+" no files", data.Rows[1][1])

	wide := StepResultsToTableData(results, true)
	assert.Len(t, wide.Headers, 8)
	assert.Len(t, wide.ColumnAlignment, 8)
	assert.Equal(t, "skipped legacy workbook raw/a.xls", wide.Rows[0][7])
	assert.Equal(t, "-", wide.Rows[1][6])
}

func TestFormatYears(t *testing.T) {
	assert.Equal(t, "-", FormatYears(nil))
	assert.Equal(t, "2012", FormatYears([]int{2012}))
	assert.Equal(t, "2002-2022", FormatYears([]int{2002, 2010, 2022}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond+300*time.Microsecond))
	assert.Equal(t, "1.5s", FormatDuration(1520*time.Millisecond))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "12,345,678", FormatNumber(12345678))
}
