package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/pipeline"
)

func sampleResults() []*pipeline.StepResult {
	return []*pipeline.StepResult{
		{
			Step:     pipeline.StepReconcile,
			Status:   pipeline.StatusDone,
			Files:    21,
			Records:  1234567,
			Years:    []int{2002, 2022},
			Outputs:  []string{"file:///data/series/year=2002/part-00000.parquet"},
			Duration: 1500 * time.Millisecond,
		},
		{Step: pipeline.StepDenominator, Status: pipeline.StatusSkipped},
	}
}

func TestResultsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Results(&buf, sampleResults(), "table"))
	out := buf.String()
	assert.Contains(t, out, "reconcile")
	assert.Contains(t, out, "1,234,567")
	assert.Contains(t, out, "2002-2022")
	assert.NotContains(t, out, "part-00000.parquet")
}

func TestResultsWide(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Results(&buf, sampleResults(), "wide"))
	assert.Contains(t, buf.String(), "part-00000.parquet")
}

func TestResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Results(&buf, sampleResults(), "json"))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "reconcile", decoded[0]["step"])
	assert.Equal(t, "skipped", decoded[1]["status"])
}

func TestResultsYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Results(&buf, sampleResults(), "yaml"))
	assert.Contains(t, buf.String(), "step: reconcile")
	assert.Contains(t, buf.String(), "status: skipped")
}

func TestAnyStructFlattens(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Any(&buf, pipeline.DefaultConfig(), "table"))
	out := buf.String()
	assert.Contains(t, out, "cutover_year")
	assert.Contains(t, out, "paths.series")
	assert.Contains(t, out, "lookups.inner_outer.value_column")
	assert.Contains(t, out, "30m0s")
}

func TestAnyStructSlice(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Any(&buf, []struct {
		GSSCode string `json:"gss_code"`
		Inflow  float64
	}{{"E09000001", 12.5}}, "table"))
	assert.Contains(t, buf.String(), "E09000001")
	assert.Contains(t, buf.String(), "12.5")
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", "yaml", "wide", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.True(t, errors.IsValidationError(err))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
	// go test pipes stdout
	assert.Contains(t, []Format{FormatTable, FormatJSON}, DetectFormat(""))
}
