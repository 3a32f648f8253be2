package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/pipeline"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultStore, config.Store)
	assert.Equal(t, "auto", config.LogFormat)
	assert.Equal(t, pipeline.DefaultConfig(), config.Pipeline)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("ODFLOW_STORE", "/tmp/odflow")
	t.Setenv("ODFLOW_CUTOVER_YEAR", "2014")
	t.Setenv("ODFLOW_PATHS_RAW", "ons/raw/")
	t.Setenv("ODFLOW_STEP_TIMEOUT", "10m")
	t.Setenv("ODFLOW_LOOKUPS_REGION_KEY", "lookups/rgn.csv")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/odflow", config.Store)
	assert.Equal(t, 2014, config.Pipeline.CutoverYear)
	assert.Equal(t, "ons/raw/", config.Pipeline.Paths.Raw)
	assert.Equal(t, 10*time.Minute, config.Pipeline.StepTimeout)
	assert.Equal(t, "lookups/rgn.csv", config.Pipeline.Lookups.Region.Key)
	assert.Equal(t, "region_code", config.Pipeline.Lookups.Region.ValueColumn)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`store: gs://other-bucket/migration
cutover_year: 2011
aggregation: mean
paths:
  series: series/
log:
  level: debug
`), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, "gs://other-bucket/migration", config.Store)
	assert.Equal(t, 2011, config.Pipeline.CutoverYear)
	assert.Equal(t, "mean", config.Pipeline.Aggregation)
	assert.Equal(t, "series/", config.Pipeline.Paths.Series)
	assert.Equal(t, pipeline.DefaultConfig().Paths.Raw, config.Pipeline.Paths.Raw)
	if os.Getenv("LOG_LEVEL") == "" {
		assert.Equal(t, "debug", config.LogLevel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Format: "json", Store: "gs://a", LogLevel: "info"}

	config.UpdateFromFlags(true, false, true, "", "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "json", config.Format, "empty flag keeps the configured value")
	assert.Equal(t, "gs://a", config.Store)

	config.UpdateFromFlags(false, true, false, "yaml", "error", "./data")
	assert.Equal(t, "yaml", config.Format)
	assert.Equal(t, "error", config.LogLevel)
	assert.Equal(t, "./data", config.Store)
}
