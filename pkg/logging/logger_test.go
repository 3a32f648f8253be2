package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/odflow/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
	if !strings.Contains(output, "warning message") {
		t.Errorf("Expected warning message in output, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithStep(ctx, "reconcile")
	ctx = logging.WithYear(ctx, 2011)
	ctx = logging.WithObject(ctx, "backseries.parquet.zip")

	logging.FromContext(ctx).Info().Msg("recoded")

	testLogger.AssertContains(t, `"step":"reconcile"`)
	testLogger.AssertContains(t, `"year":2011`)
	testLogger.AssertContains(t, "backseries.parquet.zip")
	testLogger.AssertContains(t, "recoded")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
}

func TestWithFields(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"files": 3,
		"ok":    true,
	})

	logging.Ctx(ctx).Info().Msg("combined")

	testLogger.AssertContains(t, `"files":3`)
	testLogger.AssertContains(t, `"ok":true`)
	assert.Len(t, testLogger.Lines(), 1)
}

func TestNewLoggerFromConfig(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(originalLevel) })

	path := filepath.Join(t.TempDir(), "odflow.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: path,
		Fields: map[string]any{"run": "nightly"},
	})

	logger.Info().Msg("filtered out")
	logger.Warn().Msg("kept")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	output := string(content)
	assert.NotContains(t, output, "filtered out")
	assert.Contains(t, output, "kept")
	assert.Contains(t, output, `"run":"nightly"`)
}

func TestConfigure(t *testing.T) {
	original := *logging.Default()
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(originalLevel)
	})

	path := filepath.Join(t.TempDir(), "configured.log")
	logging.Configure(&logging.Config{Level: "error", Format: "json", Output: path})

	logging.Warn().Msg("below threshold")
	logging.Error().Msg("recode failed")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "below threshold")
	assert.Contains(t, string(content), "recode failed")
	assert.Equal(t, zerolog.ErrorLevel, logging.Default().GetLevel())
}

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}
