package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/odflow/internal/cmd/application"
	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/pipeline"
)

func TestSelectSteps(t *testing.T) {
	steps, err := selectSteps(nil, "")
	require.NoError(t, err)
	assert.Empty(t, steps, "empty selects every step")

	steps, err = selectSteps([]string{"clean", "combine"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"clean", "combine"}, steps)

	steps, err = selectSteps(nil, pipeline.StepGeographies)
	require.NoError(t, err)
	assert.Equal(t, []string{pipeline.StepGeographies, pipeline.StepDenominator, pipeline.StepChildren}, steps)

	_, err = selectSteps([]string{"clean"}, "combine")
	assert.True(t, errors.IsValidationError(err))

	_, err = selectSteps(nil, "publish")
	assert.True(t, errors.IsNotFound(err))
}

func TestRunRejectsUnknownStep(t *testing.T) {
	cmd := NewCommand(&application.Mock{})
	cmd.SetArgs([]string{"publish"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}
