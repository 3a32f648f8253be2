package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/odflow/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "object", ID: "raw/file.xlsx"}
		assert.Equal(t, "object raw/file.xlsx not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("object", "x")
		wrapped := fmt.Errorf("loading: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("cutover_year", 0, "must be positive")
		assert.Equal(t, "validation failed for field cutover_year: must be positive", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
	})
}

func TestMissingMappingError(t *testing.T) {
	t.Run("sorted and unique", func(t *testing.T) {
		err := pkgerrors.NewMissingMappingError("origin", []string{"E07000002", "E07000001", "E07000002"})
		assert.Equal(t, []string{"E07000001", "E07000002"}, err.Codes)
		assert.Equal(t, "no recode mapping for 2 origin code(s): E07000001, E07000002", err.Error())
		assert.True(t, pkgerrors.IsMissingMapping(err))
	})

	t.Run("truncates long lists", func(t *testing.T) {
		codes := make([]string, 12)
		for i := range codes {
			codes[i] = fmt.Sprintf("E0%07d", i)
		}
		err := pkgerrors.NewMissingMappingError("", codes)
		assert.Contains(t, err.Error(), "(and 2 more)")
	})

	t.Run("errors.As", func(t *testing.T) {
		var wrapped error = fmt.Errorf("reconcile: %w", pkgerrors.NewMissingMappingError("destination", []string{"W06000001"}))
		var mm *pkgerrors.MissingMappingError
		require.True(t, errors.As(wrapped, &mm))
		assert.Equal(t, "destination", mm.Field)
	})
}

func TestSchemaMismatchError(t *testing.T) {
	err := &pkgerrors.SchemaMismatchError{
		Left:      "old",
		Right:     "new",
		OnlyLeft:  []string{"sex"},
		OnlyRight: nil,
	}
	assert.Contains(t, err.Error(), "only in old [sex]")
	assert.True(t, pkgerrors.IsSchemaMismatch(err))
	assert.False(t, pkgerrors.IsEmptyInput(err))
}

func TestEmptyInputError(t *testing.T) {
	err := &pkgerrors.EmptyInputError{Input: "new series"}
	assert.Equal(t, "input new series is empty", err.Error())
	assert.True(t, pkgerrors.IsEmptyInput(err))
}

func TestAPIError(t *testing.T) {
	t.Run("server error is unavailable", func(t *testing.T) {
		err := &pkgerrors.APIError{Source: "ons", StatusCode: 503, Message: "Service Unavailable"}
		assert.Contains(t, err.Error(), "503")
		assert.True(t, pkgerrors.IsSourceUnavailable(err))
	})

	t.Run("client error is not", func(t *testing.T) {
		err := &pkgerrors.APIError{Source: "ons", StatusCode: 404, Message: "Not Found"}
		assert.False(t, pkgerrors.IsSourceUnavailable(err))
	})

	t.Run("unwrap", func(t *testing.T) {
		base := errors.New("connection reset")
		err := &pkgerrors.APIError{Source: "ons", Message: "request failed", Err: base}
		assert.Equal(t, base, errors.Unwrap(err))
	})
}

func TestWrapHelpers(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapIO("read", "x", nil))
	assert.Nil(t, pkgerrors.WrapParse("csv", "x", nil))
	assert.Nil(t, pkgerrors.WrapResource("load", "series", "x", nil))

	base := errors.New("boom")

	ioErr := pkgerrors.WrapIO("read", "raw/a.csv", base)
	var io *pkgerrors.IOError
	require.True(t, errors.As(ioErr, &io))
	assert.Equal(t, "IO error during read of raw/a.csv: boom", ioErr.Error())
	assert.ErrorIs(t, ioErr, base)

	parseErr := pkgerrors.WrapParse("xlsx", "a.xlsx", base)
	assert.Equal(t, "parse error in xlsx file a.xlsx: boom", parseErr.Error())

	resErr := pkgerrors.WrapResource("load", "lookup", "region", base)
	assert.Equal(t, "failed to load lookup region: boom", resErr.Error())
	assert.ErrorIs(t, resErr, base)
}

func TestConfigError(t *testing.T) {
	base := errors.New("unsupported scheme")
	err := pkgerrors.NewConfigError("storage", "cannot open s3://bucket", base)
	assert.Equal(t, "configuration error in storage: cannot open s3://bucket", err.Error())
	assert.ErrorIs(t, err, base)
}
