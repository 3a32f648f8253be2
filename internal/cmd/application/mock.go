package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/odflow/pkg/pipeline"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	PipelineFunc       func(ctx context.Context) (*pipeline.Pipeline, error)
	PipelineConfigFunc func() pipeline.Config
	LoggerFunc         func() *zerolog.Logger
	OutputFormatFunc   func() string
	VersionFunc        func() string
	CommitFunc         func() string
	DateFunc           func() string
	BuiltByFunc        func() string
}

var _ Application = (*Mock)(nil)

// Pipeline returns a pipeline using the mock function or nil.
func (m *Mock) Pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	if m.PipelineFunc != nil {
		return m.PipelineFunc(ctx)
	}
	return nil, nil
}

// PipelineConfig returns a configuration using the mock function or the defaults.
func (m *Mock) PipelineConfig() pipeline.Config {
	if m.PipelineConfigFunc != nil {
		return m.PipelineConfigFunc()
	}
	return pipeline.DefaultConfig()
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
