// Package application provides the application interface for odflow commands.
//
// Commands accept this interface rather than the concrete App type so they
// can be tested with Mock.
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/odflow/pkg/pipeline"
)

// Application provides what commands need from the CLI application.
type Application interface {
	// Pipeline returns the pipeline bound to the configured store. The store
	// is opened on first use.
	Pipeline(ctx context.Context) (*pipeline.Pipeline, error)

	// PipelineConfig returns the effective pipeline configuration.
	PipelineConfig() pipeline.Config

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, wide, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
