// Package app provides the application context and dependency management
// for the odflow CLI. It centralizes configuration, logging and the
// lifecycle of the storage backend shared by every command.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/odflow/internal/cmd/application"
	"github.com/agentstation/odflow/internal/cmd/output"
	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/pipeline"
	"github.com/agentstation/odflow/pkg/storage"
)

// App represents the odflow application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Store and pipeline (lazy-initialized, singleton)
	mu       sync.Mutex
	store    storage.Store
	pipeline *pipeline.Pipeline
	fetcher  pipeline.Fetcher
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
// Configuration is loaded from the default sources and can be replaced
// with functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format, or table on a
// terminal and JSON otherwise.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// PipelineConfig returns the effective pipeline configuration.
func (a *App) PipelineConfig() pipeline.Config {
	return a.config.Pipeline
}

// Pipeline returns the pipeline over the configured store, opening the
// store on first use.
func (a *App) Pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pipeline != nil {
		return a.pipeline, nil
	}

	if a.store == nil {
		store, err := storage.Open(ctx, a.config.Store, a.storageOptions()...)
		if err != nil {
			return nil, errors.WrapResource("open", "store", a.config.Store, err)
		}
		a.store = store
	}

	var opts []pipeline.Option
	if a.fetcher != nil {
		opts = append(opts, pipeline.WithFetcher(a.fetcher))
	}
	p, err := pipeline.New(a.config.Pipeline, a.store, opts...)
	if err != nil {
		return nil, err
	}
	a.pipeline = p
	return p, nil
}

// Shutdown releases the store.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store, a.pipeline = nil, nil
	return err
}

func (a *App) storageOptions() []storage.Option {
	var opts []storage.Option
	if a.config.Credentials != "" {
		opts = append(opts, storage.WithCredentials(a.config.Credentials))
	}
	if a.config.Endpoint != "" {
		opts = append(opts, storage.WithEndpoint(a.config.Endpoint))
	}
	if a.config.Anonymous {
		opts = append(opts, storage.WithAnonymous(true))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the storage backend (useful for testing).
func WithStore(store storage.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// WithFetcher replaces the ONS client used by the pipeline.
func WithFetcher(f pipeline.Fetcher) Option {
	return func(a *App) error {
		a.fetcher = f
		return nil
	}
}
