// Package pipeline runs the ETL steps that turn ONS internal migration
// publications into a reconciled origin/destination series and its
// derived aggregates. Each step reads its inputs from a storage.Store,
// writes its outputs back to it and returns a StepResult.
package pipeline

import (
	"context"
	"time"

	"github.com/agentstation/odflow/internal/ons"
	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/logging"
	"github.com/agentstation/odflow/pkg/storage"
)

// Step names.
const (
	StepScrape      = "scrape"
	StepClean       = "clean"
	StepCombine     = "combine"
	StepReconcile   = "reconcile"
	StepGeographies = "geographies"
	StepDenominator = "denominator"
	StepChildren    = "children"
)

// Steps lists the steps in execution order.
var Steps = []string{StepScrape, StepClean, StepCombine, StepReconcile, StepGeographies, StepDenominator, StepChildren}

// Fetcher downloads pages and files over HTTP.
type Fetcher interface {
	Links(ctx context.Context, pageURL, match string) ([]string, error)
	Download(ctx context.Context, fileURL string) ([]byte, error)
	DownloadAll(ctx context.Context, urls []string, handle func(ctx context.Context, fileURL string, body []byte) error) error
}

var _ Fetcher = (*ons.Client)(nil)

// Pipeline binds a configuration to a store for one invocation.
type Pipeline struct {
	cfg     Config
	store   storage.Store
	fetcher Fetcher
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithFetcher replaces the default ONS client.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) error {
		if f == nil {
			return errors.NewValidationError("fetcher", nil, "cannot be nil")
		}
		p.fetcher = f
		return nil
	}
}

// New validates cfg and returns a pipeline over store.
func New(cfg Config, store storage.Store, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, store: store}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.fetcher == nil {
		client, err := ons.New()
		if err != nil {
			return nil, err
		}
		p.fetcher = client
	}
	return p, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// WithConfig returns a copy of the pipeline that uses cfg over the same
// store and fetcher.
func (p *Pipeline) WithConfig(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := *p
	c.cfg = cfg
	return &c, nil
}

// Step runs one step by name.
func (p *Pipeline) Step(ctx context.Context, name string) (*StepResult, error) {
	switch name {
	case StepScrape:
		return p.Scrape(ctx)
	case StepClean:
		return p.Clean(ctx)
	case StepCombine:
		return p.Combine(ctx)
	case StepReconcile:
		return p.Reconcile(ctx)
	case StepGeographies:
		return p.Geographies(ctx)
	case StepDenominator:
		return p.Denominator(ctx)
	case StepChildren:
		return p.Children(ctx)
	default:
		return nil, errors.NewNotFoundError("step", name)
	}
}

// Run executes the named steps in order, or every step when names is
// empty. It stops at the first failing step and returns the results of
// the steps that completed.
func (p *Pipeline) Run(ctx context.Context, names ...string) ([]*StepResult, error) {
	if len(names) == 0 {
		names = Steps
	}
	results := make([]*StepResult, 0, len(names))
	for _, name := range names {
		res, err := p.Step(ctx, name)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// stepFunc is the body of a step. It fills in res.
type stepFunc func(ctx context.Context, res *StepResult) error

// run applies the step timeout, attaches the step to the logger and
// times the step.
func (p *Pipeline) run(ctx context.Context, name string, fn stepFunc) (*StepResult, error) {
	if p.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.StepTimeout)
		defer cancel()
	}
	ctx = logging.WithStep(ctx, name)
	logger := logging.FromContext(ctx)
	logger.Info().Msg("Starting step")

	res := &StepResult{Step: name, Status: StatusDone}
	start := time.Now()
	err := fn(ctx, res)
	res.Duration = time.Since(start)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", res.Duration).Msg("Step failed")
		return nil, err
	}

	logger.Info().
		Str("status", string(res.Status)).
		Int("files", res.Files).
		Int("records", res.Records).
		Dur("elapsed", res.Duration).
		Msg("Finished step")
	return res, nil
}
