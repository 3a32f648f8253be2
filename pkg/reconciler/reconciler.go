// Package reconciler joins an old and a new ONS migration series into one
// continuous series. Area codes of the old series are recoded to the new
// geography vintage, destination first and origin second, before the two
// series are cut over at a configured year.
package reconciler

import (
	"context"
	"fmt"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/gss"
	"github.com/agentstation/odflow/pkg/logging"
)

// Reconciler combines two flow series keyed by different geography vintages.
type Reconciler interface {
	// Reconcile recodes old to the new vintage and unions it with newer.
	// Inputs are never modified.
	Reconcile(ctx context.Context, old, newer flows.Series, m *gss.RecodeMap) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	opts *options
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{opts: options}, nil
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(ctx context.Context, old, newer flows.Series, m *gss.RecodeMap) (*Result, error) {
	logger := logging.FromContext(ctx)
	result := newResult(r.opts)

	// Step 1: Validate inputs before touching any record
	if err := r.validate(old, newer, m); err != nil {
		return nil, err
	}
	result.Columns = flows.NormalizeColumns(newer.Columns)
	stats := &result.Metadata.Stats
	stats.OldRecords = old.Len()
	stats.NewRecords = newer.Len()

	// Step 2: Keep the old series below the cutover and check coverage
	before := beforeCutover(old.Records, r.opts.cutoverYear)
	stats.OldBeforeCutover = len(before)
	if err := gss.CheckCoverage(before, r.opts.pattern, m, flows.Origin, flows.Destination); err != nil {
		return nil, err
	}

	// Step 3: Recode destinations, then origins
	recoded, destStats, err := gss.RecodeField(before, flows.Destination, r.opts.pattern, m, r.opts.aggregator)
	if err != nil {
		return nil, err
	}
	stats.DestinationPass = destStats
	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}

	recoded, originStats, err := gss.RecodeField(recoded, flows.Origin, r.opts.pattern, m, r.opts.aggregator)
	if err != nil {
		return nil, err
	}
	stats.OriginPass = originStats
	logger.Debug().
		Int("destination_recoded", destStats.Recoded).
		Int("origin_recoded", originStats.Recoded).
		Msg("Recoded old series")

	// Step 4: Cut over so each year comes from exactly one series
	newYears := flows.Years(newer.Records)
	if early := yearsBefore(newYears, r.opts.cutoverYear); len(early) > 0 {
		msg := fmt.Sprintf("new series starts before cutover %d: years %v served by new series only", r.opts.cutoverYear, early)
		result.Warnings = append(result.Warnings, msg)
		logger.Warn().Ints("years", early).Int("cutover_year", r.opts.cutoverYear).Msg("New series starts before cutover")
	}
	recoded = withoutYears(recoded, newYears)
	stats.OldYears = flows.Years(recoded)
	stats.NewYears = newYears

	combined := make([]flows.Record, 0, len(recoded)+newer.Len())
	combined = append(combined, recoded...)
	combined = append(combined, newer.Records...)

	// Step 5: Drop self-flows and consolidate duplicate keys
	combined, stats.SelfFlowsDropped = dropSelfFlows(combined)
	result.Records = flows.Sorted(flows.Group(combined, flows.Sum))

	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}
	result.finalize()

	logger.Info().
		Int("records", len(result.Records)).
		Int("old_years", len(stats.OldYears)).
		Int("new_years", len(stats.NewYears)).
		Int("self_flows_dropped", stats.SelfFlowsDropped).
		Msg("Reconciled series")

	return result, nil
}

// validate checks inputs for emptiness, schema agreement and vintages.
func (r *reconciler) validate(old, newer flows.Series, m *gss.RecodeMap) error {
	if m == nil {
		return &errors.ValidationError{Field: "recode_map", Message: "cannot be nil"}
	}
	if old.IsEmpty() {
		return &errors.EmptyInputError{Input: "old series"}
	}
	if newer.IsEmpty() {
		return &errors.EmptyInputError{Input: "new series"}
	}
	if onlyOld, onlyNew := flows.DiffColumns(old.Columns, newer.Columns); len(onlyOld) > 0 || len(onlyNew) > 0 {
		return &errors.SchemaMismatchError{
			Left:      "old series",
			Right:     "new series",
			OnlyLeft:  onlyOld,
			OnlyRight: onlyNew,
		}
	}
	if m.From != r.opts.oldVintage || m.To != r.opts.newVintage {
		return errors.NewValidationError("recode_map",
			fmt.Sprintf("%d->%d", m.From, m.To),
			fmt.Sprintf("recodes %d->%d, want %d->%d", m.From, m.To, r.opts.oldVintage, r.opts.newVintage))
	}
	return m.Validate()
}

// canceled marks a context error so callers can match either
// errors.ErrCanceled or the context sentinel.
func canceled(err error) error {
	return fmt.Errorf("reconcile: %w: %w", errors.ErrCanceled, err)
}
