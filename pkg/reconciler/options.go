package reconciler

import (
	"github.com/agentstation/odflow/pkg/constants"
	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/gss"
)

// options configures a reconciler.
type options struct {
	oldVintage  int
	newVintage  int
	cutoverYear int
	pattern     gss.Pattern
	aggregator  flows.Aggregator
}

func defaultOptions() *options {
	return &options{
		oldVintage:  constants.DefaultOldVintage,
		newVintage:  constants.DefaultNewVintage,
		cutoverYear: constants.DefaultCutoverYear,
		pattern:     gss.MustCompilePattern(constants.DefaultRecodePattern),
		aggregator:  flows.Sum,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithCutoverYear sets the first year served by the new series.
func WithCutoverYear(year int) Option {
	return func(o *options) error {
		if year <= 0 {
			return &errors.ValidationError{
				Field:   "cutover_year",
				Value:   year,
				Message: "must be positive",
			}
		}
		o.cutoverYear = year
		return nil
	}
}

// WithVintages sets the geography years of the old and new series.
// A recode map passed to Reconcile must translate between them.
func WithVintages(oldVintage, newVintage int) Option {
	return func(o *options) error {
		if oldVintage <= 0 || newVintage <= 0 {
			return &errors.ValidationError{
				Field:   "vintage",
				Value:   [2]int{oldVintage, newVintage},
				Message: "vintage years must be positive",
			}
		}
		o.oldVintage = oldVintage
		o.newVintage = newVintage
		return nil
	}
}

// WithPattern sets the prefix pattern selecting codes subject to recoding.
func WithPattern(pattern gss.Pattern) Option {
	return func(o *options) error {
		if pattern.IsZero() {
			return &errors.ValidationError{
				Field:   "pattern",
				Message: "cannot be empty",
			}
		}
		o.pattern = pattern
		return nil
	}
}

// WithPatternExpr compiles and sets the recoding pattern, e.g. "E0|W0".
func WithPatternExpr(expr string) Option {
	return func(o *options) error {
		pattern, err := gss.CompilePattern(expr)
		if err != nil {
			return err
		}
		o.pattern = pattern
		return nil
	}
}

// WithAggregator sets how values of old codes merging onto one new code combine.
func WithAggregator(agg flows.Aggregator) Option {
	return func(o *options) error {
		if agg == nil {
			return &errors.ValidationError{
				Field:   "aggregator",
				Message: "cannot be nil",
			}
		}
		o.aggregator = agg
		return nil
	}
}
