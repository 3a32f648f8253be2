package reconciler

import (
	"fmt"
	"slices"
	"time"

	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/gss"
)

// Result represents the outcome of a reconciliation.
type Result struct {
	// Records is the reconciled series, sorted by year then key.
	Records []flows.Record

	// Columns is the shared column set of both inputs.
	Columns []string

	// Metadata
	Metadata ResultMetadata

	// Warnings are non-fatal data issues found while reconciling.
	Warnings []string
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	CutoverYear int
	OldVintage  int
	NewVintage  int
	Pattern     string

	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	OldRecords       int
	NewRecords       int
	OldBeforeCutover int
	OriginPass       gss.FieldStats
	DestinationPass  gss.FieldStats
	SelfFlowsDropped int
	OutputRecords    int
	OldYears         []int
	NewYears         []int
}

// newResult creates a result with the start time set.
func newResult(opts *options) *Result {
	return &Result{
		Warnings: []string{},
		Metadata: ResultMetadata{
			StartTime:   time.Now(),
			CutoverYear: opts.cutoverYear,
			OldVintage:  opts.oldVintage,
			NewVintage:  opts.newVintage,
			Pattern:     opts.pattern.String(),
		},
	}
}

// finalize calculates duration and marks completion.
func (r *Result) finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.OutputRecords = len(r.Records)
}

// Series returns the reconciled records as a series.
func (r *Result) Series() flows.Series {
	return flows.Series{Columns: slices.Clone(r.Columns), Records: r.Records}
}

// Years returns the years present in the output in ascending order.
func (r *Result) Years() []int {
	return flows.Years(r.Records)
}

// Partitions groups the output by year for partitioned writers.
func (r *Result) Partitions() map[int][]flows.Record {
	return flows.ByYear(r.Records)
}

// Total sums every output value.
func (r *Result) Total() float64 {
	var total float64
	for _, rec := range r.Records {
		total += rec.Value
	}
	return total
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	years := r.Years()
	if len(years) == 0 {
		return "Reconciliation produced no records"
	}
	s := r.Metadata.Stats
	return fmt.Sprintf("Reconciled %d records for %d-%d (%d years from old series, %d from new, %d self-flows dropped)",
		len(r.Records), years[0], years[len(years)-1], len(s.OldYears), len(s.NewYears), s.SelfFlowsDropped)
}
