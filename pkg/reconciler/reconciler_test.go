package reconciler_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/gss"
	"github.com/agentstation/odflow/pkg/logging"
	"github.com/agentstation/odflow/pkg/reconciler"
)

func rec(origin, dest string, year int, value float64) flows.Record {
	return flows.Record{Origin: origin, Destination: dest, Year: year, Value: value}
}

func series(records ...flows.Record) flows.Series {
	return flows.NewSeries(nil, records)
}

// boundaryMap merges two districts into a unitary authority and keeps the
// other English and Welsh codes used by the fixtures unchanged.
func boundaryMap() *gss.RecodeMap {
	m := gss.NewRecodeMap(2021, 2023)
	m.Add("E07000004", gss.Target{Code: "E06000060"})
	m.Add("E07000005", gss.Target{Code: "E06000060"})
	m.Add("E06000060", gss.Target{Code: "E06000060"})
	m.Add("E06000001", gss.Target{Code: "E06000001"})
	m.Add("W06000001", gss.Target{Code: "W06000001"})
	return m
}

func boundaryOld() flows.Series {
	return series(
		rec("E07000004", "E06000001", 2010, 10),
		rec("E07000005", "E06000001", 2010, 20),
		rec("E06000001", "E07000004", 2010, 5),
		rec("W06000001", "E07000005", 2010, 7),
		rec("S12000033", "N09000001", 2010, 3),
		rec("E06000001", "E06000001", 2010, 50),
		rec("E07000004", "W06000001", 2011, 11),
		rec("E06000001", "E07000005", 2011, 13),
		rec("S12000033", "E07000004", 2011, 2),
		rec("E07000004", "E06000001", 2012, 999),
	)
}

func boundaryNew() flows.Series {
	return series(
		rec("E06000060", "E06000001", 2012, 31),
		rec("E06000001", "W06000001", 2012, 8),
		rec("E06000060", "W06000001", 2013, 12),
		rec("W06000001", "W06000001", 2013, 4),
	)
}

func newReconciler(t *testing.T, opts ...reconciler.Option) reconciler.Reconciler {
	t.Helper()
	r, err := reconciler.New(opts...)
	require.NoError(t, err)
	return r
}

func TestReconcileAggregatesMergedCodes(t *testing.T) {
	m := gss.NewRecodeMap(2021, 2023)
	m.Add("A1", gss.Target{Code: "N1"})
	m.Add("A2", gss.Target{Code: "N1"})

	r := newReconciler(t, reconciler.WithCutoverYear(2020), reconciler.WithPatternExpr("A"))
	result, err := r.Reconcile(context.Background(),
		series(rec("A1", "B1", 2015, 10), rec("A2", "B1", 2015, 5)),
		series(rec("N1", "B1", 2021, 3)),
		m)
	require.NoError(t, err)

	assert.Equal(t, []flows.Record{rec("N1", "B1", 2015, 15)}, result.Partitions()[2015])
	assert.Equal(t, []int{2015, 2021}, result.Years())
}

func TestReconcileRemovesSelfFlows(t *testing.T) {
	m := gss.NewRecodeMap(2021, 2023)
	m.Add("A1", gss.Target{Code: "N1"})

	r := newReconciler(t, reconciler.WithCutoverYear(2020), reconciler.WithPatternExpr("A"))
	result, err := r.Reconcile(context.Background(),
		series(rec("N1", "N1", 2019, 7), rec("A1", "B1", 2019, 1)),
		series(rec("N2", "N2", 2021, 1), rec("N2", "N1", 2021, 2)),
		m)
	require.NoError(t, err)

	for _, got := range result.Records {
		assert.NotEqual(t, got.Origin, got.Destination, "self-flow %+v in output", got)
	}
	assert.Equal(t, 2, result.Metadata.Stats.SelfFlowsDropped)
	assert.Len(t, result.Records, 2)
}

func TestReconcileMissingMapping(t *testing.T) {
	m := boundaryMap()
	old := boundaryOld()
	old.Records = append(slices.Clone(old.Records), rec("E07000099", "E06000001", 2011, 1))

	result, err := newReconciler(t).Reconcile(context.Background(), old, boundaryNew(), m)
	require.Error(t, err)
	assert.Nil(t, result)

	var mm *errors.MissingMappingError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, []string{"E07000099"}, mm.Codes)
	assert.Equal(t, "origin", mm.Field)
}

func TestReconcileMissingDestinationMapping(t *testing.T) {
	old := series(rec("E07000004", "W06000099", 2011, 1))
	_, err := newReconciler(t).Reconcile(context.Background(), old, boundaryNew(), boundaryMap())

	var mm *errors.MissingMappingError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "destination", mm.Field)
}

func TestReconcileIgnoresUnmappedCodesAfterCutover(t *testing.T) {
	old := series(
		rec("E07000004", "E06000001", 2011, 1),
		rec("E07000099", "E06000001", 2015, 1),
	)
	result, err := newReconciler(t).Reconcile(context.Background(), old, boundaryNew(), boundaryMap())
	require.NoError(t, err)
	assert.Equal(t, []int{2011}, result.Metadata.Stats.OldYears)
}

func TestReconcileConservesVolume(t *testing.T) {
	old := boundaryOld()
	result, err := newReconciler(t).Reconcile(context.Background(), old, boundaryNew(), boundaryMap())
	require.NoError(t, err)

	raw := map[int]float64{}
	for _, r := range old.Records {
		if r.Year < 2012 && !r.IsSelfFlow() {
			raw[r.Year] += r.Value
		}
	}
	got := flows.TotalByYear(result.Records)
	for year, want := range raw {
		assert.InDelta(t, want, got[year], 1e-9, "year %d", year)
	}
}

func TestReconcileYearPartition(t *testing.T) {
	old, newer := boundaryOld(), boundaryNew()
	result, err := newReconciler(t).Reconcile(context.Background(), old, newer, boundaryMap())
	require.NoError(t, err)

	stats := result.Metadata.Stats
	assert.Equal(t, []int{2010, 2011}, stats.OldYears)
	assert.Equal(t, []int{2012, 2013}, stats.NewYears)
	assert.Equal(t, []int{2010, 2011, 2012, 2013}, result.Years())

	for _, year := range stats.OldYears {
		assert.NotContains(t, stats.NewYears, year)
	}

	// The old series' 2012 record is replaced by the new series.
	for _, r := range result.Partitions()[2012] {
		assert.NotEqual(t, 999.0, r.Value)
	}
	assert.InDelta(t, 39.0, flows.TotalByYear(result.Records)[2012], 1e-9)
}

func TestReconcilePassThroughUnchanged(t *testing.T) {
	result, err := newReconciler(t).Reconcile(context.Background(), boundaryOld(), boundaryNew(), boundaryMap())
	require.NoError(t, err)

	assert.Contains(t, result.Records, rec("S12000033", "N09000001", 2010, 3))
}

func TestReconcileRecodesBothFields(t *testing.T) {
	result, err := newReconciler(t).Reconcile(context.Background(), boundaryOld(), boundaryNew(), boundaryMap())
	require.NoError(t, err)

	year2010 := result.Partitions()[2010]
	assert.Contains(t, year2010, rec("E06000060", "E06000001", 2010, 30))
	assert.Contains(t, year2010, rec("E06000001", "E06000060", 2010, 5))
	assert.Contains(t, year2010, rec("W06000001", "E06000060", 2010, 7))
	assert.Contains(t, result.Partitions()[2011], rec("S12000033", "E06000060", 2011, 2))

	for _, r := range result.Records {
		assert.NotEqual(t, "E07000004", r.Origin)
		assert.NotEqual(t, "E07000004", r.Destination)
		assert.NotEqual(t, "E07000005", r.Origin)
		assert.NotEqual(t, "E07000005", r.Destination)
	}
	assert.False(t, flows.HasDuplicateKeys(result.Records))
}

func TestReconcileOriginPassCreatesSelfFlow(t *testing.T) {
	// The origin pass maps E07000004 onto its already recoded destination,
	// so the record becomes a self-flow and is dropped along with its volume.
	old := series(
		rec("E07000004", "E06000060", 2011, 4),
		rec("E07000005", "E06000001", 2011, 6),
	)
	newer := series(rec("E06000060", "E06000001", 2012, 1))
	result, err := newReconciler(t).Reconcile(context.Background(), old, newer, boundaryMap())
	require.NoError(t, err)

	assert.Equal(t, []flows.Record{rec("E06000060", "E06000001", 2011, 6)}, result.Partitions()[2011])
	assert.Equal(t, 1, result.Metadata.Stats.SelfFlowsDropped)
}

func TestReconcileSplitConservesVolume(t *testing.T) {
	m := gss.NewRecodeMap(2021, 2023)
	m.Add("E07000026", gss.Target{Code: "E06000063", Share: 0.6}, gss.Target{Code: "E06000064", Share: 0.4})
	m.Add("E06000001", gss.Target{Code: "E06000001"})

	old := series(rec("E07000026", "E06000001", 2011, 50))
	result, err := newReconciler(t).Reconcile(context.Background(), old, boundaryNew(), m)
	require.NoError(t, err)

	got := result.Partitions()[2011]
	require.Len(t, got, 2)
	assert.Equal(t, "E06000063", got[0].Origin)
	assert.InDelta(t, 30.0, got[0].Value, 1e-9)
	assert.Equal(t, "E06000064", got[1].Origin)
	assert.InDelta(t, 20.0, got[1].Value, 1e-9)
}

func TestReconcileDestinationPassRunsFirst(t *testing.T) {
	m := gss.NewRecodeMap(2021, 2023)
	m.Add("E07000001", gss.Target{Code: "E06000100"})
	m.Add("E07000002", gss.Target{Code: "E06000100"})
	m.Add("E07000011", gss.Target{Code: "E06000200"})
	m.Add("E07000012", gss.Target{Code: "E06000200"})

	old := series(
		rec("E07000001", "E07000011", 2011, 10),
		rec("E07000002", "E07000011", 2011, 20),
		rec("E07000001", "E07000012", 2011, 30),
	)
	r, err := reconciler.New(reconciler.WithAggregator(flows.Mean))
	require.NoError(t, err)

	result, err := r.Reconcile(context.Background(), old, boundaryNew(), m)
	require.NoError(t, err)

	// Destinations first: mean(10, 30) and 20 for E07000001 and E07000002,
	// then origins: mean(20, 20).
	assert.Equal(t, []flows.Record{rec("E06000100", "E06000200", 2011, 20)}, result.Partitions()[2011])
	assert.Equal(t, 3, result.Metadata.Stats.DestinationPass.Eligible)
	assert.Equal(t, 2, result.Metadata.Stats.OriginPass.Eligible)
}

func TestReconcileRejectsInvalidRecodeMap(t *testing.T) {
	old := series(rec("E07000026", "S12000033", 2011, 59))

	t.Run("split without shares", func(t *testing.T) {
		m := gss.NewRecodeMap(2021, 2023)
		m.Add("E07000026", gss.Target{Code: "E06000063"}, gss.Target{Code: "E06000064"})

		result, err := newReconciler(t).Reconcile(context.Background(), old, boundaryNew(), m)
		assert.Nil(t, result)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("entry without targets", func(t *testing.T) {
		m := gss.NewRecodeMap(2021, 2023)
		m.Add("E07000026", gss.Target{Code: "E06000063"})
		m.Add("E07000099")

		result, err := newReconciler(t).Reconcile(context.Background(), old, boundaryNew(), m)
		assert.Nil(t, result)
		var invalid *errors.ValidationError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "E07000099", invalid.Value)
	})
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	old, newer := boundaryOld(), boundaryNew()
	oldCopy := slices.Clone(old.Records)
	newCopy := slices.Clone(newer.Records)

	_, err := newReconciler(t).Reconcile(context.Background(), old, newer, boundaryMap())
	require.NoError(t, err)

	assert.Equal(t, oldCopy, old.Records)
	assert.Equal(t, newCopy, newer.Records)
}

func TestReconcileNewSeriesBeforeCutover(t *testing.T) {
	newer := boundaryNew()
	newer.Records = append(slices.Clone(newer.Records), rec("E06000060", "E06000001", 2011, 1))

	logger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), logger.Logger)

	result, err := newReconciler(t).Reconcile(ctx, boundaryOld(), newer, boundaryMap())
	require.NoError(t, err)

	assert.Equal(t, []int{2010}, result.Metadata.Stats.OldYears)
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, []flows.Record{rec("E06000060", "E06000001", 2011, 1)}, result.Partitions()[2011])
	logger.AssertContains(t, "New series starts before cutover")
	logger.AssertNotContains(t, `"level":"error"`)
}

func TestReconcileQuietWithinCutover(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), logger.Logger)

	result, err := newReconciler(t).Reconcile(ctx, boundaryOld(), boundaryNew(), boundaryMap())
	require.NoError(t, err)

	assert.Empty(t, result.Warnings)
	logger.AssertContains(t, "Reconciled series")
	logger.AssertNotContains(t, "New series starts before cutover")
}

func TestReconcileInputErrors(t *testing.T) {
	ctx := context.Background()
	r := newReconciler(t)

	t.Run("empty old", func(t *testing.T) {
		_, err := r.Reconcile(ctx, series(), boundaryNew(), boundaryMap())
		var empty *errors.EmptyInputError
		require.ErrorAs(t, err, &empty)
		assert.Equal(t, "old series", empty.Input)
	})

	t.Run("empty new", func(t *testing.T) {
		_, err := r.Reconcile(ctx, boundaryOld(), series(), boundaryMap())
		assert.True(t, errors.IsEmptyInput(err))
	})

	t.Run("schema mismatch", func(t *testing.T) {
		old := flows.NewSeries([]string{"gss_out", "gss_in", "year", "moves"}, boundaryOld().Records)
		_, err := r.Reconcile(ctx, old, boundaryNew(), boundaryMap())
		var mismatch *errors.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, []string{"moves"}, mismatch.OnlyLeft)
	})

	t.Run("header case is ignored", func(t *testing.T) {
		cols := []string{"GSS_OUT", "GSS_IN", "Year", "Sex", "Age", "Value"}
		old := flows.NewSeries(cols, boundaryOld().Records)
		_, err := r.Reconcile(ctx, old, boundaryNew(), boundaryMap())
		assert.NoError(t, err)
	})

	t.Run("nil map", func(t *testing.T) {
		_, err := r.Reconcile(ctx, boundaryOld(), boundaryNew(), nil)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("vintage mismatch", func(t *testing.T) {
		m := gss.NewRecodeMap(2019, 2021)
		_, err := r.Reconcile(ctx, boundaryOld(), boundaryNew(), m)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestReconcileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newReconciler(t).Reconcile(ctx, boundaryOld(), boundaryNew(), boundaryMap())
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errors.ErrCanceled)
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  reconciler.Option
	}{
		{"zero cutover", reconciler.WithCutoverYear(0)},
		{"bad vintage", reconciler.WithVintages(0, 2023)},
		{"empty pattern", reconciler.WithPatternExpr("")},
		{"zero pattern", reconciler.WithPattern(gss.Pattern{})},
		{"nil aggregator", reconciler.WithAggregator(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reconciler.New(tt.opt)
			assert.Error(t, err)
		})
	}

	_, err := reconciler.New(reconciler.WithVintages(2019, 2021), reconciler.WithAggregator(flows.Max))
	assert.NoError(t, err)
}

func TestResultSummary(t *testing.T) {
	result, err := newReconciler(t).Reconcile(context.Background(), boundaryOld(), boundaryNew(), boundaryMap())
	require.NoError(t, err)

	assert.Contains(t, result.Summary(), "2010-2013")
	assert.Equal(t, len(result.Records), result.Metadata.Stats.OutputRecords)
	assert.Equal(t, flows.CanonicalColumns, result.Series().Columns)
}
