package pipeline

import (
	"bytes"
	"context"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/gss"
	"github.com/agentstation/odflow/pkg/reconciler"
)

// Reconcile recodes the backseries to the new geography, joins it with the
// combined ONS series at the cutover year and writes the result as a
// year-partitioned Parquet dataset.
func (p *Pipeline) Reconcile(ctx context.Context) (*StepResult, error) {
	return p.run(ctx, StepReconcile, func(ctx context.Context, res *StepResult) error {
		old, err := readFlows(ctx, p.store, p.cfg.Paths.Backseries)
		if err != nil {
			return errors.WrapResource("load", "backseries", p.cfg.Paths.Backseries, err)
		}
		newer, err := readFlows(ctx, p.store, p.cfg.Paths.Combined)
		if err != nil {
			return errors.WrapResource("load", "new series", p.cfg.Paths.Combined, err)
		}

		lookup, err := p.store.Get(ctx, p.cfg.Paths.Recode)
		if err != nil {
			return errors.WrapResource("load", "recode lookup", p.cfg.Paths.Recode, err)
		}
		recodeMap, err := gss.LoadRecodeMap(bytes.NewReader(lookup), p.cfg.OldVintage, p.cfg.NewVintage)
		if err != nil {
			return err
		}

		agg, err := flows.ParseAggregator(p.cfg.Aggregation)
		if err != nil {
			return err
		}
		r, err := reconciler.New(
			reconciler.WithCutoverYear(p.cfg.CutoverYear),
			reconciler.WithVintages(p.cfg.OldVintage, p.cfg.NewVintage),
			reconciler.WithPatternExpr(p.cfg.Pattern),
			reconciler.WithAggregator(agg),
		)
		if err != nil {
			return err
		}

		result, err := r.Reconcile(ctx, old, newer, recodeMap)
		if err != nil {
			return err
		}

		keys, err := writePartitioned(ctx, p.store, p.cfg.Paths.Series, result.Partitions())
		if err != nil {
			return err
		}
		for _, k := range keys {
			res.Outputs = append(res.Outputs, p.store.URI(k))
		}
		res.Files = len(keys)
		res.Records = len(result.Records)
		res.Years = result.Years()
		res.Warnings = append(res.Warnings, result.Warnings...)
		return nil
	})
}
