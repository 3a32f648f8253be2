package pipeline

import (
	"context"

	"github.com/agentstation/odflow/pkg/aggregate"
	"github.com/agentstation/odflow/pkg/logging"
	"github.com/agentstation/odflow/pkg/storage"
)

// Children derives flows of children (ages up to ChildMaxAge) between
// regions and inner and outer London, with totals, and writes their
// in/out/net flows as Parquet and an age-wide CSV.
func (p *Pipeline) Children(ctx context.Context) (*StepResult, error) {
	return p.run(ctx, StepChildren, func(ctx context.Context, res *StepResult) error {
		if ok, err := p.store.Exists(ctx, p.cfg.Paths.Population); err != nil {
			return err
		} else if !ok {
			logging.FromContext(ctx).Warn().Str("object", p.cfg.Paths.Population).Msg("Population denominator missing")
			res.warn("population denominator %s missing", p.cfg.Paths.Population)
		}

		records, years, err := readPartitioned(ctx, p.store, p.cfg.Paths.Series)
		if err != nil {
			return err
		}
		regions, err := loadLookup(ctx, p.store, p.cfg.Lookups.Region)
		if err != nil {
			return err
		}
		innerOuter, err := loadLookup(ctx, p.store, p.cfg.Lookups.InnerOuter)
		if err != nil {
			return err
		}

		children := aggregate.ChildrenFlows(records, regions, innerOuter, p.cfg.ChildMaxAge)
		net := aggregate.NetFlows(children)

		netKey := storage.Join(p.cfg.Paths.Processed, NetFlowsFile)
		if err := writeParquet(ctx, p.store, netKey, net); err != nil {
			return err
		}
		wideKey := storage.Join(p.cfg.Paths.Processed, ChildrenFlowsCSV)
		if err := writeCSV(ctx, p.store, wideKey, aggregate.PivotByAge(net)); err != nil {
			return err
		}

		res.Outputs = []string{p.store.URI(netKey), p.store.URI(wideKey)}
		res.Files = 2
		res.Records = len(net)
		res.Years = years
		return nil
	})
}
