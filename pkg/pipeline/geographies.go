package pipeline

import (
	"context"

	"github.com/agentstation/odflow/pkg/aggregate"
	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/logging"
	"github.com/agentstation/odflow/pkg/storage"
)

// Output file names written under the processed prefix.
const (
	LADGrossFile      = "lad_gross_flows.parquet"
	RegionODFile      = "region_od_series.parquet"
	CountryODFile     = "ctry_od_series.parquet"
	InnerOuterODFile  = "inner_outer_london_od_data.parquet"
	CombinedGrossFile = "ctry_region_gross_flows.parquet"
	NetFlowsFile      = "in_out_net_flows.parquet"
	ChildrenFlowsCSV  = "domestic_flows_children.csv"
)

// Geographies computes gross flows per local authority, aggregates the
// reconciled series to region, country and inner/outer London, and
// combines their gross flows into one table.
func (p *Pipeline) Geographies(ctx context.Context) (*StepResult, error) {
	return p.run(ctx, StepGeographies, func(ctx context.Context, res *StepResult) error {
		logger := logging.FromContext(ctx)

		records, years, err := readPartitioned(ctx, p.store, p.cfg.Paths.Series)
		if err != nil {
			return err
		}
		lad := aggregate.Collapse(records, false)

		regions, err := loadLookup(ctx, p.store, p.cfg.Lookups.Region)
		if err != nil {
			return err
		}
		countries, err := loadLookup(ctx, p.store, p.cfg.Lookups.Country)
		if err != nil {
			return err
		}
		innerOuter, err := loadLookup(ctx, p.store, p.cfg.Lookups.InnerOuter)
		if err != nil {
			return err
		}

		toGeography := func(l *aggregate.Lookup) []flows.Record {
			out, dropped := aggregate.ToGeography(lad, l)
			if dropped > 0 {
				logger.Warn().Str("lookup", l.Name).Int("dropped", dropped).Msg("Flows with unmapped areas dropped")
				res.warn("%d flows not in lookup %s", dropped, l.Name)
			}
			return out
		}
		regionOD := toGeography(regions)
		countryOD := toGeography(countries)
		innerOuterOD := toGeography(innerOuter)

		rounding := p.cfg.Rounding
		combined := aggregate.CombinedGross(
			aggregate.GrossFlows(countryOD, rounding),
			aggregate.GrossFlows(regionOD, rounding),
			aggregate.GrossFlows(innerOuterOD, rounding),
		)

		writes := []struct {
			file  string
			write func(key string) error
		}{
			{LADGrossFile, func(k string) error { return writeParquet(ctx, p.store, k, aggregate.GrossFlows(lad, rounding)) }},
			{RegionODFile, func(k string) error { return writeParquet(ctx, p.store, k, regionOD) }},
			{CountryODFile, func(k string) error { return writeParquet(ctx, p.store, k, countryOD) }},
			{InnerOuterODFile, func(k string) error { return writeParquet(ctx, p.store, k, innerOuterOD) }},
			{CombinedGrossFile, func(k string) error { return writeParquet(ctx, p.store, k, combined) }},
		}
		for _, w := range writes {
			key := storage.Join(p.cfg.Paths.Processed, w.file)
			if err := w.write(key); err != nil {
				return err
			}
			res.Outputs = append(res.Outputs, p.store.URI(key))
		}

		res.Files = len(writes)
		res.Records = len(lad)
		res.Years = years
		return nil
	})
}
