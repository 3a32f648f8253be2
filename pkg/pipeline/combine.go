package pipeline

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/logging"
	"github.com/agentstation/odflow/pkg/storage"
	"github.com/agentstation/odflow/pkg/tabular"
)

// Combine concatenates the cleaned CSVs into one Parquet flow file. Each
// file's headers are lower-cased and ONS column names are mapped to the
// storage schema; files without a year column take the year in their name.
func (p *Pipeline) Combine(ctx context.Context) (*StepResult, error) {
	return p.run(ctx, StepCombine, func(ctx context.Context, res *StepResult) error {
		keys, err := p.store.List(ctx, p.cfg.Paths.Clean)
		if err != nil {
			return err
		}
		var files []string
		for _, k := range keys {
			if strings.EqualFold(path.Ext(k), ".csv") {
				files = append(files, k)
			}
		}
		if len(files) == 0 {
			res.Status = StatusNoFiles
			return nil
		}

		var records []flows.Record
		for _, key := range files {
			data, err := p.store.Get(ctx, key)
			if err != nil {
				return err
			}
			table, err := tabular.ReadCSV(bytes.NewReader(data), key)
			if err != nil {
				return err
			}
			year, _ := tabular.YearFromName(storage.Base(key))
			series, err := tabular.RecordsFromTable(table, key, year)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Debug().
				Str("object", key).
				Int("records", series.Len()).
				Msg("Read cleaned file")
			records = append(records, series.Records...)
		}

		if err := writeParquet(ctx, p.store, p.cfg.Paths.Combined, records); err != nil {
			return err
		}
		res.Files = len(files)
		res.Records = len(records)
		res.Years = flows.Years(records)
		res.Outputs = []string{p.store.URI(p.cfg.Paths.Combined)}
		return nil
	})
}
