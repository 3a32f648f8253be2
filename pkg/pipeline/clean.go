package pipeline

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/agentstation/odflow/pkg/logging"
	"github.com/agentstation/odflow/pkg/storage"
	"github.com/agentstation/odflow/pkg/tabular"
)

// Clean reads the detailed estimates sheet of every raw workbook, drops
// incomplete rows and stores the result as CSV under the clean prefix.
func (p *Pipeline) Clean(ctx context.Context) (*StepResult, error) {
	return p.run(ctx, StepClean, func(ctx context.Context, res *StepResult) error {
		logger := logging.FromContext(ctx)

		keys, err := p.store.List(ctx, p.cfg.Paths.Raw)
		if err != nil {
			return err
		}

		var workbooks []string
		for _, k := range keys {
			switch strings.ToLower(path.Ext(k)) {
			case ".xlsx":
				workbooks = append(workbooks, k)
			case ".xls":
				logger.Warn().Str("object", k).Msg("Skipping legacy .xls workbook")
				res.warn("skipped legacy workbook %s", k)
			}
		}
		if len(workbooks) == 0 {
			res.Status = StatusNoFiles
			return nil
		}

		for _, key := range workbooks {
			data, err := p.store.Get(ctx, key)
			if err != nil {
				return err
			}
			table, err := tabular.ReadSheet(bytes.NewReader(data), key, p.cfg.SheetIndex)
			if err != nil {
				return err
			}
			clean, dropped := tabular.DropIncomplete(table)

			out := storage.Join(p.cfg.Paths.Clean, CleanName(storage.Base(key)))
			if err := writeCSV(ctx, p.store, out, clean); err != nil {
				return err
			}
			logger.Info().
				Str("object", key).
				Int("rows", clean.Len()).
				Int("dropped", dropped).
				Msg("Cleaned workbook")

			res.Outputs = append(res.Outputs, p.store.URI(out))
			res.Records += clean.Len()
		}
		res.Files = len(workbooks)
		return nil
	})
}

// CleanName maps a raw workbook name to its cleaned CSV name. The combined
// 2021 and 2023 publication is filed under 2023.
func CleanName(name string) string {
	name = strings.ReplaceAll(name, "2021and2023", "2023")
	return strings.TrimSuffix(name, path.Ext(name)) + ".csv"
}
