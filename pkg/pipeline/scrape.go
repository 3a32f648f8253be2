package pipeline

import (
	"bytes"
	"context"
	"sync"

	"github.com/agentstation/odflow/internal/ons"
	"github.com/agentstation/odflow/pkg/logging"
	"github.com/agentstation/odflow/pkg/storage"
)

// Scrape finds the detailed estimates downloads on the ONS dataset page,
// downloads each file and stores it under the raw prefix.
func (p *Pipeline) Scrape(ctx context.Context) (*StepResult, error) {
	return p.run(ctx, StepScrape, func(ctx context.Context, res *StepResult) error {
		links, err := p.fetcher.Links(ctx, p.cfg.DatasetPage, p.cfg.LinkMatch)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			res.Status = StatusNoFiles
			return nil
		}
		logging.FromContext(ctx).Info().Int("links", len(links)).Msg("Found download links")

		var mu sync.Mutex
		err = p.fetcher.DownloadAll(ctx, links, func(ctx context.Context, fileURL string, body []byte) error {
			key := storage.Join(p.cfg.Paths.Raw, ons.FileName(fileURL))
			if err := p.store.Put(ctx, key, bytes.NewReader(body)); err != nil {
				return err
			}
			mu.Lock()
			res.Outputs = append(res.Outputs, p.store.URI(key))
			mu.Unlock()
			return nil
		})
		if err != nil {
			return err
		}
		res.Files = len(res.Outputs)
		return nil
	})
}
