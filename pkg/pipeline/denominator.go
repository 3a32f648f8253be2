package pipeline

import (
	"bytes"
	"context"

	"github.com/agentstation/odflow/pkg/logging"
)

// Denominator stores the modelled population backseries. An existing copy
// is kept unless Force is set.
func (p *Pipeline) Denominator(ctx context.Context) (*StepResult, error) {
	return p.run(ctx, StepDenominator, func(ctx context.Context, res *StepResult) error {
		key := p.cfg.Paths.Population
		res.Outputs = []string{p.store.URI(key)}

		exists, err := p.store.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists && !p.cfg.Force {
			logging.FromContext(ctx).Info().Str("object", key).Msg("Population file already exists, skipping download")
			res.Status = StatusSkipped
			return nil
		}

		body, err := p.fetcher.Download(ctx, p.cfg.PopulationURL)
		if err != nil {
			return err
		}
		if err := p.store.Put(ctx, key, bytes.NewReader(body)); err != nil {
			return err
		}
		res.Files = 1
		return nil
	})
}
