// Package run provides the command that runs several pipeline steps.
package run

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/odflow/internal/cmd/application"
	"github.com/agentstation/odflow/internal/cmd/output"
	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/logging"
	"github.com/agentstation/odflow/pkg/pipeline"
)

// NewCommand creates the run command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		from  string
		force bool
	)

	cmd := &cobra.Command{
		Use:     "run [step...]",
		GroupID: "steps",
		Short:   "Run pipeline steps in order",
		Long: `Run executes the named steps in the order given, or every step in
pipeline order when none is named. It stops at the first failing step and
prints the results of the steps that completed.

Steps: ` + strings.Join(pipeline.Steps, ", "),
		Example: `  odflow run                           # Run the whole pipeline
  odflow run reconcile geographies     # Run two steps
  odflow run --from reconcile          # Resume from a step
  odflow run --store ./data -o json    # Use a local store`,
		ValidArgs: pipeline.Steps,
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := selectSteps(args, from)
			if err != nil {
				return err
			}

			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			p, err := app.Pipeline(ctx)
			if err != nil {
				return err
			}
			if force {
				cfg := p.Config()
				cfg.Force = true
				if p, err = p.WithConfig(cfg); err != nil {
					return err
				}
			}

			results, runErr := p.Run(ctx, steps...)
			if len(results) > 0 {
				if err := output.Results(cmd.OutOrStdout(), results, app.OutputFormat()); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "run every step from this one on")
	cmd.Flags().BoolVar(&force, "force", false, "download files even if they exist")
	return cmd
}

// selectSteps resolves the steps to run from positional names or --from.
func selectSteps(args []string, from string) ([]string, error) {
	if from == "" {
		return args, nil
	}
	if len(args) > 0 {
		return nil, errors.NewValidationError("from", from, "cannot be combined with step names")
	}
	i := slices.Index(pipeline.Steps, from)
	if i < 0 {
		return nil, errors.NewNotFoundError("step", from)
	}
	return pipeline.Steps[i:], nil
}
