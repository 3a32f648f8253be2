// Package step provides one command per pipeline step.
package step

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/odflow/internal/cmd/application"
	"github.com/agentstation/odflow/internal/cmd/output"
	"github.com/agentstation/odflow/pkg/logging"
	"github.com/agentstation/odflow/pkg/pipeline"
)

// descriptions holds the help text of each step.
var descriptions = map[string]struct{ short, long string }{
	pipeline.StepScrape: {
		"Download the detailed estimates workbooks from ONS",
		`Scrape finds the detailed internal migration estimates links on the ONS
dataset page and stores every linked file under paths.raw.`,
	},
	pipeline.StepClean: {
		"Extract the detailed estimates sheet of every workbook",
		`Clean reads sheet sheet_index of every .xlsx workbook under paths.raw,
drops rows with empty cells and writes one CSV per workbook under
paths.clean. Legacy .xls workbooks are skipped with a warning.`,
	},
	pipeline.StepCombine: {
		"Combine the cleaned CSVs into one Parquet file",
		`Combine reads every CSV under paths.clean, maps the ONS column names to
gss_out, gss_in and value, takes the year from the file name when there is
no year column, and writes paths.combined.`,
	},
	pipeline.StepReconcile: {
		"Join the recoded backseries with the new ONS series",
		`Reconcile recodes the backseries at paths.backseries from old_vintage to
new_vintage codes using the lookup at paths.recode, keeps its years before
cutover_year, appends the combined ONS series and writes the result as
year partitions under paths.series.`,
	},
	pipeline.StepGeographies: {
		"Aggregate the series to region, country and inner/outer London",
		`Geographies writes local authority gross flows, origin/destination
flows at region, country and inner/outer London level, and their combined
gross flows under paths.processed.`,
	},
	pipeline.StepDenominator: {
		"Store the modelled population backseries",
		`Denominator downloads population_url to paths.population unless it is
already present. Use --force to download it again.`,
	},
	pipeline.StepChildren: {
		"Derive in, out and net flows of children",
		`Children keeps ages up to child_max_age, builds region, inner/outer
London, London and total flows, and writes their in/out/net flows as
Parquet and as an age-wide CSV under paths.processed.`,
	},
}

// NewCommand creates the command running a single step.
func NewCommand(app application.Application, name string) *cobra.Command {
	desc := descriptions[name]
	var force bool

	cmd := &cobra.Command{
		Use:     name,
		GroupID: "steps",
		Short:   desc.short,
		Long:    desc.long,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			res, err := p.Step(ctx, name)
			if err != nil {
				return err
			}
			return output.Results(cmd.OutOrStdout(), []*pipeline.StepResult{res}, app.OutputFormat())
		},
	}
	if name == pipeline.StepDenominator {
		cmd.Flags().BoolVar(&force, "force", false, "download even if the file exists")
	}
	return cmd
}
