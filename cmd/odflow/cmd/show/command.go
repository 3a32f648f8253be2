// Package show provides the command printing the effective configuration.
package show

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/odflow/internal/cmd/application"
	"github.com/agentstation/odflow/internal/cmd/output"
)

// NewCommand creates the config command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective pipeline configuration",
		Long: `Config prints the pipeline configuration after merging defaults, the
config file, .env files and ODFLOW_* environment variables. Tables show one
dotted key per setting; YAML output can be saved as .odflow.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.PipelineConfig()
			if err := cfg.Validate(); err != nil {
				app.Logger().Warn().Err(err).Msg("Configuration is invalid")
			}
			return output.Any(cmd.OutOrStdout(), cfg, app.OutputFormat())
		},
	}
}
