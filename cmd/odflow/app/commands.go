package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/odflow/cmd/odflow/cmd/run"
	"github.com/agentstation/odflow/cmd/odflow/cmd/show"
	"github.com/agentstation/odflow/cmd/odflow/cmd/step"
	"github.com/agentstation/odflow/pkg/pipeline"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	for _, name := range pipeline.Steps {
		rootCmd.AddCommand(step.NewCommand(a, name))
	}
	rootCmd.AddCommand(run.NewCommand(a))

	rootCmd.AddCommand(show.NewCommand(a))
	rootCmd.AddCommand(a.newVersionCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("odflow %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
