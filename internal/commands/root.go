package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/buildinfo"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	repo      string
	logLevel  string
	logFormat string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "folio",
		Short:   "Import brokerage exports into a canonical trade ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.repo, "repo", ".", "workspace directory")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (overrides folio.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: console or json (overrides folio.yaml)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newParseCommand(&g))
	rootCmd.AddCommand(newImportCommand(&g))
	rootCmd.AddCommand(newSplitsCommand(&g))
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}
