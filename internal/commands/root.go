package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stockval/internal/buildinfo"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	dir     string
	envFile string
	verbose bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "stockval",
		Short:   "Inventory valuation from master price lists and stock exports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "project directory")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file with STOCKVAL_* overrides (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warn")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newMasterCommand(opts))
	rootCmd.AddCommand(newValueCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}
