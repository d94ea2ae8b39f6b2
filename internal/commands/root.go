// Package commands implements the charterctl command line.
package commands

import (
	"github.com/spf13/cobra"

	"charterbooks/internal/config"
)

// Version will be set via ldflags during build.
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:     "charterctl",
		Short:   "Operate the charterbooks accounting engine",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before the environment")

	loadConfig := func() (*config.Config, error) {
		return config.Load(envFile)
	}

	rootCmd.AddCommand(
		newMigrateCommand(loadConfig),
		newTotalsCommand(),
		newTokenCommand(loadConfig),
		newHistoryCommand(loadConfig),
		newNumberingCommand(loadConfig),
	)

	return rootCmd
}
