// Package cmd implements the command-line interface of the inventory sync
// service.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonahHouse/ElPaseoAuto/internal/config"
	"github.com/spf13/cobra"
)

// cfgFile holds the path to the configuration file.
var cfgFile string

// NewRootCommand builds the CLI.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "inventory-sync",
		Short:         "Mirror a dealer website's inventory into Postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.GetConfigPath("config.yml"),
		"path to configuration file",
	)

	root.AddCommand(
		newServeCommand(),
		newSyncCommand(),
		newMigrateCommand(),
		newHistoryCommand(),
	)
	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}
