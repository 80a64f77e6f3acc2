package cmd

import (
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			// Migrations run explicitly below.
			cfg.Database.AutoMigrate = false

			log, err := bootstrap.CreateLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := bootstrap.SetupDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := bootstrap.Migrate(db, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}
