package cmd

import (
	"github.com/JonahHouse/ElPaseoAuto/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the optional cron scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.NewApp(cfgFile)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Serve(cmd.Context())
		},
	}
}
