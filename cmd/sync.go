package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/JonahHouse/ElPaseoAuto/internal/bootstrap"
	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/job"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newSyncCommand() *cobra.Command {
	var showSkipped bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one inventory sync and print its outcome",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.NewApp(cfgFile)
			if err != nil {
				return err
			}
			defer app.Close()

			out, runErr := app.Pipeline.Runner.Run(cmd.Context(), domain.TriggerCLI)
			if errors.Is(runErr, job.ErrSyncInProgress) {
				return runErr
			}
			if out != nil {
				renderOutcome(cmd.OutOrStdout(), out, showSkipped)
			}
			if runErr != nil {
				return fmt.Errorf("sync failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSkipped, "skipped", false, "list the listings that were skipped")
	return cmd
}

func renderOutcome(w io.Writer, out *job.Outcome, showSkipped bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Log", "Status", "Found", "Skipped", "Added", "Updated", "Removed"})
	t.AppendRow(table.Row{
		out.LogID,
		out.Status,
		out.VehiclesFound,
		out.VehiclesSkipped,
		out.Result.Added,
		out.Result.Updated,
		out.Result.Removed,
	})
	t.Render()

	if !showSkipped || len(out.Skipped) == 0 {
		return
	}

	skipped := table.NewWriter()
	skipped.SetOutputMirror(w)
	skipped.SetStyle(table.StyleLight)
	skipped.AppendHeader(table.Row{"Listing", "Stock #", "Reason", "Detail"})
	for _, s := range out.Skipped {
		skipped.AppendRow(table.Row{s.ListingURL, s.StockNumber, s.Reason, s.Detail})
	}
	skipped.Render()
}
