package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/bootstrap"
	"github.com/JonahHouse/ElPaseoAuto/internal/database"
	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	defaultHistoryLimit = 10
	maxErrorWidth       = 60
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			cfg, err := bootstrap.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
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

			logs, err := database.NewScrapeLogRepository(db).ListRecent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list scrape logs: %w", err)
			}

			renderHistory(cmd.OutOrStdout(), logs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of runs to show")
	return cmd
}

func renderHistory(w io.Writer, logs []domain.ScrapeLog) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No sync runs recorded")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{
		"ID", "Started", "Duration", "Trigger", "Status",
		"Found", "Skipped", "Added", "Updated", "Removed", "Error",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Error", WidthMax: maxErrorWidth},
	})

	for _, entry := range logs {
		t.AppendRow(table.Row{
			entry.ID,
			entry.StartedAt.Local().Format(time.DateTime),
			duration(entry),
			entry.Trigger,
			entry.Status,
			count(entry.VehiclesFound),
			count(entry.VehiclesSkipped),
			count(entry.VehiclesAdded),
			count(entry.VehiclesUpdated),
			count(entry.VehiclesRemoved),
			text(entry.ErrorMessage),
		})
	}
	t.Render()
}

func duration(entry domain.ScrapeLog) string {
	if entry.CompletedAt == nil {
		return "-"
	}
	return entry.CompletedAt.Sub(entry.StartedAt).Round(time.Second).String()
}

func count(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
