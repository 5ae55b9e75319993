package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-search/internal/artifacts"
	"github.com/jonathan/cv-search/internal/db"
	"github.com/jonathan/cv-search/internal/types"
)

var (
	runsLimit  int
	runsStatus string
	runsKind   string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect search run records",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent search runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "Filter by status (running|ok|skipped|failed)")
	runsListCmd.Flags().StringVar(&runsKind, "kind", "", "Filter by kind (seat|project|presale)")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func withDatabase(fn func(ctx context.Context, database *db.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	return fn(ctx, database)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	return withDatabase(func(ctx context.Context, database *db.DB) error {
		runs, err := database.ListSearchRuns(ctx, db.RunFilters{
			Limit:  runsLimit,
			Status: types.RunStatus(runsStatus),
			Kind:   types.RunKind(runsKind),
		})
		if err != nil {
			return err
		}

		for _, run := range runs {
			completed := "-"
			if run.CompletedAt != nil {
				completed = run.CompletedAt.Format("2006-01-02 15:04:05")
			}
			cmd.Printf("%s  %-8s %-8s seats=%d results=%d completed=%s\n",
				run.RunID, run.RunKind, run.Status, run.SeatCount, run.ResultCount, completed)
		}
		if len(runs) == 0 {
			cmd.Println("No runs found.")
		}
		return nil
	})
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	return withDatabase(func(ctx context.Context, database *db.DB) error {
		run, err := database.GetSearchRun(ctx, args[0])
		if err != nil {
			return err
		}
		if err := printJSON(cmd, run); err != nil {
			return err
		}

		if run.RunDir == "" {
			return nil
		}
		arts, err := artifacts.ReadRun(run.RunDir)
		if err != nil {
			return fmt.Errorf("failed to read artifacts: %w", err)
		}
		return printJSON(cmd, arts)
	})
}
