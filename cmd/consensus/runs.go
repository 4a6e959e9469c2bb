package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/riscv-consensus/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded extraction runs",
	Long:  "List extraction runs recorded in the database, newest first. Requires DATABASE_URL.",
	RunE:  runListRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run with its stored outcome",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var (
	runsStatus string
	runsSource string
	runsLimit  int
)

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "Filter by run status (completed, degraded, empty, failed)")
	runsCmd.Flags().StringVar(&runsSource, "source", "", "Filter by source URL substring")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "Maximum number of runs to list")

	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func connectStore(ctx context.Context) (*store.Store, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return store.Connect(ctx, databaseURL)
}

func runListRuns(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	st, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRunsFiltered(ctx, store.RunFilters{
		Source: runsSource,
		Status: runsStatus,
		Limit:  runsLimit,
	})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		source := run.SourceURL
		if source == "" {
			source = "(text input)"
		}
		fmt.Printf("%s  %-9s  %-40s  %s\n",
			run.ID, run.Status, run.Strategy, source)
	}
	return nil
}

func runShowRun(_ *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", args[0], err)
	}

	ctx := context.Background()

	st, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	fmt.Printf("Run:      %s\n", run.ID)
	fmt.Printf("Status:   %s\n", run.Status)
	fmt.Printf("Strategy: %s\n", run.Strategy)
	fmt.Printf("Mode:     %s\n", run.Mode)
	if run.SourceURL != "" {
		fmt.Printf("Source:   %s\n", run.SourceURL)
	}
	fmt.Printf("Created:  %s\n", run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	if run.CompletedAt != nil {
		fmt.Printf("Finished: %s\n", run.CompletedAt.Format("2006-01-02T15:04:05Z07:00"))
	}

	outcome, err := st.GetResult(ctx, runID, store.PhaseOutcome)
	if err != nil {
		return err
	}
	if outcome != nil {
		fmt.Println()
		fmt.Println(string(outcome))
	}
	return nil
}
