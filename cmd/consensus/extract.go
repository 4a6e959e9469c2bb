package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/riscv-consensus/internal/config"
	"github.com/jonathan/riscv-consensus/internal/extraction"
	"github.com/jonathan/riscv-consensus/internal/llm"
	"github.com/jonathan/riscv-consensus/internal/logging"
	"github.com/jonathan/riscv-consensus/internal/observability"
	"github.com/jonathan/riscv-consensus/internal/pipeline"
	"github.com/jonathan/riscv-consensus/internal/store"
	"github.com/jonathan/riscv-consensus/internal/types"
	"github.com/jonathan/riscv-consensus/internal/verification"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the consensus pipeline on specification text",
	Long: "Run the propose-verify-merge pipeline on a text file or stdin and write the " +
		"JSON result to stdout or a file. Use --chunked for documents larger than one " +
		"model context.",
	RunE: runExtract,
}

var (
	extractInputFile    string
	extractOutputFile   string
	extractChunked      bool
	extractMaxChunkSize int
	extractWorkers      int
	extractMode         string
	extractRecord       bool
	extractVerbose      bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractInputFile, "in", "i", "", "Path to specification text file (default: stdin)")
	extractCmd.Flags().StringVarP(&extractOutputFile, "out", "o", "", "Path to output JSON file (default: stdout)")
	extractCmd.Flags().BoolVar(&extractChunked, "chunked", false, "Split the document into chunks and aggregate per-chunk results")
	extractCmd.Flags().IntVar(&extractMaxChunkSize, "max-chunk-size", 0, "Chunk size budget in bytes (implies --chunked, default 6000)")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "Concurrent chunk pipelines (default: sequential)")
	extractCmd.Flags().StringVar(&extractMode, "mode", "", "Wire decoding mode: lenient or strict (overrides CONSENSUS_MODE)")
	extractCmd.Flags().BoolVar(&extractRecord, "record", false, "Record the run in the database (requires DATABASE_URL)")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Print a human-readable result summary to stderr")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(_ *cobra.Command, _ []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if extractMode != "" {
		cfg.Mode = extractMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	text, err := readInput(extractInputFile)
	if err != nil {
		return err
	}
	if len(text) < 10 {
		return fmt.Errorf("input contains too little text to extract from (%d bytes)", len(text))
	}

	ctx := context.Background()

	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var outcome types.Outcome
	if extractChunked || extractMaxChunkSize > 0 {
		maxSize := extractMaxChunkSize
		if maxSize == 0 {
			maxSize = cfg.MaxChunkSize
		}
		workers := extractWorkers
		if workers == 0 {
			workers = cfg.Workers
		}
		outcome = engine.RunChunked(ctx, text, pipeline.ChunkedOptions{
			MaxChunkSize: maxSize,
			Workers:      workers,
		})
	} else {
		outcome = engine.Run(ctx, text)
	}

	if extractRecord {
		if err := recordRun(ctx, cfg, text, outcome); err != nil {
			return err
		}
	}

	if extractVerbose {
		observability.NewPrinter(os.Stderr).PrintOutcome(outcome)
	}

	return writeJSON(extractOutputFile, outcome)
}

// buildEngine constructs the two provider clients and the pipeline from
// configuration. The returned cleanup closes both clients.
func buildEngine(ctx context.Context, cfg *config.Config) (*pipeline.Engine, func(), error) {
	proposerClient, err := llm.NewGeminiClient(ctx, cfg.ProposerConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}

	verifierClient, err := llm.NewGroqClient(cfg.VerifierConfig(), cfg.GroqAPIKey)
	if err != nil {
		_ = proposerClient.Close()
		return nil, nil, err
	}

	engine := pipeline.New(
		extraction.NewProposer(proposerClient, cfg.Strict()),
		verification.NewVerifier(verifierClient, cfg.Strict()),
		*logging.Default(),
	)
	cleanup := func() {
		_ = proposerClient.Close()
		_ = verifierClient.Close()
	}
	return engine, cleanup, nil
}

// recordRun persists the source text and outcome of a CLI run.
func recordRun(ctx context.Context, cfg *config.Config, text string, outcome types.Outcome) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("--record requires DATABASE_URL")
	}

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	strategy, status := runLabels(outcome)
	runID, err := st.CreateRun(ctx, "", "", strategy, cfg.ModeOrDefault())
	if err != nil {
		return err
	}
	if err := st.SaveText(ctx, runID, store.PhaseSourceText, text); err != nil {
		return err
	}
	if err := st.SaveResult(ctx, runID, store.PhaseOutcome, outcome); err != nil {
		return err
	}
	if err := st.CompleteRun(ctx, runID, status); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Recorded run %s\n", runID)
	return nil
}

// runLabels derives the stored strategy and status labels from an outcome.
func runLabels(outcome types.Outcome) (strategy, status string) {
	switch o := outcome.(type) {
	case *types.ConsensusResult:
		return o.Strategy, store.StatusCompleted
	case *types.EmptyResult:
		return o.Strategy, store.StatusEmpty
	case *types.UnverifiedResult:
		return o.Strategy, store.StatusDegraded
	case *types.ErrorResult:
		return o.Strategy, store.StatusFailed
	case *types.ChunkedResult:
		status = store.StatusCompleted
		if o.ChunksFailed > 0 || len(o.Unverified) > 0 {
			status = store.StatusDegraded
		}
		if o.ChunksFailed == o.ChunksProcessed && o.ChunksProcessed > 0 {
			status = store.StatusFailed
		}
		return o.Strategy, status
	default:
		return "", store.StatusCompleted
	}
}

// readInput reads the whole input from path, or stdin when path is empty.
func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}

// writeJSON writes v as indented JSON to path, or stdout when path is empty.
func writeJSON(path string, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	out = append(out, '\n')

	if path == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
