package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/riscv-consensus/internal/config"
	"github.com/jonathan/riscv-consensus/internal/ingest"
	"github.com/jonathan/riscv-consensus/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch a specification page by URL and run the chunked pipeline on it",
	Long: "Fetch an HTML or plain-text specification document, reduce it to paragraph " +
		"text, and run the chunked consensus pipeline on the result. With --text-only " +
		"the extracted text is written instead of running the pipeline.",
	RunE: runIngest,
}

var (
	ingestURL          string
	ingestOutputFile   string
	ingestMaxChunkSize int
	ingestWorkers      int
	ingestTextOnly     bool
)

func init() {
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "URL of the specification document (required)")
	ingestCmd.Flags().StringVarP(&ingestOutputFile, "out", "o", "", "Path to output file (default: stdout)")
	ingestCmd.Flags().IntVar(&ingestMaxChunkSize, "max-chunk-size", 0, "Chunk size budget in bytes (default 6000)")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "Concurrent chunk pipelines (default: sequential)")
	ingestCmd.Flags().BoolVar(&ingestTextOnly, "text-only", false, "Write the extracted text without running the pipeline")
	_ = ingestCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	doc, err := ingest.FromURL(ctx, ingestURL, nil)
	if err != nil {
		return err
	}
	if doc.Title != "" {
		fmt.Fprintf(os.Stderr, "Fetched %q (%d bytes of text)\n", doc.Title, len(doc.Text))
	}

	if ingestTextOnly {
		if ingestOutputFile == "" {
			fmt.Println(doc.Text)
			return nil
		}
		return os.WriteFile(ingestOutputFile, []byte(doc.Text+"\n"), 0o644)
	}

	if len(doc.Text) < 10 {
		return fmt.Errorf("document contains too little text to extract from (%d bytes)", len(doc.Text))
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	maxSize := ingestMaxChunkSize
	if maxSize == 0 {
		maxSize = cfg.MaxChunkSize
	}
	workers := ingestWorkers
	if workers == 0 {
		workers = cfg.Workers
	}
	result := engine.RunChunked(ctx, doc.Text, pipeline.ChunkedOptions{
		MaxChunkSize: maxSize,
		Workers:      workers,
	})

	return writeJSON(ingestOutputFile, result)
}
