package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/riscv-consensus/internal/chunking"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split specification text into bounded-size segments",
	Long: "Split a document on paragraph boundaries into segments that each fit a model " +
		"context budget, without running the pipeline. Useful for previewing how a " +
		"document will be divided before a chunked extraction.",
	RunE: runChunk,
}

var (
	chunkInputFile  string
	chunkOutputFile string
	chunkMaxSize    int
	chunkShowSizes  bool
)

func init() {
	chunkCmd.Flags().StringVarP(&chunkInputFile, "in", "i", "", "Path to specification text file (default: stdin)")
	chunkCmd.Flags().StringVarP(&chunkOutputFile, "out", "o", "", "Path to output JSON file (default: stdout)")
	chunkCmd.Flags().IntVar(&chunkMaxSize, "max-size", chunking.DefaultMaxSize, "Segment size budget in bytes")
	chunkCmd.Flags().BoolVar(&chunkShowSizes, "sizes", false, "Print segment sizes to stderr")

	rootCmd.AddCommand(chunkCmd)
}

func runChunk(_ *cobra.Command, _ []string) error {
	text, err := readInput(chunkInputFile)
	if err != nil {
		return err
	}

	segments := chunking.Split(text, chunkMaxSize)

	if chunkShowSizes {
		for i, segment := range segments {
			fmt.Fprintf(os.Stderr, "segment %d: %d bytes\n", i+1, len(segment))
		}
	}

	return writeJSON(chunkOutputFile, segments)
}
