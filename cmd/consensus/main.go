// Package main provides the entry point for the RISC-V consensus engine CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/riscv-consensus/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Dual-LLM consensus engine for RISC-V specification text",
	Long: "Extracts structured architectural parameter records from RISC-V specification text " +
		"by proposing candidates with one LLM, verifying them with a second, and merging the " +
		"two passes into a validated result set.",
}

func main() {
	// Load .env file if it exists, then build the logger so LOG_LEVEL and
	// LOG_FORMAT from the file are honored.
	_ = godotenv.Load()
	logging.Setup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
