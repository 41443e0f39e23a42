package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "memgrind",
	Short: "Valgrind orchestrator and leak report analyzer",
	Long: `Memgrind: Valgrind orchestrator and leak report analyzer
Runs binaries under valgrind's memcheck, captures the XML report over a
local socket and turns it into structured leak findings, optionally
enriched with source context and call-path hotspots.
Intended flow is targets -> check -> hotspots.`,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
