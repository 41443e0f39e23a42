package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/noperator/memgrind/pkg/logging"
	"github.com/noperator/memgrind/pkg/report"
	"github.com/noperator/memgrind/pkg/valgrind"
)

var (
	checkValgrindBin string
	checkSourceDir   string
	checkJSON        bool
	checkNoFail      bool
	checkConcurrency int
)

var checkLogger *slog.Logger

var checkCmd = &cobra.Command{
	Use:   "check <binary> [args...]",
	Short: "Run a binary under valgrind and report its memory leaks",
	Long: `Run an already-built binary under valgrind's memcheck and report every
leak it finds, including the call trace that led to each allocation.

With --source, frames that carry debug info are enriched with the
enclosing function definition and the exact source line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checkLogger = logging.NewLoggerFromEnv()

		runner, err := valgrind.NewRunner(checkValgrindBin)
		if err != nil {
			return err
		}

		checkLogger.Info("running valgrind",
			"component", "valgrind",
			"operation", "check",
			"binary", args[0])

		leaks, err := runner.Analyze(args[0], args[1:]...)
		if err != nil {
			return err
		}

		checkLogger.Info("valgrind run complete",
			"component", "valgrind",
			"leaks_found", len(leaks))

		var rep *report.Report
		if checkSourceDir != "" {
			rep = report.NewEnricher(checkSourceDir).Enrich(args[0], leaks, checkConcurrency)
		} else {
			rep = report.New(args[0], leaks)
		}

		if checkJSON {
			output, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report: %w", err)
			}
			fmt.Println(string(output))
		} else {
			printReport(rep)
		}

		if len(leaks) > 0 && !checkNoFail {
			return fmt.Errorf("%d leak records, %d bytes leaked", len(rep.Leaks), rep.TotalBytes)
		}
		return nil
	},
}

func printReport(rep *report.Report) {
	for _, finding := range rep.Leaks {
		fmt.Printf("%s: %d bytes\n", finding.Leak.Kind, finding.Leak.Bytes)
		for _, frame := range finding.Frames {
			fmt.Printf("    at %s\n", frame.Frame)
			if frame.SourceLine != "" {
				fmt.Printf("       > %s\n", frame.SourceLine)
			}
		}
	}
	fmt.Printf("total: %d bytes in %d records\n", rep.TotalBytes, len(rep.Leaks))
}

func init() {
	checkCmd.Flags().StringVarP(&checkValgrindBin, "valgrind-bin", "b", "", "Path to valgrind binary (default: resolve from PATH)")
	checkCmd.Flags().StringVarP(&checkSourceDir, "source", "s", "", "Path to source directory for frame enrichment")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Emit the report as JSON")
	checkCmd.Flags().BoolVar(&checkNoFail, "no-fail", false, "Exit zero even when leaks are found")
	checkCmd.Flags().IntVarP(&checkConcurrency, "concurrency", "j", 0, "Number of concurrent enrichment workers (0 = auto-detect based on CPU cores)")

	rootCmd.AddCommand(checkCmd)
}
