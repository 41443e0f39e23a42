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
	hotspotsValgrindBin string
	hotspotsTop         int
	hotspotsJSON        bool
)

var hotspotsLogger *slog.Logger

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots <binary> [args...]",
	Short: "Rank the functions responsible for a binary's leaks",
	Long: `Run a binary under valgrind, merge the call traces of every leak into
a single call graph and rank functions by the leaked bytes attributed
to them. Self bytes count leaks allocated directly in a function;
cumulative bytes count every leak whose trace passes through it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hotspotsLogger = logging.NewLoggerFromEnv()

		runner, err := valgrind.NewRunner(hotspotsValgrindBin)
		if err != nil {
			return err
		}

		leaks, err := runner.Analyze(args[0], args[1:]...)
		if err != nil {
			return err
		}

		lg := report.BuildLeakGraph(leaks)
		vertices, edges := lg.Size()
		hotspotsLogger.Info("leak call graph built",
			"component", "report",
			"leaks", len(leaks),
			"functions", vertices,
			"edges", edges)

		hotspots := lg.Hotspots()
		if hotspotsTop > 0 && len(hotspots) > hotspotsTop {
			hotspots = hotspots[:hotspotsTop]
		}

		if hotspotsJSON {
			output, err := json.MarshalIndent(hotspots, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal hotspots: %w", err)
			}
			fmt.Println(string(output))
			return nil
		}

		if len(hotspots) == 0 {
			fmt.Println("no leaks found")
			return nil
		}
		fmt.Printf("%-40s %12s %12s %8s\n", "FUNCTION", "SELF", "CUMULATIVE", "LEAKS")
		for _, hotspot := range hotspots {
			fmt.Printf("%-40s %12d %12d %8d\n",
				hotspot.Function, hotspot.SelfBytes, hotspot.CumulativeBytes, hotspot.Leaks)
		}
		return nil
	},
}

func init() {
	hotspotsCmd.Flags().StringVarP(&hotspotsValgrindBin, "valgrind-bin", "b", "", "Path to valgrind binary (default: resolve from PATH)")
	hotspotsCmd.Flags().IntVarP(&hotspotsTop, "top", "n", 0, "Only show the N heaviest functions (0 = all)")
	hotspotsCmd.Flags().BoolVar(&hotspotsJSON, "json", false, "Emit hotspots as JSON")

	rootCmd.AddCommand(hotspotsCmd)
}
