package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/noperator/memgrind/pkg/cmake"
	"github.com/noperator/memgrind/pkg/logging"
	"github.com/noperator/memgrind/pkg/valgrind"
)

var (
	targetsBuildDir string
	targetsCMakeBin string
	targetsConfig   string
	targetsBuild    bool
	targetsCheck    bool
	targetsJSON     bool

	targetsValgrindBin string
)

var targetsLogger *slog.Logger

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the runnable binaries of a CMake build directory",
	Long: `Resolve the executable targets of a configured CMake build directory
from its File API codemodel reply.

With --build each target is compiled first; with --check each resulting
binary is run under valgrind and a leak summary is printed per target.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetsLogger = logging.NewLoggerFromEnv()

		if targetsBuildDir == "" {
			return fmt.Errorf("build directory is required (use --build-dir)")
		}

		resolver, err := cmake.NewResolver(targetsBuildDir, targetsCMakeBin)
		if err != nil {
			return fmt.Errorf("failed to initialize cmake resolver: %w", err)
		}

		executables, err := resolver.Executables(targetsConfig)
		if err != nil {
			return fmt.Errorf("failed to resolve executables: %w", err)
		}

		targetsLogger.Info("resolved executable targets",
			"component", "cmake",
			"build_dir", targetsBuildDir,
			"targets", len(executables))

		if targetsBuild {
			for _, target := range executables {
				targetsLogger.Info("building target",
					"component", "cmake",
					"target", target.Name)
				if err := resolver.Build(target.Name, cmake.BuildType(targetsConfig)); err != nil {
					return err
				}
			}
		}

		if !targetsCheck {
			if targetsJSON {
				output, err := json.MarshalIndent(executables, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal targets: %w", err)
				}
				fmt.Println(string(output))
				return nil
			}
			for _, target := range executables {
				fmt.Printf("%s\t%s\n", target.Name, target.Artifacts[0])
			}
			return nil
		}

		runner, err := valgrind.NewRunner(targetsValgrindBin)
		if err != nil {
			return err
		}

		var leaky int
		for _, target := range executables {
			leaks, err := runner.Analyze(target.Artifacts[0])
			if err != nil {
				return fmt.Errorf("target %s: %w", target.Name, err)
			}
			var total uint64
			for _, leak := range leaks {
				total += leak.Bytes
			}
			fmt.Printf("%s\t%d records\t%d bytes\n", target.Name, len(leaks), total)
			if len(leaks) > 0 {
				leaky++
			}
		}

		if leaky > 0 {
			return fmt.Errorf("%d of %d targets leak", leaky, len(executables))
		}
		return nil
	},
}

func init() {
	targetsCmd.Flags().StringVarP(&targetsBuildDir, "build-dir", "d", "", "Path to configured CMake build directory (required)")
	targetsCmd.Flags().StringVar(&targetsCMakeBin, "cmake-bin", "", "Path to cmake binary (default: resolve from PATH)")
	targetsCmd.Flags().StringVarP(&targetsConfig, "config", "c", "", "Build configuration, e.g. Debug or Release (default: first in codemodel)")
	targetsCmd.Flags().BoolVar(&targetsBuild, "build", false, "Build each target before reporting")
	targetsCmd.Flags().BoolVar(&targetsCheck, "check", false, "Run each target under valgrind and summarize leaks")
	targetsCmd.Flags().BoolVar(&targetsJSON, "json", false, "Emit the target list as JSON")
	targetsCmd.Flags().StringVarP(&targetsValgrindBin, "valgrind-bin", "b", "", "Path to valgrind binary for --check (default: resolve from PATH)")

	targetsCmd.MarkFlagRequired("build-dir")

	rootCmd.AddCommand(targetsCmd)
}
