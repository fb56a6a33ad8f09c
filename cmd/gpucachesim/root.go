// Package main is the gpucachesim command-line entrypoint: it drives the
// trace -> schedule -> decompose -> report pipeline across a benchmark's
// kernels, matching model.cpp's driver loop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/tue-es/gpu-cache-model/hwconfig"
)

var (
	configPath string
	httpAddr   string
	historyDB  string
	traceRoot  string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "gpucachesim <benchmark>",
	Short: "Predict GPU L1 cache miss rates from memory-access traces.",
	Long: "gpucachesim replays a benchmark's per-kernel memory-access traces through " +
		"a reuse-distance cache model, decomposing the predicted miss rate into " +
		"compulsory, capacity, associativity, latency and MSHR components.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmark(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configurations/current.conf", "hardware configuration file")
	rootCmd.PersistentFlags().StringVar(&httpAddr, "http-addr", "", "optional address to serve run progress on, e.g. :8090")
	rootCmd.PersistentFlags().StringVar(&historyDB, "history-db", "", "optional SQLite database to record run history to")
	rootCmd.PersistentFlags().StringVar(&traceRoot, "trace-root", "output", "directory .trc/.prof files live under")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored stdout output")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func loadHardware() (hwconfig.Settings, error) {
	return hwconfig.LoadEnv(configPath)
}
