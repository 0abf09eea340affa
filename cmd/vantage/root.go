package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vantage",
	Short: "Vantage - HTTP endpoint latency probe",
	Long: `Vantage is an HTTP endpoint latency probe that times each phase of a
request: DNS lookup, TCP connection, TLS handshake, server processing,
and content transfer.

It runs as a daemon probing configured targets on a schedule, providing:
  - Per-phase latency measurement via client tracing
  - Scheduled probing with per-target cron expressions
  - SQLite-backed result storage with retention pruning
  - Rolling per-target availability state
  - An HTTP API, Prometheus metrics, and OpenTelemetry spans

For more information, visit: https://github.com/mercator-hq/vantage`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
