package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/vantage/pkg/cli"
	"mercator-hq/vantage/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the daemon.

Checks target definitions (names, URLs, cron schedules), storage settings,
and telemetry configuration, and prints a summary.

Examples:
  # Validate the default config file
  vantage validate

  # Validate a specific file
  vantage validate --config /etc/vantage/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
	fmt.Println()
	fmt.Printf("Targets:        %d\n", len(cfg.Targets))
	for _, target := range cfg.Targets {
		schedule := target.Schedule
		if schedule == "" {
			schedule = cfg.Probe.Schedule + " (default)"
		}
		fmt.Printf("  - %-20s %s  [%s]\n", target.Name, target.URL, schedule)
	}
	fmt.Println()
	fmt.Printf("Result backend: %s\n", cfg.Results.Backend)
	if cfg.Results.Backend == "sqlite" {
		fmt.Printf("Result path:    %s\n", cfg.Results.SQLite.Path)
	}
	if cfg.Results.Retention.PruneSchedule != "" {
		fmt.Printf("Retention:      %d days, prune at %q\n",
			cfg.Results.Retention.Days, cfg.Results.Retention.PruneSchedule)
	}
	fmt.Printf("State tracking: %v\n", cfg.State.Enabled)
	fmt.Printf("API server:     %v", cfg.Server.Enabled)
	if cfg.Server.Enabled {
		fmt.Printf(" (%s)", cfg.Server.ListenAddress)
	}
	fmt.Println()
	fmt.Printf("Metrics:        %v\n", cfg.Telemetry.Metrics.Enabled)
	fmt.Printf("Tracing:        %v\n", cfg.Telemetry.Tracing.Enabled)

	return nil
}
