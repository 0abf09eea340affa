package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/vantage/pkg/cli"
	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe/state"
)

var targetsFlags struct {
	target string
	format string
	output string
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Show rolling target state",
	Long: `Show the rolling operational state of probed targets.

Reads the state database written by the daemon: last outcome, consecutive
failures, and availability over the rolling window.

Examples:
  # All tracked targets
  vantage targets

  # One target, as JSON
  vantage targets --target api --format json`,
	RunE: showTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)

	targetsCmd.Flags().StringVar(&targetsFlags.target, "target", "", "show a single target")
	targetsCmd.Flags().StringVar(&targetsFlags.format, "format", "text", "output format: text, json")
	targetsCmd.Flags().StringVarP(&targetsFlags.output, "output", "o", "", "output file (default: stdout)")
}

func showTargets(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.State.Enabled {
		return cli.NewConfigError("state.enabled", "state tracking is disabled")
	}

	format, err := cli.ParseFormat(targetsFlags.format)
	if err != nil {
		return cli.NewCommandError("targets", err)
	}

	store, err := state.NewSQLiteStore(cfg.State.Path)
	if err != nil {
		return cli.NewCommandError("targets", fmt.Errorf("failed to open state store: %w", err))
	}
	defer store.Close()

	ctx := context.Background()

	var states []*state.TargetState
	if targetsFlags.target != "" {
		st, err := store.Load(ctx, targetsFlags.target)
		if err != nil {
			return cli.NewCommandError("targets", err)
		}
		if st == nil {
			return cli.NewCommandError("targets", fmt.Errorf("unknown target %q", targetsFlags.target))
		}
		states = []*state.TargetState{st}
	} else {
		states, err = store.List(ctx)
		if err != nil {
			return cli.NewCommandError("targets", err)
		}
	}

	var out io.Writer = os.Stdout
	if targetsFlags.output != "" {
		f, err := os.Create(targetsFlags.output)
		if err != nil {
			return cli.NewCommandError("targets", fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	return cli.WriteTargets(out, states, format)
}
