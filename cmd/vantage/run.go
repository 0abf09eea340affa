package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	oteltrace "go.opentelemetry.io/otel/trace"

	"mercator-hq/vantage/pkg/cli"
	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/probe/recorder"
	"mercator-hq/vantage/pkg/probe/retention"
	"mercator-hq/vantage/pkg/probe/scheduler"
	"mercator-hq/vantage/pkg/probe/state"
	"mercator-hq/vantage/pkg/probe/storage"
	"mercator-hq/vantage/pkg/server"
	"mercator-hq/vantage/pkg/telemetry/logging"
	"mercator-hq/vantage/pkg/telemetry/metrics"
	"mercator-hq/vantage/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the probe daemon",
	Long: `Start the probe daemon with the specified configuration.

The daemon probes configured targets on their schedules, records results to
storage, tracks rolling per-target state, and serves the HTTP API.

Examples:
  # Start with default config
  vantage run

  # Start with custom config
  vantage run --config /etc/vantage/config.yaml

  # Override listen address
  vantage run --listen 0.0.0.0:9090

  # Validate config without starting
  vantage run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the daemon")
}

// traceObserver exports a span per completed probe, reconstructed from the
// probe's recorded timestamps.
type traceObserver struct {
	tracer *tracing.Tracer
}

func (o *traceObserver) Observe(result *probe.Result) {
	if !o.tracer.Enabled() {
		return
	}

	_, span := o.tracer.Start(context.Background(), "probe.run",
		oteltrace.WithTimestamp(result.StartTime),
	)
	tracing.SetProbeAttributes(span, result)
	span.End(oteltrace.WithTimestamp(result.EndTime))
}

// droppedTargets returns the names present in old but absent from updated.
func droppedTargets(old, updated []config.TargetConfig) []string {
	kept := make(map[string]bool, len(updated))
	for _, target := range updated {
		kept[target.Name] = true
	}

	var dropped []string
	for _, target := range old {
		if !kept[target.Name] {
			dropped = append(dropped, target.Name)
		}
	}
	return dropped
}

// forgetTargets drops metric series and rolling state for removed targets.
// tracker may be nil when state tracking is disabled.
func forgetTargets(ctx context.Context, names []string, collector *metrics.Collector, tracker *state.Tracker) {
	for _, name := range names {
		collector.ForgetTarget(name)
		if tracker != nil {
			if err := tracker.Forget(ctx, name); err != nil {
				slog.Warn("failed to drop target state", "target", name, "error", err)
			}
		}
		slog.Info("target removed", "target", name)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Printf("✓ Configuration valid (%d targets)\n", len(cfg.Targets))
		return nil
	}

	fmt.Printf("Vantage v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Printf("✓ Configuration loaded (%d targets)\n", len(cfg.Targets))

	// Result storage and async recorder
	var store probe.Storage
	switch cfg.Results.Backend {
	case "sqlite":
		store, err = storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Results.SQLite.Path,
			MaxOpenConns: cfg.Results.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Results.SQLite.MaxIdleConns,
			WALMode:      cfg.Results.SQLite.WALMode,
			BusyTimeout:  cfg.Results.SQLite.BusyTimeout,
		})
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to create SQLite storage: %w", err))
		}
	case "memory":
		store = storage.NewMemoryStorage()
	default:
		return cli.NewConfigError("results.backend", fmt.Sprintf("unsupported backend: %s", cfg.Results.Backend))
	}
	defer store.Close()

	rec := recorder.NewRecorder(store, &recorder.Config{
		Enabled:      cfg.Results.Enabled,
		AsyncBuffer:  cfg.Results.Recorder.AsyncBuffer,
		WriteTimeout: cfg.Results.Recorder.WriteTimeout,
	})
	defer rec.Close()
	fmt.Printf("✓ Result store initialized (%s)\n", cfg.Results.Backend)

	// Retention pruner
	var pruner *retention.Pruner
	if cfg.Results.Enabled && cfg.Results.Retention.PruneSchedule != "" {
		pruner = retention.NewPruner(store, &retention.Config{
			RetentionDays: cfg.Results.Retention.Days,
			PruneSchedule: cfg.Results.Retention.PruneSchedule,
			MaxRecords:    cfg.Results.Retention.MaxRecords,
		})
		if err := pruner.Start(context.Background()); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				slog.Debug("retention scheduler started", "next_pruning", next)
			}
		}
	}

	// Per-target rolling state
	var tracker *state.Tracker
	if cfg.State.Enabled {
		stateStore, err := state.NewSQLiteStoreWithConfig(state.SQLiteStoreConfig{
			DBPath:             cfg.State.Path,
			CheckpointInterval: cfg.State.CheckpointInterval,
		})
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open state store: %w", err))
		}
		tracker, err = state.NewTracker(stateStore, cfg.State.WindowSize)
		if err != nil {
			stateStore.Close()
			return cli.NewCommandError("run", fmt.Errorf("failed to restore target state: %w", err))
		}
		defer tracker.Close()
		fmt.Println("✓ Target state restored")
	}

	// Telemetry
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer tracer.Shutdown(context.Background())
	if tracer.Enabled() {
		fmt.Printf("✓ Tracing enabled (endpoint: %s)\n", cfg.Telemetry.Tracing.Endpoint)
	}

	// Prober and scheduler
	prober := probe.NewProber(cfg.Probe, logger)
	defer prober.Close()

	observers := []scheduler.Observer{collector, &traceObserver{tracer: tracer}}
	if tracker != nil {
		observers = append(observers, tracker)
	}

	sched := scheduler.New(prober, rec, cfg.Probe.Schedule, observers...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx, cfg.Targets); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to start scheduler: %w", err))
	}
	defer sched.Stop()
	collector.SetScheduledTargets(sched.TargetCount())
	fmt.Printf("✓ Scheduler started (%d targets)\n", sched.TargetCount())

	// Immediate first probe of every target so dashboards have data before
	// the first cron tick.
	sched.RunAll(cfg.Targets)

	// HTTP API server
	var srv *server.Server
	errChan := make(chan error, 1)
	if cfg.Server.Enabled {
		deps := server.Dependencies{
			Storage:   store,
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		}
		if cfg.Telemetry.Metrics.Enabled {
			deps.Metrics = collector
			deps.MetricsPath = cfg.Telemetry.Metrics.Path
		}
		if tracker != nil {
			deps.States = tracker
		}
		srv = server.NewServer(&cfg.Server, deps, logger)

		srv.Checker().RegisterCheck("storage", func(ctx context.Context) error {
			_, err := store.Count(ctx, &probe.Query{Limit: 1})
			return err
		})
		srv.Checker().RegisterCheck("scheduler", func(ctx context.Context) error {
			if sched.TargetCount() == 0 && len(cfg.Targets) > 0 {
				return fmt.Errorf("no targets scheduled")
			}
			return nil
		})
		if tracker != nil {
			srv.Checker().RegisterCheck("target_state", func(ctx context.Context) error {
				var failing []string
				for _, st := range tracker.All() {
					if st.ConsecutiveFailures >= 3 {
						failing = append(failing, st.Target)
					}
				}
				if len(failing) > 0 {
					return fmt.Errorf("targets failing repeatedly: %s", strings.Join(failing, ", "))
				}
				return nil
			})
		}

		go func() {
			if err := srv.Start(ctx); err != nil {
				errChan <- fmt.Errorf("server error: %w", err)
			}
		}()

		fmt.Printf("✓ API listening on %s\n", cfg.Server.ListenAddress)
		fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
		if cfg.Telemetry.Metrics.Enabled {
			fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
		}
	}

	// Config hot reload: re-read targets on file change. Targets dropped
	// from the config lose their metric series and rolling state so the API
	// and scrapes stop reporting them.
	watcher, err := config.NewWatcher(cfgFile, logger)
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err)
	} else {
		currentTargets := cfg.Targets
		go func() {
			err := watcher.Watch(ctx, func() error {
				newCfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
				if err != nil {
					return fmt.Errorf("keeping previous config: %w", err)
				}
				if err := sched.Reload(newCfg.Targets); err != nil {
					return fmt.Errorf("reloading targets: %w", err)
				}
				forgetTargets(ctx, droppedTargets(currentTargets, newCfg.Targets), collector, tracker)
				currentTargets = newCfg.Targets
				collector.SetScheduledTargets(sched.TargetCount())
				slog.Info("targets reloaded", "count", len(newCfg.Targets))
				return nil
			})
			if err != nil {
				slog.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		if srv != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer shutdownCancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown failed", "error", err)
				return cli.NewCommandError("run", err)
			}
		}

		fmt.Println("✓ Stopped")
		return nil
	}
}
