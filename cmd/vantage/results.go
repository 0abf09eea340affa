package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vantage/pkg/cli"
	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/probe/query"
	"mercator-hq/vantage/pkg/probe/retention"
	"mercator-hq/vantage/pkg/probe/storage"
)

var resultsFlags struct {
	backend    string
	timeRange  string
	target     string
	status     string
	errorClass string
	statusCode int
	minTotal   time.Duration
	maxTotal   time.Duration
	limit      int
	offset     int
	sortBy     string
	sortOrder  string
	format     string
	output     string
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Query stored probe results",
	Long: `Query and export stored probe results.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-01T00:00:00Z/2026-08-02T00:00:00Z"

Examples:
  # Latest results across all targets
  vantage results

  # Failures for one target
  vantage results --target api --status error

  # Slow probes in a time range
  vantage results --min-total 500ms --time-range "2026-08-01T00:00:00Z/2026-08-02T00:00:00Z"

  # Export to CSV
  vantage results --format csv --output results.csv`,
	RunE: queryResults,
}

var resultsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune old results now",
	Long: `Run retention pruning once, outside the daemon's schedule.

Applies the retention settings from the configuration file: results older
than the retention window are deleted, and the count cap is enforced.`,
	RunE: pruneResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsPruneCmd)

	resultsCmd.Flags().StringVar(&resultsFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
	resultsCmd.Flags().StringVar(&resultsFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	resultsCmd.Flags().StringVar(&resultsFlags.target, "target", "", "filter by target name")
	resultsCmd.Flags().StringVar(&resultsFlags.status, "status", "", "filter by outcome (success, error)")
	resultsCmd.Flags().StringVar(&resultsFlags.errorClass, "error-class", "", "filter by error class (dns, connect, tls, timeout, http, read, request)")
	resultsCmd.Flags().IntVar(&resultsFlags.statusCode, "status-code", 0, "filter by exact HTTP status code")
	resultsCmd.Flags().DurationVar(&resultsFlags.minTotal, "min-total", 0, "minimum total duration")
	resultsCmd.Flags().DurationVar(&resultsFlags.maxTotal, "max-total", 0, "maximum total duration")
	resultsCmd.Flags().IntVar(&resultsFlags.limit, "limit", 100, "max results")
	resultsCmd.Flags().IntVar(&resultsFlags.offset, "offset", 0, "pagination offset")
	resultsCmd.Flags().StringVar(&resultsFlags.sortBy, "sort-by", "", "sort field: start_time, total, status_code")
	resultsCmd.Flags().StringVar(&resultsFlags.sortOrder, "sort-order", "", "sort order: asc, desc")
	resultsCmd.Flags().StringVar(&resultsFlags.format, "format", "text", "output format: text, json, csv")
	resultsCmd.Flags().StringVarP(&resultsFlags.output, "output", "o", "", "output file (default: stdout)")
}

// openResultStorage opens the result store selected by the --backend flag
// or the configuration file.
func openResultStorage(cfg *config.Config, backendFlag string) (probe.Storage, error) {
	backend := backendFlag
	if backend == "" {
		backend = cfg.Results.Backend
	}

	switch backend {
	case "sqlite":
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Results.SQLite.Path,
			MaxOpenConns: cfg.Results.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Results.SQLite.MaxIdleConns,
			WALMode:      cfg.Results.SQLite.WALMode,
			BusyTimeout:  cfg.Results.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite storage: %w", err)
		}
		return store, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: sqlite, memory)", backend)
	}
}

func queryResults(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	format, err := cli.ParseFormat(resultsFlags.format)
	if err != nil {
		return cli.NewCommandError("results", err)
	}

	store, err := openResultStorage(cfg, resultsFlags.backend)
	if err != nil {
		return cli.NewCommandError("results", err)
	}
	defer store.Close()

	q := &probe.Query{
		Target:     resultsFlags.target,
		Status:     resultsFlags.status,
		ErrorClass: resultsFlags.errorClass,
		StatusCode: resultsFlags.statusCode,
		Limit:      resultsFlags.limit,
		Offset:     resultsFlags.offset,
		SortBy:     resultsFlags.sortBy,
		SortOrder:  resultsFlags.sortOrder,
	}

	if resultsFlags.minTotal > 0 {
		q.MinTotal = &resultsFlags.minTotal
	}
	if resultsFlags.maxTotal > 0 {
		q.MaxTotal = &resultsFlags.maxTotal
	}

	if resultsFlags.timeRange != "" {
		parts := strings.Split(resultsFlags.timeRange, "/")
		if len(parts) != 2 {
			return cli.NewCommandError("results", fmt.Errorf("invalid time range format (expected: start/end)"))
		}

		startTime, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return cli.NewCommandError("results", fmt.Errorf("invalid start time: %w", err))
		}
		q.StartTime = &startTime

		endTime, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return cli.NewCommandError("results", fmt.Errorf("invalid end time: %w", err))
		}
		q.EndTime = &endTime
	}

	if err := query.Validate(q); err != nil {
		return cli.NewCommandError("results", err)
	}
	query.ApplyDefaults(q)

	ctx := context.Background()
	results, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("results", fmt.Errorf("query failed: %w", err))
	}

	var out io.Writer = os.Stdout
	if resultsFlags.output != "" {
		f, err := os.Create(resultsFlags.output)
		if err != nil {
			return cli.NewCommandError("results", fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	return cli.WriteResults(ctx, out, results, format)
}

func pruneResults(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openResultStorage(cfg, "")
	if err != nil {
		return cli.NewCommandError("prune", err)
	}
	defer store.Close()

	pruner := retention.NewPruner(store, &retention.Config{
		RetentionDays: cfg.Results.Retention.Days,
		MaxRecords:    cfg.Results.Retention.MaxRecords,
	})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		return cli.NewCommandError("prune", err)
	}

	fmt.Printf("✓ Pruned %d result(s)\n", deleted)
	return nil
}
