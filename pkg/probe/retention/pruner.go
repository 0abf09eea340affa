package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/probe/export"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain probe results.
	// 0 means keep results forever (no pruning).
	RetentionDays int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string

	// ArchiveBeforeDelete enables archiving results before deletion.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory to store archived results.
	ArchivePath string

	// MaxRecords is the maximum number of results to keep.
	// 0 means unlimited.
	MaxRecords int64
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays:       30,
		PruneSchedule:       "0 3 * * *",
		ArchiveBeforeDelete: false,
		ArchivePath:         "data/archives/",
		MaxRecords:          0,
	}
}

// Pruner enforces retention policies on stored probe results.
type Pruner struct {
	storage   probe.Storage
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage probe.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "probe.retention"),
	}

	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Prune deletes probe results older than the retention period or exceeding
// the max record count.
//
// Pruning happens in two phases:
//  1. Age-based: delete results older than retention_days
//  2. Count-based: if total results > max_records, delete oldest
//
// Both can run together. Returns the total number of results deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	// Phase 1: prune by retention period
	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
	}

	// Phase 2: prune by max record count
	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
	}

	if totalDeleted == 0 {
		p.logger.Debug("no results pruned",
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Info("result pruning completed",
			"total_deleted", totalDeleted,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return totalDeleted, nil
}

// pruneByAge deletes results older than the retention period.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)

	p.logger.Debug("pruning by age",
		"cutoff_time", cutoff,
		"retention_days", p.config.RetentionDays,
	)

	query := &probe.Query{
		EndTime: &cutoff,
	}

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, query); err != nil {
			return 0, probe.NewRetentionError(p.config.RetentionDays, err)
		}
	}

	deleted, err := p.storage.Delete(ctx, query)
	if err != nil {
		return 0, probe.NewRetentionError(p.config.RetentionDays, err)
	}

	return deleted, nil
}

// pruneByCount deletes the oldest results if total count exceeds max_records.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &probe.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}

	if count <= p.config.MaxRecords {
		p.logger.Debug("result count within limit",
			"current", count,
			"max", p.config.MaxRecords,
		)
		return 0, nil
	}

	toDelete := count - p.config.MaxRecords

	p.logger.Info("result count exceeds limit, pruning oldest",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"to_delete", toDelete,
	)

	// Query oldest-first so the cutoff can be read off the slice directly.
	oldest, err := p.storage.Query(ctx, &probe.Query{
		SortBy:    "start_time",
		SortOrder: "asc",
		Limit:     int(toDelete),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query results: %w", err)
	}

	if len(oldest) == 0 {
		p.logger.Debug("no results found to delete")
		return 0, nil
	}

	sort.Slice(oldest, func(i, j int) bool {
		return oldest[i].StartTime.Before(oldest[j].StartTime)
	})

	// Cutoff is the start time of the newest result slated for deletion.
	cutoffTime := oldest[len(oldest)-1].StartTime

	p.logger.Debug("calculated cutoff time for count-based pruning",
		"cutoff_time", cutoffTime,
		"results_to_delete", len(oldest),
	)

	deleteQuery := &probe.Query{
		EndTime: &cutoffTime,
	}

	if p.config.ArchiveBeforeDelete {
		if err := p.archiveResults(ctx, oldest); err != nil {
			return 0, fmt.Errorf("archive failed: %w", err)
		}
	}

	deleted, err := p.storage.Delete(ctx, deleteQuery)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}

	return deleted, nil
}

// archiveResults exports a list of probe results to JSON before deletion.
func (p *Pruner) archiveResults(ctx context.Context, results []*probe.Result) error {
	if len(results) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	archiveFile := filepath.Join(p.config.ArchivePath,
		fmt.Sprintf("results-count-%s.json", time.Now().Format("2006-01-02-150405")))
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	exporter := export.NewJSONExporter(true)
	if err := exporter.Export(ctx, results, f); err != nil {
		return fmt.Errorf("failed to export results to archive: %w", err)
	}

	p.logger.Info("results archived",
		"archive_file", archiveFile,
		"result_count", len(results),
	)

	return nil
}

// archive exports results matching the query to JSON before deletion.
func (p *Pruner) archive(ctx context.Context, query *probe.Query) error {
	results, err := p.storage.Query(ctx, &probe.Query{
		EndTime: query.EndTime,
		Limit:   1000000,
	})
	if err != nil {
		return fmt.Errorf("failed to query results for archiving: %w", err)
	}

	if len(results) == 0 {
		p.logger.Debug("no results to archive")
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	archiveFile := filepath.Join(p.config.ArchivePath,
		fmt.Sprintf("results-%s.json", time.Now().Format("2006-01-02")))
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	exporter := export.NewJSONExporter(true)
	if err := exporter.Export(ctx, results, f); err != nil {
		return fmt.Errorf("failed to export results to archive: %w", err)
	}

	p.logger.Info("results archived",
		"archive_file", archiveFile,
		"result_count", len(results),
	)

	return nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
