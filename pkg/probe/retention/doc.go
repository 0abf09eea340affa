// Package retention enforces retention policies on stored probe results.
//
// The Pruner deletes results in two phases: age-based (older than
// retention_days) and count-based (oldest results past max_records). Both
// phases can archive results to JSON files before deletion.
//
// The Scheduler runs the pruner on a cron schedule, typically once a day
// during off-peak hours.
package retention
