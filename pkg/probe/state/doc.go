// Package state tracks per-target operational state derived from probe
// results.
//
// The Tracker observes every completed probe and maintains, per target, the
// last outcome, consecutive failure count, lifetime totals, and a rolling
// window of recent outcomes from which availability is computed. State is
// optionally persisted through a Store so counters survive restarts; the
// SQLiteStore implementation uses the pure-Go SQLite driver with WAL mode
// and periodic checkpoints.
package state
