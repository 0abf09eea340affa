// Package storage provides probe result storage backends.
//
// Two backends implement the probe.Storage interface:
//
//   - SQLiteStorage: durable storage with WAL mode, schema versioning, and
//     indexed queries. The default for long-running deployments.
//   - MemoryStorage: a map behind a mutex. Results are lost on restart;
//     useful for testing and one-off runs.
//
// Phase durations are stored as integer nanoseconds so duration range
// filters translate directly to indexed comparisons.
package storage
