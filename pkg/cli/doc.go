// Package cli provides shared helpers for the command-line interface:
// output formatting, error types, and signal handling.
//
// Commands render probe results in three formats: text (a phase breakdown
// for single probes, a table for queries), JSON, and CSV. The JSON and CSV
// paths reuse the result exporters so command output matches API exports.
package cli
