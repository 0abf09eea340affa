// Package export serializes probe results for external consumption.
//
// Two exporters implement the probe.Exporter interface:
//
//   - JSONExporter: results as a JSON array, optionally pretty-printed
//   - CSVExporter: one row per result with durations flattened to
//     fractional milliseconds, optionally with a header row
//
// Both support streaming via ExportStream, which pairs with the storage
// layer's QueryStream for exports that never hold the full result set in
// memory.
package export
