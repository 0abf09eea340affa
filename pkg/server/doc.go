// Package server provides the HTTP API server for probe results and
// target state.
//
// The server ties together the storage, state, and metrics components and
// manages lifecycle: route setup, middleware chaining, OS signal handling,
// and graceful shutdown.
//
// # Routes
//
//   - GET /health - liveness probe (always 200 while the process runs)
//   - GET /ready - readiness probe (aggregates registered component checks)
//   - GET /version - build information
//   - GET /metrics - Prometheus scrape endpoint (when metrics are enabled)
//   - GET /api/v1/results - query stored probe results; ?format=csv exports CSV
//   - GET /api/v1/targets - rolling per-target state snapshot
//
// # Middleware Chain
//
// Requests pass through (outermost first): recovery, logging, request ID.
//
// # Graceful Shutdown
//
// Start blocks until the context is cancelled, a SIGINT/SIGTERM arrives,
// or TriggerShutdown is called, then drains in-flight requests for up to
// the configured shutdown timeout.
package server
