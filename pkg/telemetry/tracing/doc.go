// Package tracing sets up OpenTelemetry tracing for the probe service.
//
// Spans are exported over OTLP gRPC with parent-based ratio sampling. When
// tracing is disabled a noop tracer is returned so call sites never branch
// on the setting. SetProbeAttributes copies a probe result's phase
// breakdown and outcome onto a span using the vantage.* attribute
// namespace.
package tracing
