package tracing

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/vantage/pkg/probe"
)

// Custom attribute keys use the "vantage.*" namespace; HTTP attributes
// follow OpenTelemetry semantic conventions.
const (
	AttrTarget     = "vantage.target"
	AttrResultID   = "vantage.result_id"
	AttrErrorClass = "vantage.error_class"
	AttrConnReused = "vantage.conn_reused"
	AttrRemoteAddr = "vantage.remote_addr"

	AttrPhaseDNSMs      = "vantage.phase.dns_lookup_ms"
	AttrPhaseTCPMs      = "vantage.phase.tcp_connection_ms"
	AttrPhaseTLSMs      = "vantage.phase.tls_handshake_ms"
	AttrPhaseServerMs   = "vantage.phase.server_processing_ms"
	AttrPhaseTransferMs = "vantage.phase.content_transfer_ms"
	AttrTotalMs         = "vantage.total_ms"
)

// SetProbeAttributes copies a probe result's outcome onto a span.
func SetProbeAttributes(span trace.Span, result *probe.Result) {
	span.SetAttributes(
		attribute.String(AttrTarget, result.Target),
		attribute.String(AttrResultID, result.ID),
		attribute.String("http.method", result.Method),
		attribute.String("http.url", result.URL),
		attribute.Int("http.status_code", result.StatusCode),
		attribute.Bool(AttrConnReused, result.ConnReused),
		attribute.Float64(AttrPhaseDNSMs, durationMs(result.DNSLookup)),
		attribute.Float64(AttrPhaseTCPMs, durationMs(result.TCPConnection)),
		attribute.Float64(AttrPhaseTLSMs, durationMs(result.TLSHandshake)),
		attribute.Float64(AttrPhaseServerMs, durationMs(result.ServerProcessing)),
		attribute.Float64(AttrPhaseTransferMs, durationMs(result.ContentTransfer)),
		attribute.Float64(AttrTotalMs, durationMs(result.Total)),
	)

	if result.RemoteAddr != "" {
		span.SetAttributes(attribute.String(AttrRemoteAddr, result.RemoteAddr))
	}

	if result.Success() {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetAttributes(attribute.String(AttrErrorClass, result.ErrorClass))
		span.SetStatus(codes.Error, result.Error)
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
