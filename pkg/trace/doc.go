// Package trace instruments HTTP client requests with net/http/httptrace
// hooks and assembles per-phase timing records.
//
// # Overview
//
// An HTTP request moves through a sequence of observable phases before the
// first response byte arrives:
//
//	DNS lookup → TCP connect → TLS handshake → request write → server wait → body transfer
//
// The trace package captures the boundaries of each phase via the hooks the
// standard library fires during request dispatch (DNSStart/DNSDone,
// ConnectStart/ConnectDone, TLSHandshakeStart/TLSHandshakeDone, GotConn,
// WroteRequest, GotFirstResponseByte) and exposes them as a Timing value.
//
// # Usage
//
//	tracer := trace.NewTracer()
//	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
//	resp, err := client.Do(tracer.Trace(req))
//	if err == nil {
//	    resp.Body = tracer.Body(resp.Body) // marks transfer end at EOF/Close
//	    io.Copy(io.Discard, resp.Body)
//	    resp.Body.Close()
//	}
//	timing := tracer.Timing()
//
// # Edge cases
//
// Reused connections skip DNS, connect and TLS entirely; Timing reports zero
// durations for those phases and sets ConnReused. Requests addressed to a
// literal IP skip the DNS phase. Plain-HTTP requests skip the TLS phase. A
// request that fails mid-flight still yields the phases that completed.
//
// # Concurrency
//
// ConnectStart and ConnectDone may fire from multiple goroutines when the
// dialer races IPv4 and IPv6 attempts. All hook callbacks are serialized
// with an internal mutex; a Tracer must not be reused across requests.
package trace
