package trace

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"
)

// Tracer records phase boundaries for a single HTTP exchange.
//
// A Tracer is good for one request. Create a new one per probe; hook
// callbacks race with the caller otherwise.
type Tracer struct {
	mu     sync.Mutex
	now    func() time.Time
	timing Timing
}

// NewTracer creates a Tracer ready to instrument one request.
func NewTracer() *Tracer {
	return &Tracer{now: time.Now}
}

// Trace installs the client trace hooks on the request context and marks the
// start of the exchange. The returned request must be the one handed to the
// HTTP client.
func (t *Tracer) Trace(req *http.Request) *http.Request {
	t.mu.Lock()
	t.timing.Start = t.now()
	t.mu.Unlock()

	ctx := httptrace.WithClientTrace(req.Context(), t.clientTrace())
	return req.WithContext(ctx)
}

// Finish marks the end of the exchange. It is idempotent; the first call
// wins. The prober calls it on failure paths, and the Body wrapper calls it
// when the response body reaches EOF or is closed.
func (t *Tracer) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timing.End.IsZero() {
		t.timing.End = t.now()
	}
}

// Body wraps a response body so that Finish fires when the body is fully
// read or closed, closing out the content transfer phase.
func (t *Tracer) Body(rc io.ReadCloser) io.ReadCloser {
	return &tracedBody{rc: rc, tracer: t}
}

// Timing returns a snapshot of the captured phases with derived durations.
// It may be called before Finish; in that case Total and ContentTransfer
// are zero.
func (t *Tracer) Timing() Timing {
	t.mu.Lock()
	defer t.mu.Unlock()

	tm := t.timing
	if len(t.timing.Addrs) > 0 {
		tm.Addrs = append([]string(nil), t.timing.Addrs...)
	}

	if !tm.DNSStart.IsZero() && !tm.DNSDone.IsZero() {
		tm.DNSLookup = tm.DNSDone.Sub(tm.DNSStart)
	}
	if !tm.ConnectStart.IsZero() && !tm.ConnectDone.IsZero() {
		tm.TCPConnection = tm.ConnectDone.Sub(tm.ConnectStart)
	}
	if !tm.TLSStart.IsZero() && !tm.TLSDone.IsZero() {
		tm.TLSHandshake = tm.TLSDone.Sub(tm.TLSStart)
	}
	if !tm.FirstByte.IsZero() {
		// Server processing runs from the end of the request write to the
		// first response byte. Fall back to connection acquisition for
		// requests where the write hook never fired.
		switch {
		case !tm.WroteRequest.IsZero():
			tm.ServerProcessing = tm.FirstByte.Sub(tm.WroteRequest)
		case !tm.GotConn.IsZero():
			tm.ServerProcessing = tm.FirstByte.Sub(tm.GotConn)
		default:
			tm.ServerProcessing = tm.FirstByte.Sub(tm.Start)
		}
	}
	if !tm.End.IsZero() {
		if !tm.FirstByte.IsZero() {
			tm.ContentTransfer = tm.End.Sub(tm.FirstByte)
		}
		tm.Total = tm.End.Sub(tm.Start)
	}

	return tm
}

// newHopLocked reports whether a Start hook firing now belongs to a later
// redirect hop: the phase already completed and a connection was obtained
// for the previous exchange. Racing dial attempts within one exchange fire
// before GotConn and are not treated as new hops. Caller holds t.mu.
func (t *Tracer) newHopLocked(done time.Time) bool {
	return !done.IsZero() && !t.timing.GotConn.IsZero()
}

// clientTrace builds the httptrace hook set. Each hook records the boundary
// under the mutex. Within one exchange the dial checkpoints keep
// first-start/first-success semantics so racing dial attempts produce a
// stable record; when the client follows a redirect, the next hop's hooks
// reset the checkpoints so the timing describes the final exchange.
func (t *Tracer) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.newHopLocked(t.timing.DNSDone) {
				t.timing.DNSStart = t.now()
				t.timing.DNSDone = time.Time{}
				t.timing.DNSCoalesced = false
				t.timing.Addrs = nil
				return
			}
			if t.timing.DNSStart.IsZero() {
				t.timing.DNSStart = t.now()
			}
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.timing.DNSDone.IsZero() {
				t.timing.DNSDone = t.now()
				t.timing.DNSCoalesced = info.Coalesced
				for _, addr := range info.Addrs {
					t.timing.Addrs = append(t.timing.Addrs, addr.String())
				}
			}
		},
		ConnectStart: func(network, addr string) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.newHopLocked(t.timing.ConnectDone) {
				t.timing.ConnectStart = t.now()
				t.timing.ConnectDone = time.Time{}
				t.timing.TLSStart = time.Time{}
				t.timing.TLSDone = time.Time{}
				return
			}
			if t.timing.ConnectStart.IsZero() {
				t.timing.ConnectStart = t.now()
			}
		},
		ConnectDone: func(network, addr string, err error) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if err == nil && t.timing.ConnectDone.IsZero() {
				t.timing.ConnectDone = t.now()
			}
		},
		TLSHandshakeStart: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.timing.TLSStart.IsZero() {
				t.timing.TLSStart = t.now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if err == nil && t.timing.TLSDone.IsZero() {
				t.timing.TLSDone = t.now()
			}
		},
		GotConn: func(info httptrace.GotConnInfo) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.timing.GotConn = t.now()
			t.timing.ConnReused = info.Reused
			if info.Conn != nil {
				t.timing.RemoteAddr = info.Conn.RemoteAddr().String()
			}
			// A pooled connection means the final exchange never dialed;
			// drop checkpoints inherited from an earlier redirect hop.
			if info.Reused {
				t.timing.DNSStart = time.Time{}
				t.timing.DNSDone = time.Time{}
				t.timing.DNSCoalesced = false
				t.timing.Addrs = nil
				t.timing.ConnectStart = time.Time{}
				t.timing.ConnectDone = time.Time{}
				t.timing.TLSStart = time.Time{}
				t.timing.TLSDone = time.Time{}
			}
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			t.mu.Lock()
			defer t.mu.Unlock()
			// Fires again on retried writes; keep the last one so server
			// processing is measured from the write that got answered.
			t.timing.WroteRequest = t.now()
		},
		GotFirstResponseByte: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.timing.FirstByte = t.now()
		},
	}
}

// tracedBody finishes the tracer when the body is exhausted or closed,
// whichever comes first.
type tracedBody struct {
	rc     io.ReadCloser
	tracer *Tracer
	once   sync.Once
}

func (b *tracedBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if err == io.EOF {
		b.once.Do(b.tracer.Finish)
	}
	return n, err
}

func (b *tracedBody) Close() error {
	b.once.Do(b.tracer.Finish)
	return b.rc.Close()
}
