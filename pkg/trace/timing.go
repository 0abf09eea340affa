package trace

import "time"

// Timing holds the phase breakdown of a single HTTP exchange.
//
// Raw timestamps are kept alongside the derived durations so callers can
// reconstruct the timeline (e.g. for waterfall rendering) without re-deriving
// it from hook order.
type Timing struct {
	// Raw phase boundary timestamps. Zero when the phase did not occur.
	Start        time.Time `json:"start"`
	DNSStart     time.Time `json:"dns_start,omitzero"`
	DNSDone      time.Time `json:"dns_done,omitzero"`
	ConnectStart time.Time `json:"connect_start,omitzero"`
	ConnectDone  time.Time `json:"connect_done,omitzero"`
	TLSStart     time.Time `json:"tls_start,omitzero"`
	TLSDone      time.Time `json:"tls_done,omitzero"`
	GotConn      time.Time `json:"got_conn,omitzero"`
	WroteRequest time.Time `json:"wrote_request,omitzero"`
	FirstByte    time.Time `json:"first_byte,omitzero"`
	End          time.Time `json:"end,omitzero"`

	// Derived durations. Zero when the phase did not occur.
	DNSLookup        time.Duration `json:"dns_lookup"`
	TCPConnection    time.Duration `json:"tcp_connection"`
	TLSHandshake     time.Duration `json:"tls_handshake"`
	ServerProcessing time.Duration `json:"server_processing"`
	ContentTransfer  time.Duration `json:"content_transfer"`
	Total            time.Duration `json:"total"`

	// ConnReused is true when the request rode an idle connection from the
	// pool, in which case DNS, connect and TLS phases are all zero.
	ConnReused bool `json:"conn_reused"`

	// DNSCoalesced is true when the lookup was de-duplicated against a
	// concurrent lookup for the same host.
	DNSCoalesced bool `json:"dns_coalesced,omitempty"`

	// Addrs holds the addresses the DNS lookup resolved to.
	Addrs []string `json:"addrs,omitempty"`

	// RemoteAddr is the address of the connection that served the request.
	RemoteAddr string `json:"remote_addr,omitempty"`
}

// Complete reports whether the exchange reached the first response byte.
func (t Timing) Complete() bool {
	return !t.FirstByte.IsZero()
}

// TimeToFirstByte returns the elapsed time from request start to the first
// response byte, or zero if no byte arrived.
func (t Timing) TimeToFirstByte() time.Duration {
	if t.FirstByte.IsZero() {
		return 0
	}
	return t.FirstByte.Sub(t.Start)
}
