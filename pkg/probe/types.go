package probe

import (
	"context"
	"io"
	"time"
)

// Error classes attached to failed probe results. They name the phase the
// failure surfaced in, so queries and metrics can distinguish a resolver
// outage from a slow origin.
const (
	// ErrorClassDNS covers hostname resolution failures.
	ErrorClassDNS = "dns"
	// ErrorClassConnect covers TCP connection establishment failures.
	ErrorClassConnect = "connect"
	// ErrorClassTLS covers TLS handshake and certificate failures.
	ErrorClassTLS = "tls"
	// ErrorClassTimeout covers probes that exceeded their deadline.
	ErrorClassTimeout = "timeout"
	// ErrorClassHTTP covers responses outside the expected status range.
	ErrorClassHTTP = "http"
	// ErrorClassRead covers body read failures after headers arrived.
	ErrorClassRead = "read"
	// ErrorClassRequest covers everything else, including malformed URLs.
	ErrorClassRequest = "request"
)

// Result is the record of one probe: a traced HTTP exchange against a
// configured target.
type Result struct {
	// Identity
	ID     string `json:"id"`     // UUID v4
	Target string `json:"target"` // Target name from config
	URL    string `json:"url"`
	Method string `json:"method"`

	// Timestamps
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Phase durations from the client trace. Zero when the phase did not
	// occur (reused connection, literal IP, plain HTTP).
	DNSLookup        time.Duration `json:"dns_lookup"`
	TCPConnection    time.Duration `json:"tcp_connection"`
	TLSHandshake     time.Duration `json:"tls_handshake"`
	ServerProcessing time.Duration `json:"server_processing"`
	ContentTransfer  time.Duration `json:"content_transfer"`
	Total            time.Duration `json:"total"`

	// HTTP outcome
	StatusCode int    `json:"status_code"`
	Proto      string `json:"proto"`
	BytesRead  int64  `json:"bytes_read"`
	Redirects  int    `json:"redirects"`

	// Connection details
	ConnReused   bool     `json:"conn_reused"`
	DNSCoalesced bool     `json:"dns_coalesced,omitempty"`
	RemoteAddr   string   `json:"remote_addr,omitempty"`
	Addrs        []string `json:"addrs,omitempty"`

	// Failure info. Empty for successful probes.
	Error      string `json:"error,omitempty"`
	ErrorClass string `json:"error_class,omitempty"`
}

// Success reports whether the probe completed without error, including the
// expected-status check.
func (r *Result) Success() bool {
	return r.Error == ""
}

// Status returns "success" or "error", the vocabulary used by queries and
// metrics labels.
func (r *Result) Status() string {
	if r.Success() {
		return "success"
	}
	return "error"
}

// Query defines filter parameters for querying probe results.
type Query struct {
	// Time range (against StartTime, inclusive)
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	Target     string `json:"target,omitempty"`
	Status     string `json:"status,omitempty"`      // "success", "error"
	ErrorClass string `json:"error_class,omitempty"` // see ErrorClass* constants
	StatusCode int    `json:"status_code,omitempty"` // exact HTTP status

	// Duration thresholds
	MinTotal *time.Duration `json:"min_total,omitempty"`
	MaxTotal *time.Duration `json:"max_total,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "start_time", "total", "status_code"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for probe result storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a probe result.
	Store(ctx context.Context, result *Result) error

	// Query retrieves results matching the query filters.
	// Returns an empty slice if no results match.
	Query(ctx context.Context, query *Query) ([]*Result, error)

	// QueryStream returns a channel of results for memory-efficient
	// streaming of large result sets. Both channels are closed when the
	// query completes or errors; callers should drain both.
	QueryStream(ctx context.Context, query *Query) (<-chan *Result, <-chan error, error)

	// Count returns the number of results matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes results matching the query filters and returns the
	// number deleted. Used for retention enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Exporter defines the interface for exporting probe results.
type Exporter interface {
	// Export writes results to w in the exporter's format.
	Export(ctx context.Context, results []*Result, w io.Writer) error

	// ExportStream writes results from a channel to w, suitable for large
	// result sets.
	ExportStream(ctx context.Context, resultsCh <-chan *Result, w io.Writer) error
}
