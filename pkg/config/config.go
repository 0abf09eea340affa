package config

import "time"

// Config is the root configuration structure for Vantage.
// It contains all configuration sections for probe execution, probe targets,
// result storage, target state tracking, the API server, and telemetry.
type Config struct {
	// Server contains HTTP API server configuration including listen
	// address, timeouts, and connection limits.
	Server ServerConfig `yaml:"server"`

	// Probe contains default settings applied to every probe unless a
	// target overrides them.
	Probe ProbeConfig `yaml:"probe"`

	// Targets is the list of endpoints to probe.
	Targets []TargetConfig `yaml:"targets"`

	// Results contains configuration for probe result recording, storage
	// backend selection, and retention.
	Results ResultsConfig `yaml:"results"`

	// State contains configuration for the per-target rolling state store.
	State StateConfig `yaml:"state"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// Enabled controls whether the API server is started by `vantage run`.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:9090", "0.0.0.0:9090").
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. A zero or negative value means no timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// ProbeConfig contains default probe execution settings. Per-target fields
// in TargetConfig override these.
type ProbeConfig struct {
	// Timeout is the overall deadline for a single probe, covering DNS,
	// connect, TLS, and the full body read.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Method is the HTTP method used for probes.
	// Default: "GET"
	Method string `yaml:"method"`

	// UserAgent is the User-Agent header sent with probe requests.
	// Default: "vantage-probe"
	UserAgent string `yaml:"user_agent"`

	// FollowRedirects controls whether probes follow HTTP redirects.
	// When false, a 3xx response is recorded as the probe outcome.
	// Default: false
	FollowRedirects bool `yaml:"follow_redirects"`

	// MaxRedirects bounds the redirect chain when FollowRedirects is on.
	// Default: 10
	MaxRedirects int `yaml:"max_redirects"`

	// MaxBodyBytes caps how much of the response body is read when timing
	// the content transfer phase. 0 means read the whole body.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Schedule is the default cron expression for scheduled probing,
	// applied to targets without their own schedule.
	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`

	// DisableKeepAlives forces a fresh connection for every probe so DNS,
	// connect, and TLS phases are measured on each run rather than only on
	// the first.
	// Default: true
	DisableKeepAlives bool `yaml:"disable_keep_alives"`

	// TLSSkipVerify disables certificate verification for probe requests.
	// Only useful against targets with self-signed certificates.
	// Default: false
	TLSSkipVerify bool `yaml:"tls_skip_verify"`
}

// TargetConfig describes a single endpoint to probe.
type TargetConfig struct {
	// Name identifies the target in results, metrics, and logs.
	// Required, unique across targets.
	Name string `yaml:"name"`

	// URL is the endpoint to probe. Required. Scheme must be http or https.
	URL string `yaml:"url"`

	// Method overrides the default probe method for this target.
	Method string `yaml:"method"`

	// Schedule overrides the default cron expression for this target.
	Schedule string `yaml:"schedule"`

	// Timeout overrides the default probe timeout for this target.
	Timeout time.Duration `yaml:"timeout"`

	// ExpectStatus is the exact HTTP status the target is expected to
	// return. 0 means any status below 400 counts as success.
	ExpectStatus int `yaml:"expect_status"`

	// Headers are extra request headers sent with probes to this target.
	Headers map[string]string `yaml:"headers"`
}

// ResultsConfig contains configuration for probe result recording and storage.
type ResultsConfig struct {
	// Enabled controls whether probe results are persisted at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend: "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains settings for the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains settings for the async result recorder.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains settings for automatic result pruning.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains settings for the SQLite results backend.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/results.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains settings for the async result recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing a result to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains settings for automatic result pruning.
type RetentionConfig struct {
	// Days is the number of days to retain results. 0 keeps them forever.
	// Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Empty disables scheduled pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords is the maximum number of results to keep. 0 is unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// StateConfig contains configuration for the per-target state store.
type StateConfig struct {
	// Enabled controls whether target state is persisted across restarts.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the state database file path.
	// Default: "data/state.db"
	Path string `yaml:"path"`

	// CheckpointInterval is how often the WAL is checkpointed.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`

	// WindowSize is the number of recent probes the rolling availability
	// window covers per target.
	// Default: 100
	WindowSize int `yaml:"window_size"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json", "text", "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path the metrics endpoint is mounted on.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "vantage"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name subsystem component.
	// Default: "probe"
	Subsystem string `yaml:"subsystem"`

	// PhaseDurationBuckets defines histogram buckets for phase durations
	// (seconds). Default buckets cover 1ms to 10s.
	PhaseDurationBuckets []float64 `yaml:"phase_duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether probe spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP/gRPC collector endpoint (host:port).
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// SampleRatio is the fraction of probe spans to sample, 0.0-1.0.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables transport security towards the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`
}
