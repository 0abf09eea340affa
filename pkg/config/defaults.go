package config

import "time"

// DefaultConfig returns a fully-populated configuration with default values.
// LoadConfig unmarshals YAML over this, so explicit false values in the file
// still win over defaults that are true.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Enabled:         true,
			ListenAddress:   "127.0.0.1:9090",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxHeaderBytes:  1 << 20,
		},
		Probe: ProbeConfig{
			Timeout:           10 * time.Second,
			Method:            "GET",
			UserAgent:         "vantage-probe",
			FollowRedirects:   false,
			MaxRedirects:      10,
			MaxBodyBytes:      10 << 20,
			Schedule:          "@every 1m",
			DisableKeepAlives: true,
		},
		Results: ResultsConfig{
			Enabled: true,
			Backend: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "data/results.db",
				MaxOpenConns: 10,
				MaxIdleConns: 5,
				WALMode:      true,
				BusyTimeout:  5 * time.Second,
			},
			Recorder: RecorderConfig{
				AsyncBuffer:  1000,
				WriteTimeout: 5 * time.Second,
			},
			Retention: RetentionConfig{
				Days:          30,
				PruneSchedule: "0 3 * * *",
				MaxRecords:    0,
			},
		},
		State: StateConfig{
			Enabled:            true,
			Path:               "data/state.db",
			CheckpointInterval: 5 * time.Minute,
			WindowSize:         100,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Path:      "/metrics",
				Namespace: "vantage",
				Subsystem: "probe",
			},
			Tracing: TracingConfig{
				Enabled:     false,
				Endpoint:    "localhost:4317",
				SampleRatio: 1.0,
				Insecure:    true,
			},
		},
	}
}

// ApplyDefaults fills zero-valued scalar fields on a programmatically built
// configuration. Boolean fields are left alone; use DefaultConfig as the
// base when boolean defaults matter.
func ApplyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = def.Server.ListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = def.Server.IdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = def.Server.MaxHeaderBytes
	}

	if cfg.Probe.Timeout == 0 {
		cfg.Probe.Timeout = def.Probe.Timeout
	}
	if cfg.Probe.Method == "" {
		cfg.Probe.Method = def.Probe.Method
	}
	if cfg.Probe.UserAgent == "" {
		cfg.Probe.UserAgent = def.Probe.UserAgent
	}
	if cfg.Probe.MaxRedirects == 0 {
		cfg.Probe.MaxRedirects = def.Probe.MaxRedirects
	}
	if cfg.Probe.MaxBodyBytes == 0 {
		cfg.Probe.MaxBodyBytes = def.Probe.MaxBodyBytes
	}
	if cfg.Probe.Schedule == "" {
		cfg.Probe.Schedule = def.Probe.Schedule
	}

	if cfg.Results.Backend == "" {
		cfg.Results.Backend = def.Results.Backend
	}
	if cfg.Results.SQLite.Path == "" {
		cfg.Results.SQLite.Path = def.Results.SQLite.Path
	}
	if cfg.Results.SQLite.MaxOpenConns == 0 {
		cfg.Results.SQLite.MaxOpenConns = def.Results.SQLite.MaxOpenConns
	}
	if cfg.Results.SQLite.MaxIdleConns == 0 {
		cfg.Results.SQLite.MaxIdleConns = def.Results.SQLite.MaxIdleConns
	}
	if cfg.Results.SQLite.BusyTimeout == 0 {
		cfg.Results.SQLite.BusyTimeout = def.Results.SQLite.BusyTimeout
	}
	if cfg.Results.Recorder.AsyncBuffer == 0 {
		cfg.Results.Recorder.AsyncBuffer = def.Results.Recorder.AsyncBuffer
	}
	if cfg.Results.Recorder.WriteTimeout == 0 {
		cfg.Results.Recorder.WriteTimeout = def.Results.Recorder.WriteTimeout
	}

	if cfg.State.Path == "" {
		cfg.State.Path = def.State.Path
	}
	if cfg.State.CheckpointInterval == 0 {
		cfg.State.CheckpointInterval = def.State.CheckpointInterval
	}
	if cfg.State.WindowSize == 0 {
		cfg.State.WindowSize = def.State.WindowSize
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = def.Telemetry.Logging.Level
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = def.Telemetry.Logging.Format
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = def.Telemetry.Metrics.Path
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = def.Telemetry.Metrics.Namespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = def.Telemetry.Metrics.Subsystem
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = def.Telemetry.Tracing.Endpoint
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = def.Telemetry.Tracing.SampleRatio
	}
}
