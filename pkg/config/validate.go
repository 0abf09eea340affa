package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks a configuration for errors. Error messages carry the
// yaml field path of the offending value.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateProbe(&cfg.Probe); err != nil {
		return err
	}
	if err := validateTargets(cfg.Targets); err != nil {
		return err
	}
	if err := validateResults(&cfg.Results); err != nil {
		return err
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return err
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.ListenAddress == "" {
		return fmt.Errorf("server.listen_address: must not be empty")
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		return fmt.Errorf("server.listen_address: invalid address %q: %w", cfg.ListenAddress, err)
	}
	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout: must be >= 0")
	}
	return nil
}

func validateProbe(cfg *ProbeConfig) error {
	if cfg.Timeout <= 0 {
		return fmt.Errorf("probe.timeout: must be > 0, got %v", cfg.Timeout)
	}
	if cfg.MaxRedirects < 0 {
		return fmt.Errorf("probe.max_redirects: must be >= 0, got %d", cfg.MaxRedirects)
	}
	if cfg.MaxBodyBytes < 0 {
		return fmt.Errorf("probe.max_body_bytes: must be >= 0, got %d", cfg.MaxBodyBytes)
	}
	if cfg.Schedule != "" {
		if err := validateSchedule(cfg.Schedule); err != nil {
			return fmt.Errorf("probe.schedule: %w", err)
		}
	}
	return nil
}

func validateTargets(targets []TargetConfig) error {
	seen := make(map[string]struct{}, len(targets))

	for i, target := range targets {
		field := fmt.Sprintf("targets[%d]", i)

		if target.Name == "" {
			return fmt.Errorf("%s.name: must not be empty", field)
		}
		if _, dup := seen[target.Name]; dup {
			return fmt.Errorf("%s.name: duplicate target name %q", field, target.Name)
		}
		seen[target.Name] = struct{}{}

		if target.URL == "" {
			return fmt.Errorf("%s.url: must not be empty", field)
		}
		u, err := url.Parse(target.URL)
		if err != nil {
			return fmt.Errorf("%s.url: invalid URL %q: %w", field, target.URL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s.url: scheme must be http or https, got %q", field, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("%s.url: missing host in %q", field, target.URL)
		}

		if target.Schedule != "" {
			if err := validateSchedule(target.Schedule); err != nil {
				return fmt.Errorf("%s.schedule: %w", field, err)
			}
		}
		if target.Timeout < 0 {
			return fmt.Errorf("%s.timeout: must be >= 0", field)
		}
		if target.ExpectStatus != 0 && (target.ExpectStatus < 100 || target.ExpectStatus > 599) {
			return fmt.Errorf("%s.expect_status: must be a valid HTTP status, got %d", field, target.ExpectStatus)
		}
	}

	return nil
}

func validateResults(cfg *ResultsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	switch cfg.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("results.backend: must be \"sqlite\" or \"memory\", got %q", cfg.Backend)
	}

	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		return fmt.Errorf("results.sqlite.path: must not be empty")
	}
	if cfg.Recorder.AsyncBuffer < 0 {
		return fmt.Errorf("results.recorder.async_buffer: must be >= 0")
	}
	if cfg.Retention.Days < 0 {
		return fmt.Errorf("results.retention.days: must be >= 0, got %d", cfg.Retention.Days)
	}
	if cfg.Retention.MaxRecords < 0 {
		return fmt.Errorf("results.retention.max_records: must be >= 0")
	}
	if cfg.Retention.PruneSchedule != "" {
		if err := validateSchedule(cfg.Retention.PruneSchedule); err != nil {
			return fmt.Errorf("results.retention.prune_schedule: %w", err)
		}
	}

	return nil
}

func validateTelemetry(cfg *TelemetryConfig) error {
	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level: invalid level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("telemetry.logging.format: invalid format %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("telemetry.metrics.path: must start with \"/\", got %q", cfg.Metrics.Path)
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			return fmt.Errorf("telemetry.tracing.endpoint: must not be empty when tracing is enabled")
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			return fmt.Errorf("telemetry.tracing.sample_ratio: must be in [0, 1], got %g", cfg.Tracing.SampleRatio)
		}
	}

	return nil
}

// validateSchedule accepts standard 5-field cron expressions plus the
// @every/@hourly style descriptors robfig/cron understands.
func validateSchedule(schedule string) error {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}
