package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is unmarshalled over DefaultConfig, so absent fields keep their
// defaults and explicit values (including false booleans) win. The result
// is validated before being returned.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention VANTAGE_SECTION_FIELD (e.g., VANTAGE_SERVER_LISTEN_ADDRESS) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Defaults
//  2. YAML from file
//  3. Environment variable overrides
//  4. Validation
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("VANTAGE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("VANTAGE_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("VANTAGE_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("VANTAGE_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("VANTAGE_SERVER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Server.Enabled = b
		}
	}

	// Probe overrides
	if val := os.Getenv("VANTAGE_PROBE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Probe.Timeout = d
		}
	}
	if val := os.Getenv("VANTAGE_PROBE_METHOD"); val != "" {
		cfg.Probe.Method = val
	}
	if val := os.Getenv("VANTAGE_PROBE_USER_AGENT"); val != "" {
		cfg.Probe.UserAgent = val
	}
	if val := os.Getenv("VANTAGE_PROBE_SCHEDULE"); val != "" {
		cfg.Probe.Schedule = val
	}
	if val := os.Getenv("VANTAGE_PROBE_FOLLOW_REDIRECTS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Probe.FollowRedirects = b
		}
	}
	if val := os.Getenv("VANTAGE_PROBE_DISABLE_KEEP_ALIVES"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Probe.DisableKeepAlives = b
		}
	}

	// Results overrides
	if val := os.Getenv("VANTAGE_RESULTS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Results.Enabled = b
		}
	}
	if val := os.Getenv("VANTAGE_RESULTS_BACKEND"); val != "" {
		cfg.Results.Backend = val
	}
	if val := os.Getenv("VANTAGE_RESULTS_SQLITE_PATH"); val != "" {
		cfg.Results.SQLite.Path = val
	}
	if val := os.Getenv("VANTAGE_RESULTS_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Results.Retention.Days = i
		}
	}
	if val := os.Getenv("VANTAGE_RESULTS_RETENTION_PRUNE_SCHEDULE"); val != "" {
		cfg.Results.Retention.PruneSchedule = val
	}

	// State overrides
	if val := os.Getenv("VANTAGE_STATE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.State.Enabled = b
		}
	}
	if val := os.Getenv("VANTAGE_STATE_PATH"); val != "" {
		cfg.State.Path = val
	}

	// Telemetry overrides
	if val := os.Getenv("VANTAGE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("VANTAGE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("VANTAGE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("VANTAGE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("VANTAGE_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("VANTAGE_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("VANTAGE_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}
