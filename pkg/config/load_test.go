package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vantage.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
targets:
  - name: example
    url: https://example.com/
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("ListenAddress = %q, want default", cfg.Server.ListenAddress)
	}
	if cfg.Probe.Timeout != 10*time.Second {
		t.Errorf("Probe.Timeout = %v, want 10s", cfg.Probe.Timeout)
	}
	if cfg.Probe.Method != "GET" {
		t.Errorf("Probe.Method = %q, want GET", cfg.Probe.Method)
	}
	if !cfg.Results.Enabled {
		t.Error("Results.Enabled = false, want default true")
	}
	if cfg.Results.Backend != "sqlite" {
		t.Errorf("Results.Backend = %q, want sqlite", cfg.Results.Backend)
	}
	if !cfg.Probe.DisableKeepAlives {
		t.Error("Probe.DisableKeepAlives = false, want default true")
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Name != "example" {
		t.Errorf("Targets = %+v, want single target named example", cfg.Targets)
	}
}

func TestLoadConfigExplicitFalseWins(t *testing.T) {
	path := writeConfigFile(t, `
results:
  enabled: false
targets:
  - name: example
    url: http://example.com/
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Results.Enabled {
		t.Error("Results.Enabled = true, want explicit false to win over default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:8888"
probe:
  timeout: 3s
  schedule: "@every 30s"
targets:
  - name: api
    url: https://api.example.com/health
    expect_status: 204
    timeout: 2s
results:
  sqlite:
    path: /tmp/results.db
  retention:
    days: 7
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8888" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Probe.Timeout != 3*time.Second {
		t.Errorf("Probe.Timeout = %v, want 3s", cfg.Probe.Timeout)
	}
	if cfg.Targets[0].ExpectStatus != 204 {
		t.Errorf("ExpectStatus = %d, want 204", cfg.Targets[0].ExpectStatus)
	}
	if cfg.Targets[0].Timeout != 2*time.Second {
		t.Errorf("target Timeout = %v, want 2s", cfg.Targets[0].Timeout)
	}
	if cfg.Results.Retention.Days != 7 {
		t.Errorf("Retention.Days = %d, want 7", cfg.Results.Retention.Days)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "targets: [\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() error = nil, want parse error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadConfig() error = nil, want read error")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
targets:
  - name: example
    url: https://example.com/
`)

	t.Setenv("VANTAGE_SERVER_LISTEN_ADDRESS", "127.0.0.1:7777")
	t.Setenv("VANTAGE_PROBE_TIMEOUT", "42s")
	t.Setenv("VANTAGE_RESULTS_BACKEND", "memory")
	t.Setenv("VANTAGE_TELEMETRY_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:7777" {
		t.Errorf("ListenAddress = %q, want env override", cfg.Server.ListenAddress)
	}
	if cfg.Probe.Timeout != 42*time.Second {
		t.Errorf("Probe.Timeout = %v, want 42s", cfg.Probe.Timeout)
	}
	if cfg.Results.Backend != "memory" {
		t.Errorf("Results.Backend = %q, want memory", cfg.Results.Backend)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigEnvOverrideInvalidatesConfig(t *testing.T) {
	path := writeConfigFile(t, `
targets:
  - name: example
    url: https://example.com/
`)

	t.Setenv("VANTAGE_RESULTS_BACKEND", "postgres")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Fatal("LoadConfigWithEnvOverrides() error = nil, want validation error for unsupported backend")
	}
}
