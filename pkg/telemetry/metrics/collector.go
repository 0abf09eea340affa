package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
)

// Collector manages Prometheus metrics for the probe service. It owns a
// dedicated registry so scrapes only see vantage metrics, and implements the
// scheduler's Observer interface so results feed metrics directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	probeMetrics *ProbeMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Resolve defaults on a copy so the caller's config is left untouched.
	resolved := *cfg
	if resolved.Namespace == "" {
		resolved.Namespace = "vantage"
	}
	if resolved.Subsystem == "" {
		resolved.Subsystem = "probe"
	}
	if len(resolved.PhaseDurationBuckets) == 0 {
		// Spans fast LAN phases (1ms) through slow origins (10s)
		resolved.PhaseDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
	}

	c := &Collector{
		config:   &resolved,
		registry: registry,
	}

	c.probeMetrics = NewProbeMetrics(&resolved, registry)

	return c
}

// Observe records metrics for a completed probe result.
func (c *Collector) Observe(result *probe.Result) {
	if !c.config.Enabled {
		return
	}

	target := result.Target
	status := result.Status()

	c.probeMetrics.probesTotal.WithLabelValues(target, status).Inc()

	if result.Success() {
		c.probeMetrics.targetUp.WithLabelValues(target).Set(1)
	} else {
		c.probeMetrics.targetUp.WithLabelValues(target).Set(0)
		c.probeMetrics.errorsTotal.WithLabelValues(target, result.ErrorClass).Inc()
	}

	c.probeMetrics.recordPhases(target, map[string]time.Duration{
		"dns_lookup":        result.DNSLookup,
		"tcp_connection":    result.TCPConnection,
		"tls_handshake":     result.TLSHandshake,
		"server_processing": result.ServerProcessing,
		"content_transfer":  result.ContentTransfer,
		"total":             result.Total,
	})

	if result.BytesRead > 0 {
		c.probeMetrics.responseBytes.WithLabelValues(target).Observe(float64(result.BytesRead))
	}

	if result.ConnReused {
		c.probeMetrics.connReusedTotal.WithLabelValues(target).Inc()
	}
}

// ProbeStarted marks the start of a probe run.
func (c *Collector) ProbeStarted() {
	if !c.config.Enabled {
		return
	}
	c.probeMetrics.probesInFlight.Inc()
}

// ProbeFinished marks the completion of a probe run.
func (c *Collector) ProbeFinished() {
	if !c.config.Enabled {
		return
	}
	c.probeMetrics.probesInFlight.Dec()
}

// SetScheduledTargets records how many targets are currently scheduled.
func (c *Collector) SetScheduledTargets(n int) {
	if !c.config.Enabled {
		return
	}
	c.probeMetrics.scheduledTargets.Set(float64(n))
}

// ForgetTarget drops all metric series for a target. Called when a target
// is removed during config reload so stale series stop being exported.
func (c *Collector) ForgetTarget(target string) {
	labels := prometheus.Labels{"target": target}
	c.probeMetrics.probesTotal.DeletePartialMatch(labels)
	c.probeMetrics.errorsTotal.DeletePartialMatch(labels)
	c.probeMetrics.phaseDuration.DeletePartialMatch(labels)
	c.probeMetrics.responseBytes.DeletePartialMatch(labels)
	c.probeMetrics.targetUp.DeletePartialMatch(labels)
	c.probeMetrics.connReusedTotal.DeletePartialMatch(labels)
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
