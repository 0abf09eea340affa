package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/vantage/pkg/config"
)

// ProbeMetrics tracks metrics derived from probe results.
//
// Metrics:
//   - vantage_probe_probes_total: probe count by target and status
//   - vantage_probe_errors_total: failed probe count by target and error class
//   - vantage_probe_phase_duration_seconds: per-phase latency histogram
//   - vantage_probe_response_bytes: response body size histogram
//   - vantage_probe_target_up: 1 when the last probe of a target succeeded
//   - vantage_probe_conn_reused_total: probes served over a reused connection
//   - vantage_probe_probes_in_flight: probes currently executing
//   - vantage_probe_scheduled_targets: targets currently registered with the scheduler
type ProbeMetrics struct {
	probesTotal      *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	phaseDuration    *prometheus.HistogramVec
	responseBytes    *prometheus.HistogramVec
	targetUp         *prometheus.GaugeVec
	connReusedTotal  *prometheus.CounterVec
	probesInFlight   prometheus.Gauge
	scheduledTargets prometheus.Gauge
}

// NewProbeMetrics creates and registers probe metrics with the provided registry.
func NewProbeMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProbeMetrics {
	pm := &ProbeMetrics{
		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "probes_total",
				Help:      "Total number of probes executed",
			},
			[]string{"target", "status"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "errors_total",
				Help:      "Total number of failed probes by error class",
			},
			[]string{"target", "error_class"},
		),

		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "phase_duration_seconds",
				Help:      "Duration of HTTP request phases in seconds",
				Buckets:   cfg.PhaseDurationBuckets,
			},
			[]string{"target", "phase"},
		),

		responseBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "response_bytes",
				Help:      "Size of probe response bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 10), // 256B to 64MB
			},
			[]string{"target"},
		),

		targetUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "target_up",
				Help:      "Whether the last probe of the target succeeded (1) or failed (0)",
			},
			[]string{"target"},
		),

		connReusedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "conn_reused_total",
				Help:      "Total number of probes served over a reused connection",
			},
			[]string{"target"},
		),

		probesInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "probes_in_flight",
				Help:      "Number of probes currently executing",
			},
		),

		scheduledTargets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scheduled_targets",
				Help:      "Number of targets currently registered with the scheduler",
			},
		),
	}

	registry.MustRegister(
		pm.probesTotal,
		pm.errorsTotal,
		pm.phaseDuration,
		pm.responseBytes,
		pm.targetUp,
		pm.connReusedTotal,
		pm.probesInFlight,
		pm.scheduledTargets,
	)

	return pm
}

// phases maps phase label names to result durations. Zero-duration phases
// (reused connection, plain HTTP) are skipped so they do not skew the
// histograms.
func (pm *ProbeMetrics) recordPhases(target string, phases map[string]time.Duration) {
	for phase, d := range phases {
		if d <= 0 {
			continue
		}
		pm.phaseDuration.WithLabelValues(target, phase).Observe(d.Seconds())
	}
}
