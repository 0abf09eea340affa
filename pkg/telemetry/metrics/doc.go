// Package metrics exposes Prometheus metrics for the probe service.
//
// The Collector owns a dedicated Prometheus registry and implements the
// scheduler's Observer interface, so every completed probe updates counters,
// per-phase latency histograms, and the per-target up gauge without extra
// plumbing. Mount Collector.Handler() on the API server to serve scrapes.
package metrics
