package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/probe/state"
	"mercator-hq/vantage/pkg/telemetry/metrics"
)

func TestDroppedTargets(t *testing.T) {
	tests := []struct {
		name    string
		old     []string
		updated []string
		want    []string
	}{
		{"no change", []string{"a", "b"}, []string{"a", "b"}, nil},
		{"one dropped", []string{"a", "b"}, []string{"b"}, []string{"a"}},
		{"all dropped", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"only added", []string{"a"}, []string{"a", "b"}, nil},
	}

	toTargets := func(names []string) []config.TargetConfig {
		var targets []config.TargetConfig
		for _, name := range names {
			targets = append(targets, config.TargetConfig{Name: name})
		}
		return targets
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := droppedTargets(toTargets(tt.old), toTargets(tt.updated))
			if len(got) != len(tt.want) {
				t.Fatalf("droppedTargets() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("droppedTargets() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestForgetTargetsOnReload(t *testing.T) {
	cfg := config.DefaultConfig().Telemetry.Metrics
	cfg.Enabled = true
	collector := metrics.NewCollector(&cfg, prometheus.NewRegistry())

	tracker, err := state.NewTracker(nil, 10)
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}

	result := &probe.Result{
		ID:         "r1",
		Target:     "old",
		StartTime:  time.Now(),
		Total:      100 * time.Millisecond,
		StatusCode: 200,
	}
	collector.Observe(result)
	tracker.Observe(result)

	old := []config.TargetConfig{{Name: "old"}, {Name: "keep"}}
	updated := []config.TargetConfig{{Name: "keep"}}
	forgetTargets(context.Background(), droppedTargets(old, updated), collector, tracker)

	if tracker.Get("old") != nil {
		t.Error("state for removed target still tracked after reload")
	}

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if strings.Contains(rec.Body.String(), `target="old"`) {
		t.Error("metric series for removed target still exported after reload")
	}
}
