package state

import (
	"context"
	"testing"
	"time"

	"mercator-hq/vantage/pkg/probe"
)

func okResult(target string) *probe.Result {
	return &probe.Result{
		ID:        "ok",
		Target:    target,
		StartTime: time.Now(),
		Total:     50 * time.Millisecond,
		StatusCode: 200,
	}
}

func failResult(target string) *probe.Result {
	return &probe.Result{
		ID:         "fail",
		Target:     target,
		StartTime:  time.Now(),
		Total:      time.Second,
		Error:      "dial tcp: connection refused",
		ErrorClass: probe.ErrorClassConnect,
	}
}

func TestTrackerObserve(t *testing.T) {
	tracker, err := NewTracker(nil, 10)
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}

	tracker.Observe(okResult("api"))
	tracker.Observe(failResult("api"))
	tracker.Observe(failResult("api"))

	state := tracker.Get("api")
	if state == nil {
		t.Fatal("Get() = nil, want state")
	}
	if state.ConsecutiveFailures != 2 {
		t.Errorf("ConsecutiveFailures = %d, want 2", state.ConsecutiveFailures)
	}
	if state.TotalProbes != 3 {
		t.Errorf("TotalProbes = %d, want 3", state.TotalProbes)
	}
	if state.TotalFailures != 2 {
		t.Errorf("TotalFailures = %d, want 2", state.TotalFailures)
	}
	if state.Up() {
		t.Error("Up() = true after failure")
	}
	if got := state.Availability(); got < 0.33 || got > 0.34 {
		t.Errorf("Availability() = %v, want ~0.333", got)
	}
	if state.LastErrorClass != probe.ErrorClassConnect {
		t.Errorf("LastErrorClass = %q, want connect", state.LastErrorClass)
	}
}

func TestTrackerConsecutiveFailuresReset(t *testing.T) {
	tracker, _ := NewTracker(nil, 10)

	tracker.Observe(failResult("api"))
	tracker.Observe(failResult("api"))
	tracker.Observe(okResult("api"))

	state := tracker.Get("api")
	if state.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0 after success", state.ConsecutiveFailures)
	}
	if !state.Up() {
		t.Error("Up() = false after success")
	}
}

func TestTrackerWindowCap(t *testing.T) {
	tracker, _ := NewTracker(nil, 5)

	for i := 0; i < 20; i++ {
		tracker.Observe(okResult("api"))
	}
	tracker.Observe(failResult("api"))

	state := tracker.Get("api")
	if len(state.Window) != 5 {
		t.Errorf("window length = %d, want 5", len(state.Window))
	}
	if got := state.Availability(); got != 0.8 {
		t.Errorf("Availability() = %v, want 0.8", got)
	}
}

func TestTrackerUnknownTarget(t *testing.T) {
	tracker, _ := NewTracker(nil, 10)
	if tracker.Get("missing") != nil {
		t.Error("Get(missing) != nil")
	}
	if len(tracker.All()) != 0 {
		t.Error("All() not empty for fresh tracker")
	}
}

func TestTrackerForget(t *testing.T) {
	tracker, _ := NewTracker(nil, 10)
	tracker.Observe(okResult("api"))

	if err := tracker.Forget(context.Background(), "api"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if tracker.Get("api") != nil {
		t.Error("state survived Forget")
	}
}
