package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
)

type captureSink struct {
	mu      sync.Mutex
	results []*probe.Result
}

func (s *captureSink) Record(ctx context.Context, result *probe.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

type captureObserver struct {
	mu      sync.Mutex
	results []*probe.Result
}

func (o *captureObserver) Observe(result *probe.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func newTestScheduler(t *testing.T, sink Sink, observers ...Observer) *Scheduler {
	t.Helper()
	cfg := config.DefaultConfig().Probe
	cfg.Timeout = 5 * time.Second
	prober := probe.NewProber(cfg, nil)
	t.Cleanup(prober.Close)
	return New(prober, sink, "@every 1h", observers...)
}

func TestRunAllFansOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	sink := &captureSink{}
	obs := &captureObserver{}
	s := newTestScheduler(t, sink, obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.baseCtx = ctx

	targets := []config.TargetConfig{
		{Name: "one", URL: srv.URL},
		{Name: "two", URL: srv.URL},
	}
	s.RunAll(targets)

	if sink.count() != 2 {
		t.Errorf("sink received %d results, want 2", sink.count())
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.results) != 2 {
		t.Errorf("observer received %d results, want 2", len(obs.results))
	}
	for _, r := range obs.results {
		if !r.Success() {
			t.Errorf("result for %s failed: %s", r.Target, r.Error)
		}
	}
}

func TestStartAndReload(t *testing.T) {
	sink := &captureSink{}
	s := newTestScheduler(t, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	targets := []config.TargetConfig{
		{Name: "one", URL: "http://127.0.0.1:1/", Schedule: "@every 1h"},
		{Name: "two", URL: "http://127.0.0.1:1/"},
	}
	if err := s.Start(ctx, targets); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if s.TargetCount() != 2 {
		t.Errorf("TargetCount() = %d, want 2", s.TargetCount())
	}

	if err := s.Reload(targets[:1]); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if s.TargetCount() != 1 {
		t.Errorf("TargetCount() after reload = %d, want 1", s.TargetCount())
	}
}

type runCountObserver struct {
	captureObserver
	mu       sync.Mutex
	started  int
	finished int
}

func (o *runCountObserver) ProbeStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *runCountObserver) ProbeFinished() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
}

func TestRunObserverHooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	obs := &runCountObserver{}
	s := newTestScheduler(t, &captureSink{}, obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.baseCtx = ctx

	s.RunAll([]config.TargetConfig{{Name: "one", URL: srv.URL}})

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.started != 1 || obs.finished != 1 {
		t.Errorf("started = %d, finished = %d, want 1/1", obs.started, obs.finished)
	}
}

func TestNextRun(t *testing.T) {
	s := newTestScheduler(t, &captureSink{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, []config.TargetConfig{
		{Name: "one", URL: "http://127.0.0.1:1/", Schedule: "@every 1h"},
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	next := s.NextRun("one")
	if next == nil {
		t.Fatal("NextRun() = nil for scheduled target")
	}
	if !next.After(time.Now()) {
		t.Errorf("NextRun() = %v, want a future time", next)
	}

	if s.NextRun("unknown") != nil {
		t.Error("NextRun() != nil for unknown target")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := newTestScheduler(t, &captureSink{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := s.Start(ctx, []config.TargetConfig{
		{Name: "bad", URL: "http://127.0.0.1:1/", Schedule: "every now and then"},
	})
	if err == nil {
		t.Fatal("Start() = nil, want error for invalid schedule")
	}
}

func TestStartTwiceFails(t *testing.T) {
	s := newTestScheduler(t, &captureSink{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if err := s.Start(ctx, nil); err == nil {
		t.Fatal("second Start() = nil, want error")
	}
}
