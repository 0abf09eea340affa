package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/probe/state"
	"mercator-hq/vantage/pkg/probe/storage"
)

type fakeStates struct {
	states []*state.TargetState
}

func (f *fakeStates) All() []*state.TargetState { return f.states }

func (f *fakeStates) Get(target string) *state.TargetState {
	for _, st := range f.states {
		if st.Target == target {
			return st
		}
	}
	return nil
}

func testServer(t *testing.T, store probe.Storage, states StateReader) *Server {
	t.Helper()

	cfg := config.DefaultConfig().Server
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(&cfg, Dependencies{
		Storage: store,
		States:  states,
		Version: "test",
	}, logger)
}

func seedResults(t *testing.T, store probe.Storage) {
	t.Helper()

	now := time.Now().UTC()
	results := []*probe.Result{
		{
			ID: "a", Target: "api", URL: "https://api.example.com/", Method: "GET",
			StartTime: now.Add(-2 * time.Minute), EndTime: now.Add(-2 * time.Minute).Add(100 * time.Millisecond),
			Total: 100 * time.Millisecond, StatusCode: 200, Proto: "HTTP/2.0",
		},
		{
			ID: "b", Target: "api", URL: "https://api.example.com/", Method: "GET",
			StartTime: now.Add(-time.Minute), EndTime: now.Add(-time.Minute).Add(300 * time.Millisecond),
			Total: 300 * time.Millisecond, StatusCode: 503,
			Error: "unexpected status 503", ErrorClass: probe.ErrorClassHTTP,
		},
		{
			ID: "c", Target: "cdn", URL: "https://cdn.example.com/", Method: "HEAD",
			StartTime: now, EndTime: now.Add(50 * time.Millisecond),
			Total: 50 * time.Millisecond, StatusCode: 200, Proto: "HTTP/2.0",
		},
	}
	for _, r := range results {
		if err := store.Store(context.Background(), r); err != nil {
			t.Fatalf("seeding storage: %v", err)
		}
	}
}

func TestResultsEndpoint(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedResults(t, store)
	handler := testServer(t, store, nil).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/results code = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []*probe.Result `json:"results"`
		Count   int             `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 3 {
		t.Errorf("count = %d, want 3", resp.Count)
	}
	// Default sort is start_time descending.
	if resp.Results[0].ID != "c" {
		t.Errorf("first result = %q, want c", resp.Results[0].ID)
	}
}

func TestResultsFilters(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedResults(t, store)
	handler := testServer(t, store, nil).Handler()

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"by target", "target=api", []string{"b", "a"}},
		{"by status error", "status=error", []string{"b"}},
		{"by error class", "error_class=http", []string{"b"}},
		{"by status code", "status_code=503", []string{"b"}},
		{"slow only", "min_total=200ms", []string{"b"}},
		{"limit", "limit=1", []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results?"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
			}

			var resp struct {
				Results []*probe.Result `json:"results"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}

			var ids []string
			for _, r := range resp.Results {
				ids = append(ids, r.ID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("got %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("got %v, want %v", ids, tt.wantIDs)
					break
				}
			}
		})
	}
}

func TestResultsBadParams(t *testing.T) {
	handler := testServer(t, storage.NewMemoryStorage(), nil).Handler()

	tests := []struct {
		name  string
		query string
	}{
		{"bad start_time", "start_time=yesterday"},
		{"bad min_total", "min_total=fast"},
		{"bad limit", "limit=ten"},
		{"negative limit", "limit=-1"},
		{"bad sort field", "sort_by=latency"},
		{"bad status", "status=flaky"},
		{"bad format", "format=xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results?"+tt.query, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("code = %d, want 400, body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestResultsCSVExport(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedResults(t, store)
	handler := testServer(t, store, nil).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results?format=csv&target=cdn", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,target,url") {
		t.Errorf("csv header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "cdn") {
		t.Errorf("csv row = %q, want cdn target", lines[1])
	}
}

func TestTargetsEndpoint(t *testing.T) {
	states := &fakeStates{states: []*state.TargetState{
		{Target: "api", LastStatus: "success", TotalProbes: 10},
		{
			Target: "cdn", LastStatus: "error", ConsecutiveFailures: 3,
			TotalProbes: 5, TotalFailures: 3,
			Window: []bool{true, true, false, false, false, false, true, false},
		},
	}}
	handler := testServer(t, storage.NewMemoryStorage(), states).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/targets", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}

	var resp struct {
		Targets []struct {
			state.TargetState
			Up           bool    `json:"up"`
			Availability float64 `json:"availability"`
		} `json:"targets"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
	for _, target := range resp.Targets {
		switch target.Target {
		case "api":
			if !target.Up || target.Availability != 1 {
				t.Errorf("api: up = %t, availability = %v, want true/1", target.Up, target.Availability)
			}
		case "cdn":
			if target.Up {
				t.Error("cdn: up = true after failed probe")
			}
			if target.Availability != 0.375 {
				t.Errorf("cdn: availability = %v, want 0.375 over the window", target.Availability)
			}
		}
	}

	// Single-target lookup.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/targets?target=cdn", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("single target code = %d", rec.Code)
	}
	var st struct {
		state.TargetState
		Up           bool    `json:"up"`
		Availability float64 `json:"availability"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decoding target: %v", err)
	}
	if st.ConsecutiveFailures != 3 {
		t.Errorf("consecutive_failures = %d, want 3", st.ConsecutiveFailures)
	}
	if st.Availability != 0.375 {
		t.Errorf("availability = %v, want 0.375", st.Availability)
	}

	// Unknown target.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/targets?target=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown target code = %d, want 404", rec.Code)
	}
}

func TestTargetsDisabled(t *testing.T) {
	handler := testServer(t, storage.NewMemoryStorage(), nil).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/targets", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503 when state tracking disabled", rec.Code)
	}
}

func TestHealthAndVersionRoutes(t *testing.T) {
	handler := testServer(t, storage.NewMemoryStorage(), nil).Handler()

	for _, path := range []string{"/health", "/ready", "/version"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s code = %d, want 200", path, rec.Code)
		}
	}
}

func TestRequestIDPropagation(t *testing.T) {
	handler := testServer(t, storage.NewMemoryStorage(), nil).Handler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("X-Request-ID = %q, want client-supplied-id", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := rec.Header().Get(RequestIDHeader); len(got) != 32 {
		t.Errorf("generated X-Request-ID = %q, want 32 hex chars", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	srv := testServer(t, storage.NewMemoryStorage(), nil)
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown before Start error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true before Start")
	}
}
