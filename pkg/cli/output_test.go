package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/probe/state"
)

func sampleResult() *probe.Result {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return &probe.Result{
		ID:               "r1",
		Target:           "api",
		URL:              "https://api.example.com/",
		Method:           "GET",
		StartTime:        start,
		EndTime:          start.Add(187 * time.Millisecond),
		DNSLookup:        12 * time.Millisecond,
		TCPConnection:    30 * time.Millisecond,
		TLSHandshake:     55 * time.Millisecond,
		ServerProcessing: 80 * time.Millisecond,
		ContentTransfer:  10 * time.Millisecond,
		Total:            187 * time.Millisecond,
		StatusCode:       200,
		Proto:            "HTTP/2.0",
		BytesRead:        1234,
		RemoteAddr:       "93.184.216.34:443",
		Addrs:            []string{"93.184.216.34"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) = nil error, want error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWritePhaseBreakdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePhaseBreakdown(&buf, sampleResult()); err != nil {
		t.Fatalf("WritePhaseBreakdown() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"GET https://api.example.com/",
		"DNS Lookup:",
		"12ms",
		"TLS Handshake:",
		"Total:",
		"187ms",
		"Status: 200 HTTP/2.0, 1234 bytes read",
		"93.184.216.34",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWritePhaseBreakdownSkippedPhases(t *testing.T) {
	result := sampleResult()
	result.DNSLookup = 0
	result.TLSHandshake = 0
	result.ConnReused = true

	var buf bytes.Buffer
	if err := WritePhaseBreakdown(&buf, result); err != nil {
		t.Fatalf("WritePhaseBreakdown() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "skipped") {
		t.Errorf("output missing skipped marker:\n%s", out)
	}
	if !strings.Contains(out, "Connection reused") {
		t.Errorf("output missing connection reused note:\n%s", out)
	}
}

func TestWritePhaseBreakdownFailure(t *testing.T) {
	result := sampleResult()
	result.StatusCode = 0
	result.Error = "no such host"
	result.ErrorClass = probe.ErrorClassDNS

	var buf bytes.Buffer
	if err := WritePhaseBreakdown(&buf, result); err != nil {
		t.Fatalf("WritePhaseBreakdown() error = %v", err)
	}

	if !strings.Contains(buf.String(), "Error [dns]: no such host") {
		t.Errorf("output missing error line:\n%s", buf.String())
	}
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(context.Background(), &buf, sampleResult(), FormatJSON); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}

	var decoded probe.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ID != "r1" {
		t.Errorf("decoded ID = %q, want r1", decoded.ID)
	}
}

func TestWriteResultsTable(t *testing.T) {
	results := []*probe.Result{sampleResult()}
	failed := sampleResult()
	failed.ID = "r2"
	failed.StatusCode = 0
	failed.Error = "connection refused"
	failed.ErrorClass = probe.ErrorClassConnect
	results = append(results, failed)

	var buf bytes.Buffer
	if err := WriteResults(context.Background(), &buf, results, FormatText); err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "TARGET") {
		t.Errorf("output missing table header:\n%s", out)
	}
	if !strings.Contains(out, "[connect] connection refused") {
		t.Errorf("output missing error column:\n%s", out)
	}
	if !strings.Contains(out, "2 result(s)") {
		t.Errorf("output missing count:\n%s", out)
	}
}

func TestWriteResultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(context.Background(), &buf, nil, FormatText); err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No results found") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteResultsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(context.Background(), &buf, []*probe.Result{sampleResult()}, FormatCSV); err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,target") {
		t.Errorf("csv header = %q", lines[0])
	}
}

func sampleStates() []*state.TargetState {
	return []*state.TargetState{
		{
			Target:        "api",
			LastProbeTime: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
			LastStatus:    "success",
			Window:        []bool{true, true, true, true},
		},
		{
			Target:              "cdn",
			LastProbeTime:       time.Date(2026, 8, 31, 10, 0, 5, 0, time.UTC),
			LastStatus:          "error",
			LastError:           "connection refused",
			LastErrorClass:      probe.ErrorClassConnect,
			ConsecutiveFailures: 2,
			Window:              []bool{true, false, false, false},
		},
	}
}

func TestWriteTargetsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTargets(&buf, sampleStates(), FormatText); err != nil {
		t.Fatalf("WriteTargets() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "AVAILABILITY") {
		t.Errorf("output missing table header:\n%s", out)
	}
	if !strings.Contains(out, "100.0%") {
		t.Errorf("output missing api availability:\n%s", out)
	}
	if !strings.Contains(out, "25.0%") {
		t.Errorf("output missing cdn availability:\n%s", out)
	}
	if !strings.Contains(out, "[connect] connection refused") {
		t.Errorf("output missing error column:\n%s", out)
	}
	if !strings.Contains(out, "2 target(s)") {
		t.Errorf("output missing count:\n%s", out)
	}
}

func TestWriteTargetsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTargets(&buf, sampleStates(), FormatJSON); err != nil {
		t.Fatalf("WriteTargets() error = %v", err)
	}

	var rows []struct {
		Target       string  `json:"target"`
		Up           bool    `json:"up"`
		Availability float64 `json:"availability"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if !rows[0].Up || rows[0].Availability != 1 {
		t.Errorf("api row = %+v, want up with availability 1", rows[0])
	}
	if rows[1].Up || rows[1].Availability != 0.25 {
		t.Errorf("cdn row = %+v, want down with availability 0.25", rows[1])
	}
}

func TestWriteTargetsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTargets(&buf, nil, FormatText); err != nil {
		t.Fatalf("WriteTargets() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No targets tracked") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteTargetsRejectsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTargets(&buf, sampleStates(), FormatCSV); err == nil {
		t.Fatal("WriteTargets(csv) = nil, want error")
	}
}
