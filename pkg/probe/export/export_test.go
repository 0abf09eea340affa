package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/vantage/pkg/probe"
)

func sampleResults() []*probe.Result {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []*probe.Result{
		{
			ID:               "r1",
			Target:           "api",
			URL:              "https://api.example.com/health",
			Method:           "GET",
			StartTime:        start,
			EndTime:          start.Add(150 * time.Millisecond),
			DNSLookup:        5 * time.Millisecond,
			TCPConnection:    12 * time.Millisecond,
			TLSHandshake:     40 * time.Millisecond,
			ServerProcessing: 80 * time.Millisecond,
			ContentTransfer:  13 * time.Millisecond,
			Total:            150 * time.Millisecond,
			StatusCode:       200,
			Proto:            "HTTP/2.0",
			BytesRead:        42,
			RemoteAddr:       "203.0.113.1:443",
			Addrs:            []string{"203.0.113.1", "2001:db8::1"},
		},
		{
			ID:         "r2",
			Target:     "api",
			URL:        "https://api.example.com/health",
			Method:     "GET",
			StartTime:  start.Add(time.Minute),
			EndTime:    start.Add(time.Minute + 30*time.Millisecond),
			Total:      30 * time.Millisecond,
			Error:      "lookup api.example.com: no such host",
			ErrorClass: probe.ErrorClassDNS,
		},
	}
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewJSONExporter(false)

	if err := exporter.Export(context.Background(), sampleResults(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded []*probe.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d results, want 2", len(decoded))
	}
	if decoded[0].ID != "r1" || decoded[1].ErrorClass != probe.ErrorClassDNS {
		t.Errorf("round trip lost fields: %+v", decoded)
	}
}

func TestJSONExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewJSONExporter(false)

	if err := exporter.Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("empty export = %q, want []", buf.String())
	}
}

func TestJSONExportStream(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewJSONExporter(false)

	resultsCh := make(chan *probe.Result, 2)
	for _, r := range sampleResults() {
		resultsCh <- r
	}
	close(resultsCh)

	if err := exporter.ExportStream(context.Background(), resultsCh, &buf); err != nil {
		t.Fatalf("ExportStream() error = %v", err)
	}

	var decoded []*probe.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("streamed output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded) != 2 {
		t.Errorf("decoded %d results, want 2", len(decoded))
	}
}

func TestJSONExportStreamCanceled(t *testing.T) {
	exporter := NewJSONExporter(false)

	resultsCh := make(chan *probe.Result)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exporter.ExportStream(ctx, resultsCh, &bytes.Buffer{})
	if err != context.Canceled {
		t.Errorf("ExportStream() error = %v, want context.Canceled", err)
	}
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewCSVExporter(true)

	if err := exporter.Export(context.Background(), sampleResults(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want 3 (header + 2 results)", len(records))
	}

	header := records[0]
	if header[0] != "id" || header[len(header)-1] != "error_class" {
		t.Errorf("unexpected header: %v", header)
	}
	if len(records[1]) != len(header) {
		t.Errorf("row width %d != header width %d", len(records[1]), len(header))
	}

	// Durations are fractional milliseconds.
	row := records[1]
	if row[11] != "150.000" {
		t.Errorf("total_ms = %q, want 150.000", row[11])
	}
	if !strings.Contains(row[19], "203.0.113.1") {
		t.Errorf("addrs column = %q, want it to contain the address", row[19])
	}
}

func TestCSVExportStream(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewCSVExporter(false)

	resultsCh := make(chan *probe.Result, 2)
	for _, r := range sampleResults() {
		resultsCh <- r
	}
	close(resultsCh)

	if err := exporter.ExportStream(context.Background(), resultsCh, &buf); err != nil {
		t.Fatalf("ExportStream() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("streamed output is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d rows, want 2", len(records))
	}
}
