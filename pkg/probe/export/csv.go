package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"mercator-hq/vantage/pkg/probe"
)

// CSVExporter exports probe results to CSV format.
// Phase durations are flattened to fractional milliseconds so the output
// loads cleanly into spreadsheets.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes probe results to the provided writer in CSV format.
func (e *CSVExporter) Export(ctx context.Context, results []*probe.Result, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(e.getHeaderRow()); err != nil {
			return probe.NewExportError("csv", len(results), err)
		}
	}

	for _, result := range results {
		if err := writer.Write(e.resultToRow(result)); err != nil {
			return probe.NewExportError("csv", len(results), err)
		}
	}

	return nil
}

// ExportStream exports probe results from a channel to CSV format.
// The CSV writer flushes periodically to provide progress feedback
// for long-running exports.
func (e *CSVExporter) ExportStream(ctx context.Context, resultsCh <-chan *probe.Result, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(e.getHeaderRow()); err != nil {
			return probe.NewExportError("csv", 0, err)
		}
	}

	resultCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case result, ok := <-resultsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return probe.NewExportError("csv", resultCount, err)
				}
				return nil
			}

			if err := writer.Write(e.resultToRow(result)); err != nil {
				return probe.NewExportError("csv", resultCount, err)
			}

			resultCount++

			// Flush every 100 results so long exports make visible progress.
			if resultCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return probe.NewExportError("csv", resultCount, err)
				}
			}
		}
	}
}

// getHeaderRow returns the CSV header row.
func (e *CSVExporter) getHeaderRow() []string {
	return []string{
		"id", "target", "url", "method",
		"start_time", "end_time",
		"dns_lookup_ms", "tcp_connection_ms", "tls_handshake_ms",
		"server_processing_ms", "content_transfer_ms", "total_ms",
		"status_code", "proto", "bytes_read", "redirects",
		"conn_reused", "dns_coalesced", "remote_addr", "addrs",
		"error", "error_class",
	}
}

// resultToRow converts a probe result to a CSV row.
func (e *CSVExporter) resultToRow(result *probe.Result) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339Nano)
	}

	formatMs := func(d time.Duration) string {
		return fmt.Sprintf("%.3f", float64(d)/float64(time.Millisecond))
	}

	return []string{
		result.ID,
		result.Target,
		result.URL,
		result.Method,
		formatTime(result.StartTime),
		formatTime(result.EndTime),
		formatMs(result.DNSLookup),
		formatMs(result.TCPConnection),
		formatMs(result.TLSHandshake),
		formatMs(result.ServerProcessing),
		formatMs(result.ContentTransfer),
		formatMs(result.Total),
		fmt.Sprintf("%d", result.StatusCode),
		result.Proto,
		fmt.Sprintf("%d", result.BytesRead),
		fmt.Sprintf("%d", result.Redirects),
		fmt.Sprintf("%t", result.ConnReused),
		fmt.Sprintf("%t", result.DNSCoalesced),
		result.RemoteAddr,
		strings.Join(result.Addrs, " "),
		result.Error,
		result.ErrorClass,
	}
}
