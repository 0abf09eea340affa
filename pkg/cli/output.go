package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"mercator-hq/vantage/pkg/probe"
	"mercator-hq/vantage/pkg/probe/export"
	"mercator-hq/vantage/pkg/probe/state"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates a format string from a command flag.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, FormatJSON, FormatCSV:
		return OutputFormat(s), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: text, json, csv)", s)
	}
}

// WriteResults writes probe results to w in the requested format.
func WriteResults(ctx context.Context, w io.Writer, results []*probe.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return export.NewJSONExporter(true).Export(ctx, results, w)
	case FormatCSV:
		return export.NewCSVExporter(true).Export(ctx, results, w)
	default:
		return writeResultsTable(w, results)
	}
}

// writeResultsTable renders a compact text table, one row per result.
func writeResultsTable(w io.Writer, results []*probe.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}

	if _, err := fmt.Fprintf(w, "%-32s  %-16s  %-7s  %-6s  %10s  %s\n",
		"START", "TARGET", "METHOD", "STATUS", "TOTAL", "ERROR"); err != nil {
		return err
	}

	for _, r := range results {
		status := "-"
		if r.StatusCode != 0 {
			status = fmt.Sprintf("%d", r.StatusCode)
		}
		errText := ""
		if r.Error != "" {
			errText = fmt.Sprintf("[%s] %s", r.ErrorClass, r.Error)
		}
		if _, err := fmt.Fprintf(w, "%-32s  %-16s  %-7s  %-6s  %10s  %s\n",
			r.StartTime.Format(time.RFC3339),
			r.Target,
			r.Method,
			status,
			formatDuration(r.Total),
			errText,
		); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%d result(s)\n", len(results))
	return err
}

// WritePhaseBreakdown renders a single probe result as a timing breakdown,
// one line per phase. Phases that did not occur (reused connection, plain
// HTTP) are marked as skipped.
func WritePhaseBreakdown(w io.Writer, result *probe.Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", result.Method, result.URL)
	fmt.Fprintln(&b)

	phases := []struct {
		name string
		d    time.Duration
	}{
		{"DNS Lookup", result.DNSLookup},
		{"TCP Connection", result.TCPConnection},
		{"TLS Handshake", result.TLSHandshake},
		{"Server Processing", result.ServerProcessing},
		{"Content Transfer", result.ContentTransfer},
	}

	for _, p := range phases {
		if p.d > 0 {
			fmt.Fprintf(&b, "  %-18s %12s\n", p.name+":", formatDuration(p.d))
		} else {
			fmt.Fprintf(&b, "  %-18s %12s\n", p.name+":", "skipped")
		}
	}
	fmt.Fprintf(&b, "  %s\n", strings.Repeat("-", 32))
	fmt.Fprintf(&b, "  %-18s %12s\n", "Total:", formatDuration(result.Total))
	fmt.Fprintln(&b)

	if result.ConnReused {
		fmt.Fprintln(&b, "  Connection reused")
	}
	if result.RemoteAddr != "" {
		fmt.Fprintf(&b, "  Connected to:      %s\n", result.RemoteAddr)
	}
	if len(result.Addrs) > 0 {
		fmt.Fprintf(&b, "  Resolved:          %s\n", strings.Join(result.Addrs, ", "))
	}

	if result.Success() {
		fmt.Fprintf(&b, "\n  Status: %d %s, %d bytes read", result.StatusCode, result.Proto, result.BytesRead)
		if result.Redirects > 0 {
			fmt.Fprintf(&b, ", %d redirect(s)", result.Redirects)
		}
		fmt.Fprintln(&b)
	} else {
		fmt.Fprintf(&b, "\n  Error [%s]: %s\n", result.ErrorClass, result.Error)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteResult writes a single probe result in the requested format. Text
// format uses the phase breakdown rather than the table.
func WriteResult(ctx context.Context, w io.Writer, result *probe.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatCSV:
		return export.NewCSVExporter(true).Export(ctx, []*probe.Result{result}, w)
	default:
		return WritePhaseBreakdown(w, result)
	}
}

// targetRow mirrors the API's targets payload so CLI JSON output carries
// the same derived fields.
type targetRow struct {
	*state.TargetState
	Up           bool    `json:"up"`
	Availability float64 `json:"availability"`
}

// WriteTargets writes rolling target states to w in the requested format.
// CSV is not supported for target state.
func WriteTargets(w io.Writer, states []*state.TargetState, format OutputFormat) error {
	switch format {
	case FormatJSON:
		rows := make([]targetRow, 0, len(states))
		for _, s := range states {
			rows = append(rows, targetRow{TargetState: s, Up: s.Up(), Availability: s.Availability()})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case FormatCSV:
		return fmt.Errorf("unsupported format for targets: csv")
	default:
		return writeTargetsTable(w, states)
	}
}

// writeTargetsTable renders a compact text table, one row per target.
func writeTargetsTable(w io.Writer, states []*state.TargetState) error {
	if len(states) == 0 {
		_, err := fmt.Fprintln(w, "No targets tracked.")
		return err
	}

	if _, err := fmt.Fprintf(w, "%-16s  %-4s  %12s  %8s  %-25s  %s\n",
		"TARGET", "UP", "AVAILABILITY", "FAILING", "LAST PROBE", "LAST ERROR"); err != nil {
		return err
	}

	for _, s := range states {
		up := "no"
		if s.Up() {
			up = "yes"
		}
		errText := ""
		if s.LastError != "" {
			errText = fmt.Sprintf("[%s] %s", s.LastErrorClass, s.LastError)
		}
		if _, err := fmt.Fprintf(w, "%-16s  %-4s  %11.1f%%  %8d  %-25s  %s\n",
			s.Target,
			up,
			s.Availability()*100,
			s.ConsecutiveFailures,
			s.LastProbeTime.Format(time.RFC3339),
			errText,
		); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%d target(s)\n", len(states))
	return err
}

// formatDuration renders a duration with millisecond precision, the
// resolution that matters for HTTP latency.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}
