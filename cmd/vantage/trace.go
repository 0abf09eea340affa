package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vantage/pkg/cli"
	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
)

var traceFlags struct {
	method          string
	timeout         time.Duration
	expectStatus    int
	followRedirects bool
	insecure        bool
	headers         []string
	format          string
	output          string
}

var traceCmd = &cobra.Command{
	Use:   "trace URL",
	Short: "Probe a URL once and print a phase timing breakdown",
	Long: `Probe a URL once and print per-phase timings: DNS lookup, TCP
connection, TLS handshake, server processing, and content transfer.

The command exits non-zero when the probe fails, including when the
response status is unexpected.

Examples:
  # Basic probe
  vantage trace https://example.com/

  # HEAD request with a tight deadline
  vantage trace https://example.com/ --method HEAD --timeout 2s

  # Expect a specific status
  vantage trace https://example.com/healthz --expect-status 204

  # Machine-readable output
  vantage trace https://example.com/ --format json`,
	Args: cobra.ExactArgs(1),
	RunE: traceURL,
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().StringVarP(&traceFlags.method, "method", "X", "GET", "HTTP method")
	traceCmd.Flags().DurationVar(&traceFlags.timeout, "timeout", 10*time.Second, "overall probe deadline")
	traceCmd.Flags().IntVar(&traceFlags.expectStatus, "expect-status", 0, "expected status code (0 accepts any status below 400)")
	traceCmd.Flags().BoolVar(&traceFlags.followRedirects, "follow-redirects", false, "follow HTTP redirects")
	traceCmd.Flags().BoolVarP(&traceFlags.insecure, "insecure", "k", false, "skip TLS certificate verification")
	traceCmd.Flags().StringArrayVarP(&traceFlags.headers, "header", "H", nil, "extra request header (key:value, repeatable)")
	traceCmd.Flags().StringVar(&traceFlags.format, "format", "text", "output format: text, json, csv")
	traceCmd.Flags().StringVarP(&traceFlags.output, "output", "o", "", "output file (default: stdout)")
}

func traceURL(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return cli.NewCommandError("trace", fmt.Errorf("invalid URL %q: scheme must be http or https", rawURL))
	}

	format, err := cli.ParseFormat(traceFlags.format)
	if err != nil {
		return cli.NewCommandError("trace", err)
	}

	headers := make(map[string]string, len(traceFlags.headers))
	for _, h := range traceFlags.headers {
		key, value, ok := splitHeader(h)
		if !ok {
			return cli.NewCommandError("trace", fmt.Errorf("invalid header %q (expected key:value)", h))
		}
		headers[key] = value
	}

	defaults := config.DefaultConfig().Probe
	defaults.FollowRedirects = traceFlags.followRedirects
	defaults.TLSSkipVerify = traceFlags.insecure

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	prober := probe.NewProber(defaults, logger)
	defer prober.Close()

	target := config.TargetConfig{
		Name:         parsed.Host,
		URL:          rawURL,
		Method:       traceFlags.method,
		Timeout:      traceFlags.timeout,
		ExpectStatus: traceFlags.expectStatus,
		Headers:      headers,
	}

	result := prober.Probe(cmd.Context(), target)

	var out io.Writer = os.Stdout
	if traceFlags.output != "" {
		f, err := os.Create(traceFlags.output)
		if err != nil {
			return cli.NewCommandError("trace", fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	if err := cli.WriteResult(cmd.Context(), out, result, format); err != nil {
		return cli.NewCommandError("trace", err)
	}

	if !result.Success() {
		return cli.NewProbeError(rawURL, result.ErrorClass, result.Error)
	}
	return nil
}

// splitHeader splits "Key: Value" into its parts, trimming whitespace
// around the value.
func splitHeader(h string) (key, value string, ok bool) {
	for i := 0; i < len(h); i++ {
		if h[i] == ':' {
			key = h[:i]
			value = h[i+1:]
			for len(value) > 0 && (value[0] == ' ' || value[0] == '\t') {
				value = value[1:]
			}
			return key, value, key != ""
		}
	}
	return "", "", false
}
