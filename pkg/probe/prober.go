package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/trace"
)

// Prober executes traced HTTP probes against configured targets.
//
// A single transport is shared across probes so connection pooling behaves
// per the keep-alive setting; a fresh http.Client wraps it per probe to
// carry the per-probe redirect counter.
type Prober struct {
	defaults  config.ProbeConfig
	transport *http.Transport
	logger    *slog.Logger
}

// NewProber creates a prober with the given default probe settings.
// A nil logger falls back to slog.Default.
func NewProber(defaults config.ProbeConfig, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: defaults.DisableKeepAlives,
		MaxIdleConns:      32,
		IdleConnTimeout:   90 * time.Second,
	}
	if defaults.TLSSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Prober{
		defaults:  defaults,
		transport: transport,
		logger:    logger.With("component", "probe.prober"),
	}
}

// Close releases idle connections held by the prober's transport.
func (p *Prober) Close() {
	p.transport.CloseIdleConnections()
}

// Probe runs a single traced probe against the target. It always returns a
// Result: failures are classified and recorded on the result rather than
// aborting the probe.
func (p *Prober) Probe(ctx context.Context, target config.TargetConfig) *Result {
	method := target.Method
	if method == "" {
		method = p.defaults.Method
	}
	timeout := target.Timeout
	if timeout == 0 {
		timeout = p.defaults.Timeout
	}

	result := &Result{
		ID:        uuid.New().String(),
		Target:    target.Name,
		URL:       target.URL,
		Method:    method,
		StartTime: time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target.URL, nil)
	if err != nil {
		p.fail(result, err, ErrorClassRequest)
		return result
	}

	req.Header.Set("User-Agent", p.defaults.UserAgent)
	for name, value := range target.Headers {
		req.Header.Set(name, value)
	}

	tracer := trace.NewTracer()
	req = tracer.Trace(req)

	redirects := 0
	client := &http.Client{
		Transport: p.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !p.defaults.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) > p.defaults.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", p.defaults.MaxRedirects)
			}
			redirects = len(via)
			return nil
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		tracer.Finish()
		p.applyTiming(result, tracer.Timing())
		p.fail(result, err, classifyError(err))
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Proto = resp.Proto
	result.Redirects = redirects

	// Drain the (possibly capped) body so content transfer is measured.
	body := tracer.Body(resp.Body)
	var reader io.Reader = body
	if p.defaults.MaxBodyBytes > 0 {
		reader = io.LimitReader(body, p.defaults.MaxBodyBytes)
	}
	n, readErr := io.Copy(io.Discard, reader)
	body.Close()
	result.BytesRead = n

	p.applyTiming(result, tracer.Timing())

	if readErr != nil {
		p.fail(result, readErr, ErrorClassRead)
		return result
	}

	if !statusExpected(resp.StatusCode, target.ExpectStatus) {
		p.fail(result,
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			ErrorClassHTTP)
		return result
	}

	p.logger.Debug("probe completed",
		"target", result.Target,
		"status", result.StatusCode,
		"total_ms", result.Total.Milliseconds(),
		"conn_reused", result.ConnReused,
	)

	return result
}

// fail records the failure on the result and stamps the end time if the
// trace never got that far.
func (p *Prober) fail(result *Result, err error, class string) {
	result.Error = err.Error()
	result.ErrorClass = class
	if result.EndTime.IsZero() {
		result.EndTime = time.Now()
		result.Total = result.EndTime.Sub(result.StartTime)
	}

	p.logger.Debug("probe failed",
		"target", result.Target,
		"error_class", class,
		"error", err,
	)
}

// applyTiming copies the trace phase breakdown onto the result.
func (p *Prober) applyTiming(result *Result, timing trace.Timing) {
	result.DNSLookup = timing.DNSLookup
	result.TCPConnection = timing.TCPConnection
	result.TLSHandshake = timing.TLSHandshake
	result.ServerProcessing = timing.ServerProcessing
	result.ContentTransfer = timing.ContentTransfer
	result.Total = timing.Total
	result.ConnReused = timing.ConnReused
	result.DNSCoalesced = timing.DNSCoalesced
	result.RemoteAddr = timing.RemoteAddr
	result.Addrs = timing.Addrs
	result.EndTime = timing.End
}

// statusExpected applies the per-target status expectation: an exact match
// when configured, otherwise anything below 400 passes.
func statusExpected(status, expect int) bool {
	if expect != 0 {
		return status == expect
	}
	return status < 400
}

// classifyError maps a transport-level error to the phase it surfaced in.
func classifyError(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorClassDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrorClassTLS
	}
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) {
		return ErrorClassTLS
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return ErrorClassTLS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ErrorClassConnect
	}

	return ErrorClassRequest
}
