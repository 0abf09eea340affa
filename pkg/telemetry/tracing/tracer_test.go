package tracing

import (
	"context"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/vantage/pkg/config"
	"mercator-hq/vantage/pkg/probe"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	if tracer.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}

	_, span := tracer.Start(context.Background(), "probe.run")
	if span.SpanContext().IsValid() {
		t.Error("noop tracer produced a recording span")
	}
	span.End()
}

func TestNilConfigRejected(t *testing.T) {
	if _, err := New(nil, "test"); err == nil {
		t.Fatal("New(nil) = nil error, want error")
	}
}

func TestSetProbeAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, span := tracer.Start(context.Background(), "probe.run")
	SetProbeAttributes(span, &probe.Result{
		ID:         "r1",
		Target:     "api",
		URL:        "https://api.example.com/",
		Method:     "GET",
		StatusCode: 503,
		Total:      250 * time.Millisecond,
		Error:      "unexpected status 503",
		ErrorClass: probe.ErrorClassHTTP,
	})
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}

	attrs := make(map[string]any)
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}

	if attrs[AttrTarget] != "api" {
		t.Errorf("target attribute = %v, want api", attrs[AttrTarget])
	}
	if attrs[AttrErrorClass] != "http" {
		t.Errorf("error class attribute = %v, want http", attrs[AttrErrorClass])
	}
	if attrs[AttrTotalMs] != 250.0 {
		t.Errorf("total_ms attribute = %v, want 250", attrs[AttrTotalMs])
	}
}
