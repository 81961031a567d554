package tracing_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/regexbench/internal/config"
	"github.com/torosent/regexbench/internal/tracing"
)

func setupTestTracer(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter, tp.Tracer("test")
}

func TestInitDisabledByDefault(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	p, err := tracing.Init(context.Background(), config.TracingConfig{}, tracing.Run{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if p.Enabled() {
		t.Error("Enabled() = true, want false without endpoint")
	}
	_, span := p.Tracer().Start(context.Background(), "test")
	span.End()
	if span.SpanContext().IsValid() {
		t.Error("no-op tracer produced a valid span context")
	}
}

func TestInitWithEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		protocol string
	}{
		{"grpc", "localhost:4317", "grpc"},
		{"http", "localhost:4318", "http"},
		{"default protocol", "localhost:4317", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tracing.Init(context.Background(), config.TracingConfig{
				Endpoint:    tt.endpoint,
				Protocol:    tt.protocol,
				ServiceName: "test-service",
				SampleRate:  1.0,
				Insecure:    true,
			}, tracing.Run{ID: "01J00000000000000000000000", Engine: "std", Threads: 1, Repeat: 1})
			if err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
			if !p.Enabled() {
				t.Error("Enabled() = false, want true")
			}
		})
	}
}

func TestInitErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TracingConfig
	}{
		{"unsupported protocol", config.TracingConfig{Endpoint: "localhost:4317", Protocol: "thrift", Insecure: true}},
		{"unsupported protocol from env endpoint", config.TracingConfig{Protocol: "zipkin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
			if _, err := tracing.Init(context.Background(), tt.cfg, tracing.Run{}); err == nil {
				t.Fatal("Init() should return error")
			}
		})
	}
}

func TestInitResourceDescribesRun(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	run := tracing.Run{ID: "01HZX3V8K9Q4M2N7P5R6S8T0VW", Engine: "regexp2", Threads: 4, Repeat: 10}
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint: "localhost:4317",
		Protocol: "grpc",
		Insecure: true,
	}, run)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range p.Resource().Attributes() {
		got[kv.Key] = kv.Value
	}
	want := map[attribute.Key]attribute.Value{
		"service.name":        attribute.StringValue("regexbench"),
		"service.instance.id": attribute.StringValue(run.ID),
		tracing.AttrEngine:    attribute.StringValue("regexp2"),
		tracing.AttrThreads:   attribute.IntValue(4),
		tracing.AttrRepeat:    attribute.IntValue(10),
	}
	for key, val := range want {
		if got[key] != val {
			t.Errorf("resource %s = %v, want %v", key, got[key].Emit(), val.Emit())
		}
	}

	disabled := &tracing.Provider{}
	if disabled.Resource() != nil {
		t.Error("disabled provider has a resource")
	}
}

func TestNilProviderSafety(t *testing.T) {
	var p *tracing.Provider
	if p.Enabled() {
		t.Error("nil provider Enabled() = true")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider Shutdown() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "test")
	span.End()
}

func TestStartSpan(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	ctx, parent := tracing.StartSpan(context.Background(), tracer, "regexbench.run", attribute.Int("regexbench.workers", 4))
	_, child := tracing.StartSpan(ctx, tracer, "regexbench.worker")
	tracing.EndSpan(child, nil, attribute.Int64("regexbench.packets", 10))
	tracing.EndSpan(parent, nil)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name != "regexbench.worker" || spans[1].Name != "regexbench.run" {
		t.Errorf("span names = %q, %q", spans[0].Name, spans[1].Name)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("worker span is not a child of the run span")
	}
	found := false
	for _, attr := range spans[1].Attributes {
		if attr.Key == "regexbench.workers" && attr.Value.AsInt64() == 4 {
			found = true
		}
	}
	if !found {
		t.Error("regexbench.workers attribute missing")
	}
}

func TestEndSpanStatus(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	_, failed := tracer.Start(context.Background(), "failed")
	tracing.EndSpan(failed, errors.New("match failed"))
	_, ok := tracer.Start(context.Background(), "ok")
	tracing.EndSpan(ok, nil)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("failed span status = %v, want Error", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Ok {
		t.Errorf("ok span status = %v, want Ok", spans[1].Status.Code)
	}
}
