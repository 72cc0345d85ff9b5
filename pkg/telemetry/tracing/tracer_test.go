package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"costlab-hq/tokenbench/pkg/config"
)

func enabledConfig() config.TracingConfig {
	return config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		Exporter:    "otlp",
		Endpoint:    "localhost:4317",
		Insecure:    true,
		Timeout:     time.Second,
		ServiceName: "tokenbench-test",
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*config.TracingConfig)
		wantEnabled bool
		wantErr     bool
	}{
		{
			name:   "disabled",
			mutate: func(c *config.TracingConfig) { c.Enabled = false },
		},
		{
			name:        "always sampler",
			mutate:      func(c *config.TracingConfig) {},
			wantEnabled: true,
		},
		{
			name:        "never sampler",
			mutate:      func(c *config.TracingConfig) { c.Sampler = SamplerNever },
			wantEnabled: true,
		},
		{
			name: "ratio sampler",
			mutate: func(c *config.TracingConfig) {
				c.Sampler = SamplerRatio
				c.SampleRatio = 0.5
			},
			wantEnabled: true,
		},
		{
			name:    "unknown sampler",
			mutate:  func(c *config.TracingConfig) { c.Sampler = "sometimes" },
			wantErr: true,
		},
		{
			name:    "unknown exporter",
			mutate:  func(c *config.TracingConfig) { c.Exporter = "zipkin" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := enabledConfig()
			tt.mutate(&cfg)

			tracer, err := New(context.Background(), cfg, WithServiceVersion("test"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer tracer.Shutdown(context.Background())

			if tracer.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.wantEnabled)
			}
			if tracer.Tracer() == nil {
				t.Error("Tracer() returned nil")
			}
		})
	}
}

func TestTracer_DisabledRecordsNothing(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tracer, err := New(context.Background(), config.TracingConfig{}, WithExporter(exp))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, span := tracer.Start(context.Background(), SpanRun)
	span.End()

	if span.IsRecording() {
		t.Error("disabled tracer produced a recording span")
	}
	if id := TraceID(ctx); id != "" {
		t.Errorf("TraceID() = %q, want empty", id)
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
	if got := len(exp.GetSpans()); got != 0 {
		t.Errorf("expected no exported spans, got %d", got)
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tracer, err := New(context.Background(), enabledConfig(), WithExporter(exp), WithServiceVersion("1.2.3"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, run := tracer.Start(context.Background(), SpanRun)
	if TraceID(ctx) == "" {
		t.Error("TraceID() is empty inside a recording span")
	}
	_, call := tracer.Start(ctx, SpanCall)
	SetStatus(call, errors.New("boom"))
	call.End()
	SetStatus(run, nil)
	run.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != SpanCall || spans[1].Name != SpanRun {
		t.Errorf("unexpected span order %q, %q", spans[0].Name, spans[1].Name)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("call span is not a child of the run span")
	}
	if spans[0].Status.Code != codes.Error || spans[0].Status.Description != "boom" {
		t.Errorf("call status = %+v, want Error boom", spans[0].Status)
	}
	if len(spans[0].Events) != 1 || spans[0].Events[0].Name != "exception" {
		t.Errorf("expected recorded error event, got %+v", spans[0].Events)
	}
	if spans[1].Status.Code != codes.Ok {
		t.Errorf("run status = %v, want Ok", spans[1].Status.Code)
	}

	var service, version string
	for _, kv := range spans[1].Resource.Attributes() {
		switch kv.Key {
		case "service.name":
			service = kv.Value.AsString()
		case "service.version":
			version = kv.Value.AsString()
		}
	}
	if service != "tokenbench-test" || version != "1.2.3" {
		t.Errorf("resource = %q/%q, want tokenbench-test/1.2.3", service, version)
	}
}
