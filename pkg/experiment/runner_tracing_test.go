package experiment

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"costlab-hq/tokenbench/pkg/providers"
	"costlab-hq/tokenbench/pkg/telemetry/tracing"
)

func recordingTracer(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestRunner_CallSpans(t *testing.T) {
	sr, tp := recordingTracer(t)

	flaky := &fakeClient{name: "grok", model: "grok-4", script: []func() (*providers.Response, error){
		fail(providers.KindTransient, 429),
		ok(providers.TokenUsage{InputTokens: 1000, CachedInputTokens: 200, OutputTokens: 50}),
	}}
	broken := &fakeClient{name: "openai", model: "gpt-4o", script: []func() (*providers.Response, error){
		fail(providers.KindFatal, 401),
	}}

	r := NewRunner(fakeSource{"grok": flaky, "openai": broken}, &recordingLimiter{}, testPolicy(), testCalculator(t),
		WithTracer(tp.Tracer(tracing.InstrumentationName)),
		WithIDGenerator(func() string { return "run-1" }),
	)

	if _, err := r.Run(context.Background(), testPlan(1, "grok", "openai")); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	ended := sr.Ended()
	if len(ended) != 3 {
		t.Fatalf("expected 2 call spans and 1 run span, got %d", len(ended))
	}

	var run sdktrace.ReadOnlySpan
	calls := make(map[string]sdktrace.ReadOnlySpan)
	for _, span := range ended {
		switch span.Name() {
		case tracing.SpanRun:
			run = span
		case tracing.SpanCall:
			v, _ := spanAttr(span, tracing.AttrProvider)
			calls[v.AsString()] = span
		default:
			t.Errorf("unexpected span %q", span.Name())
		}
	}
	if run == nil {
		t.Fatal("missing run span")
	}
	if v, _ := spanAttr(run, tracing.AttrRunID); v.AsString() != "run-1" {
		t.Errorf("run span run_id = %q, want run-1", v.AsString())
	}

	for id, span := range calls {
		if span.Parent().SpanID() != run.SpanContext().SpanID() {
			t.Errorf("%s call span is not a child of the run span", id)
		}
	}

	grok, found := calls["grok"]
	if !found {
		t.Fatal("missing grok call span")
	}
	if grok.Status().Code != codes.Ok {
		t.Errorf("grok status = %v, want Ok", grok.Status().Code)
	}
	if v, _ := spanAttr(grok, tracing.AttrAttempts); v.AsInt64() != 2 {
		t.Errorf("grok attempts = %d, want 2", v.AsInt64())
	}
	if v, _ := spanAttr(grok, tracing.AttrTokensCached); v.AsInt64() != 200 {
		t.Errorf("grok cached tokens = %d, want 200", v.AsInt64())
	}
	if v, _ := spanAttr(grok, tracing.AttrCostTotal); v.AsFloat64() <= 0 {
		t.Errorf("grok cost = %v, want positive", v.AsFloat64())
	}
	if _, found := spanAttr(grok, tracing.AttrPricingIncomplete); !found {
		t.Error("grok span is missing pricing_incomplete")
	}

	var waits, backoffs int
	var last string
	for _, ev := range grok.Events() {
		switch ev.Name {
		case tracing.EventLimiterWait:
			waits++
		case tracing.EventRetryTransition:
			for _, kv := range ev.Attributes {
				if string(kv.Key) == tracing.AttrRetryTo {
					last = kv.Value.AsString()
					if last == "backoff" {
						backoffs++
					}
				}
			}
		}
	}
	if waits != 1 {
		t.Errorf("expected 1 limiter wait event, got %d", waits)
	}
	if backoffs != 1 {
		t.Errorf("expected 1 backoff transition, got %d", backoffs)
	}
	if last != "succeeded" {
		t.Errorf("last transition = %q, want succeeded", last)
	}

	openai, found := calls["openai"]
	if !found {
		t.Fatal("missing openai call span")
	}
	if openai.Status().Code != codes.Error {
		t.Errorf("openai status = %v, want Error", openai.Status().Code)
	}
	if v, _ := spanAttr(openai, tracing.AttrErrorKind); v.AsString() != string(providers.KindFatal) {
		t.Errorf("openai error kind = %q, want %q", v.AsString(), providers.KindFatal)
	}
}

func TestRunner_NoTracerByDefault(t *testing.T) {
	client := &fakeClient{name: "grok", model: "grok-4", script: []func() (*providers.Response, error){ok(smallUsage)}}
	r := NewRunner(fakeSource{"grok": client}, &recordingLimiter{}, testPolicy(), testCalculator(t))

	res, err := r.Run(context.Background(), testPlan(2, "grok"))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if res.Succeeded() != 2 {
		t.Errorf("expected 2 successes, got %d", res.Succeeded())
	}
}
