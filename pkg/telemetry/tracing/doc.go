// Package tracing exports OpenTelemetry spans for experiment runs.
//
// Every run is one "experiment.run" span with one "provider.call" child per
// trial and provider. A call span carries the normalized usage, the cost
// breakdown and the attempt count as attributes, and records the limiter
// wait and every retry state change as events:
//
//	provider.call  tokenbench.provider=openai tokenbench.cost.total=0.005615
//	  limiter.wait      tokenbench.wait_ms=100
//	  retry.transition  retry.from=idle retry.to=attempting retry.attempt=1
//	  retry.transition  retry.from=attempting retry.to=succeeded retry.attempt=1
//
// Spans go to an OTLP gRPC collector:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "localhost:4317"
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.25
//
// With tracing disabled the Tracer is a noop and adds no measurable cost.
package tracing
