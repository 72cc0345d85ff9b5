// Package telemetry groups the observability pieces of tokenbench.
//
// # Components
//
//   - logging: slog logger that masks provider credentials
//   - metrics: Prometheus collector attached to experiment runs
//   - health: liveness, readiness and version endpoints for scheduled mode
package telemetry
