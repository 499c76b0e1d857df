// Package server holds the process-wide services behind the CLI commands
// and MCP tools, and the HTTP server that exposes metrics and health probes.
//
// ServerContext bundles the mail service, the PDF renderer, the default
// credential and the output directory. Shutdown cancels its context and
// closes the render engine.
//
// MetricsServer serves /metrics from the OpenTelemetry Prometheus exporter
// and, with a HealthChecker, /healthz, /readyz and /healthz/detailed.
// Readiness fails while the Gmail circuit breaker is open.
package server
