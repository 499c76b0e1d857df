// Package instrumentation provides OpenTelemetry metrics and tracing for
// mailpdf.
//
// # Metrics
//
// Mail provider:
//   - google_api_operations_total: Gmail calls by service, operation and status
//   - google_api_operation_duration_seconds: Gmail call latency
//   - malformed_messages_total: messages hydrated with default fields
//   - circuit_breaker_transitions_total: breaker state changes
//
// Rendering:
//   - pdf_renders_total: render calls by mode and status
//   - pdf_render_duration_seconds: render latency
//   - browser_launches_total: headless browser launches
//
// MCP tools:
//   - mcp_tool_invocations_total and mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for Gmail calls (google.gmail.<operation>), renders
// (pdf.render.<mode>) and MCP tool calls (tool.<name>).
//
// # Configuration
//
// DefaultConfig reads:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: mailpdf)
//   - METRICS_DETAILED_LABELS (default: false)
package instrumentation
