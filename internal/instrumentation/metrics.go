package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrMode      = "mode"
	attrReason    = "reason"
	attrBreaker   = "breaker"
	attrFrom      = "from"
	attrTo        = "to"
	attrKind      = "error_kind"
)

// Metrics records the observability metrics of the mail and render
// pipeline. The zero value and a nil *Metrics record nothing.
type Metrics struct {
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram
	malformedMessagesTotal     metric.Int64Counter
	breakerTransitionsTotal    metric.Int64Counter

	pdfRendersTotal      metric.Int64Counter
	pdfRenderDuration    metric.Float64Histogram
	browserLaunchesTotal metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds the error kind to failure series.
	detailedLabels bool
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error

	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.malformedMessagesTotal, err = meter.Int64Counter(
		"malformed_messages_total",
		metric.WithDescription("Messages hydrated with default fields because their payload was incomplete"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create malformed_messages_total counter: %w", err)
	}

	m.breakerTransitionsTotal, err = meter.Int64Counter(
		"circuit_breaker_transitions_total",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create circuit_breaker_transitions_total counter: %w", err)
	}

	m.pdfRendersTotal, err = meter.Int64Counter(
		"pdf_renders_total",
		metric.WithDescription("Total number of PDF render calls"),
		metric.WithUnit("{render}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf_renders_total counter: %w", err)
	}

	m.pdfRenderDuration, err = meter.Float64Histogram(
		"pdf_render_duration_seconds",
		metric.WithDescription("PDF render duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf_render_duration_seconds histogram: %w", err)
	}

	m.browserLaunchesTotal, err = meter.Int64Counter(
		"browser_launches_total",
		metric.WithDescription("Total number of headless browser launches"),
		metric.WithUnit("{launch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser_launches_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordGoogleAPIOperation records one Google API call.
//
// Parameters:
//   - service: Google service name (gmail)
//   - operation: operation type (list, get)
//   - status: "success" or "error"
//   - errorKind: failure class, only attached when detailed labels are on
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status, errorKind string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && errorKind != "" {
		attrs = append(attrs, attribute.String(attrKind, errorKind))
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordMalformedMessage counts a message hydrated with defaults.
func (m *Metrics) RecordMalformedMessage(ctx context.Context, reason string) {
	if m == nil || m.malformedMessagesTotal == nil {
		return
	}
	m.malformedMessagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrReason, reason)))
}

// RecordBreakerTransition counts a circuit breaker state change.
func (m *Metrics) RecordBreakerTransition(ctx context.Context, name, from, to string) {
	if m == nil || m.breakerTransitionsTotal == nil {
		return
	}
	m.breakerTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrBreaker, name),
		attribute.String(attrFrom, from),
		attribute.String(attrTo, to),
	))
}

// RecordPDFRender records one render call. mode is "single" or "multi".
func (m *Metrics) RecordPDFRender(ctx context.Context, mode, status string, duration time.Duration) {
	if m == nil || m.pdfRendersTotal == nil || m.pdfRenderDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMode, mode),
		attribute.String(attrStatus, status),
	}

	m.pdfRendersTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.pdfRenderDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordBrowserLaunch counts a browser launch attempt.
func (m *Metrics) RecordBrowserLaunch(ctx context.Context, status string) {
	if m == nil || m.browserLaunchesTotal == nil {
		return
	}
	m.browserLaunchesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordToolInvocation records an MCP tool invocation.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
