package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/codes"

	"github.com/teemow/mailpdf/internal/instrumentation"
	"github.com/teemow/mailpdf/internal/logging"
	"github.com/teemow/mailpdf/internal/server"
)

// ToolHandler is the mcp-go tool handler signature. It is assignable to
// server.ToolHandlerFunc.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, invocation
// metrics and a log line. A result with IsError set counts as a failure.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		start := time.Now()

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)

		logger := logging.WithTool(sc.Logger(), toolName)
		if status == instrumentation.StatusError {
			if err != nil {
				instrumentation.SetSpanError(span, err)
			} else {
				span.SetStatus(codes.Error, "tool returned an error result")
			}
			logger.Warn("tool invocation failed", logging.Status(status), logging.Err(err),
				logging.KeyDuration, duration.String())
		} else {
			instrumentation.SetSpanSuccess(span)
			logger.Debug("tool invocation finished", logging.Status(status),
				logging.KeyDuration, duration.String())
		}
		span.End()

		return result, err
	}
}
