package mail

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailpdf/internal/instrumentation"
	"github.com/teemow/mailpdf/internal/mailerr"
)

// InstrumentedProvider records a span and Google API metrics for every
// call to the wrapped provider.
type InstrumentedProvider struct {
	next    Provider
	metrics *instrumentation.Metrics
}

// NewInstrumentedProvider wraps next. A nil metrics records spans only.
func NewInstrumentedProvider(next Provider, metrics *instrumentation.Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{next: next, metrics: metrics}
}

func (p *InstrumentedProvider) ListMessageIDs(ctx context.Context, credential, query string, maxResults int64) ([]string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, instrumentation.OperationList)
	start := time.Now()

	ids, err := p.next.ListMessageIDs(ctx, credential, query, maxResults)

	p.record(ctx, instrumentation.OperationList, err, time.Since(start))
	if err == nil {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrEmailCount, len(ids)))
	}
	instrumentation.EndSpan(span, err)
	return ids, err
}

func (p *InstrumentedProvider) GetMessage(ctx context.Context, credential, id string) (*gmail.Message, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, instrumentation.OperationGet,
		attribute.String(instrumentation.SpanAttrEmailID, id))
	start := time.Now()

	msg, err := p.next.GetMessage(ctx, credential, id)

	p.record(ctx, instrumentation.OperationGet, err, time.Since(start))
	instrumentation.EndSpan(span, err)
	return msg, err
}

func (p *InstrumentedProvider) record(ctx context.Context, operation string, err error, d time.Duration) {
	status, kind := instrumentation.StatusSuccess, ""
	if err != nil {
		status, kind = instrumentation.StatusError, mailerr.KindOf(err).String()
	}
	p.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, kind, d)
}
