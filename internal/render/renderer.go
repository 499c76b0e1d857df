package render

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/mailpdf/internal/instrumentation"
	"github.com/teemow/mailpdf/internal/logging"
	"github.com/teemow/mailpdf/internal/mail"
	"github.com/teemow/mailpdf/internal/mailerr"
)

// EmailSource looks emails up. *mail.Service implements it.
type EmailSource interface {
	ListEmails(ctx context.Context, credential string, fs mail.FilterSet) ([]mail.Email, error)
}

// PDFEngine converts an HTML document to PDF bytes. *Engine implements it.
type PDFEngine interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// RendererConfig configures a Renderer.
type RendererConfig struct {
	// LookupConcurrency caps concurrent lookups in RenderEmails. Zero looks
	// every id up at once.
	LookupConcurrency int

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Renderer produces PDF documents for emails.
type Renderer struct {
	source      EmailSource
	engine      PDFEngine
	concurrency int
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
}

// NewRenderer creates a Renderer.
func NewRenderer(source EmailSource, engine PDFEngine, cfg RendererConfig) *Renderer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Renderer{
		source:      source,
		engine:      engine,
		concurrency: cfg.LookupConcurrency,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// RenderEmail renders a single email as a PDF.
func (r *Renderer) RenderEmail(ctx context.Context, credential, emailID string) (data []byte, err error) {
	emailID = strings.TrimSpace(emailID)
	if emailID == "" {
		return nil, mailerr.Validation("email id is required")
	}

	ctx, span := instrumentation.StartRenderSpan(ctx, instrumentation.RenderModeSingle,
		attribute.String(instrumentation.SpanAttrEmailID, emailID))
	start := time.Now()
	defer func() {
		r.finish(ctx, instrumentation.RenderModeSingle, start, len(data), err)
		instrumentation.EndSpan(span, err)
	}()

	emails, err := r.source.ListEmails(ctx, credential, mail.FilterSet{ID: emailID})
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, mailerr.NotFound(nil, "email %s not found", emailID)
	}

	doc, err := BuildEmailDocument(emails[0])
	if err != nil {
		return nil, mailerr.Render(err, "failed to build document")
	}
	return r.engine.Render(ctx, doc)
}

// RenderEmails renders the given emails into one PDF with a page break
// between emails, in input order. Ids that do not exist are skipped. An
// empty id list, or one where no id resolves, yields an empty document
// without starting the browser.
func (r *Renderer) RenderEmails(ctx context.Context, credential string, emailIDs []string) (data []byte, err error) {
	if len(emailIDs) == 0 {
		return []byte{}, nil
	}
	for i, id := range emailIDs {
		if strings.TrimSpace(id) == "" {
			return nil, mailerr.Validation("email id at position %d is empty", i)
		}
	}

	ctx, span := instrumentation.StartRenderSpan(ctx, instrumentation.RenderModeMulti,
		attribute.Int(instrumentation.SpanAttrEmailCount, len(emailIDs)))
	start := time.Now()
	defer func() {
		r.finish(ctx, instrumentation.RenderModeMulti, start, len(data), err)
		instrumentation.EndSpan(span, err)
	}()

	emails, err := r.lookup(ctx, credential, emailIDs)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		r.logger.Info("no requested emails were found", logging.Count(len(emailIDs)))
		return []byte{}, nil
	}

	doc, err := BuildEmailsDocument(emails)
	if err != nil {
		return nil, mailerr.Render(err, "failed to build document")
	}
	return r.engine.Render(ctx, doc)
}

// RenderQuery renders every email matching fs into one PDF, in list order.
// No matches yield an empty document without starting the browser.
func (r *Renderer) RenderQuery(ctx context.Context, credential string, fs mail.FilterSet) (data []byte, err error) {
	ctx, span := instrumentation.StartRenderSpan(ctx, instrumentation.RenderModeMulti)
	start := time.Now()
	defer func() {
		r.finish(ctx, instrumentation.RenderModeMulti, start, len(data), err)
		instrumentation.EndSpan(span, err)
	}()

	emails, err := r.source.ListEmails(ctx, credential, fs)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		r.logger.Info("no emails matched the filter", logging.Query(fs.Query()))
		return []byte{}, nil
	}

	doc, err := BuildEmailsDocument(emails)
	if err != nil {
		return nil, mailerr.Render(err, "failed to build document")
	}
	return r.engine.Render(ctx, doc)
}

// lookup resolves ids concurrently and returns the found emails in input
// order.
func (r *Renderer) lookup(ctx context.Context, credential string, ids []string) ([]mail.Email, error) {
	type slot struct {
		email mail.Email
		found bool
	}
	slots := make([]slot, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			emails, err := r.source.ListEmails(gctx, credential, mail.FilterSet{ID: strings.TrimSpace(id)})
			if errors.Is(err, mailerr.ErrNotFound) || (err == nil && len(emails) == 0) {
				r.logger.Warn("skipping missing email", logging.EmailID(id))
				return nil
			}
			if err != nil {
				return err
			}
			slots[i] = slot{email: emails[0], found: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	emails := make([]mail.Email, 0, len(ids))
	for _, s := range slots {
		if s.found {
			emails = append(emails, s.email)
		}
	}
	return emails, nil
}

func (r *Renderer) finish(ctx context.Context, mode string, start time.Time, size int, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	r.metrics.RecordPDFRender(ctx, mode, status, time.Since(start))

	logger := logging.WithOperation(r.logger, "render."+mode)
	if err != nil {
		logger.Error("render failed", logging.Err(err), logging.Status(status))
		return
	}
	logger.Debug("render finished", "bytes", size, logging.KeyDuration, time.Since(start).String())
}
