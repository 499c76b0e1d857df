package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/mailpdf/internal/config"
	"github.com/teemow/mailpdf/internal/instrumentation"
	"github.com/teemow/mailpdf/internal/mail"
	"github.com/teemow/mailpdf/internal/mailerr"
)

// MailService lists emails. *mail.Service implements it.
type MailService interface {
	ListEmails(ctx context.Context, credential string, fs mail.FilterSet) ([]mail.Email, error)
	ListEmailIDs(ctx context.Context, credential string, fs mail.FilterSet) ([]string, error)
}

// PDFRenderer renders emails to PDF. *render.Renderer implements it.
type PDFRenderer interface {
	RenderEmail(ctx context.Context, credential, emailID string) ([]byte, error)
	RenderEmails(ctx context.Context, credential string, emailIDs []string) ([]byte, error)
	RenderQuery(ctx context.Context, credential string, fs mail.FilterSet) ([]byte, error)
}

// BreakerStater reports the Gmail circuit breaker state.
type BreakerStater interface {
	State() string
}

// Options configures a ServerContext.
type Options struct {
	Mail     MailService
	Renderer PDFRenderer

	// Breaker is optional. When set, readiness fails while it is open.
	Breaker BreakerStater

	// Closers are closed in order by Shutdown, typically the render engine.
	Closers []io.Closer

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger

	// AccessToken is the credential used when a request carries none.
	AccessToken string
	OutputDir   string
	Location    *time.Location
}

// ServerContext holds the services shared by the CLI commands and the MCP
// tools for the lifetime of the process.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	mail     MailService
	renderer PDFRenderer
	breaker  BreakerStater
	closers  []io.Closer
	metrics  *instrumentation.Metrics
	logger   *slog.Logger

	accessToken string
	outputDir   string
	location    *time.Location

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Mail == nil {
		return nil, errors.New("mail service is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		mail:        opts.Mail,
		renderer:    opts.Renderer,
		breaker:     opts.Breaker,
		closers:     opts.Closers,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		accessToken: config.NormalizeToken(opts.AccessToken),
		outputDir:   opts.OutputDir,
		location:    opts.Location,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Mail() MailService {
	return sc.mail
}

func (sc *ServerContext) Renderer() PDFRenderer {
	return sc.renderer
}

// Metrics may return nil when instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// OutputDir is where exported PDFs are written.
func (sc *ServerContext) OutputDir() string {
	return sc.outputDir
}

// Location is the time zone filter dates are parsed in.
func (sc *ServerContext) Location() *time.Location {
	return sc.location
}

// Credential returns override with any "Bearer " prefix stripped, falling
// back to the configured access token. It fails when neither is set.
func (sc *ServerContext) Credential(override string) (string, error) {
	if token := config.NormalizeToken(override); token != "" {
		return token, nil
	}
	if sc.accessToken != "" {
		return sc.accessToken, nil
	}
	return "", mailerr.Validation("access token is required")
}

// BreakerState returns the circuit breaker state, or "" when no breaker is
// configured.
func (sc *ServerContext) BreakerState() string {
	if sc.breaker == nil {
		return ""
	}
	return sc.breaker.State()
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and closes the registered closers.
// Later calls are no-ops.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()

	var errs []error
	for _, c := range sc.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
