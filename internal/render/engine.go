package render

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/teemow/mailpdf/internal/instrumentation"
	"github.com/teemow/mailpdf/internal/logging"
	"github.com/teemow/mailpdf/internal/mailerr"
)

// Page is one browser tab.
type Page interface {
	// SetContent replaces the page document with html and waits until the
	// body is ready.
	SetContent(ctx context.Context, html string) error

	// PrintPDF exports the current document.
	PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error)

	Close() error
}

// Browser is a running headless browser process.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)

	// Alive reports whether the process is still usable.
	Alive() bool

	Close() error
}

// LaunchFunc starts a browser process.
type LaunchFunc func(ctx context.Context) (Browser, error)

// ErrEngineClosed is wrapped by render errors after Close.
var ErrEngineClosed = errors.New("render engine is closed")

// EngineConfig configures an Engine.
type EngineConfig struct {
	PDF     PDFOptions
	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// Engine turns HTML into PDF bytes with a single shared browser process.
// The browser is launched by the first render and reused afterwards. If it
// dies, or refuses to open a page, the next render launches a new one.
// Engine is safe for concurrent use.
type Engine struct {
	launch  LaunchFunc
	pdf     PDFOptions
	logger  logging.Logger
	metrics *instrumentation.Metrics

	mu      sync.Mutex
	browser Browser
	closed  bool
}

// NewEngine creates an engine. No browser is started until the first
// render.
func NewEngine(launch LaunchFunc, cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewSlogAdapter(nil)
	}
	if cfg.PDF == (PDFOptions{}) {
		cfg.PDF = DefaultPDFOptions()
	}
	return &Engine{
		launch:  launch,
		pdf:     cfg.PDF,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Render loads html into a fresh page and exports it as a PDF. The page is
// closed afterwards whatever the outcome; the browser keeps running.
func (e *Engine) Render(ctx context.Context, html string) ([]byte, error) {
	page, err := e.openPage(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			e.logger.Debug("failed to close page", logging.KeyError, cerr.Error())
		}
	}()

	if err := page.SetContent(ctx, html); err != nil {
		return nil, mailerr.Render(err, "failed to load document")
	}

	data, err := page.PrintPDF(ctx, e.pdf)
	if err != nil {
		return nil, mailerr.Render(err, "failed to export PDF")
	}
	return data, nil
}

// openPage returns a new page on the shared browser, launching or
// relaunching the browser first when needed.
func (e *Engine) openPage(ctx context.Context) (Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, mailerr.Render(ErrEngineClosed, "cannot render")
	}

	if e.browser != nil && !e.browser.Alive() {
		e.logger.Warn("browser is no longer alive, relaunching")
		e.discardLocked()
	}

	if e.browser == nil {
		start := time.Now()
		b, err := e.launch(ctx)
		if err != nil {
			e.metrics.RecordBrowserLaunch(ctx, instrumentation.StatusError)
			return nil, mailerr.Render(err, "failed to launch browser")
		}
		e.metrics.RecordBrowserLaunch(ctx, instrumentation.StatusSuccess)
		e.logger.Info("browser launched", logging.KeyDuration, time.Since(start).String())
		e.browser = b
	}

	page, err := e.browser.NewPage(ctx)
	if err != nil {
		// A browser that cannot open a tab is treated as crashed.
		e.discardLocked()
		return nil, mailerr.Render(err, "failed to open page")
	}
	return page, nil
}

func (e *Engine) discardLocked() {
	if err := e.browser.Close(); err != nil {
		e.logger.Debug("failed to close browser", logging.KeyError, err.Error())
	}
	e.browser = nil
}

// Close shuts the browser down. It is safe to call more than once; later
// calls are no-ops and renders after Close fail.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.browser == nil {
		return nil
	}

	err := e.browser.Close()
	e.browser = nil
	e.logger.Info("browser closed")
	return err
}
