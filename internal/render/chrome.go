package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeConfig configures NewChromeLauncher.
type ChromeConfig struct {
	// ExecPath is the Chrome binary. Empty uses chromedp's lookup.
	ExecPath string

	// NoSandbox disables the Chrome sandbox, needed when running as root.
	NoSandbox bool

	// LaunchTimeout bounds the browser start. Zero means 30 seconds.
	LaunchTimeout time.Duration
}

// NewChromeLauncher returns a LaunchFunc that starts headless Chrome
// through chromedp.
func NewChromeLauncher(cfg ChromeConfig) LaunchFunc {
	if cfg.LaunchTimeout <= 0 {
		cfg.LaunchTimeout = 30 * time.Second
	}
	return func(ctx context.Context) (Browser, error) {
		return launchChrome(ctx, cfg)
	}
}

func launchChrome(ctx context.Context, cfg ChromeConfig) (Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	// The browser outlives the launching request, so its contexts are not
	// derived from ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(browserCtx)
	}()

	timer := time.NewTimer(cfg.LaunchTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-started:
	case <-timer.C:
		err = fmt.Errorf("browser did not start within %s", cfg.LaunchTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	return &chromeBrowser{ctx: browserCtx, cancel: browserCancel, allocCancel: allocCancel}, nil
}

type chromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

func (b *chromeBrowser) Alive() bool {
	if b.ctx.Err() != nil {
		return false
	}
	c := chromedp.FromContext(b.ctx)
	if c == nil || c.Browser == nil {
		return false
	}
	select {
	case <-c.Browser.LostConnection:
		return false
	default:
		return true
	}
}

func (b *chromeBrowser) NewPage(ctx context.Context) (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.ctx)
	// Cancelling the request closes its tab, never the browser.
	stop := context.AfterFunc(ctx, tabCancel)

	if err := chromedp.Run(tabCtx); err != nil {
		stop()
		tabCancel()
		return nil, err
	}
	return &chromePage{ctx: tabCtx, cancel: tabCancel, stop: stop}, nil
}

func (b *chromeBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		b.cancel()
		b.allocCancel()
	})
	return b.closeErr
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool
}

func (p *chromePage) SetContent(ctx context.Context, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(p.ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *chromePage) PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf []byte
	err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPrintBackground(opts.PrintBackground).
			WithPaperWidth(opts.PaperWidthInch).
			WithPaperHeight(opts.PaperHeightInch).
			WithMarginTop(opts.MarginTopInch).
			WithMarginBottom(opts.MarginBottomInch).
			WithMarginLeft(opts.MarginLeftInch).
			WithMarginRight(opts.MarginRightInch).
			Do(ctx)
		buf = data
		return err
	}))
	return buf, err
}

func (p *chromePage) Close() error {
	p.stop()
	p.cancel()
	return nil
}
