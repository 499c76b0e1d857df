package render

import (
	"context"
	"errors"
	"sync"
)

// fakeBrowser records page activity. Pages produce "%PDF-" followed by the
// loaded HTML.
type fakeBrowser struct {
	mu sync.Mutex

	alive        bool
	closed       int
	pagesOpened  int
	pagesClosed  int
	newPageErr   error
	setContentFn func(html string) error
	printErr     error
	lastOptions  PDFOptions
}

func (b *fakeBrowser) NewPage(context.Context) (Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newPageErr != nil {
		return nil, b.newPageErr
	}
	b.pagesOpened++
	return &fakePage{browser: b}, nil
}

func (b *fakeBrowser) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	b.alive = false
	return nil
}

func (b *fakeBrowser) setAlive(alive bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alive = alive
}

func (b *fakeBrowser) stats() (opened, closedPages, closed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pagesOpened, b.pagesClosed, b.closed
}

type fakePage struct {
	browser *fakeBrowser
	html    string
}

func (p *fakePage) SetContent(ctx context.Context, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.browser.mu.Lock()
	fn := p.browser.setContentFn
	p.browser.mu.Unlock()
	if fn != nil {
		if err := fn(html); err != nil {
			return err
		}
	}
	p.html = html
	return nil
}

func (p *fakePage) PrintPDF(_ context.Context, opts PDFOptions) ([]byte, error) {
	p.browser.mu.Lock()
	defer p.browser.mu.Unlock()
	p.browser.lastOptions = opts
	if p.browser.printErr != nil {
		return nil, p.browser.printErr
	}
	return []byte("%PDF-" + p.html), nil
}

func (p *fakePage) Close() error {
	p.browser.mu.Lock()
	defer p.browser.mu.Unlock()
	p.browser.pagesClosed++
	return nil
}

// fakeLauncher counts launches and hands out fresh fake browsers.
type fakeLauncher struct {
	mu        sync.Mutex
	launches  int
	browsers  []*fakeBrowser
	launchErr error
	configure func(*fakeBrowser)
}

func (l *fakeLauncher) Launch(context.Context) (Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	b := &fakeBrowser{alive: true}
	if l.configure != nil {
		l.configure(b)
	}
	l.browsers = append(l.browsers, b)
	return b, nil
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

func (l *fakeLauncher) browser(i int) *fakeBrowser {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.browsers[i]
}

var errBoom = errors.New("boom")
