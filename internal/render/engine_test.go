package render

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpdf/internal/mailerr"
)

func TestEngine_LazyLaunch(t *testing.T) {
	l := &fakeLauncher{}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	assert.Zero(t, l.count(), "no browser before the first render")

	data, err := e.Render(context.Background(), "<p>hi</p>")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
	assert.Equal(t, 1, l.count())
}

func TestEngine_ReusesBrowser(t *testing.T) {
	l := &fakeLauncher{}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	for i := 0; i < 5; i++ {
		_, err := e.Render(context.Background(), "<p>doc</p>")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, l.count())
	opened, closedPages, closed := l.browser(0).stats()
	assert.Equal(t, 5, opened)
	assert.Equal(t, 5, closedPages, "every page is closed after its render")
	assert.Zero(t, closed)
}

func TestEngine_ConcurrentRendersShareOneLaunch(t *testing.T) {
	l := &fakeLauncher{}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Render(context.Background(), "<p>doc</p>")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, l.count())
}

func TestEngine_PassesPDFOptions(t *testing.T) {
	l := &fakeLauncher{}
	opts := PDFOptions{PaperWidthInch: 8.5, PaperHeightInch: 11, PrintBackground: true}
	e := NewEngine(l.Launch, EngineConfig{PDF: opts})
	defer e.Close()

	_, err := e.Render(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, opts, l.browser(0).lastOptions)
}

func TestEngine_DefaultPDFOptions(t *testing.T) {
	l := &fakeLauncher{}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	_, err := e.Render(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, DefaultPDFOptions(), l.browser(0).lastOptions)
}

func TestEngine_ContentFailureKeepsBrowser(t *testing.T) {
	fail := true
	var mu sync.Mutex
	l := &fakeLauncher{configure: func(b *fakeBrowser) {
		b.setContentFn = func(string) error {
			mu.Lock()
			defer mu.Unlock()
			if fail {
				return errBoom
			}
			return nil
		}
	}}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	_, err := e.Render(context.Background(), "<p>x</p>")
	assert.ErrorIs(t, err, mailerr.ErrRender)
	assert.ErrorIs(t, err, errBoom)

	mu.Lock()
	fail = false
	mu.Unlock()

	_, err = e.Render(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, 1, l.count(), "a failed render does not restart the browser")

	_, closedPages, closed := l.browser(0).stats()
	assert.Equal(t, 2, closedPages, "the failed page was closed too")
	assert.Zero(t, closed)
}

func TestEngine_PrintFailure(t *testing.T) {
	l := &fakeLauncher{configure: func(b *fakeBrowser) { b.printErr = errBoom }}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	_, err := e.Render(context.Background(), "<p>x</p>")
	assert.Equal(t, mailerr.KindRender, mailerr.KindOf(err))
	assert.Equal(t, 1, l.count())
}

func TestEngine_RelaunchesDeadBrowser(t *testing.T) {
	l := &fakeLauncher{}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	_, err := e.Render(context.Background(), "<p>x</p>")
	require.NoError(t, err)

	l.browser(0).setAlive(false)

	_, err = e.Render(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, 2, l.count())
	_, _, closed := l.browser(0).stats()
	assert.Equal(t, 1, closed, "the dead browser is released")
}

func TestEngine_NewPageFailureDiscardsBrowser(t *testing.T) {
	first := true
	l := &fakeLauncher{configure: func(b *fakeBrowser) {
		if first {
			b.newPageErr = errBoom
			first = false
		}
	}}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	_, err := e.Render(context.Background(), "<p>x</p>")
	assert.ErrorIs(t, err, mailerr.ErrRender)

	_, err = e.Render(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, 2, l.count())
}

func TestEngine_LaunchFailure(t *testing.T) {
	l := &fakeLauncher{launchErr: errBoom}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	_, err := e.Render(context.Background(), "<p>x</p>")
	assert.ErrorIs(t, err, mailerr.ErrRender)
	assert.ErrorIs(t, err, errBoom)

	// The next render tries again.
	_, err = e.Render(context.Background(), "<p>x</p>")
	assert.Error(t, err)
	assert.Equal(t, 2, l.count())
}

func TestEngine_Close(t *testing.T) {
	l := &fakeLauncher{}
	e := NewEngine(l.Launch, EngineConfig{})

	_, err := e.Render(context.Background(), "<p>x</p>")
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "close is idempotent")

	_, _, closed := l.browser(0).stats()
	assert.Equal(t, 1, closed, "the browser is torn down exactly once")

	_, err = e.Render(context.Background(), "<p>x</p>")
	assert.ErrorIs(t, err, mailerr.ErrRender)
	assert.ErrorIs(t, err, ErrEngineClosed)
	assert.Equal(t, 1, l.count(), "no relaunch after close")
}

func TestEngine_CloseWithoutRender(t *testing.T) {
	l := &fakeLauncher{}
	e := NewEngine(l.Launch, EngineConfig{})

	require.NoError(t, e.Close())
	assert.Zero(t, l.count())
}

func TestEngine_CancelledContext(t *testing.T) {
	l := &fakeLauncher{}
	e := NewEngine(l.Launch, EngineConfig{})
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Render(ctx, "<p>x</p>")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, mailerr.KindRender, mailerr.KindOf(err))

	_, err = e.Render(context.Background(), "<p>x</p>")
	assert.NoError(t, err, "a cancelled request leaves the browser usable")
	assert.Equal(t, 1, l.count())
}
