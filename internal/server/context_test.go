package server

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpdf/internal/mail"
	"github.com/teemow/mailpdf/internal/mailerr"
)

type stubMail struct{}

func (stubMail) ListEmails(context.Context, string, mail.FilterSet) ([]mail.Email, error) {
	return []mail.Email{}, nil
}

func (stubMail) ListEmailIDs(context.Context, string, mail.FilterSet) ([]string, error) {
	return []string{}, nil
}

type stubRenderer struct{}

func (stubRenderer) RenderEmail(context.Context, string, string) ([]byte, error) {
	return []byte{}, nil
}

func (stubRenderer) RenderEmails(context.Context, string, []string) ([]byte, error) {
	return []byte{}, nil
}

func (stubRenderer) RenderQuery(context.Context, string, mail.FilterSet) ([]byte, error) {
	return []byte{}, nil
}

type fixedBreaker string

func (b fixedBreaker) State() string { return string(b) }

type countingCloser struct {
	calls int
	err   error
}

func (c *countingCloser) Close() error {
	c.calls++
	return c.err
}

func newTestServerContext(t *testing.T, opts Options) *ServerContext {
	t.Helper()
	if opts.Mail == nil {
		opts.Mail = stubMail{}
	}
	if opts.Renderer == nil {
		opts.Renderer = stubRenderer{}
	}
	sc, err := NewServerContext(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_RequiresServices(t *testing.T) {
	_, err := NewServerContext(context.Background(), Options{Renderer: stubRenderer{}})
	assert.Error(t, err)

	_, err = NewServerContext(context.Background(), Options{Mail: stubMail{}})
	assert.Error(t, err)
}

func TestNewServerContext_Defaults(t *testing.T) {
	sc := newTestServerContext(t, Options{})

	assert.Equal(t, ".", sc.OutputDir())
	assert.Equal(t, time.Local, sc.Location())
	assert.NotNil(t, sc.Logger())
	assert.Nil(t, sc.Metrics())
	assert.Equal(t, "", sc.BreakerState())
}

func TestServerContext_Credential(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		override   string
		want       string
		wantErr    bool
	}{
		{name: "override wins", configured: "cfg", override: "req", want: "req"},
		{name: "bearer prefix stripped", override: "Bearer abc", want: "abc"},
		{name: "configured fallback", configured: "Bearer cfg", want: "cfg"},
		{name: "blank override falls back", configured: "cfg", override: "  ", want: "cfg"},
		{name: "missing", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, Options{AccessToken: tt.configured})
			got, err := sc.Credential(tt.override)
			if tt.wantErr {
				assert.ErrorIs(t, err, mailerr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServerContext_Shutdown(t *testing.T) {
	first := &countingCloser{}
	second := &countingCloser{err: errors.New("close failed")}
	sc, err := NewServerContext(context.Background(), Options{
		Mail:     stubMail{},
		Renderer: stubRenderer{},
		Closers:  []io.Closer{first, second},
	})
	require.NoError(t, err)

	assert.False(t, sc.IsShutdown())
	err = sc.Shutdown()
	assert.ErrorContains(t, err, "close failed")
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err(), "the server context is cancelled")

	assert.NoError(t, sc.Shutdown(), "second shutdown is a no-op")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestServerContext_BreakerState(t *testing.T) {
	sc := newTestServerContext(t, Options{Breaker: fixedBreaker("half-open")})
	assert.Equal(t, "half-open", sc.BreakerState())
}
