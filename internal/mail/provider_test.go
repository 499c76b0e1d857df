package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpdf/internal/mailerr"
)

// fakeGmailAPI serves the subset of the Gmail REST API the provider uses.
type fakeGmailAPI struct {
	mu       sync.Mutex
	ids      []string
	messages map[string]map[string]interface{}
	status   int
	requests []*http.Request
}

func (f *fakeGmailAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": f.status, "message": http.StatusText(f.status)},
		})
		return
	}

	const prefix = "/gmail/v1/users/me/messages"
	switch {
	case r.URL.Path == prefix:
		var msgs []map[string]string
		for _, id := range f.ids {
			msgs = append(msgs, map[string]string{"id": id, "threadId": "t-" + id})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"messages": msgs, "resultSizeEstimate": len(msgs)})
	case strings.HasPrefix(r.URL.Path, prefix+"/"):
		id := strings.TrimPrefix(r.URL.Path, prefix+"/")
		msg, ok := f.messages[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"code": 404, "message": "Requested entity was not found."},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(msg)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGmailAPI) lastRequest(t *testing.T) *http.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestGmailProvider(t *testing.T, api *fakeGmailAPI) *GmailProvider {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewGmailProvider(WithEndpoint(srv.URL), WithBaseHTTPClient(srv.Client()))
}

func TestGmailProvider_ListMessageIDs(t *testing.T) {
	api := &fakeGmailAPI{ids: []string{"b", "a", "c"}}
	p := newTestGmailProvider(t, api)

	ids, err := p.ListMessageIDs(context.Background(), "ya29.token", "from:alice@example.com", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids)

	req := api.lastRequest(t)
	assert.Equal(t, "Bearer ya29.token", req.Header.Get("Authorization"))
	assert.Equal(t, "from:alice@example.com", req.URL.Query().Get("q"))
	assert.Equal(t, "20", req.URL.Query().Get("maxResults"))
}

func TestGmailProvider_ListMessageIDs_EmptyQuery(t *testing.T) {
	api := &fakeGmailAPI{}
	p := newTestGmailProvider(t, api)

	ids, err := p.ListMessageIDs(context.Background(), "tok", "", 5)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	_, hasQ := api.lastRequest(t).URL.Query()["q"]
	assert.False(t, hasQ, "empty query must not be sent")
}

func TestGmailProvider_GetMessage(t *testing.T) {
	api := &fakeGmailAPI{messages: map[string]map[string]interface{}{
		"m1": {
			"id":      "m1",
			"snippet": "hello",
			"payload": map[string]interface{}{
				"mimeType": "text/html",
				"headers":  []map[string]string{{"name": "Subject", "value": "Hi"}},
				"body":     map[string]string{"data": b64("<p>hello</p>")},
			},
		},
	}}
	p := newTestGmailProvider(t, api)

	msg, err := p.GetMessage(context.Background(), "tok", "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.Id)
	assert.Equal(t, "full", api.lastRequest(t).URL.Query().Get("format"))

	email, err := ParseMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "Hi", email.Subject)
	assert.Equal(t, "<p>hello</p>", email.Body)
}

func TestGmailProvider_GetMessage_NotFound(t *testing.T) {
	api := &fakeGmailAPI{messages: map[string]map[string]interface{}{}}
	p := newTestGmailProvider(t, api)

	_, err := p.GetMessage(context.Background(), "tok", "missing")
	require.Error(t, err)
	assert.Equal(t, mailerr.KindNotFound, mailerr.KindOf(err))
}

func TestGmailProvider_UpstreamErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			api := &fakeGmailAPI{status: status}
			p := newTestGmailProvider(t, api)

			_, err := p.ListMessageIDs(context.Background(), "tok", "", 20)
			assert.Equal(t, mailerr.KindUpstream, mailerr.KindOf(err))

			_, err = p.GetMessage(context.Background(), "tok", "m1")
			assert.Equal(t, mailerr.KindUpstream, mailerr.KindOf(err))
		})
	}
}

func TestGmailProvider_ListNotFoundIsUpstream(t *testing.T) {
	api := &fakeGmailAPI{status: http.StatusNotFound}
	p := newTestGmailProvider(t, api)

	_, err := p.ListMessageIDs(context.Background(), "tok", "", 20)
	assert.Equal(t, mailerr.KindUpstream, mailerr.KindOf(err))
}

func TestWithEndpoint_AddsTrailingSlash(t *testing.T) {
	p := NewGmailProvider(WithEndpoint("http://localhost:1234"))
	assert.Equal(t, "http://localhost:1234/", p.endpoint)

	p = NewGmailProvider(WithEndpoint("http://localhost:1234/"))
	assert.Equal(t, "http://localhost:1234/", p.endpoint)
}
