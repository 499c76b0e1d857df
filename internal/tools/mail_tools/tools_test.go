package mail_tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpdf/internal/mail"
	"github.com/teemow/mailpdf/internal/mailerr"
	"github.com/teemow/mailpdf/internal/server"
	"github.com/teemow/mailpdf/internal/tools/batch"
)

type fakeMail struct {
	mu         sync.Mutex
	emails     []mail.Email
	err        error
	lastCred   string
	lastFilter mail.FilterSet
}

func (f *fakeMail) ListEmails(_ context.Context, credential string, fs mail.FilterSet) ([]mail.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCred, f.lastFilter = credential, fs
	return f.emails, f.err
}

func (f *fakeMail) ListEmailIDs(_ context.Context, credential string, fs mail.FilterSet) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCred, f.lastFilter = credential, fs
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, 0, len(f.emails))
	for _, e := range f.emails {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

type fakeRenderer struct {
	mu        sync.Mutex
	missing   map[string]bool
	empty     bool
	lastIDs   []string
	lastQuery mail.FilterSet
	lastCred  string
}

func (f *fakeRenderer) RenderEmail(_ context.Context, credential, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCred = credential
	if f.missing[id] {
		return nil, mailerr.NotFound(nil, "email %s not found", id)
	}
	return []byte("%PDF-" + id), nil
}

func (f *fakeRenderer) RenderEmails(_ context.Context, credential string, ids []string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCred, f.lastIDs = credential, ids
	if f.empty {
		return []byte{}, nil
	}
	return []byte("%PDF-" + strings.Join(ids, ",")), nil
}

func (f *fakeRenderer) RenderQuery(_ context.Context, credential string, fs mail.FilterSet) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCred, f.lastQuery = credential, fs
	if f.empty {
		return []byte{}, nil
	}
	return []byte("%PDF-query"), nil
}

type fixture struct {
	mail     *fakeMail
	renderer *fakeRenderer
	dir      string
	srv      *mcpserver.MCPServer
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	f := &fixture{
		mail:     &fakeMail{},
		renderer: &fakeRenderer{missing: map[string]bool{}},
		dir:      t.TempDir(),
	}
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Mail:        f.mail,
		Renderer:    f.renderer,
		AccessToken: token,
		OutputDir:   f.dir,
		Location:    time.UTC,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	f.srv = mcpserver.NewMCPServer("mailpdf-test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterMailTools(f.srv, sc))
	return f
}

func (f *fixture) call(t *testing.T, tool string, args map[string]interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	st, ok := f.srv.ListTools()[tool]
	require.True(t, ok, "tool %s is not registered", tool)

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	result, err := st.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return result, text.Text
}

func TestRegisterMailTools(t *testing.T) {
	f := newFixture(t, "tok")

	var names []string
	for name := range f.srv.ListTools() {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{ToolExportEmailPDF, ToolExportEmailsPDF, ToolListEmailIDs, ToolListEmails}, names)
}

func TestListEmails(t *testing.T) {
	f := newFixture(t, "configured")
	f.mail.emails = []mail.Email{{ID: "m1", Subject: "Hi", From: "a@example.com", Snippet: "s", Body: "<p>b</p>"}}

	result, text := f.call(t, ToolListEmails, map[string]interface{}{
		"from":  "a@example.com",
		"after": "01022024",
	})
	assert.False(t, result.IsError, text)

	var got []mail.Email
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	assert.Equal(t, f.mail.emails, got)

	assert.Equal(t, "configured", f.mail.lastCred)
	assert.Equal(t, "a@example.com", f.mail.lastFilter.Sender)
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), f.mail.lastFilter.After)
}

func TestListEmails_EmptyIsArray(t *testing.T) {
	f := newFixture(t, "tok")

	_, text := f.call(t, ToolListEmails, map[string]interface{}{})
	assert.JSONEq(t, "[]", text)
}

func TestListEmails_AccessTokenArgument(t *testing.T) {
	f := newFixture(t, "configured")

	_, _ = f.call(t, ToolListEmails, map[string]interface{}{"accessToken": "Bearer request-token"})
	assert.Equal(t, "request-token", f.mail.lastCred)
}

func TestListEmails_Errors(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		args     map[string]interface{}
		upstream error
		wantKind string
	}{
		{name: "missing token", args: map[string]interface{}{}, wantKind: "validation"},
		{name: "bad date", token: "tok", args: map[string]interface{}{"after": "2024-01-02"}, wantKind: "validation"},
		{name: "upstream", token: "tok", args: map[string]interface{}{}, upstream: mailerr.Upstream(nil, "gmail failed"), wantKind: "upstream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.token)
			f.mail.err = tt.upstream

			result, text := f.call(t, ToolListEmails, tt.args)
			assert.True(t, result.IsError)
			assert.True(t, strings.HasPrefix(text, tt.wantKind+": "), text)
		})
	}
}

func TestListEmailIDs(t *testing.T) {
	f := newFixture(t, "tok")
	f.mail.emails = []mail.Email{{ID: "a"}, {ID: "b"}}

	result, text := f.call(t, ToolListEmailIDs, map[string]interface{}{"to": "me@example.com"})
	assert.False(t, result.IsError, text)
	assert.JSONEq(t, `["a","b"]`, text)
	assert.Equal(t, "me@example.com", f.mail.lastFilter.Recipient)
}

func TestExportEmailPDF(t *testing.T) {
	f := newFixture(t, "tok")
	f.renderer.missing["gone"] = true

	result, text := f.call(t, ToolExportEmailPDF, map[string]interface{}{
		"emailIds": []interface{}{"m1", "gone"},
	})
	assert.False(t, result.IsError, text)

	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(text), &br))
	assert.Equal(t, 2, br.Total)
	assert.Equal(t, 1, br.Successful)
	assert.Equal(t, "not_found", br.Results[1].Kind)

	data, err := os.ReadFile(filepath.Join(f.dir, "email_m1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-m1", string(data))
	assert.NoFileExists(t, filepath.Join(f.dir, "email_gone.pdf"))
}

func TestExportEmailPDF_RequiresIDs(t *testing.T) {
	f := newFixture(t, "tok")

	result, text := f.call(t, ToolExportEmailPDF, map[string]interface{}{})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "emailIds is required")
}

func TestExportEmailsPDF_ByIDs(t *testing.T) {
	f := newFixture(t, "tok")

	result, text := f.call(t, ToolExportEmailsPDF, map[string]interface{}{
		"emailIds": `["b","a"]`,
	})
	assert.False(t, result.IsError, text)
	assert.Equal(t, []string{"b", "a"}, f.renderer.lastIDs)

	var got exportResult
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	assert.Equal(t, filepath.Join(f.dir, "emails_2.pdf"), got.Path)
	assert.Equal(t, len("%PDF-b,a"), got.Bytes)
}

func TestExportEmailsPDF_Filters(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		wantFile string
		wantKind string
	}{
		{
			name:     "date range",
			args:     map[string]interface{}{"after": "01012024", "before": "02012024"},
			wantFile: "emails_01012024_to_02012024.pdf",
		},
		{
			name:     "sender",
			args:     map[string]interface{}{"from": "alice@example.com"},
			wantFile: "emails_from_alice@example.com.pdf",
		},
		{
			name:     "half a range",
			args:     map[string]interface{}{"after": "01012024"},
			wantKind: "validation",
		},
		{
			name:     "nothing selected",
			args:     map[string]interface{}{},
			wantKind: "validation",
		},
		{
			name:     "bad date",
			args:     map[string]interface{}{"after": "13452024", "before": "02012024"},
			wantKind: "validation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "tok")

			result, text := f.call(t, ToolExportEmailsPDF, tt.args)
			if tt.wantKind != "" {
				assert.True(t, result.IsError)
				assert.True(t, strings.HasPrefix(text, tt.wantKind+": "), text)
				return
			}
			assert.False(t, result.IsError, text)
			assert.FileExists(t, filepath.Join(f.dir, tt.wantFile))
		})
	}
}

func TestExportEmailsPDF_RangeQuery(t *testing.T) {
	f := newFixture(t, "tok")

	_, _ = f.call(t, ToolExportEmailsPDF, map[string]interface{}{"after": "01012024", "before": "02012024"})

	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), f.renderer.lastQuery.After)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), f.renderer.lastQuery.Before)
}

func TestExportEmailsPDF_NoMatches(t *testing.T) {
	f := newFixture(t, "tok")
	f.renderer.empty = true

	result, text := f.call(t, ToolExportEmailsPDF, map[string]interface{}{"from": "nobody@example.com"})
	assert.False(t, result.IsError)
	assert.Contains(t, text, "No emails matched")

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
