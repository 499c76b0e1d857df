package mail

import (
	"context"
	"sync"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailpdf/internal/mailerr"
)

// fakeProvider is an in-memory Provider.
type fakeProvider struct {
	mu sync.Mutex

	ids      []string
	listErr  error
	messages map[string]*gmail.Message
	getErrs  map[string]error
	delays   map[string]time.Duration

	listCalls  int
	getCalls   []string
	lastQuery  string
	lastMax    int64
	credential string
}

func (f *fakeProvider) ListMessageIDs(_ context.Context, credential, query string, maxResults int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastQuery = query
	f.lastMax = maxResults
	f.credential = credential
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.ids...), nil
}

func (f *fakeProvider) GetMessage(ctx context.Context, credential, id string) (*gmail.Message, error) {
	f.mu.Lock()
	f.getCalls = append(f.getCalls, id)
	f.credential = credential
	delay := f.delays[id]
	err := f.getErrs[id]
	msg, ok := f.messages[id]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, mailerr.Upstream(ctx.Err(), "cancelled")
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, mailerr.NotFound(nil, "message %s not found", id)
	}
	return msg, nil
}

func (f *fakeProvider) calls() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, append([]string(nil), f.getCalls...)
}

// testMessage builds a well-formed message with an HTML body.
func testMessage(id, subject, from string) *gmail.Message {
	return &gmail.Message{
		Id:      id,
		Snippet: "snippet " + id,
		Payload: &gmail.MessagePart{
			MimeType: "text/html",
			Headers:  headers("Subject", subject, "From", from),
			Body:     &gmail.MessagePartBody{Data: b64("<p>" + id + "</p>")},
		},
	}
}
