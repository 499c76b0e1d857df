package mail

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/mailpdf/internal/mailerr"
)

// gmailUser is the user id Gmail resolves to the credential's mailbox.
const gmailUser = "me"

// Provider is the mail API the service talks to. Implementations return
// *mailerr.Error values: KindNotFound for a missing message and
// KindUpstream for everything else.
type Provider interface {
	// ListMessageIDs returns the ids of the first page of messages matching
	// query, in the provider's order.
	ListMessageIDs(ctx context.Context, credential, query string, maxResults int64) ([]string, error)

	// GetMessage fetches one message in full format.
	GetMessage(ctx context.Context, credential, id string) (*gmail.Message, error)
}

// GmailProvider talks to the Gmail REST API with a caller-supplied bearer
// token. It keeps no per-user state.
type GmailProvider struct {
	endpoint   string
	httpClient *http.Client
}

// GmailOption configures a GmailProvider.
type GmailOption func(*GmailProvider)

// WithEndpoint overrides the Gmail API base URL.
func WithEndpoint(endpoint string) GmailOption {
	return func(p *GmailProvider) {
		if endpoint != "" && !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		p.endpoint = endpoint
	}
}

// WithBaseHTTPClient sets the client whose transport carries the
// authorized requests.
func WithBaseHTTPClient(c *http.Client) GmailOption {
	return func(p *GmailProvider) {
		p.httpClient = c
	}
}

// NewGmailProvider creates a Gmail provider.
func NewGmailProvider(opts ...GmailOption) *GmailProvider {
	p := &GmailProvider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// users builds a Users service authorized with credential.
func (p *GmailProvider) users(ctx context.Context, credential string) (*gmail.UsersService, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: credential,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, mailerr.Upstream(err, "failed to create Gmail service")
	}
	return svc.Users, nil
}

// ListMessageIDs lists the first page of message ids matching query.
func (p *GmailProvider) ListMessageIDs(ctx context.Context, credential, query string, maxResults int64) ([]string, error) {
	users, err := p.users(ctx, credential)
	if err != nil {
		return nil, err
	}

	call := users.Messages.List(gmailUser).MaxResults(maxResults)
	if query != "" {
		call = call.Q(query)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, mailerr.Upstream(err, "failed to list messages")
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches one message in full format.
func (p *GmailProvider) GetMessage(ctx context.Context, credential, id string) (*gmail.Message, error) {
	users, err := p.users(ctx, credential)
	if err != nil {
		return nil, err
	}

	msg, err := users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, mailerr.NotFound(err, "message %s not found", id)
		}
		return nil, mailerr.Upstream(err, "failed to get message %s", id)
	}
	return msg, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// isClientError reports a Gmail 4xx other than rate limiting. Those are
// caused by the caller's request or credential, not by Gmail's health.
func isClientError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests
}
