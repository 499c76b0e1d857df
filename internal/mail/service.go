package mail

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailpdf/internal/instrumentation"
	"github.com/teemow/mailpdf/internal/logging"
	"github.com/teemow/mailpdf/internal/mailerr"
)

// DefaultPageSize is used when ServiceConfig.PageSize is zero.
const DefaultPageSize = 20

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// PageSize is the maxResults sent with the list request.
	PageSize int

	// FetchConcurrency caps concurrent detail fetches. Zero fetches every
	// listed message at once.
	FetchConcurrency int

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Service resolves filters into normalized emails.
type Service struct {
	provider    Provider
	pageSize    int64
	concurrency int
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
}

// NewService creates a Service backed by provider.
func NewService(provider Provider, cfg ServiceConfig) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		provider:    provider,
		pageSize:    int64(cfg.PageSize),
		concurrency: cfg.FetchConcurrency,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// ListEmails returns the emails matching fs, in the provider's list order.
// With fs.ID set only that message is fetched. No matches yield an empty,
// non-nil slice. A failing detail fetch fails the whole call.
func (s *Service) ListEmails(ctx context.Context, credential string, fs FilterSet) ([]Email, error) {
	if err := validateCredential(credential); err != nil {
		return nil, err
	}
	logger := logging.WithOperation(s.logger, "mail.list_emails")

	if fs.ID != "" {
		email, err := s.getEmail(ctx, credential, fs.ID)
		if err != nil {
			return nil, err
		}
		return []Email{email}, nil
	}

	query := fs.Query()
	ids, err := s.provider.ListMessageIDs(ctx, credential, query, s.pageSize)
	if err != nil {
		logger.Error("failed to list messages", logging.Query(query), logging.Err(err))
		return nil, err
	}
	if len(ids) == 0 {
		logger.Debug("no messages matched", logging.Query(query))
		return []Email{}, nil
	}

	emails := make([]Email, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			email, err := s.getEmail(gctx, credential, id)
			if err != nil {
				return err
			}
			emails[i] = email
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("failed to fetch message details", logging.Count(len(ids)), logging.Err(err))
		return nil, err
	}

	logger.Debug("listed emails", logging.Query(query), logging.Count(len(emails)))
	return emails, nil
}

// ListEmailIDs returns the ids ListEmails would return for fs, in the same
// order, without fetching message details. With fs.ID set the message is
// still fetched once so a missing id fails the same way.
func (s *Service) ListEmailIDs(ctx context.Context, credential string, fs FilterSet) ([]string, error) {
	if err := validateCredential(credential); err != nil {
		return nil, err
	}

	if fs.ID != "" {
		if _, err := s.fetch(ctx, credential, fs.ID); err != nil {
			return nil, err
		}
		return []string{fs.ID}, nil
	}

	ids, err := s.provider.ListMessageIDs(ctx, credential, fs.Query(), s.pageSize)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// GetEmail fetches and normalizes a single message.
func (s *Service) GetEmail(ctx context.Context, credential, id string) (Email, error) {
	if err := validateCredential(credential); err != nil {
		return Email{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Email{}, mailerr.Validation("email id is required")
	}
	return s.getEmail(ctx, credential, id)
}

func (s *Service) fetch(ctx context.Context, credential, id string) (*gmail.Message, error) {
	msg, err := s.provider.GetMessage(ctx, credential, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, mailerr.NotFound(nil, "message %s not found", id)
	}
	return msg, nil
}

// getEmail fetches and hydrates one message. Malformed messages are
// logged and counted, then returned with defaults.
func (s *Service) getEmail(ctx context.Context, credential, id string) (Email, error) {
	msg, err := s.fetch(ctx, credential, id)
	if err != nil {
		return Email{}, err
	}
	if msg.Id == "" {
		msg.Id = id
	}

	email, reason := parseMessage(msg)
	if reason != "" {
		s.logger.Warn("message is malformed, using defaults",
			logging.EmailID(id),
			logging.Err(malformedError(id, reason)))
		s.metrics.RecordMalformedMessage(ctx, reason)
	}
	return email, nil
}

func validateCredential(credential string) error {
	if strings.TrimSpace(credential) == "" {
		return mailerr.Validation("access token is required")
	}
	return nil
}
