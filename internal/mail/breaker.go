package mail

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailpdf/internal/instrumentation"
	"github.com/teemow/mailpdf/internal/mailerr"
)

// BreakerSettings configures NewBreakerProvider.
type BreakerSettings struct {
	Name string

	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before letting a
	// probe request through.
	OpenTimeout time.Duration

	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32

	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration
}

// BreakerProvider fails fast with an upstream error while Gmail keeps
// failing. Calls are never retried.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps next with a circuit breaker. Not-found
// responses, caller errors such as a rejected credential, and cancelled
// contexts do not count as failures.
func NewBreakerProvider(next Provider, settings BreakerSettings, logger *slog.Logger, metrics *instrumentation.Metrics) *BreakerProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.Name == "" {
		settings.Name = instrumentation.ServiceGmail
	}
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.HalfOpenRequests == 0 {
		settings.HalfOpenRequests = 1
	}
	threshold := settings.ConsecutiveFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenRequests,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
			metrics.RecordBreakerTransition(context.Background(), name, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !countsAsFailure(err)
		},
	})

	return &BreakerProvider{next: next, cb: cb}
}

func countsAsFailure(err error) bool {
	switch mailerr.KindOf(err) {
	case mailerr.KindNotFound, mailerr.KindValidation:
		return false
	}
	if errors.Is(err, context.Canceled) || isClientError(err) {
		return false
	}
	return true
}

// State returns the current breaker state name.
func (b *BreakerProvider) State() string {
	return b.cb.State().String()
}

func (b *BreakerProvider) ListMessageIDs(ctx context.Context, credential, query string, maxResults int64) ([]string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.ListMessageIDs(ctx, credential, query, maxResults)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return res.([]string), nil
}

func (b *BreakerProvider) GetMessage(ctx context.Context, credential, id string) (*gmail.Message, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GetMessage(ctx, credential, id)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return res.(*gmail.Message), nil
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return mailerr.Upstream(err, "gmail is unavailable")
	}
	return err
}
