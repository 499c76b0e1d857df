// Package mail queries a Gmail mailbox and normalizes the results.
//
// A Service turns a FilterSet into a Gmail search expression, lists the
// first page of matches and fetches every message concurrently, keeping the
// list order. Messages become Email values with defaults substituted for
// missing fields.
//
// The Provider interface isolates the Gmail API. GmailProvider is the real
// client; BreakerProvider and InstrumentedProvider decorate any Provider
// with a circuit breaker and with tracing and metrics:
//
//	var p mail.Provider = mail.NewGmailProvider()
//	p = mail.NewBreakerProvider(p, mail.BreakerSettings{}, logger, metrics)
//	p = mail.NewInstrumentedProvider(p, metrics)
//	svc := mail.NewService(p, mail.ServiceConfig{PageSize: 20})
//
// All errors are *mailerr.Error values.
package mail
