// Package logging provides structured logging helpers for mailpdf.
//
// Everything logs through the standard library's slog package. This package
// fixes the attribute names used across the codebase and keeps sensitive
// values out of log output.
//
// # Usage
//
//	logger := logging.WithOperation(slog.Default(), "mail.list")
//	logger.Info("listed emails",
//	    logging.Count(len(emails)),
//	    logging.Query(query))
//
// # Sensitive data
//
// Bearer tokens are never logged; use SanitizeToken. Sender and recipient
// addresses in search queries are hashed by SanitizeQuery so entries for the
// same address can still be correlated.
package logging
