package mailerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. The set is closed; callers switch on it to
// decide how a failure is reported.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = iota
	// KindValidation means the caller supplied a bad argument. It is
	// raised before any network call.
	KindValidation
	// KindUpstream means the mail provider failed or rejected a call.
	KindUpstream
	// KindNotFound means the provider reported a missing message.
	KindNotFound
	// KindRender means the browser failed to produce a document.
	KindRender
	// KindMalformed means a fetched message lacked its payload or headers.
	// Hydration reports it and falls back to defaults; it never leaves the
	// mail package.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindNotFound:
		return "not_found"
	case KindRender:
		return "render"
	case KindMalformed:
		return "malformed_message"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the mail and render packages.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the sentinels below work
// with errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is. They carry only a kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrUpstream   = &Error{Kind: KindUpstream}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrRender     = &Error{Kind: KindRender}
	ErrMalformed  = &Error{Kind: KindMalformed}
)

// Validation returns a KindValidation error with a formatted message.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a provider failure.
func Upstream(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound reports a missing message.
func NotFound(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...), Err: err}
}

// Render wraps a browser failure.
func Render(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindRender, Message: fmt.Sprintf(format, args...), Err: err}
}

// Malformed reports a message that could not be fully parsed.
func Malformed(format string, args ...interface{}) *Error {
	return &Error{Kind: KindMalformed, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
