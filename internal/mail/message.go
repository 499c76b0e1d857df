package mail

import (
	"encoding/base64"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailpdf/internal/mailerr"
)

const mimeTypeHTML = "text/html"

// Reasons reported with malformed messages.
const (
	reasonMissingPayload = "missing_payload"
	reasonMissingHeaders = "missing_headers"
)

// ParseMessage normalizes a fetched Gmail message. It always returns a
// usable Email. When the payload or its headers are missing the header
// fields fall back to their defaults and a KindMalformed error describes
// what was missing.
func ParseMessage(msg *gmail.Message) (Email, error) {
	email, reason := parseMessage(msg)
	if reason != "" {
		return email, malformedError(msg.Id, reason)
	}
	return email, nil
}

func malformedError(id, reason string) error {
	if reason == reasonMissingPayload {
		return mailerr.Malformed("message %s has no payload", id)
	}
	return mailerr.Malformed("message %s has no headers", id)
}

// parseMessage returns the normalized email and the malformed reason, or
// "" for a complete message.
func parseMessage(msg *gmail.Message) (Email, string) {
	email := Email{
		ID:      msg.Id,
		Subject: DefaultSubject,
		From:    DefaultFrom,
		Snippet: DefaultSnippet,
		Body:    DefaultBody,
	}
	if msg.Snippet != "" {
		email.Snippet = msg.Snippet
	}

	if msg.Payload == nil {
		return email, reasonMissingPayload
	}

	if body, ok := htmlBody(msg.Payload); ok {
		email.Body = body
	}

	if len(msg.Payload.Headers) == 0 {
		return email, reasonMissingHeaders
	}
	if v := headerValue(msg.Payload, "Subject"); v != "" {
		email.Subject = v
	}
	if v := headerValue(msg.Payload, "From"); v != "" {
		email.From = v
	}
	return email, ""
}

// headerValue returns the first header named name, compared case-insensitively.
func headerValue(part *gmail.MessagePart, name string) string {
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// htmlBody returns the decoded data of the first text/html part with
// inline data, checking the payload itself before its parts depth first.
func htmlBody(payload *gmail.MessagePart) (string, bool) {
	var data string
	walkParts(payload, func(part *gmail.MessagePart) bool {
		if isHTMLPart(part) && part.Body != nil && part.Body.Data != "" {
			data = part.Body.Data
			return false
		}
		return true
	})
	if data == "" {
		return "", false
	}

	decoded, err := decodeBody(data)
	if err != nil || decoded == "" {
		return "", false
	}
	return decoded, true
}

func isHTMLPart(part *gmail.MessagePart) bool {
	mimeType := part.MimeType
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.EqualFold(strings.TrimSpace(mimeType), mimeTypeHTML)
}

// walkParts visits part and its descendants depth first until fn returns false.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart) bool) bool {
	if part == nil {
		return true
	}
	if !fn(part) {
		return false
	}
	for _, sub := range part.Parts {
		if !walkParts(sub, fn) {
			return false
		}
	}
	return true
}

// decodeBody decodes Gmail body data. Gmail sends base64url; padded,
// unpadded and standard alphabets are all accepted.
func decodeBody(data string) (string, error) {
	data = strings.TrimSpace(data)
	var err error
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		var decoded []byte
		if decoded, err = enc.DecodeString(data); err == nil {
			return string(decoded), nil
		}
	}
	return "", err
}
