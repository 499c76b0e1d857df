package mail

import "time"

// Defaults substituted for missing message fields.
const (
	DefaultSubject = "No Subject"
	DefaultFrom    = "Unknown Sender"
	DefaultSnippet = "No preview available"
	DefaultBody    = "No body available"
)

// Email is a normalized message. Every field is non-empty once hydrated.
type Email struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Snippet string `json:"snippet"`
	Body    string `json:"body"`
}

// FilterSet holds the parsed search criteria. Zero values are absent.
// When ID is set all other fields are ignored.
type FilterSet struct {
	Sender    string
	Recipient string
	After     time.Time
	Before    time.Time
	ID        string
}

// FilterInput holds the raw caller-supplied filter strings. Dates use the
// MMDDYYYY layout.
type FilterInput struct {
	Sender    string
	Recipient string
	After     string
	Before    string
	ID        string
}
