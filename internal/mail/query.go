package mail

import (
	"strconv"
	"strings"
	"time"

	"github.com/teemow/mailpdf/internal/mailerr"
)

// DateLayout is the MMDDYYYY layout accepted for filter dates.
const DateLayout = "01022006"

// ParseDate parses an eight digit MMDDYYYY string as midnight in loc.
// A nil loc means time.Local.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, mailerr.Validation("invalid date %q: expected MMDDYYYY", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, mailerr.Validation("invalid date %q: expected MMDDYYYY", s)
		}
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, mailerr.Validation("invalid date %q: %v", s, err)
	}
	return t, nil
}

// ParseFilter converts raw filter strings into a FilterSet. Dates are
// parsed in loc; malformed dates fail with a validation error even when ID
// is set.
func ParseFilter(in FilterInput, loc *time.Location) (FilterSet, error) {
	fs := FilterSet{
		Sender:    strings.TrimSpace(in.Sender),
		Recipient: strings.TrimSpace(in.Recipient),
		ID:        strings.TrimSpace(in.ID),
	}

	var err error
	if after := strings.TrimSpace(in.After); after != "" {
		if fs.After, err = ParseDate(after, loc); err != nil {
			return FilterSet{}, err
		}
	}
	if before := strings.TrimSpace(in.Before); before != "" {
		if fs.Before, err = ParseDate(before, loc); err != nil {
			return FilterSet{}, err
		}
	}
	return fs, nil
}

// Query renders the Gmail search expression for fs. Present terms appear in
// the order from, to, after, before. Dates are Unix seconds.
func (fs FilterSet) Query() string {
	var terms []string
	if fs.Sender != "" {
		terms = append(terms, "from:"+fs.Sender)
	}
	if fs.Recipient != "" {
		terms = append(terms, "to:"+fs.Recipient)
	}
	if !fs.After.IsZero() {
		terms = append(terms, "after:"+strconv.FormatInt(fs.After.Unix(), 10))
	}
	if !fs.Before.IsZero() {
		terms = append(terms, "before:"+strconv.FormatInt(fs.Before.Unix(), 10))
	}
	return strings.TrimSpace(strings.Join(terms, " "))
}
