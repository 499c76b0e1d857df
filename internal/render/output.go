package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EmailFilename names the PDF of a single email.
func EmailFilename(id string) string {
	return "email_" + sanitizeFilename(id) + ".pdf"
}

// RangeFilename names the PDF of a date range. after and before are the
// MMDDYYYY strings the caller supplied.
func RangeFilename(after, before string) string {
	return "emails_" + sanitizeFilename(after) + "_to_" + sanitizeFilename(before) + ".pdf"
}

// SenderFilename names the PDF of every email from sender.
func SenderFilename(sender string) string {
	return "emails_from_" + sanitizeFilename(sender) + ".pdf"
}

// SelectionFilename names the PDF of an explicit list of emails.
func SelectionFilename(count int) string {
	return fmt.Sprintf("emails_%d.pdf", count)
}

// sanitizeFilename keeps letters, digits, '.', '-', '_' and '@' and replaces
// everything else with '_'.
func sanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unnamed"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_' || r == '@':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	// A name made only of dots would escape the output directory.
	if strings.Trim(out, ".") == "" {
		return "unnamed"
	}
	return out
}

// WriteFile writes data to name inside dir, creating dir when needed, and
// returns the written path.
func WriteFile(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
