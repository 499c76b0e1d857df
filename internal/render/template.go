package render

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/microcosm-cc/bluemonday"

	"github.com/teemow/mailpdf/internal/mail"
)

const documentCSS = `
body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
    font-size: 14px;
    line-height: 1.5;
    color: #222;
}
h1 { font-size: 22px; margin: 0 0 16px; }
h2 { font-size: 18px; margin: 0 0 12px; }
.meta { margin: 0 0 12px; }
.meta dt { font-weight: bold; float: left; clear: left; width: 80px; }
.meta dd { margin: 0 0 4px 80px; }
.body { border-top: 1px solid #ccc; padding-top: 12px; overflow-wrap: break-word; }
.body img { max-width: 100%; height: auto; }
.email + .email { break-before: page; page-break-before: always; }
`

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>` + documentCSS + `</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}<section class="email">
{{if .Heading}}<h2>{{.Heading}}</h2>
{{end}}<dl class="meta">
<dt>Subject</dt><dd>{{.Email.Subject}}</dd>
<dt>From</dt><dd>{{.Email.From}}</dd>
<dt>Snippet</dt><dd>{{.Email.Snippet}}</dd>
</dl>
<div class="body">{{.Body}}</div>
</section>
{{end}}</body>
</html>
`))

// Document titles.
const (
	SingleTitle = "Email Details"
	MultiTitle  = "Emails Report"
)

type documentData struct {
	Title    string
	Sections []sectionData
}

type sectionData struct {
	Heading string
	Email   mail.Email
	Body    template.HTML
}

// policy sanitizes email bodies. It keeps the formatting markup emails
// rely on and drops scripts, event handlers, frames and forms.
var policy = newBodyPolicy()

func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("center", "font", "span", "div")
	p.AllowAttrs("color", "face", "size").OnElements("font")
	p.AllowAttrs("style").Globally()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	p.AllowAttrs("align", "valign", "bgcolor", "width", "height").OnElements("table", "tr", "td", "th", "div", "p", "img")
	p.AllowAttrs("border", "cellpadding", "cellspacing").OnElements("table")
	p.AllowDataURIImages()

	return p
}

// SanitizeBody returns body with unsafe markup removed.
func SanitizeBody(body string) string {
	return policy.Sanitize(body)
}

// BuildEmailDocument renders the single-email HTML document.
func BuildEmailDocument(email mail.Email) (string, error) {
	return buildDocument(SingleTitle, []mail.Email{email}, false)
}

// BuildEmailsDocument renders one document with a numbered section per
// email. Each section after the first starts on a new page.
func BuildEmailsDocument(emails []mail.Email) (string, error) {
	return buildDocument(MultiTitle, emails, true)
}

func buildDocument(title string, emails []mail.Email, numbered bool) (string, error) {
	data := documentData{Title: title, Sections: make([]sectionData, len(emails))}
	for i, email := range emails {
		s := sectionData{
			Email: email,
			// The sanitized body is trusted markup; every other field is
			// escaped by html/template.
			Body: template.HTML(SanitizeBody(email.Body)),
		}
		if numbered {
			s.Heading = "Email " + strconv.Itoa(i+1)
		}
		data.Sections[i] = s
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
