// Package render turns emails into PDF documents.
//
// A Renderer looks emails up through an EmailSource, builds an HTML
// document with html/template and hands it to an Engine. Subject, sender
// and snippet are escaped; the HTML body is sanitized with bluemonday and
// embedded as markup. Multi-email documents start every email after the
// first on a new page.
//
// The Engine owns one headless browser shared by all renders. It is
// launched on first use, relaunched if it dies, and stopped by Close.
// NewChromeLauncher provides the chromedp-backed browser.
//
// EmailFilename, RangeFilename and SenderFilename name the exported files;
// WriteFile stores them under an output directory.
package render
