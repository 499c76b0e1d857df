// Package mailerr defines the error taxonomy shared by the mail query
// service and the document renderer.
//
// Every failure surfaced by those packages is an *Error carrying one Kind.
// Use KindOf for a switch at the edges, or errors.Is with the Err* sentinels:
//
//	if errors.Is(err, mailerr.ErrNotFound) {
//	    ...
//	}
package mailerr
