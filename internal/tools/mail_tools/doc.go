// Package mail_tools registers the MCP tools for querying Gmail and
// exporting emails as PDF files.
//
// Every tool accepts an optional accessToken argument. Without it the
// server's configured token is used. PDFs are written to the server's
// output directory and the tool result carries the path and size.
package mail_tools
