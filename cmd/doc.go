// Package cmd implements the command-line interface for mailpdf.
//
// This package provides the following commands:
//   - list, ids: Query Gmail by sender, recipient, date range or id and print JSON
//   - pdf: Export one email, or several emails into one document
//   - pdf-range, pdf-from: Export every email in a date range or from a sender
//   - serve: Start the MCP server to provide tools for AI assistants
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Configuration comes from MAILPDF_* environment variables; the persistent
// flags override them when given.
package cmd
