// Package batch provides helpers for MCP tools that act on several email
// ids at once: parsing parameters that accept a single id or a list, and
// reporting per-id outcomes as JSON.
package batch
