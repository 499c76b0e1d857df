// Package config loads mailpdf's configuration from MAILPDF_* environment
// variables. Command-line flags override individual fields afterwards.
package config
