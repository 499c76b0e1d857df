package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/mailpdf/internal/mailerr"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI.
func SetVersion(v string) {
	version = v
}

// globalFlags are the persistent flags shared by every command. They
// override the environment only when set explicitly.
type globalFlags struct {
	token       string
	outputDir   string
	debug       bool
	logFormat   string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "mailpdf",
		Short: "Query Gmail and export emails as PDF",
		Long: `mailpdf lists Gmail messages by sender, recipient and date, and renders
single emails or whole selections into PDF documents with headless Chrome.

It can run as:
  - A standalone CLI tool
  - An MCP (Model Context Protocol) server for AI assistants

The Gmail OAuth access token is read from --token or MAILPDF_ACCESS_TOKEN.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "mailpdf version %s\n" .Version}}`)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.token, "token", "", "Gmail OAuth access token (default: $MAILPDF_ACCESS_TOKEN)")
	pf.StringVar(&flags.outputDir, "output-dir", "", "Directory for generated PDFs (default: $MAILPDF_OUTPUT_DIR or .)")
	pf.BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json (default: $MAILPDF_LOG_FORMAT or text)")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics and health probes on this address (default: $METRICS_ADDR)")

	rootCmd.AddCommand(newListCmd(flags))
	rootCmd.AddCommand(newIDsCmd(flags))
	rootCmd.AddCommand(newPDFCmd(flags))
	rootCmd.AddCommand(newPDFRangeCmd(flags))
	rootCmd.AddCommand(newPDFFromCmd(flags))
	rootCmd.AddCommand(newServeCmd(flags))
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportError(rootCmd.ErrOrStderr(), err))
	}
}

// reportError prints err with its kind and returns the exit code. Invalid
// input exits with 2, everything else with 1.
func reportError(w io.Writer, err error) int {
	kind := mailerr.KindOf(err)
	if kind == mailerr.KindUnknown {
		fmt.Fprintf(w, "Error: %v\n", err)
	} else {
		fmt.Fprintf(w, "Error (%s): %v\n", kind, err)
	}
	if errors.Is(err, mailerr.ErrValidation) {
		return 2
	}
	return 1
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mailpdf version %s\n", version)
		},
	}
}
