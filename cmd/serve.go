package cmd

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/mailpdf/internal/server"
	"github.com/teemow/mailpdf/internal/tools/mail_tools"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server on standard input/output.

The server provides tools to list Gmail messages and to export them as PDF
files into the output directory. Logs are written to stderr.

With --metrics-addr (or METRICS_ADDR) Prometheus metrics and health probes
are served on a separate HTTP port.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				mcpSrv, err := newMCPServer(a.sc)
				if err != nil {
					return err
				}
				a.logger.Info("starting MCP server", "transport", "stdio", "version", version)
				return runStdioServer(ctx, mcpSrv)
			})
		},
	}
}

// newMCPServer creates the MCP server with every tool registered.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("mailpdf", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := mail_tools.RegisterMailTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register mail tools: %w", err)
	}
	return mcpSrv, nil
}

// runStdioServer serves until stdin closes or ctx is cancelled.
func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
