package mail_tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailpdf/internal/mail"
	"github.com/teemow/mailpdf/internal/mailerr"
	"github.com/teemow/mailpdf/internal/server"
	"github.com/teemow/mailpdf/internal/tools/common"
)

// Tool names.
const (
	ToolListEmails      = "mail_list_emails"
	ToolListEmailIDs    = "mail_list_email_ids"
	ToolExportEmailPDF  = "mail_export_email_pdf"
	ToolExportEmailsPDF = "mail_export_emails_pdf"
)

func accessTokenOption() mcp.ToolOption {
	return mcp.WithString("accessToken",
		mcp.Description("Gmail OAuth access token. A leading 'Bearer ' is ignored. Defaults to the server's configured token."),
	)
}

func filterOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("from",
			mcp.Description("Only emails from this sender"),
		),
		mcp.WithString("to",
			mcp.Description("Only emails to this recipient"),
		),
		mcp.WithString("after",
			mcp.Description("Only emails after this date (MMDDYYYY)"),
		),
		mcp.WithString("before",
			mcp.Description("Only emails before this date (MMDDYYYY)"),
		),
	}
}

// RegisterMailTools registers the mail query and PDF export tools with the
// MCP server.
func RegisterMailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listOpts := append([]mcp.ToolOption{
		mcp.WithDescription("List emails matching the filters, with subject, sender, snippet and HTML body"),
		accessTokenOption(),
		mcp.WithString("id",
			mcp.Description("Fetch only the email with this id; other filters are ignored"),
		),
	}, filterOptions()...)
	s.AddTool(mcp.NewTool(ToolListEmails, listOpts...),
		common.InstrumentedToolHandler(ToolListEmails, sc, listEmailsHandler(sc)))

	idOpts := append([]mcp.ToolOption{
		mcp.WithDescription("List the ids of emails matching the filters without fetching their contents"),
		accessTokenOption(),
		mcp.WithString("id",
			mcp.Description("Return only this id if the email exists"),
		),
	}, filterOptions()...)
	s.AddTool(mcp.NewTool(ToolListEmailIDs, idOpts...),
		common.InstrumentedToolHandler(ToolListEmailIDs, sc, listEmailIDsHandler(sc)))

	s.AddTool(mcp.NewTool(ToolExportEmailPDF,
		mcp.WithDescription("Export one or more emails as individual PDF files named email_<id>.pdf"),
		accessTokenOption(),
		mcp.WithString("emailIds",
			mcp.Required(),
			mcp.Description("Email ID (string) or array of email IDs to export"),
		),
	), common.InstrumentedToolHandler(ToolExportEmailPDF, sc, exportEmailPDFHandler(sc)))

	exportOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Export several emails into one PDF, one email per page. " +
			"Select the emails with emailIds, with both after and before, or with from."),
		accessTokenOption(),
		mcp.WithString("emailIds",
			mcp.Description("Email ID (string) or array of email IDs, exported in the given order"),
		),
	}, filterOptions()...)
	s.AddTool(mcp.NewTool(ToolExportEmailsPDF, exportOpts...),
		common.InstrumentedToolHandler(ToolExportEmailsPDF, sc, exportEmailsPDFHandler(sc)))

	return nil
}

// stringArg returns the trimmed string argument name, or "".
func stringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// filterInput collects the filter arguments.
func filterInput(args map[string]interface{}) mail.FilterInput {
	return mail.FilterInput{
		Sender:    stringArg(args, "from"),
		Recipient: stringArg(args, "to"),
		After:     stringArg(args, "after"),
		Before:    stringArg(args, "before"),
		ID:        stringArg(args, "id"),
	}
}

// errorResult turns err into a tool error result prefixed with its kind.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", mailerr.KindOf(err), err))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
