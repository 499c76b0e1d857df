package mail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mailpdf/internal/mail"
	"github.com/teemow/mailpdf/internal/server"
	"github.com/teemow/mailpdf/internal/tools/common"
)

func listEmailsHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		credential, fs, err := parseListRequest(request, sc)
		if err != nil {
			return errorResult(err), nil
		}

		emails, err := sc.Mail().ListEmails(ctx, credential, fs)
		if err != nil {
			return errorResult(err), nil
		}
		if emails == nil {
			emails = []mail.Email{}
		}
		return jsonResult(emails)
	}
}

func listEmailIDsHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		credential, fs, err := parseListRequest(request, sc)
		if err != nil {
			return errorResult(err), nil
		}

		ids, err := sc.Mail().ListEmailIDs(ctx, credential, fs)
		if err != nil {
			return errorResult(err), nil
		}
		if ids == nil {
			ids = []string{}
		}
		return jsonResult(ids)
	}
}

func parseListRequest(request mcp.CallToolRequest, sc *server.ServerContext) (string, mail.FilterSet, error) {
	args := request.GetArguments()

	credential, err := sc.Credential(stringArg(args, "accessToken"))
	if err != nil {
		return "", mail.FilterSet{}, err
	}
	fs, err := mail.ParseFilter(filterInput(args), sc.Location())
	if err != nil {
		return "", mail.FilterSet{}, err
	}
	return credential, fs, nil
}
