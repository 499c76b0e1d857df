package mail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mailpdf/internal/mail"
	"github.com/teemow/mailpdf/internal/mailerr"
	"github.com/teemow/mailpdf/internal/render"
	"github.com/teemow/mailpdf/internal/server"
	"github.com/teemow/mailpdf/internal/tools/batch"
	"github.com/teemow/mailpdf/internal/tools/common"
)

// exportResult describes a written PDF.
type exportResult struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

func exportEmailPDFHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		credential, err := sc.Credential(stringArg(args, "accessToken"))
		if err != nil {
			return errorResult(err), nil
		}
		ids, err := batch.ParseStringOrArray(args["emailIds"], "emailIds")
		if err != nil {
			return errorResult(err), nil
		}

		results := batch.ProcessBatch(ids, func(id string) (string, error) {
			data, err := sc.Renderer().RenderEmail(ctx, credential, id)
			if err != nil {
				return "", err
			}
			path, err := render.WriteFile(sc.OutputDir(), render.EmailFilename(id), data)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s (%d bytes)", path, len(data)), nil
		})
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}

func exportEmailsPDFHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		credential, err := sc.Credential(stringArg(args, "accessToken"))
		if err != nil {
			return errorResult(err), nil
		}

		var (
			data []byte
			name string
		)
		if raw, ok := args["emailIds"]; ok && raw != nil {
			ids, err := batch.ParseStringOrArray(raw, "emailIds")
			if err != nil {
				return errorResult(err), nil
			}
			name = render.SelectionFilename(len(ids))
			data, err = sc.Renderer().RenderEmails(ctx, credential, ids)
			if err != nil {
				return errorResult(err), nil
			}
		} else {
			in := filterInput(args)
			in.ID = ""
			if name, err = exportFilename(in); err != nil {
				return errorResult(err), nil
			}
			fs, err := mail.ParseFilter(in, sc.Location())
			if err != nil {
				return errorResult(err), nil
			}
			data, err = sc.Renderer().RenderQuery(ctx, credential, fs)
			if err != nil {
				return errorResult(err), nil
			}
		}

		if len(data) == 0 {
			return mcp.NewToolResultText("No emails matched; no PDF was written."), nil
		}

		path, err := render.WriteFile(sc.OutputDir(), name, data)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(exportResult{Path: path, Bytes: len(data)})
	}
}

// exportFilename picks the file name for a filter export. A date range
// needs both bounds; otherwise a sender is required.
func exportFilename(in mail.FilterInput) (string, error) {
	switch {
	case in.After != "" && in.Before != "":
		return render.RangeFilename(in.After, in.Before), nil
	case in.After != "" || in.Before != "":
		return "", mailerr.Validation("both after and before are required for a date range")
	case in.Sender != "":
		return render.SenderFilename(in.Sender), nil
	default:
		return "", mailerr.Validation("emailIds, from, or after and before are required")
	}
}
