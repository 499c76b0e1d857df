package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/teemow/mailpdf/internal/logging"
	"github.com/teemow/mailpdf/internal/mail"
	"github.com/teemow/mailpdf/internal/mailerr"
	"github.com/teemow/mailpdf/internal/render"
)

func newPDFCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pdf <email-id> [email-id...]",
		Short: "Export emails as PDF",
		Long: `Export one email as email_<id>.pdf, or several emails into a single
emails_<n>.pdf with one email per page in the given order. Ids that do not
exist are skipped when exporting several emails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				credential, err := a.sc.Credential("")
				if err != nil {
					return err
				}
				if len(args) == 1 {
					data, err := a.sc.Renderer().RenderEmail(ctx, credential, args[0])
					if err != nil {
						return err
					}
					return savePDF(cmd, a, render.EmailFilename(args[0]), data)
				}
				data, err := a.sc.Renderer().RenderEmails(ctx, credential, args)
				if err != nil {
					return err
				}
				return savePDF(cmd, a, render.SelectionFilename(len(args)), data)
			})
		},
	}
}

func newPDFRangeCmd(flags *globalFlags) *cobra.Command {
	var after, before string
	cmd := &cobra.Command{
		Use:   "pdf-range",
		Short: "Export every email in a date range into one PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if after == "" || before == "" {
				return mailerr.Validation("both --after and --before are required")
			}
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				return exportQuery(ctx, cmd, a, mail.FilterInput{After: after, Before: before},
					render.RangeFilename(after, before))
			})
		},
	}
	cmd.Flags().StringVar(&after, "after", "", "Start date (MMDDYYYY)")
	cmd.Flags().StringVar(&before, "before", "", "End date (MMDDYYYY)")
	return cmd
}

func newPDFFromCmd(flags *globalFlags) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "pdf-from",
		Short: "Export every email from a sender into one PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return mailerr.Validation("--from is required")
			}
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				return exportQuery(ctx, cmd, a, mail.FilterInput{Sender: from}, render.SenderFilename(from))
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Sender address")
	return cmd
}

func exportQuery(ctx context.Context, cmd *cobra.Command, a *app, in mail.FilterInput, name string) error {
	credential, err := a.sc.Credential("")
	if err != nil {
		return err
	}
	fs, err := mail.ParseFilter(in, a.sc.Location())
	if err != nil {
		return err
	}
	data, err := a.sc.Renderer().RenderQuery(ctx, credential, fs)
	if err != nil {
		return err
	}
	return savePDF(cmd, a, name, data)
}

// savePDF writes data under the output directory and prints the path. An
// empty document means nothing matched and no file is written.
func savePDF(cmd *cobra.Command, a *app, name string, data []byte) error {
	if len(data) == 0 {
		a.logger.Info("no emails matched, nothing written")
		return nil
	}
	path, err := render.WriteFile(a.sc.OutputDir(), name, data)
	if err != nil {
		return err
	}
	a.logger.Info("PDF written", "path", path, "bytes", len(data), logging.Status(logging.StatusSuccess))
	writeOutput(cmd, "%s\n", path)
	return nil
}
