package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/teemow/mailpdf/internal/mail"
)

type filterFlags struct {
	from   string
	to     string
	after  string
	before string
	id     string
}

func (f *filterFlags) register(cmd *cobra.Command, withID bool) {
	cmd.Flags().StringVar(&f.from, "from", "", "Only emails from this sender")
	cmd.Flags().StringVar(&f.to, "to", "", "Only emails to this recipient")
	cmd.Flags().StringVar(&f.after, "after", "", "Only emails after this date (MMDDYYYY)")
	cmd.Flags().StringVar(&f.before, "before", "", "Only emails before this date (MMDDYYYY)")
	if withID {
		cmd.Flags().StringVar(&f.id, "id", "", "Only the email with this id; other filters are ignored")
	}
}

func (f *filterFlags) input() mail.FilterInput {
	return mail.FilterInput{
		Sender:    f.from,
		Recipient: f.to,
		After:     f.after,
		Before:    f.before,
		ID:        f.id,
	}
}

func newListCmd(flags *globalFlags) *cobra.Command {
	filters := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List emails matching the filters as JSON",
		Long: `List emails matching the filters. Each email is printed with its id,
subject, sender, snippet and HTML body. At most one page of results
(MAILPDF_PAGE_SIZE, default 20) is returned.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				credential, err := a.sc.Credential("")
				if err != nil {
					return err
				}
				fs, err := mail.ParseFilter(filters.input(), a.sc.Location())
				if err != nil {
					return err
				}
				emails, err := a.sc.Mail().ListEmails(ctx, credential, fs)
				if err != nil {
					return err
				}
				return printJSON(cmd, emails)
			})
		},
	}
	filters.register(cmd, true)
	return cmd
}

func newIDsCmd(flags *globalFlags) *cobra.Command {
	filters := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "ids",
		Short: "List the ids of emails matching the filters as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				credential, err := a.sc.Credential("")
				if err != nil {
					return err
				}
				fs, err := mail.ParseFilter(filters.input(), a.sc.Location())
				if err != nil {
					return err
				}
				ids, err := a.sc.Mail().ListEmailIDs(ctx, credential, fs)
				if err != nil {
					return err
				}
				return printJSON(cmd, ids)
			})
		},
	}
	filters.register(cmd, true)
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
