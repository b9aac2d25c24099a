package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect logged searches and sent emails",
}

var historyRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List logged search runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListSearchRuns(ctx, store.RunFilter{Limit: limit})
		if err != nil {
			return eris.Wrap(err, "list search runs")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No search runs logged.")
			return nil
		}

		formatRunsTable(os.Stdout, runs)
		return nil
	},
}

var historyEmailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "List logged outreach emails",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		recipient, _ := cmd.Flags().GetString("recipient")

		logs, err := st.ListEmailLogs(ctx, store.EmailFilter{Recipient: recipient, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "list email logs")
		}

		if len(logs) == 0 {
			fmt.Fprintln(os.Stderr, "No emails logged.")
			return nil
		}

		formatEmailsTable(os.Stdout, logs)
		return nil
	},
}

func formatRunsTable(w io.Writer, runs []model.SearchRun) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tINDUSTRIES\tFOUND\tRETURNED\tTOP SCORE\tTIME")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.3f\t%dms\n",
			r.CreatedAt.Local().Format(time.RFC3339),
			strings.Join(r.ICP.Industries, ", "),
			r.TotalFound,
			r.Returned,
			r.TopScore,
			r.SearchTimeMS,
		)
	}
	tw.Flush() //nolint:errcheck
}

func formatEmailsTable(w io.Writer, logs []model.EmailLog) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tRECIPIENT\tSUBJECT\tSENT\tERROR")
	for _, l := range logs {
		sent := "no"
		if l.Sent {
			sent = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			l.CreatedAt.Local().Format(time.RFC3339),
			l.Recipient,
			l.Subject,
			sent,
			l.Error,
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	historyRunsCmd.Flags().Int("limit", 20, "maximum runs to list")
	historyEmailsCmd.Flags().Int("limit", 20, "maximum emails to list")
	historyEmailsCmd.Flags().String("recipient", "", "filter by recipient address")
	historyCmd.AddCommand(historyRunsCmd)
	historyCmd.AddCommand(historyEmailsCmd)
	rootCmd.AddCommand(historyCmd)
}
