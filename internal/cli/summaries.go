package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"brasa/backend/internal/report"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func newSummariesCommand(a *app) *cobra.Command {
	summaries := &cobra.Command{
		Use:   "summaries",
		Short: "Inspect closed days",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List closed days, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			list, err := rt.service.ListSummaries(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tDATE\tREVENUE\tUNITS\tCLOSING BALANCE")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					s.ID,
					s.OperationDate.Format("2006-01-02"),
					report.FormatMoney(s.TotalRevenueCents),
					s.TotalUnitsSold,
					report.FormatMoney(s.ClosingBalanceCents),
				)
			}
			return w.Flush()
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export SUMMARY_ID",
		Short: "Write a closed day as PDF or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			dir, _ := cmd.Flags().GetString("dir")
			if format != "pdf" && format != "csv" {
				return fmt.Errorf("format must be pdf or csv")
			}

			rt, err := a.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			summary, err := rt.service.GetSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var (
				body []byte
				name string
			)
			if format == "csv" {
				body, name, err = report.SummaryCSV(summary)
			} else {
				settings, serr := rt.service.GetSettings(cmd.Context())
				if serr != nil {
					return serr
				}
				body, name, err = report.SummaryPDF(summary, settings.CompanyName)
			}
			if err != nil {
				return err
			}

			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	exportCmd.Flags().String("format", "pdf", "Export format: pdf or csv")
	exportCmd.Flags().String("dir", ".", "Directory to write the export into")

	summaries.AddCommand(listCmd, exportCmd)
	return summaries
}
