package command

import (
	"strings"

	"github.com/spf13/cobra"

	"kassabok/internal/report"
)

// NewReportCommand creates the report command.
func NewReportCommand(opts *RootOptions) *cobra.Command {
	var breakdown bool

	cmd := &cobra.Command{
		Use:   "report <year|month|week|day> <value>",
		Short: "Summarize income and expenses for a period",
		Long: `Summarize income, expenses and net for one period:

  year  2024
  month 2024-03
  week  2024-W10   (aligned week: days 1-7 of the year are week 1)
  day   2024-03-15

Yearly reports include a monthly breakdown unless --breakdown=false.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"year", "month", "week", "day"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := report.ParsePeriod(args[0], args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid period", err)
			}

			ctx := cmd.Context()
			res, cleanup, err := opts.open(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := res.Ledger.Summary(ctx, p)
			if err != nil {
				return err
			}

			var months []report.MonthlySummary
			if breakdown && strings.HasPrefix(strings.ToLower(args[0]), "y") {
				from, _ := p.Bounds()
				if months, err = res.Ledger.Breakdown(ctx, from.Year()); err != nil {
					return err
				}
			}

			warnSkipped(cmd, res.Ledger.SkippedLines())
			return opts.formatter(cmd).Summary(p, summary, months)
		},
	}

	cmd.Flags().BoolVar(&breakdown, "breakdown", true, "include monthly totals in yearly reports")

	return cmd
}
