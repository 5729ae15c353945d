package command

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"kassabok/internal/core"
	"kassabok/internal/log"
)

// NewAddCommand creates the add command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <date> <amount> [description...]",
		Short: "Record a transaction",
		Long: `Record a dated transaction. Positive amounts are income, negative
amounts are expenses. Dates are YYYY-MM-DD and may not be in the future.
Amounts accept a decimal comma.`,
		Example: "  kassabok add 2024-03-01 1000 Salary\n  kassabok add 2024-03-15 -- -23,50 Groceries",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := core.ParseDate(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid date", err)
			}
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid amount", err)
			}
			desc := strings.Join(args[2:], " ")

			ctx := cmd.Context()
			res, cleanup, err := opts.open(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			saved, err := res.Ledger.AddTransaction(ctx, date, amount, desc)
			if errors.Is(err, core.ErrFutureDate) || errors.Is(err, core.ErrInvalidAmount) {
				return WrapExitError(ExitCommandError, "invalid transaction", err)
			}
			if err != nil {
				return err
			}
			if saved.Handle().IsZero() {
				return NewExitError(ExitFailure, "transaction was not stored")
			}

			opts.logger.Fields(ctx, slog.LevelDebug, "Transaction recorded", log.NewFields().
				WithOperation(log.OpAdd).
				WithTransaction(saved.Handle().String(), saved.Date().String(), saved.Amount(), saved.Description()))

			return opts.formatter(cmd).Transaction("Saved", saved)
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long: `List transactions in storage order, optionally limited to a closed date
range. The HANDLE column identifies a transaction for delete. File handles
are positions and shift when an earlier transaction is deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, cleanup, err := opts.open(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			var ts []core.Transaction
			if from == "" && to == "" {
				ts, err = res.Ledger.Transactions(ctx)
			} else {
				var fromDate, toDate core.Date
				if fromDate, toDate, err = parseRange(from, to); err != nil {
					return err
				}
				ts, err = res.Ledger.TransactionsBetween(ctx, fromDate, toDate)
			}
			if err != nil {
				return err
			}
			warnSkipped(cmd, res.Ledger.SkippedLines())
			return opts.formatter(cmd).Transactions(ts)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")

	return cmd
}

func parseRange(from, to string) (core.Date, core.Date, error) {
	fromDate := core.NewDate(1, 1, 1)
	toDate := core.NewDate(9999, 12, 31)
	var err error
	if from != "" {
		if fromDate, err = core.ParseDate(from); err != nil {
			return core.Date{}, core.Date{}, WrapExitError(ExitCommandError, "invalid --from", err)
		}
	}
	if to != "" {
		if toDate, err = core.ParseDate(to); err != nil {
			return core.Date{}, core.Date{}, WrapExitError(ExitCommandError, "invalid --to", err)
		}
	}
	if toDate.Before(fromDate) {
		return core.Date{}, core.Date{}, NewExitError(ExitCommandError, "--to is before --from")
	}
	return fromDate, toDate, nil
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <handle>",
		Short:   "Delete a transaction",
		Long:    "Delete the transaction identified by a handle as shown by list (#3 or 3 for the file backend, id:42 for sqlite).",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := core.ParseHandle(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid handle", err)
			}

			ctx := cmd.Context()
			res, cleanup, err := opts.open(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			removed, err := res.Ledger.RemoveTransaction(ctx, h)
			if err != nil {
				return err
			}
			if !removed {
				return NewExitError(ExitFailure, "no transaction "+h.String())
			}
			return opts.formatter(cmd).Message("Deleted %s", h)
		},
	}
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the running balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, cleanup, err := opts.open(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			balance, err := res.Ledger.Balance(ctx)
			if err != nil {
				return err
			}
			count, err := res.Ledger.Count(ctx)
			if err != nil {
				return err
			}
			warnSkipped(cmd, res.Ledger.SkippedLines())
			return opts.formatter(cmd).Balance(balance, count)
		},
	}
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rewrite the stored ledger from its current contents",
		Long: `Load every transaction and write the whole set back. For the file
backend this drops lines that could not be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, cleanup, err := opts.open(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := res.Ledger.Sync(ctx); err != nil {
				return err
			}
			count, err := res.Ledger.Count(ctx)
			if err != nil {
				return err
			}
			warnDropped(cmd, res.Ledger.SkippedLines())
			return opts.formatter(cmd).Message("Synced %d transactions", count)
		},
	}
}
