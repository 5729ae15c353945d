package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"kassabok/internal/core"
	"kassabok/internal/report"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // Nothing matched, login refused
	ExitCommandError = 2 // Bad arguments or an unusable backend
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

type transactionView struct {
	Handle      string  `json:"handle"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
}

type summaryView struct {
	Period   string        `json:"period"`
	Income   float64       `json:"income"`
	Expenses float64       `json:"expenses"`
	Net      float64       `json:"net"`
	Months   []monthlyView `json:"months,omitempty"`
}

type monthlyView struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

func formatAmount(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

func kindLabel(t core.Transaction) string {
	switch {
	case t.IsIncome():
		return "Income"
	case t.IsExpense():
		return "Expense"
	default:
		return "-"
	}
}

func viewOf(t core.Transaction) transactionView {
	return transactionView{
		Handle:      t.Handle().String(),
		Date:        t.Date().String(),
		Amount:      t.Amount(),
		Kind:        kindLabel(t),
		Description: t.Description(),
	}
}

func (f *OutputFormatter) json(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Transaction prints one saved record.
func (f *OutputFormatter) Transaction(verb string, t core.Transaction) error {
	if f.Format == "json" {
		return f.json(viewOf(t))
	}
	_, err := fmt.Fprintf(f.Writer, "%s %s: %s %s %s\n",
		verb, t.Handle(), t.Date(), formatAmount(t.Amount()), t.Description())
	return err
}

// Transactions prints records as a table.
func (f *OutputFormatter) Transactions(ts []core.Transaction) error {
	if f.Format == "json" {
		views := make([]transactionView, len(ts))
		for i, t := range ts {
			views[i] = viewOf(t)
		}
		return f.json(views)
	}

	if len(ts) == 0 {
		_, err := fmt.Fprintln(f.Writer, "No transactions.")
		return err
	}
	fmt.Fprintf(f.Writer, "%-8s  %-10s  %12s  %-7s  %s\n", "HANDLE", "DATE", "AMOUNT", "TYPE", "DESCRIPTION")
	for _, t := range ts {
		fmt.Fprintf(f.Writer, "%-8s  %-10s  %12s  %-7s  %s\n",
			t.Handle(), t.Date(), formatAmount(t.Amount()), kindLabel(t), t.Description())
	}
	return nil
}

// Balance prints the running balance.
func (f *OutputFormatter) Balance(balance float64, count int) error {
	if f.Format == "json" {
		return f.json(map[string]any{"balance": balance, "transactions": count})
	}
	_, err := fmt.Fprintf(f.Writer, "Balance: %s (%d transactions)\n", formatAmount(balance), count)
	return err
}

// Summary prints a period summary, followed by the monthly breakdown when
// months is non-empty.
func (f *OutputFormatter) Summary(p report.Period, s report.Summary, months []report.MonthlySummary) error {
	view := summaryView{Period: p.String(), Income: s.Income, Expenses: s.Expenses, Net: s.Net}
	for _, m := range months {
		view.Months = append(view.Months, monthlyView{
			Month:    m.Month.String()[:3],
			Income:   m.Income,
			Expenses: m.Expenses,
			Net:      m.Net,
		})
	}
	if f.Format == "json" {
		return f.json(view)
	}

	fmt.Fprintf(f.Writer, "Period:   %s\n", view.Period)
	fmt.Fprintf(f.Writer, "Income:   %s\n", formatAmount(view.Income))
	fmt.Fprintf(f.Writer, "Expenses: %s\n", formatAmount(view.Expenses))
	fmt.Fprintf(f.Writer, "Net:      %s\n", formatAmount(view.Net))
	if len(view.Months) == 0 {
		return nil
	}

	fmt.Fprintf(f.Writer, "\n%-5s  %10s  %10s  %10s\n", "MONTH", "INCOME", "EXPENSES", "NET")
	for _, m := range view.Months {
		fmt.Fprintf(f.Writer, "%-5s  %10s  %10s  %10s\n",
			m.Month, formatAmount(m.Income), formatAmount(m.Expenses), formatAmount(m.Net))
	}
	return nil
}

// Message prints a plain status line.
func (f *OutputFormatter) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if f.Format == "json" {
		return f.json(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(f.Writer, msg)
	return err
}

// warnSkipped tells the user on stderr that lines of the ledger file could
// not be read.
func warnSkipped(cmd *cobra.Command, lines []int) {
	if len(lines) == 0 {
		return
	}
	nums := make([]string, len(lines))
	for i, n := range lines {
		nums[i] = strconv.Itoa(n)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d unreadable line(s) in the ledger file were ignored (lines %s)\n",
		len(lines), strings.Join(nums, ", "))
}

// warnDropped reports lines that a full rewrite removed from the file.
func warnDropped(cmd *cobra.Command, lines []int) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: sync removed %d unreadable line(s) from the ledger file\n", len(lines))
}
