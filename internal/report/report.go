// Package report aggregates transactions into balances and per-period
// income and expense totals.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"kassabok/internal/core"
)

// Summary holds the totals of one period. Expenses is a positive magnitude.
type Summary struct {
	Income   float64
	Expenses float64
	Net      float64
}

// MonthlySummary is the Summary of one month of a breakdown.
type MonthlySummary struct {
	Month time.Month
	Summary
}

// Summarize totals the records that fall in p. Zero amounts and undated
// records contribute nothing.
func Summarize(records []core.Transaction, p Period) Summary {
	income, expenses := decimal.Zero, decimal.Zero
	for _, r := range records {
		if !p.Contains(r.Date()) {
			continue
		}
		amount := decimal.NewFromFloat(r.Amount())
		switch {
		case amount.IsPositive():
			income = income.Add(amount)
		case amount.IsNegative():
			expenses = expenses.Add(amount.Abs())
		}
	}
	return Summary{
		Income:   income.InexactFloat64(),
		Expenses: expenses.InexactFloat64(),
		Net:      income.Sub(expenses).InexactFloat64(),
	}
}

// Balance is the sum of every amount, dated or not.
func Balance(records []core.Transaction) float64 {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Amount()))
	}
	return total.InexactFloat64()
}

// Breakdown returns the twelve monthly summaries of year.
func Breakdown(records []core.Transaction, year int) []MonthlySummary {
	out := make([]MonthlySummary, 0, 12)
	for m := time.January; m <= time.December; m++ {
		p := monthPeriod{year: year, month: m}
		out = append(out, MonthlySummary{Month: m, Summary: Summarize(records, p)})
	}
	return out
}
