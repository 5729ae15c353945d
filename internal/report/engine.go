package report

import (
	"context"
	"fmt"

	"kassabok/internal/repository"
)

// Engine runs reports against the records of a repository.
type Engine struct {
	repo repository.Reader
}

func NewEngine(repo repository.Reader) *Engine {
	return &Engine{repo: repo}
}

// Balance is the sum of every stored amount.
func (e *Engine) Balance(ctx context.Context) (float64, error) {
	records, err := e.repo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}
	return Balance(records), nil
}

// Summary totals the records of p.
func (e *Engine) Summary(ctx context.Context, p Period) (Summary, error) {
	from, to := p.Bounds()
	records, err := e.repo.FindByDateRange(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("load transactions for %s: %w", p, err)
	}
	return Summarize(records, p), nil
}

// Breakdown returns the monthly summaries of year.
func (e *Engine) Breakdown(ctx context.Context, year int) ([]MonthlySummary, error) {
	from, to := Year(year).Bounds()
	records, err := e.repo.FindByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load transactions for %d: %w", year, err)
	}
	return Breakdown(records, year), nil
}
