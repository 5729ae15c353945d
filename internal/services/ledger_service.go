package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"kassabok/internal/amqp"
	"kassabok/internal/core"
	"kassabok/internal/report"
	"kassabok/internal/repository"
	"kassabok/internal/session"
)

// EventPublisher sends ledger change notifications.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
	Close() error
}

// LedgerService orchestrates ledger operations across a repository and the
// optional change-event feed.
type LedgerService struct {
	repo    repository.Repository
	reports *report.Engine
	owner   session.Source
	events  EventPublisher
	closers []io.Closer
}

// loadReporter is implemented by repositories that skip unreadable records
// while loading.
type loadReporter interface {
	LoadResult() (loaded, skipped int, lines []int)
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithEvents publishes a change event after every successful mutation.
func WithEvents(p EventPublisher) Option {
	return func(s *LedgerService) { s.events = p }
}

// WithOwner tags change events with the session's current owner.
func WithOwner(src session.Source) Option {
	return func(s *LedgerService) { s.owner = src }
}

// WithCloser registers a resource released by Close.
func WithCloser(c io.Closer) Option {
	return func(s *LedgerService) { s.closers = append(s.closers, c) }
}

func NewLedgerService(repo repository.Repository, opts ...Option) *LedgerService {
	s := &LedgerService{
		repo:    repo,
		reports: report.NewEngine(repo),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTransaction validates a user entry and saves it.
func (s *LedgerService) AddTransaction(ctx context.Context, date core.Date, amount float64, description string) (core.Transaction, error) {
	t, err := core.NewEntry(date, amount, description)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid transaction: %w", err)
	}

	saved, err := s.repo.Save(ctx, t)
	if err != nil {
		return saved, fmt.Errorf("save transaction: %w", err)
	}
	if saved.Handle().IsZero() {
		slog.WarnContext(ctx, "Transaction was not stored", "date", t.Date().String())
		return saved, nil
	}

	slog.InfoContext(ctx, "Transaction added",
		"handle", saved.Handle().String(),
		"date", saved.Date().String(),
		"amount", saved.Amount())

	s.publish(ctx, amqp.NewSavedEvent(s.ownerID(), saved))
	return saved, nil
}

// RemoveTransaction deletes the record identified by h.
func (s *LedgerService) RemoveTransaction(ctx context.Context, h core.Handle) (bool, error) {
	removed, err := s.repo.Delete(ctx, h)
	if err != nil {
		return removed, fmt.Errorf("delete transaction: %w", err)
	}
	if removed {
		slog.InfoContext(ctx, "Transaction removed", "handle", h.String())
		s.publish(ctx, amqp.NewDeletedEvent(s.ownerID(), h))
	}
	return removed, nil
}

func (s *LedgerService) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return s.repo.FindAll(ctx)
}

func (s *LedgerService) TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	return s.repo.FindByDateRange(ctx, from, to)
}

func (s *LedgerService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *LedgerService) Balance(ctx context.Context) (float64, error) {
	return s.reports.Balance(ctx)
}

func (s *LedgerService) Summary(ctx context.Context, p report.Period) (report.Summary, error) {
	return s.reports.Summary(ctx, p)
}

func (s *LedgerService) Breakdown(ctx context.Context, year int) ([]report.MonthlySummary, error) {
	return s.reports.Breakdown(ctx, year)
}

// Sync writes the current ledger back through the repository, replacing the
// stored copy.
func (s *LedgerService) Sync(ctx context.Context) error {
	ts, err := s.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	if err := s.repo.SaveAll(ctx, ts); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	slog.InfoContext(ctx, "Ledger synced", "count", len(ts))
	s.publish(ctx, amqp.NewReplacedEvent(s.ownerID(), len(ts)))
	return nil
}

// SkippedLines returns the 1-based line numbers the backing file could not
// decode when it was opened. It is empty for stores that cannot skip.
func (s *LedgerService) SkippedLines() []int {
	lr, ok := s.repo.(loadReporter)
	if !ok {
		return nil
	}
	_, _, lines := lr.LoadResult()
	return lines
}

func (s *LedgerService) ownerID() core.OwnerID {
	if s.owner == nil {
		return 0
	}
	id, _ := s.owner.Current()
	return id
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.TransactionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"event_id", event.ID,
			"type", event.Type,
			"error", err)
		// The mutation is already stored.
	}
}

// Close releases the event publisher and every registered resource.
func (s *LedgerService) Close() error {
	var errs []error

	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}

	return nil
}
