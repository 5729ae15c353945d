package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"kassabok/internal/amqp"
	"kassabok/internal/core"
	"kassabok/internal/report"
	"kassabok/internal/repository"
	"kassabok/internal/session"
	"kassabok/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingPublisher struct {
	events []*amqp.TransactionEvent
	err    error
	closed bool
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, e *amqp.TransactionEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newFileService(t *testing.T, opts ...Option) *LedgerService {
	t.Helper()
	repo, err := repository.NewFileRepository(filepath.Join(t.TempDir(), "ledger.csv"), discard)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	return NewLedgerService(repo, opts...)
}

func TestLedgerService_AddAndReport(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newFileService(t, WithEvents(pub))

	if _, err := svc.AddTransaction(ctx, core.NewDate(2024, time.March, 1), 1000, "Salary"); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if _, err := svc.AddTransaction(ctx, core.NewDate(2024, time.March, 15), -200, "Groceries"); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	march, err := report.Month(2024, time.March)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := svc.Summary(ctx, march)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Income != 1000 || summary.Expenses != 200 || summary.Net != 800 {
		t.Errorf("Summary() = %+v, want 1000/200/800", summary)
	}

	balance, err := svc.Balance(ctx)
	if err != nil || balance != 800 {
		t.Errorf("Balance() = %v, %v; want 800", balance, err)
	}

	n, err := svc.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("Count() = %v, %v; want 2", n, err)
	}

	if len(pub.events) != 2 || pub.events[0].Type != amqp.EventSaved {
		t.Fatalf("expected 2 saved events, got %+v", pub.events)
	}
	if pub.events[1].Handle != "#1" {
		t.Errorf("second event handle = %q, want #1", pub.events[1].Handle)
	}
}

func TestLedgerService_RejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newFileService(t, WithEvents(pub))

	future := core.DateOf(time.Now().AddDate(0, 0, 2))
	if _, err := svc.AddTransaction(ctx, future, 10, "tomorrow"); !errors.Is(err, core.ErrFutureDate) {
		t.Errorf("AddTransaction(future) error = %v, want ErrFutureDate", err)
	}
	if _, err := svc.AddTransaction(ctx, core.Date{}, 10, "undated"); !errors.Is(err, core.ErrMissingDate) {
		t.Errorf("AddTransaction(no date) error = %v, want ErrMissingDate", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("no events expected, got %d", len(pub.events))
	}
}

func TestLedgerService_PublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newFileService(t, WithEvents(pub))

	saved, err := svc.AddTransaction(ctx, core.NewDate(2024, time.January, 2), -5, "Coffee")
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	removed, err := svc.RemoveTransaction(ctx, saved.Handle())
	if err != nil || !removed {
		t.Fatalf("RemoveTransaction() = %v, %v", removed, err)
	}
	if len(pub.events) != 2 || pub.events[1].Type != amqp.EventDeleted {
		t.Errorf("expected saved+deleted events, got %+v", pub.events)
	}
}

func TestLedgerService_RemoveMissing(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newFileService(t, WithEvents(pub))

	removed, err := svc.RemoveTransaction(context.Background(), core.PositionHandle(3))
	if err != nil || removed {
		t.Errorf("RemoveTransaction() = %v, %v; want false, nil", removed, err)
	}
	if len(pub.events) != 0 {
		t.Errorf("no events expected, got %d", len(pub.events))
	}
}

func TestLedgerService_ScopedOwner(t *testing.T) {
	ctx := context.Background()
	db, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	owner, err := db.CreateOwner(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("CreateOwner() error = %v", err)
	}

	sess := session.New()
	pub := &recordingPublisher{}
	repo := repository.NewScoped(repository.NewOwnerRepository(db, discard), sess)
	svc := NewLedgerService(repo, WithEvents(pub), WithOwner(sess), WithCloser(db))

	// Logged out: nothing stored, nothing published.
	saved, err := svc.AddTransaction(ctx, core.NewDate(2024, time.May, 1), 10, "ghost")
	if err != nil || !saved.Handle().IsZero() {
		t.Fatalf("AddTransaction() logged out = %v, %v", saved, err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no events expected while logged out")
	}

	sess.Login(owner)
	saved, err = svc.AddTransaction(ctx, core.NewDate(2024, time.May, 1), 10, "real")
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if _, ok := saved.Handle().Key(); !ok {
		t.Errorf("expected durable handle, got %q", saved.Handle())
	}
	if len(pub.events) != 1 || pub.events[0].OwnerID != int64(owner.ID) {
		t.Fatalf("expected one event for owner %d, got %+v", owner.ID, pub.events)
	}

	if err := svc.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if got := pub.events[len(pub.events)-1]; got.Type != amqp.EventReplaced || got.Count != 1 {
		t.Errorf("last event = %+v, want replaced/1", got)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !pub.closed {
		t.Error("Close() should close the publisher")
	}
}

func TestLedgerService_Breakdown(t *testing.T) {
	ctx := context.Background()
	svc := newFileService(t)

	for _, tc := range []struct {
		m      time.Month
		amount float64
	}{{time.January, 100}, {time.January, -30}, {time.June, -20}} {
		if _, err := svc.AddTransaction(ctx, core.NewDate(2023, tc.m, 10), tc.amount, ""); err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
	}

	months, err := svc.Breakdown(ctx, 2023)
	if err != nil {
		t.Fatalf("Breakdown() error = %v", err)
	}
	if months[0].Net != 70 || months[5].Expenses != 20 {
		t.Errorf("Breakdown() = %+v", months)
	}
}

func TestLedgerService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &LedgerService{}

		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})

	t.Run("aggregates errors", func(t *testing.T) {
		boom := errors.New("boom")
		service := NewLedgerService(nil, WithCloser(closerFunc(func() error { return boom })))

		err := service.Close()
		if !errors.Is(err, boom) {
			t.Fatalf("Close() error = %v, want wrapped boom", err)
		}
	})
}

func TestLedgerService_SkippedLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := os.WriteFile(path, []byte("2024-03-01;1000;Salary\nnot a record\n2024-03-02;x;bad amount\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	repo, err := repository.NewFileRepository(path, discard)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	svc := NewLedgerService(repo)

	if got := svc.SkippedLines(); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("SkippedLines() = %v, want [2 3]", got)
	}
	if n, _ := svc.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	db, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "kassabok.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	defer db.Close()
	scoped := repository.NewScoped(repository.NewOwnerRepository(db, discard), session.None)
	if got := NewLedgerService(scoped).SkippedLines(); len(got) != 0 {
		t.Errorf("SkippedLines() = %v for a relational store, want none", got)
	}
}
