package repository

import (
	"context"
	"fmt"
	"log/slog"

	"kassabok/internal/core"
)

// TransactionStore is the owner-scoped relational store.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, owner core.OwnerID, t core.Transaction) (int64, error)
	DeleteTransaction(ctx context.Context, owner core.OwnerID, id int64) (bool, error)
	ListTransactions(ctx context.Context, owner core.OwnerID) ([]core.Transaction, error)
	ListTransactionsBetween(ctx context.Context, owner core.OwnerID, from, to core.Date) ([]core.Transaction, error)
	CountTransactions(ctx context.Context, owner core.OwnerID) (int, error)
	ReplaceTransactions(ctx context.Context, owner core.OwnerID, ts []core.Transaction) error
}

// OwnerRepository reads and writes through to the relational store on every
// call. Its owner-agnostic facade methods never touch another owner's data:
// writes fail with ErrUnsupported and reads come back empty.
type OwnerRepository struct {
	store  TransactionStore
	logger *slog.Logger
}

func NewOwnerRepository(store TransactionStore, logger *slog.Logger) *OwnerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnerRepository{store: store, logger: logger}
}

// SaveFor inserts t for owner and returns it carrying its durable key.
func (r *OwnerRepository) SaveFor(ctx context.Context, owner core.OwnerID, t core.Transaction) (core.Transaction, error) {
	id, err := r.store.InsertTransaction(ctx, owner, t)
	if err != nil {
		return t, fmt.Errorf("save transaction: %w", err)
	}
	return t.WithHandle(core.KeyHandle(id)), nil
}

// DeleteFor removes the record identified by h if it belongs to owner.
// Positional handles are rejected.
func (r *OwnerRepository) DeleteFor(ctx context.Context, owner core.OwnerID, h core.Handle) (bool, error) {
	id, ok := h.Key()
	if !ok {
		r.logger.DebugContext(ctx, "Rejected non-durable handle", "handle", h.String(), "owner_id", owner)
		return false, nil
	}
	removed, err := r.store.DeleteTransaction(ctx, owner, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	return removed, nil
}

func (r *OwnerRepository) FindAllFor(ctx context.Context, owner core.OwnerID) ([]core.Transaction, error) {
	ts, err := r.store.ListTransactions(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return ts, nil
}

func (r *OwnerRepository) FindByDateRangeFor(ctx context.Context, owner core.OwnerID, from, to core.Date) ([]core.Transaction, error) {
	ts, err := r.store.ListTransactionsBetween(ctx, owner, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return ts, nil
}

func (r *OwnerRepository) CountFor(ctx context.Context, owner core.OwnerID) (int, error) {
	n, err := r.store.CountTransactions(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// SaveAllFor replaces every record of owner with ts atomically.
func (r *OwnerRepository) SaveAllFor(ctx context.Context, owner core.OwnerID, ts []core.Transaction) error {
	if err := r.store.ReplaceTransactions(ctx, owner, ts); err != nil {
		return fmt.Errorf("replace transactions: %w", err)
	}
	return nil
}

// Save fails: relational rows always belong to an owner.
func (r *OwnerRepository) Save(_ context.Context, t core.Transaction) (core.Transaction, error) {
	return t, fmt.Errorf("save: %w", ErrUnsupported)
}

// SaveAll fails: relational rows always belong to an owner.
func (r *OwnerRepository) SaveAll(_ context.Context, _ []core.Transaction) error {
	return fmt.Errorf("save all: %w", ErrUnsupported)
}

func (r *OwnerRepository) Delete(ctx context.Context, h core.Handle) (bool, error) {
	r.warnUnscoped(ctx, "delete")
	return false, nil
}

func (r *OwnerRepository) FindAll(ctx context.Context) ([]core.Transaction, error) {
	r.warnUnscoped(ctx, "find_all")
	return []core.Transaction{}, nil
}

func (r *OwnerRepository) FindByDateRange(ctx context.Context, _, _ core.Date) ([]core.Transaction, error) {
	r.warnUnscoped(ctx, "find_by_date_range")
	return []core.Transaction{}, nil
}

func (r *OwnerRepository) Count(ctx context.Context) (int, error) {
	r.warnUnscoped(ctx, "count")
	return 0, nil
}

func (r *OwnerRepository) warnUnscoped(ctx context.Context, op string) {
	r.logger.WarnContext(ctx, "Owner-agnostic call on relational repository ignored", "operation", op)
}
