package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"kassabok/internal/core"
	"kassabok/internal/flatfile"
)

// DefaultFileName is the ledger file created under the user's home.
const DefaultFileName = "transactions.csv"

// filePerm is the mode of a newly created ledger file.
const filePerm = 0o600

// DefaultFilePath returns ~/.kassabok/transactions.csv.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".kassabok", DefaultFileName), nil
}

// FileRepository keeps the whole ledger in memory and rewrites the backing
// file on every mutation. Handles are positions in the current sequence, so
// deleting a record shifts the positions of every later one.
type FileRepository struct {
	mu     sync.Mutex
	store  *flatfile.Store[core.Transaction]
	items  []core.Transaction
	loaded flatfile.ReadResult[core.Transaction]
	logger *slog.Logger
}

// NewFileRepository opens the ledger at path, or at DefaultFilePath when
// path is empty, and loads it into memory. Undecodable lines are skipped and
// reported by LoadResult.
func NewFileRepository(path string, logger *slog.Logger) (*FileRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		p, err := DefaultFilePath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	store, err := flatfile.New[core.Transaction](path, core.TransactionCodec{},
		flatfile.WithLogger(logger),
		flatfile.WithPerm(filePerm))
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	res, err := store.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load ledger file: %w", err)
	}

	logger.Info("Loaded ledger file",
		"path", path,
		"transactions", len(res.Items),
		"skipped", res.Skipped)

	return &FileRepository{
		store:  store,
		items:  res.Items,
		loaded: res,
		logger: logger,
	}, nil
}

// Path returns the backing file.
func (r *FileRepository) Path() string { return r.store.Path() }

// LoadResult reports what the initial load decoded and skipped.
func (r *FileRepository) LoadResult() (loaded, skipped int, lines []int) {
	return len(r.loaded.Items), r.loaded.Skipped, append([]int(nil), r.loaded.SkippedLines...)
}

// Save appends t. If the file cannot be rewritten the record stays in memory
// and the write error is returned alongside it. Undated records cannot be
// written as a line and are rejected.
func (r *FileRepository) Save(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Date().IsZero() {
		return t.WithoutHandle(), fmt.Errorf("save: %w", core.ErrMissingDate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, t.WithoutHandle())
	saved := t.WithHandle(core.PositionHandle(len(r.items) - 1))
	return saved, r.flush(ctx, "save")
}

// Delete removes the record at the position wrapped by h. Handles minted by
// another backend are rejected.
func (r *FileRepository) Delete(ctx context.Context, h core.Handle) (bool, error) {
	pos, ok := h.Position()
	if !ok {
		r.logger.DebugContext(ctx, "Rejected non-positional handle", "handle", h.String())
		return false, nil
	}
	return r.DeleteByIndex(ctx, pos)
}

// DeleteByIndex removes the record at position i. Out-of-range positions
// report false without touching the file.
func (r *FileRepository) DeleteByIndex(ctx context.Context, i int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= len(r.items) {
		return false, nil
	}
	r.items = append(r.items[:i:i], r.items[i+1:]...)
	return true, r.flush(ctx, "delete")
}

// FindAll returns every record in file order.
func (r *FileRepository) FindAll(_ context.Context) ([]core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(), nil
}

// FindByDateRange returns the records dated within [from, to], in file order.
func (r *FileRepository) FindByDateRange(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return inRange(r.snapshot(), from, to), nil
}

func (r *FileRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

// SaveAll replaces the ledger with ts. Undated records are dropped with a
// warning.
func (r *FileRepository) SaveAll(ctx context.Context, ts []core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		if t.Date().IsZero() {
			r.logger.WarnContext(ctx, "Dropping undated transaction",
				"amount", t.Amount(),
				"description", t.Description())
			continue
		}
		items = append(items, t.WithoutHandle())
	}
	r.items = items
	return r.flush(ctx, "save_all")
}

func (r *FileRepository) snapshot() []core.Transaction {
	out := make([]core.Transaction, len(r.items))
	for i, t := range r.items {
		out[i] = t.WithHandle(core.PositionHandle(i))
	}
	return out
}

func (r *FileRepository) flush(ctx context.Context, op string) error {
	if err := r.store.WriteAll(r.items); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write ledger file; memory and disk may diverge",
			"operation", op,
			"path", r.store.Path(),
			"error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
