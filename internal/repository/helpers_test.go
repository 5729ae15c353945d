package repository

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kassabok/internal/core"
	"kassabok/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func entry(t *testing.T, y, m, d int, amount float64, desc string) core.Transaction {
	t.Helper()
	r, err := core.NewTransaction(core.NewDate(y, time.Month(m), d), amount, desc)
	require.NoError(t, err)
	return r
}

func newFileRepo(t *testing.T) (*FileRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	repo, err := NewFileRepository(path, discard)
	require.NoError(t, err)
	return repo, path
}

func newSQLite(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	db, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "kassabok.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func descriptions(ts []core.Transaction) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Description()
	}
	return out
}
