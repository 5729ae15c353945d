package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlite3 "modernc.org/sqlite/lib"

	"kassabok/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "kassabok.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newOwner(t *testing.T, repo *SQLiteRepository, name string) core.OwnerID {
	t.Helper()
	o, err := repo.CreateOwner(context.Background(), name, "hash-"+name)
	require.NoError(t, err)
	return o.ID
}

func entry(t *testing.T, y, m, d int, amount float64, desc string) core.Transaction {
	t.Helper()
	r, err := core.NewTransaction(core.NewDate(y, time.Month(m), d), amount, desc)
	require.NoError(t, err)
	return r
}

func TestConfigDSN(t *testing.T) {
	dsn := Config{Path: "/tmp/x.db"}.DSN()
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "_pragma=foreign_keys(1)")
	assert.Contains(t, dsn, "_pragma=busy_timeout(5000)")

	dsn = Config{Path: "/tmp/x.db", BusyTimeout: 250 * time.Millisecond}.DSN()
	assert.Contains(t, dsn, "busy_timeout(250)")
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorIs(t, err, ErrStorage)
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kassabok.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	version, dirty, err := SchemaVersion(Config{Path: path}.DSN())
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	// Reopening an up-to-date database is a no-op.
	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}

func TestCreateOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	o, err := repo.CreateOwner(ctx, "alice", "h1")
	require.NoError(t, err)
	assert.Positive(t, int64(o.ID))
	assert.Equal(t, "alice", o.Username)
	assert.Equal(t, "h1", o.PasswordHash)

	_, err = repo.CreateOwner(ctx, "alice", "h2")
	assert.ErrorIs(t, err, ErrDuplicateOwner)

	got, ok, err := repo.OwnerByName(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, o.ID, got.ID)

	_, ok, err = repo.OwnerByName(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.OwnerByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUnknownOwner)
}

func TestInsertAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := newOwner(t, repo, "alice")

	id1, err := repo.InsertTransaction(ctx, owner, entry(t, 2024, 3, 5, 1000, "Salary"))
	require.NoError(t, err)
	id2, err := repo.InsertTransaction(ctx, owner, entry(t, 2024, 3, 1, -200, "Groceries"))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	got, err := repo.ListTransactions(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Insertion order, not date order.
	assert.Equal(t, "Salary", got[0].Description())
	assert.Equal(t, "Groceries", got[1].Description())
	assert.Equal(t, -200.0, got[1].Amount())
	assert.True(t, got[1].Date().Equal(core.NewDate(2024, time.March, 1)))

	key, ok := got[0].Handle().Key()
	require.True(t, ok)
	assert.Equal(t, id1, key)
}

func TestInsertUnknownOwner(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.InsertTransaction(context.Background(), 42, entry(t, 2024, 1, 1, 10, "x"))
	assert.ErrorIs(t, err, ErrUnknownOwner)
}

func TestOwnerIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := newOwner(t, repo, "alice")
	bob := newOwner(t, repo, "bob")

	id, err := repo.InsertTransaction(ctx, alice, entry(t, 2024, 3, 5, 1000, "Salary"))
	require.NoError(t, err)
	_, err = repo.InsertTransaction(ctx, bob, entry(t, 2024, 3, 6, -5, "Coffee"))
	require.NoError(t, err)

	n, err := repo.CountTransactions(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Bob cannot delete Alice's row.
	removed, err := repo.DeleteTransaction(ctx, bob, id)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.DeleteTransaction(ctx, alice, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteTransaction(ctx, alice, id)
	require.NoError(t, err)
	assert.False(t, removed)

	bobs, err := repo.ListTransactions(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, "Coffee", bobs[0].Description())
}

func TestListBetween(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := newOwner(t, repo, "alice")

	for _, tr := range []core.Transaction{
		entry(t, 2024, 3, 31, -1, "last"),
		entry(t, 2024, 2, 29, -2, "before"),
		entry(t, 2024, 3, 1, -3, "first"),
		entry(t, 2024, 4, 1, -4, "after"),
	} {
		_, err := repo.InsertTransaction(ctx, owner, tr)
		require.NoError(t, err)
	}

	got, err := repo.ListTransactionsBetween(ctx, owner,
		core.NewDate(2024, time.March, 1), core.NewDate(2024, time.March, 31))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Description())
	assert.Equal(t, "last", got[1].Description())

	got, err = repo.ListTransactionsBetween(ctx, owner,
		core.NewDate(2025, time.January, 1), core.NewDate(2025, time.December, 31))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestLegacyRowWithoutDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := newOwner(t, repo, "alice")

	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO transactions (owner_id, type, amount, description) VALUES (?, 'EXPENSE', -3.5, 'old')",
		int64(owner))
	require.NoError(t, err)

	got, err := repo.ListTransactions(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Date().IsZero())
	assert.Equal(t, -3.5, got[0].Amount())

	between, err := repo.ListTransactionsBetween(ctx, owner,
		core.NewDate(1900, time.January, 1), core.NewDate(2999, time.December, 31))
	require.NoError(t, err)
	assert.Empty(t, between)
}

func TestStoredKind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := newOwner(t, repo, "alice")

	for _, amount := range []float64{10, 0, -10} {
		_, err := repo.InsertTransaction(ctx, owner, entry(t, 2024, 1, 1, amount, ""))
		require.NoError(t, err)
	}

	rows, err := repo.db.QueryContext(ctx, "SELECT type FROM transactions ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var kinds []string
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		kinds = append(kinds, k)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{core.KindIncome, core.KindIncome, core.KindExpense}, kinds)
}

func TestReplaceTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := newOwner(t, repo, "alice")
	bob := newOwner(t, repo, "bob")

	_, err := repo.InsertTransaction(ctx, alice, entry(t, 2024, 1, 1, 1, "old"))
	require.NoError(t, err)
	_, err = repo.InsertTransaction(ctx, bob, entry(t, 2024, 1, 1, 1, "bob's"))
	require.NoError(t, err)

	err = repo.ReplaceTransactions(ctx, alice, []core.Transaction{
		entry(t, 2024, 2, 1, 5, "a"),
		entry(t, 2024, 2, 2, -5, "b"),
	})
	require.NoError(t, err)

	got, err := repo.ListTransactions(ctx, alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Description())
	assert.Equal(t, "b", got[1].Description())

	n, err := repo.CountTransactions(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.ReplaceTransactions(ctx, alice, nil))
	n, err = repo.CountTransactions(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReplaceUnknownOwnerRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.ReplaceTransactions(context.Background(), 7, []core.Transaction{entry(t, 2024, 1, 1, 1, "x")})
	assert.ErrorIs(t, err, ErrUnknownOwner)
}

func TestDeletingOwnerCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := newOwner(t, repo, "alice")
	_, err := repo.InsertTransaction(ctx, owner, entry(t, 2024, 1, 1, 1, "x"))
	require.NoError(t, err)

	_, err = repo.db.ExecContext(ctx, "DELETE FROM owners WHERE id = ?", int64(owner))
	require.NoError(t, err)

	var n int
	require.NoError(t, repo.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&n))
	assert.Zero(t, n)
}

func TestIsConstraint(t *testing.T) {
	unique := fmt.Errorf("insert owner: %w", errors.New("constraint failed: UNIQUE constraint failed: owners.username (2067)"))

	assert.True(t, isConstraint(unique, sqlite3.SQLITE_CONSTRAINT_UNIQUE))
	assert.False(t, isConstraint(unique, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY))
	assert.False(t, isConstraint(errors.New("disk I/O error"), sqlite3.SQLITE_CONSTRAINT_UNIQUE))
	assert.False(t, isConstraint(unique, sqlite3.SQLITE_CONSTRAINT_CHECK), "codes without a known message never match by text")
	assert.False(t, isConstraint(nil, sqlite3.SQLITE_CONSTRAINT_CHECK))
}
