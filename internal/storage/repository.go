package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"kassabok/internal/core"
)

var (
	// ErrStorage wraps failures of the underlying database.
	ErrStorage = errors.New("relational storage failure")
	// ErrDuplicateOwner is returned when a username is already registered.
	ErrDuplicateOwner = errors.New("owner already exists")
	// ErrUnknownOwner is returned when a row would reference a missing owner.
	ErrUnknownOwner = errors.New("owner does not exist")
)

// Config describes one database. Each repository gets its own Config, so
// tests and tools can open several databases side by side.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// DSN renders the modernc.org/sqlite connection string. Pragmas are set per
// connection so every pooled connection enforces foreign keys.
func (c Config) DSN() string {
	timeout := c.BusyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		c.Path, timeout.Milliseconds())
}

// SQLiteRepository is the owner-scoped relational store.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at dbPath with default settings.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	return Open(Config{Path: dbPath})
}

// Open creates the parent directory, opens the database and applies the
// embedded migrations.
func Open(cfg Config) (*SQLiteRepository, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrStorage)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := cfg.DSN()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateOwner inserts a new owner. A taken username yields ErrDuplicateOwner.
func (r *SQLiteRepository) CreateOwner(ctx context.Context, username, passwordHash string) (core.Owner, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO owners (username, password_hash) VALUES (?, ?)",
		username, passwordHash)
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE) {
			return core.Owner{}, fmt.Errorf("%w: %s", ErrDuplicateOwner, username)
		}
		return core.Owner{}, fmt.Errorf("%w: create owner: %v", ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Owner{}, fmt.Errorf("%w: owner id: %v", ErrStorage, err)
	}

	slog.InfoContext(ctx, "Owner created", "owner_id", id, "username", username)

	return r.OwnerByID(ctx, core.OwnerID(id))
}

// OwnerByName returns the owner with the given username. The boolean is
// false when no such owner exists.
func (r *SQLiteRepository) OwnerByName(ctx context.Context, username string) (core.Owner, bool, error) {
	return r.queryOwner(ctx, "SELECT id, username, password_hash, created_at FROM owners WHERE username = ?", username)
}

// OwnerByID returns the owner with the given id.
func (r *SQLiteRepository) OwnerByID(ctx context.Context, id core.OwnerID) (core.Owner, error) {
	o, ok, err := r.queryOwner(ctx, "SELECT id, username, password_hash, created_at FROM owners WHERE id = ?", int64(id))
	if err != nil {
		return core.Owner{}, err
	}
	if !ok {
		return core.Owner{}, fmt.Errorf("%w: id %d", ErrUnknownOwner, id)
	}
	return o, nil
}

func (r *SQLiteRepository) queryOwner(ctx context.Context, query string, arg any) (core.Owner, bool, error) {
	var (
		o  core.Owner
		id int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&id, &o.Username, &o.PasswordHash, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Owner{}, false, nil
	}
	if err != nil {
		return core.Owner{}, false, fmt.Errorf("%w: get owner: %v", ErrStorage, err)
	}
	o.ID = core.OwnerID(id)
	return o, true, nil
}

// InsertTransaction stores t for owner and returns the new surrogate key.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, owner core.OwnerID, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertTransactionSQL, insertArgs(owner, t)...)
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return 0, fmt.Errorf("%w: id %d", ErrUnknownOwner, owner)
		}
		return 0, fmt.Errorf("%w: insert transaction: %v", ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: transaction id: %v", ErrStorage, err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"owner_id", owner,
		"date", t.Date().String(),
		"amount", t.Amount())

	return id, nil
}

// DeleteTransaction removes the row with the given key if it belongs to
// owner. It reports whether a row was removed.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, owner core.OwnerID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND owner_id = ?", id, int64(owner))
	if err != nil {
		return false, fmt.Errorf("%w: delete transaction: %v", ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrStorage, err)
	}
	return n > 0, nil
}

// ListTransactions returns the owner's rows in insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, owner core.OwnerID) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		"SELECT id, date, amount, description FROM transactions WHERE owner_id = ? ORDER BY created_at, id",
		int64(owner))
}

// ListTransactionsBetween returns the owner's rows dated within [from, to],
// ordered by date.
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, owner core.OwnerID, from, to core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		"SELECT id, date, amount, description FROM transactions WHERE owner_id = ? AND date BETWEEN ? AND ? ORDER BY date, id",
		int64(owner), from.String(), to.String())
}

// CountTransactions returns the number of rows stored for owner.
func (r *SQLiteRepository) CountTransactions(ctx context.Context, owner core.OwnerID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE owner_id = ?", int64(owner)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count transactions: %v", ErrStorage, err)
	}
	return n, nil
}

// ReplaceTransactions deletes every row of owner and inserts ts, in one
// database transaction.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, owner core.OwnerID, ts []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE owner_id = ?", int64(owner)); err != nil {
		return fmt.Errorf("%w: clear transactions: %v", ErrStorage, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertTransactionSQL)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ErrStorage, err)
	}
	defer stmt.Close()

	for _, t := range ts {
		if _, err := stmt.ExecContext(ctx, insertArgs(owner, t)...); err != nil {
			if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
				return fmt.Errorf("%w: id %d", ErrUnknownOwner, owner)
			}
			return fmt.Errorf("%w: insert transaction: %v", ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}

	slog.InfoContext(ctx, "Transactions replaced", "owner_id", owner, "count", len(ts))
	return nil
}

const insertTransactionSQL = `INSERT INTO transactions (owner_id, type, amount, description, created_at, date)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, ?)`

func insertArgs(owner core.OwnerID, t core.Transaction) []any {
	var date any
	if !t.Date().IsZero() {
		date = t.Date().String()
	}
	return []any{int64(owner), t.Kind(), t.Amount(), t.Description(), date}
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query transactions: %v", ErrStorage, err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			id     int64
			date   sql.NullString
			amount float64
			desc   string
		)
		if err := rows.Scan(&id, &date, &amount, &desc); err != nil {
			return nil, fmt.Errorf("%w: scan transaction: %v", ErrStorage, err)
		}

		var d core.Date
		if date.Valid {
			parsed, err := core.ParseDate(date.String)
			if err != nil {
				slog.WarnContext(ctx, "Transaction has unreadable date", "id", id, "date", date.String)
			} else {
				d = parsed
			}
		}
		out = append(out, core.RestoreTransaction(d, amount, desc, core.KeyHandle(id)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", ErrStorage, err)
	}
	return out, nil
}

var constraintMessages = map[int]string{
	sqlite3.SQLITE_CONSTRAINT_UNIQUE:     "UNIQUE constraint failed",
	sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY: "FOREIGN KEY constraint failed",
}

func isConstraint(err error, code int) bool {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == code {
		return true
	}
	msg, ok := constraintMessages[code]
	return ok && err != nil && strings.Contains(err.Error(), msg)
}
