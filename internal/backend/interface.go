package backend

import (
	"context"
	"time"

	"kassabok/internal/auth"
	"kassabok/internal/services"
	"kassabok/internal/session"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the ledger service and the collaborators the
// selected backend needs.
type BackendResult struct {
	Type    BackendType
	Ledger  *services.LedgerService
	Session *session.Session            // nil for the file backend
	Auth    *auth.PasswordAuthenticator // nil for the file backend
	Cleanup CleanupFunc
}

// RequiresLogin reports whether the backend scopes data by owner.
func (r *BackendResult) RequiresLogin() bool {
	return r.Session != nil
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// File specific
	LedgerFile string

	// SQLite specific
	SQLiteDBPath      string
	SQLiteBusyTimeout time.Duration

	// Change events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
