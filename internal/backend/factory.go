package backend

import (
	"context"
	"fmt"

	"kassabok/internal/amqp"
	"kassabok/internal/auth"
	"kassabok/internal/log"
	"kassabok/internal/repository"
	"kassabok/internal/services"
	"kassabok/internal/session"
	"kassabok/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := repository.NewFileRepository(config.LedgerFile, f.logger.WithComponent(log.ComponentRepository).Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger file: %w", err)
	}

	opts := f.eventOptions(ctx, config)
	ledger := services.NewLedgerService(repo, opts...)

	f.logger.InfoContext(ctx, "Initialized file backend", log.FieldPath, repo.Path())

	return &BackendResult{
		Type:    FileBackend,
		Ledger:  ledger,
		Cleanup: ledger.Close,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	// Initialize SQLite repository
	db, err := storage.Open(storage.Config{
		Path:        config.SQLiteDBPath,
		BusyTimeout: config.SQLiteBusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	sess := session.New()
	owners := repository.NewOwnerRepository(db, f.logger.WithComponent(log.ComponentRepository).Logger)

	opts := append(f.eventOptions(ctx, config), services.WithOwner(sess), services.WithCloser(db))
	ledger := services.NewLedgerService(repository.NewScoped(owners, sess), opts...)

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		log.FieldPath, config.SQLiteDBPath,
		"amqp_enabled", config.AMQPURL != "")

	return &BackendResult{
		Type:    SQLiteBackend,
		Ledger:  ledger,
		Session: sess,
		Auth:    auth.NewPasswordAuthenticator(db),
		Cleanup: ledger.Close,
	}, nil
}

// eventOptions connects the optional change-event publisher. A broker that
// cannot be reached disables events rather than failing the backend.
func (f *DefaultFactory) eventOptions(ctx context.Context, config Config) []services.Option {
	if config.AMQPURL == "" {
		return nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}

	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	return []services.Option{services.WithEvents(client)}
}
