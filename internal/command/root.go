// Package command implements the kassabok command line.
package command

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"kassabok/internal/backend"
	"kassabok/internal/config"
	"kassabok/internal/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Backend  string
	File     string
	DB       string
	User     string
	Password string
	Format   string // "text" | "json"

	cfg     *config.Config
	factory backend.Factory
	logger  *log.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. Flag defaults come from cfg.
func NewRootCommand(cfg *config.Config, factory backend.Factory, logger *log.Logger) *cobra.Command {
	if logger == nil {
		logger = log.Discard()
	}
	opts := &RootOptions{
		cfg:     cfg,
		factory: factory,
		logger:  logger.WithComponent(log.ComponentCLI),
	}

	cmd := &cobra.Command{
		Use:   "kassabok",
		Short: "kassabok - a personal ledger",
		Long: `Record dated income and expenses and report on them by year, month,
aligned week or day. Data lives in a flat file or in an owner-scoped
SQLite database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !backend.BackendType(opts.Backend).IsValid() {
				return fmt.Errorf("invalid backend %q: must be one of %v", opts.Backend, backend.GetBackendTypeStrings())
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", cfg.DataBackend, "storage backend (file|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.File, "file", cfg.LedgerFile, "ledger file for the file backend")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", cfg.SQLiteDBPath, "database for the sqlite backend")
	cmd.PersistentFlags().StringVarP(&opts.User, "user", "u", "", "username for the sqlite backend")
	cmd.PersistentFlags().StringVarP(&opts.Password, "password", "p", "", "password for the sqlite backend")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))

	return cmd
}

func (o *RootOptions) backendConfig() (backend.Config, error) {
	bc, err := backend.FromAppConfig(o.cfg)
	if err != nil {
		return backend.Config{}, err
	}
	bc.Type = backend.BackendType(o.Backend)
	bc.LedgerFile = o.File
	bc.SQLiteDBPath = o.DB
	return bc, nil
}

// open creates the configured backend and, for the sqlite backend, logs in
// with --user and --password. The caller must run the returned cleanup.
func (o *RootOptions) open(ctx context.Context, login bool) (*backend.BackendResult, func(), error) {
	bc, err := o.backendConfig()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	res, err := o.factory.CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "cannot open ledger", err)
	}
	cleanup := func() {
		if res.Cleanup == nil {
			return
		}
		if err := res.Cleanup(); err != nil {
			o.logger.WarnContext(ctx, "Cleanup failed", log.FieldError, err)
		}
	}

	if login && res.RequiresLogin() {
		if o.User == "" {
			cleanup()
			return nil, nil, NewExitError(ExitCommandError, "the sqlite backend needs --user and --password")
		}
		owner, err := res.Auth.Authenticate(ctx, o.User, o.Password)
		if err != nil {
			cleanup()
			o.logger.WarnContext(ctx, "Login failed", log.FieldOperation, log.OpLogin, "username", o.User)
			return nil, nil, WrapExitError(ExitFailure, "login failed", err)
		}
		res.Session.Login(owner)
		o.logger.DebugContext(ctx, "Logged in", log.FieldOwnerID, owner.ID)
	}

	return res, cleanup, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format: o.Format,
		Writer: cmd.OutOrStdout(),
	}
}
