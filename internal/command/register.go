package command

import (
	"errors"

	"github.com/spf13/cobra"

	"kassabok/internal/auth"
	"kassabok/internal/log"
)

// NewRegisterCommand creates the register command.
func NewRegisterCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <username>",
		Short: "Create an owner account (sqlite backend)",
		Long:  "Create an owner account in the SQLite database. The password is taken from --password and must have at least 8 characters.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, cleanup, err := opts.open(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			if !res.RequiresLogin() {
				return NewExitError(ExitCommandError, "register needs --backend sqlite")
			}

			owner, err := res.Auth.Register(ctx, args[0], opts.Password)
			if errors.Is(err, auth.ErrWeakPassword) || errors.Is(err, auth.ErrUsernameTaken) || errors.Is(err, auth.ErrEmptyUsername) {
				return WrapExitError(ExitCommandError, "cannot register", err)
			}
			if err != nil {
				return err
			}

			opts.logger.InfoContext(ctx, "Owner registered",
				log.FieldOperation, log.OpRegister,
				log.FieldOwnerID, owner.ID)

			return opts.formatter(cmd).Message("Registered %s", owner.Username)
		},
	}
}
