package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	authservice "github.com/goserg/arena/auth/service"
	authsqlite "github.com/goserg/arena/auth/storage/sqlite"
)

func newOperatorCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage sign-in accounts",
	}
	cmd.AddCommand(newOperatorAddCmd(opts))
	return cmd
}

func newOperatorAddCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account that can sign in",
		Long: `Create an account. Only the account whose address matches
auth.operator_email may record matches and remove players.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := opts.load()
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.Auth.OperatorEmail
			}
			if password == "" {
				password = os.Getenv("ARENA_OPERATOR_PASSWORD")
			}
			if password == "" {
				return errors.New("--password or ARENA_OPERATOR_PASSWORD is required")
			}

			authStorage, err := authsqlite.New(l, cfg.Auth.SqliteFile)
			if err != nil {
				return err
			}
			defer authStorage.Close()
			// no seeding here, the account is created explicitly below
			cfg.Auth.OperatorPassword = ""
			authService, err := authservice.New(cmd.Context(), l, cfg.Auth, authStorage)
			if err != nil {
				return err
			}
			user, err := authService.CreateUser(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account address, defaults to auth.operator_email")
	cmd.Flags().StringVar(&password, "password", "", "account password (env: ARENA_OPERATOR_PASSWORD)")
	return cmd
}
