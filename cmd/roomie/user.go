package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/roomie/internal/adapter/sqlite"
	"github.com/neomorfeo/roomie/internal/app"
)

func userCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage operator accounts",
	}
	cmd.AddCommand(userAddCmd(load))
	return cmd
}

func userAddCmd(load loader) *cobra.Command {
	var email, password, dbPath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an operator who can sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DatabasePath = dbPath
			}

			store, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer store.Close()

			// Registration does not issue tokens.
			auth := app.NewAuthService(store.Accounts(), nil, cfg.SessionTTL)
			account, err := auth.Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", account.Email, account.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "operator email")
	cmd.Flags().StringVar(&password, "password", "", "operator password")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DATABASE_PATH)")
	return cmd
}
