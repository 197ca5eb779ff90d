package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/roomie/internal/adapter/remote"
	"github.com/neomorfeo/roomie/internal/adapter/xlsx"
)

func exportCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records to files",
	}
	cmd.AddCommand(exportPaymentsCmd(load))
	return cmd
}

func exportPaymentsCmd(load loader) *cobra.Command {
	var apiURL, out, email, password string

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Write the payment ledger to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if email == "" {
				email = os.Getenv("ROOMIE_EMAIL")
			}
			if password == "" {
				password = os.Getenv("ROOMIE_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("sign-in required: pass --email and --password or set ROOMIE_EMAIL and ROOMIE_PASSWORD")
			}

			ctx := cmd.Context()
			logger := cfg.Logger(cmd.ErrOrStderr())
			client := remote.NewClient(cfg.APIURL, cfg.HTTPTimeout)
			idp := remote.NewIdentityProvider(client, 0, logger)
			defer idp.Close()

			if _, err := idp.SignInWithPassword(ctx, email, password); err != nil {
				return errors.New("sign-in failed: check the email and password")
			}
			defer func() {
				if err := idp.SignOut(ctx); err != nil {
					logger.WarnContext(ctx, "sign out failed", "error", err)
				}
			}()

			payments, err := remote.NewPaymentRepository(client).List(ctx)
			if err != nil {
				return fmt.Errorf("listing payments: %w", err)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := xlsx.WriteLedger(f, payments); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", out, err)
			}

			logger.InfoContext(ctx, "ledger exported", "path", out, "payments", len(payments))
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (overrides ROOMIE_API_URL)")
	cmd.Flags().StringVarP(&out, "out", "o", "ledger.xlsx", "output file")
	cmd.Flags().StringVar(&email, "email", "", "operator email (default $ROOMIE_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "operator password (default $ROOMIE_PASSWORD)")
	return cmd
}
