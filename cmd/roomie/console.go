package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/roomie/internal/adapter/fsm"
	"github.com/neomorfeo/roomie/internal/adapter/otel"
	"github.com/neomorfeo/roomie/internal/adapter/remote"
	"github.com/neomorfeo/roomie/internal/app"
	"github.com/neomorfeo/roomie/internal/config"
	"github.com/neomorfeo/roomie/internal/console"
	"github.com/neomorfeo/roomie/internal/domain"
)

func consoleCmd(load loader) *cobra.Command {
	var apiURL, logFile string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the interactive operator console",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL = apiURL
			}

			// The console draws on stdout; logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			logger := cfg.Logger(logOut)

			ctx := cmd.Context()
			cfg.Telemetry.Writer = logOut
			providers, err := otel.Setup(ctx, cfg.Telemetry)
			if err != nil {
				return fmt.Errorf("otel: %w", err)
			}
			defer providers.Shutdown(ctx)

			shell, closeShell := newConsole(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			defer closeShell()
			return shell.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (overrides ROOMIE_API_URL)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file instead of discarding them")
	return cmd
}

// newConsole wires the console core to the remote API. The returned func
// releases the session poller and subscriptions.
func newConsole(cfg config.Config, in io.Reader, out io.Writer, logger *slog.Logger) (*console.Shell, func()) {
	client := remote.NewClient(cfg.APIURL, cfg.HTTPTimeout)
	idp := remote.NewIdentityProvider(client, cfg.SessionPoll, logger)

	sessions := app.NewSessionStore(otel.NewTracingIdentityProvider(idp), fsm.New(), logger)
	router := app.NewHistory(domain.DefaultPath)
	nav := app.NewNavigator(sessions, router)
	toaster := app.NewToaster()

	deps := console.Deps{
		Sessions:  sessions,
		Router:    router,
		Navigator: nav,
		Toaster:   toaster,
		Tenants: app.NewController(app.TenantKind,
			otel.NewTracingRepository[domain.Tenant, domain.TenantValues](domain.KindTenant, remote.NewTenantRepository(client)),
			sessions, toaster, logger),
		Rooms: app.NewController(app.RoomKind,
			otel.NewTracingRepository[domain.Room, domain.RoomValues](domain.KindRoom, remote.NewRoomRepository(client)),
			sessions, toaster, logger),
		Payments: app.NewController(app.PaymentKind,
			otel.NewTracingRepository[domain.Payment, domain.PaymentValues](domain.KindPayment, remote.NewPaymentRepository(client)),
			sessions, toaster, logger),
	}

	closeAll := func() {
		nav.Close()
		sessions.Close()
		idp.Close()
	}
	return console.New(deps, in, out, logger), closeAll
}
