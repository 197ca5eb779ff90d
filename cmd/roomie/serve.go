package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/spf13/cobra"

	"github.com/neomorfeo/roomie/internal/adapter/otel"
	"github.com/neomorfeo/roomie/internal/adapter/river"
	"github.com/neomorfeo/roomie/internal/adapter/sqlite"
	"github.com/neomorfeo/roomie/internal/adapter/token"
	"github.com/neomorfeo/roomie/internal/app"
	"github.com/neomorfeo/roomie/internal/config"
	"github.com/neomorfeo/roomie/internal/domain"

	handler "github.com/neomorfeo/roomie/internal/adapter/http"
)

func serveCmd(load loader) *cobra.Command {
	var port, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the change queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("db") {
				cfg.DatabasePath = dbPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cfg.Logger(os.Stderr))
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DATABASE_PATH)")
	return cmd
}

// run serves the API until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.JWTSecret == "" {
		return errors.New("ROOMIE_JWT_SECRET must be set")
	}

	// --- Observability ---
	providers, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	issuer, err := token.NewIssuer(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	var publisher domain.ChangePublisher = &noopPublisher{logger: logger}
	if cfg.Queue {
		client, err := river.Setup(ctx, store.DB(), logger)
		if err != nil {
			return fmt.Errorf("river: %w", err)
		}
		if err := client.Start(ctx); err != nil {
			return fmt.Errorf("starting river: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Stop(stopCtx); err != nil {
				logger.Error("river shutdown", "error", err)
			}
		}()
		publisher = river.NewPublisher(client)
	}
	publisher = otel.NewTracingPublisher(publisher)

	// --- Application ---
	auth := app.NewAuthService(store.Accounts(), issuer, cfg.SessionTTL)
	services := handler.Services{
		Auth: auth,
		Tenants: app.NewRecordService(app.TenantKind,
			otel.NewTracingRepository[domain.Tenant, domain.TenantValues](domain.KindTenant, store.Tenants()),
			publisher, logger),
		Rooms: app.NewRecordService(app.RoomKind,
			otel.NewTracingRepository[domain.Room, domain.RoomValues](domain.KindRoom, store.Rooms()),
			publisher, logger),
		Payments: app.NewRecordService(app.PaymentKind,
			otel.NewTracingRepository[domain.Payment, domain.PaymentValues](domain.KindPayment, store.Payments()),
			publisher, logger),
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(cfg.Telemetry.ServiceName, otelchi.WithChiRoutes(router)))
	router.Use(handler.Authenticate(auth, logger))

	api := humachi.New(router, huma.DefaultConfig("roomie", version))
	handler.Register(api, services)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("roomie listening", "addr", srv.Addr, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// noopPublisher logs change events when the queue is disabled.
type noopPublisher struct {
	logger *slog.Logger
}

func (p *noopPublisher) Publish(ctx context.Context, event domain.ChangeEvent) error {
	p.logger.DebugContext(ctx, "record changed",
		"kind", string(event.Kind),
		"action", string(event.Action),
		"record_id", event.RecordID,
	)
	return nil
}
