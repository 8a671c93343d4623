// Package app wires configuration, storage, services, and transports into a
// running server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bradenmacdonald/ratio/internal/adapter/postgres"
	budgetrepo "github.com/bradenmacdonald/ratio/internal/adapter/postgres/budget"
	userrepo "github.com/bradenmacdonald/ratio/internal/adapter/postgres/user"
	"github.com/bradenmacdonald/ratio/internal/auth"
	"github.com/bradenmacdonald/ratio/internal/config"
	"github.com/bradenmacdonald/ratio/internal/notify"
	authsvc "github.com/bradenmacdonald/ratio/internal/service/auth"
	budgetsvc "github.com/bradenmacdonald/ratio/internal/service/budget"
	"github.com/bradenmacdonald/ratio/internal/transport/middleware"
	"github.com/bradenmacdonald/ratio/internal/transport/rest"
	"github.com/bradenmacdonald/ratio/internal/transport/ws"
)

// Run is the server entry point. It loads configuration, connects to the
// database, applies migrations, and serves until ctx is canceled, then shuts
// down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting ratio server",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
		return err
	}

	users := userrepo.New(pool)
	budgets := budgetrepo.New(pool)
	tx := postgres.NewTxManager(pool)

	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	authService := authsvc.NewService(logger, users, jwt, cfg.Auth)

	broker := notify.NewPostgresBroker(pool, cfg.Database.DSN, logger)
	budgetService := budgetsvc.NewService(logger, budgets, tx, broker)

	// Actions committed by any server process fan out to local watchers
	// through the broker's LISTEN connection.
	registry := notify.NewRegistry()
	listenCtx, stopListen := context.WithCancel(ctx)
	defer stopListen()
	go func() {
		if err := broker.Listen(listenCtx, registry.Fanout); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification listener stopped", slog.Any("error", err))
		}
	}()

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	handler := newRouter(routerDeps{
		log:       logger,
		cfg:       cfg,
		auth:      rest.NewAuthHandler(authService, logger),
		budgets:   rest.NewBudgetHandler(budgetService, logger),
		health:    rest.NewHealthHandler(pool, BuildVersion()),
		rpc:       ws.NewHandler(logger, budgetService, registry, cfg.Sync),
		validator: authService,
		limiter:   limiter,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     handler,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	logger.Info("http server listening", slog.String("addr", srv.Addr))

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}
