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

	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/routable/internal/config"
	"github.com/MrJamesThe3rd/routable/internal/database"
	routableHttp "github.com/MrJamesThe3rd/routable/internal/http"
	"github.com/MrJamesThe3rd/routable/internal/http/auth"
	itemHandler "github.com/MrJamesThe3rd/routable/internal/http/item"
	"github.com/MrJamesThe3rd/routable/internal/http/metrics"
	txHandler "github.com/MrJamesThe3rd/routable/internal/http/transaction"
	"github.com/MrJamesThe3rd/routable/internal/importer"
	"github.com/MrJamesThe3rd/routable/internal/item"
	itemStore "github.com/MrJamesThe3rd/routable/internal/item/store"
	"github.com/MrJamesThe3rd/routable/internal/lock"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
	txStore "github.com/MrJamesThe3rd/routable/internal/transaction/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.App.LogLevel})))

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(db, cfg.DB.Name); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	var txOpts []transaction.Option

	if cfg.Lock.Backend == config.LockBackendRedis {
		client := redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
		defer client.Close()

		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.Lock.RedisAddr, "error", err)
			os.Exit(1)
		}

		lockOpts := lock.DefaultOptions()
		lockOpts.Expiry = cfg.Lock.Expiry

		txOpts = append(txOpts, transaction.WithLocker(lock.NewRedis(client, lockOpts)))
	}

	var (
		itemService        = item.NewService(itemStore.New(db))
		transactionService = transaction.NewService(txStore.New(db), txOpts...)
		importService      = importer.NewService()
	)

	var (
		itemH = itemHandler.NewHandler(itemService, transactionService, importService)
		txH   = txHandler.NewHandler(transactionService)
	)

	opts := routableHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        metrics.New(),
	}

	if cfg.Admin.JWTSecret != "" {
		opts.Admin = auth.New(cfg.Admin.JWTSecret)
	} else {
		slog.Warn("ADMIN_JWT_SECRET not set, admin routes disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           routableHttp.New(itemH, txH, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "lock_backend", cfg.Lock.Backend)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
}
