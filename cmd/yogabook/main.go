package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/yogabook/internal/auth"
	"github.com/dukerupert/yogabook/internal/config"
	"github.com/dukerupert/yogabook/internal/database"
	"github.com/dukerupert/yogabook/internal/logging"
	"github.com/dukerupert/yogabook/internal/server"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tokens, closeTokens, err := newTokenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeTokens()

	srv, err := server.New(db, auth.NewGate(tokens), server.Options{
		BcryptCost:    cfg.BcryptCost,
		SecureCookies: cfg.SecureCookies,
	}, logger)
	if err != nil {
		return err
	}

	admin, created, err := srv.UserStore().EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Info("admin account created", "user_id", admin.ID, "email", admin.Email)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("yogabook listening", "addr", httpServer.Addr, "db", cfg.DBPath, "token_store", cfg.TokenStore)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newTokenStore(cfg config.Config, logger *slog.Logger) (auth.TokenStore, func(), error) {
	if cfg.TokenStore != config.TokenStoreRedis {
		return auth.NewMemoryTokenStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := auth.NewRedisTokenStore(client)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("redis token store connected", "addr", cfg.RedisAddr, "db", cfg.RedisDB)

	return store, func() { client.Close() }, nil
}
