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

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/roastery-portal/pkg/contentstore/api"
	"github.com/tendant/roastery-portal/pkg/contentstore/config"
	"github.com/tendant/roastery-portal/pkg/contentstore/schema"
)

// ServerEnv holds process-level settings. Store settings are read by config.WithEnv.
type ServerEnv struct {
	EnvPrefix       string        `env:"PORTAL_ENV_PREFIX" env-default:"PORTAL_"`
	APIPrefix       string        `env:"PORTAL_API_PREFIX" env-default:"/api/v1"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat       string        `env:"LOG_FORMAT" env-default:"text"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func newLogger(env ServerEnv) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(env.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if env.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.DateTime}))
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var env ServerEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}
	logger := newLogger(env)
	slog.SetDefault(logger)

	if err := run(env, logger); err != nil {
		logger.Error("Server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(env ServerEnv, logger *slog.Logger) error {
	cfg, err := config.Load(config.WithEnv(env.EnvPrefix))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()
	registry := schema.Default()
	hub := api.NewHub(logger)
	defer hub.Close()

	rt, err := cfg.BuildStore(ctx, registry, hub, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	unsubscribe := rt.Store.Subscribe(hub.PublishDocument)
	defer unsubscribe()

	handler := api.NewHandler(rt.Store, registry, api.WithHub(hub), api.WithLogger(logger))

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)
	server.R.Mount(env.APIPrefix, handler.Routes())

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.R,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Portal server starting", "port", cfg.Port, "env", cfg.Environment, "storage", cfg.Storage.Type)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
	}

	if err := rt.Store.Flush(shutdownCtx); err != nil {
		return fmt.Errorf("failed to flush pending edits: %w", err)
	}
	logger.Info("Server exiting", "entries", rt.Store.TotalEntryCount())
	return nil
}
