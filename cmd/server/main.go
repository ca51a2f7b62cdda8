package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carsage/internal/config"
	"carsage/internal/gateway"
	"carsage/internal/httpapi"
	"carsage/internal/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	slog.Info("starting carsage server")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	client, closeClient, err := newClient(cfg)
	if err != nil {
		slog.Error("gateway setup failed", "error", err)
		os.Exit(1)
	}
	defer closeClient()

	store, err := session.NewStore(cfg.DatabasePath)
	if err != nil {
		slog.Error("store open failed", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("session store ready", "path", cfg.DatabasePath)

	opts := gateway.Options{Model: cfg.Model, Temperature: cfg.Temperature}
	mgr, err := session.NewManager(client, opts, store, cfg.MaxLiveSessions)
	if err != nil {
		slog.Error("session manager setup failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     httpapi.NewHandler(mgr).Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.ListenAddr, "provider", cfg.Provider, "model", cfg.Model)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

func newClient(cfg *config.Config) (gateway.Client, func(), error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		g, err := gateway.NewGeminiClient(context.Background(), float64(cfg.RequestsPerMinute))
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		c := gateway.NewOpenRouterClient(cfg.APIKey, float64(cfg.RequestsPerMinute), cfg.RequestTimeout, slog.Default())
		return c, c.Close, nil
	}
}
