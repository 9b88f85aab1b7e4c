package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/agenthands/lineage/internal/config"
	"github.com/agenthands/lineage/internal/core/store"
	"github.com/agenthands/lineage/internal/logger"
	"github.com/agenthands/lineage/internal/persist"
	"github.com/agenthands/lineage/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using defaults")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config file not loaded, using defaults", "path", cfgPath, "error", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("bad configuration", "error", err)
	}

	logger.Init(logger.Options{Level: cfg.Log.Level, Prefix: "lineage"})
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persister, closePersister, err := persist.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
	}
	defer func() {
		if err := closePersister(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	st := store.New(
		store.WithSettings(cfg.Settings),
		store.WithImportPolicy(store.ImportPolicy(cfg.Import.Policy)),
	)
	srv := server.NewServer(st, persister)

	if persister != nil {
		if _, err := srv.Load(ctx); err != nil {
			logger.Warn("starting with an empty tree; autosave is paused until a save or import", "error", err)
		}
		if cfg.Storage.AutosaveSeconds > 0 {
			go srv.RunAutosave(ctx, time.Duration(cfg.Storage.AutosaveSeconds)*time.Second)
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if persister != nil {
		_ = srv.Checkpoint(shutdownCtx)
	}
}
