package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/scan"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/config"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/db"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/obs"
	httpapi "github.com/engenhariadahumanidade/RAPERStockDASH/internal/interface/http"
)

func main() {
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		panic(err)
	}

	logger, err := obs.NewLogger(obs.LogConfig{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
		App:    "stockdash",
		Env:    os.Getenv("APP_ENV"),
	})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Connect(ctx, cfg.DB)
	cancel()
	if err != nil {
		logger.Warn("database connection failed, falling back to in-memory store", zap.Error(err))
		pool = nil
	} else if pool == nil {
		logger.Info("no DB_DSN provided; running with in-memory store only")
	} else {
		defer pool.Close()
		logger.Info("database connected")
	}

	apiServer := httpapi.NewServer(cfg, pool, logger)

	if cfg.Scan.Enabled {
		worker := scan.NewWorker(apiServer.ScanUseCase(), scan.RunInput{
			UserID:    "worker",
			UserEmail: cfg.Scan.AdminEmail,
		}, cfg.Scan.Interval, logger)
		worker.Start()
		defer worker.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: apiServer.Handler(),
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
