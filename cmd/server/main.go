// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wagonworks/wagonerp/internal/api"
	"github.com/wagonworks/wagonerp/internal/cache"
	"github.com/wagonworks/wagonerp/internal/config"
	"github.com/wagonworks/wagonerp/internal/repository/postgres"
	"github.com/wagonworks/wagonerp/internal/service"
	"github.com/wagonworks/wagonerp/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	cancel()

	inventoryCache, err := cache.NewInventoryCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, running without it")
		inventoryCache = cache.NewNoopInventoryCache()
	}

	registry := postgres.NewBOMRegistry(db)
	ledger := postgres.NewLedgerStore(db)

	services := &api.Services{
		BOMService:        service.NewBOMService(registry),
		ProductionService: service.NewProductionService(ledger, registry, inventoryCache),
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(services, cfg.Server.AllowedOrigins),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	opsSrv := &http.Server{
		Addr:    ":" + cfg.Ops.Port,
		Handler: api.NewOpsRouter(),
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()
	go func() {
		logger.Log.Info().Str("port", cfg.Ops.Port).Msg("Starting ops server")
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start ops server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("API server forced to shutdown")
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Ops server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
