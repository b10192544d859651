package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appsales "github.com/comercia/backend/internal/application/sales"
	"github.com/comercia/backend/internal/infrastructure/auth"
	"github.com/comercia/backend/internal/infrastructure/cache"
	"github.com/comercia/backend/internal/infrastructure/config"
	"github.com/comercia/backend/internal/infrastructure/logger"
	"github.com/comercia/backend/internal/infrastructure/metrics"
	"github.com/comercia/backend/internal/infrastructure/persistence"
	"github.com/comercia/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting sale posting engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	scope := persistence.NewGormSaleScope(db.DB, cfg.Sale.TransactionTimeout)
	reads := appsales.ReadRepositories{
		Sales:     persistence.NewGormSaleRepository(db.DB),
		Alerts:    persistence.NewGormAlertRepository(db.DB),
		Movements: persistence.NewGormStockMovementRepository(db.DB),
	}

	saleCfg := appsales.DefaultConfig()
	saleCfg.SeriesPrefix = cfg.Sale.SeriesPrefix
	saleCfg.MaxRetries = cfg.Sale.MaxRetries
	saleCfg.PointValue = decimal.NewFromFloat(cfg.Sale.PointValue)
	saleCfg.EarnRate = decimal.NewFromFloat(cfg.Sale.EarnRate)
	saleCfg.DefaultRetentionRate = decimal.NewFromFloat(cfg.Sale.DefaultRetentionRate)

	saleService := appsales.NewService(scope, reads, saleCfg, log)

	registry := prometheus.NewRegistry()
	saleService.SetMetrics(metrics.NewSaleMetrics(registry))
	httpMetrics := metrics.NewHTTPMetrics(registry)

	idempotencyStore := newIdempotencyStore(cfg, log)
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("error closing idempotency store", zap.Error(err))
		}
	}()

	jwtService := auth.NewJWTService(cfg.JWT)

	engine := router.New(router.Dependencies{
		Config:           cfg,
		Logger:           log,
		DB:               db,
		SaleService:      saleService,
		JWTService:       jwtService,
		IdempotencyStore: idempotencyStore,
		Registry:         registry,
		HTTPMetrics:      httpMetrics,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited gracefully")
}

// newIdempotencyStore prefers Redis and falls back to the in-memory store
// when Redis is unreachable. Single-node deployments run fine without Redis.
func newIdempotencyStore(cfg *config.Config, log *zap.Logger) cache.IdempotencyStore {
	store, err := cache.NewRedisIdempotencyStore(&cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, using in-memory idempotency store", zap.Error(err))
		return cache.NewInMemoryIdempotencyStore()
	}
	log.Info("redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	return store
}
