package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/config"
	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/handler"
	"github.com/blackcnote/invest-api/internal/infra/cache"
	"github.com/blackcnote/invest-api/internal/infra/memory"
	"github.com/blackcnote/invest-api/internal/infra/observability"
	"github.com/blackcnote/invest-api/internal/infra/postgres"
	"github.com/blackcnote/invest-api/internal/infra/resilience"
	"github.com/blackcnote/invest-api/internal/port"
	"github.com/blackcnote/invest-api/internal/scheduler"
	"github.com/blackcnote/invest-api/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_postgres", cfg.UsePostgres),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.String("accrual_cron", cfg.AccrualCron),
		zap.Duration("accrual_budget", cfg.AccrualBudget),
		zap.Int("accrual_concurrency", cfg.AccrualConcurrency),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "invest-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	var store port.Store
	if cfg.UsePostgres && cfg.DatabaseURL != "" {
		logger.Info("using PostgreSQL as data backend")
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatal("failed to reach database", zap.Error(err))
		}

		cb := resilience.NewCircuitBreaker("postgres")
		resCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		pgStore := postgres.New(db, cb, resCfg, logger)
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("failed to apply schema", zap.Error(err))
		}
		store = pgStore
	} else {
		logger.Warn("using in-memory store; data will not survive restarts")
		store = memory.New(cache.New[decimal.Decimal](cfg.CacheTTL))
	}

	// --- Caches ---
	planCache := cache.New[[]domain.Plan](cfg.CacheTTL)

	// --- Services ---
	catalogSvc := service.NewCatalogService(store, planCache, metrics, logger)
	ledgerSvc := service.NewLedgerService(store, metrics, logger)
	accrualSvc := service.NewAccrualService(store, service.AccrualConfig{
		Budget:      cfg.AccrualBudget,
		Concurrency: cfg.AccrualConcurrency,
		RunLockTTL:  cfg.RunLockTTL,
	}, metrics, logger)
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, logger)

	// --- Accrual scheduler ---
	sched := scheduler.New(accrualSvc, logger)
	if err := sched.Start(cfg.AccrualCron); err != nil {
		logger.Fatal("failed to start accrual scheduler", zap.Error(err))
	}

	// --- Router ---
	router := handler.NewRouter(catalogSvc, ledgerSvc, accrualSvc, authSvc, metrics, logger, cfg.AllowedOrigins)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
