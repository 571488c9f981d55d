package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ganttwork/planner/internal/api"
	"github.com/ganttwork/planner/internal/config"
	"github.com/ganttwork/planner/internal/db"
	"github.com/ganttwork/planner/internal/gantt"
	"github.com/ganttwork/planner/internal/metrics"
	"github.com/ganttwork/planner/internal/ratelimiter"
	"github.com/ganttwork/planner/internal/repository"
	"github.com/ganttwork/planner/internal/service"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Fatal("failed to load config", zap.Error(err))
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	// ---- storage ----
	var repo repository.ProjectRepository
	if cfg.UsesDatabase() {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("database migrations applied", zap.String("dir", cfg.MigrationsDir))
		repo = repository.NewPgProjectRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, projects are kept in memory")
		repo = repository.NewMemoryProjectRepository()
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	onParse, onStored := m.ServiceHooks()
	svc := service.NewProjectService(repo, gantt.NewParser(), service.MetricHooks{
		OnParse:  onParse,
		OnStored: onStored,
	}, logger)

	if n, err := repo.Count(ctx); err == nil {
		m.ProjectsStored.Set(float64(n))
	}

	limiter := ratelimiter.New(cfg.RateLimitPerClient, cfg.RateLimitBurst, cfg.RateLimitIdleTTL)

	// ---- background workers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		limiter.Run(workerCtx, cfg.RateLimitSweep, logger)
	}()

	// ---- HTTP server ----
	router := api.NewRouter(api.Deps{
		Service:      svc,
		Metrics:      m,
		Gatherer:     reg,
		Limiter:      limiter,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Logger:       logger,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests and drain in-flight ones.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the rate limiter sweeper and wait for it.
	cancelWorkers()
	wg.Wait()

	logger.Info("server stopped cleanly")
}
