package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hoareca_growth_hub/internal/adapters/storage"
	"hoareca_growth_hub/internal/analytics"
	"hoareca_growth_hub/internal/events"
	"hoareca_growth_hub/internal/exports"
	apphttp "hoareca_growth_hub/internal/http"
	"hoareca_growth_hub/internal/http/router"
	"hoareca_growth_hub/internal/lookups"
	"hoareca_growth_hub/internal/pipeline"
	pipelinerepo "hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/scheduler"
	"hoareca_growth_hub/internal/territory"
	"hoareca_growth_hub/migrations"
	"hoareca_growth_hub/platform/cache"
	"hoareca_growth_hub/platform/config"
	"hoareca_growth_hub/platform/db"
	"hoareca_growth_hub/platform/logger"
	"hoareca_growth_hub/platform/metrics"
	"hoareca_growth_hub/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool, migrations.FS)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	m := metrics.New()

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}
	if reminderScheduler != nil {
		scheduler.RegisterReminderHandlers(eventBus, reminderScheduler, log)
	}
	analytics.RegisterMilestoneHandlers(eventBus, m, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	photos := initPhotoStore(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	territoryRepo := territory.NewRepository(pool)
	var scopeCache territory.ScopeCache
	if redisClient != nil {
		scopeCache = territory.NewRedisScopeCache(redisClient)
	}
	resolver := territory.NewResolver(territoryRepo, scopeCache, cfg, log, m)

	pipelineModule := pipeline.NewModule(pipeline.Deps{
		Pool:      pool,
		Scopes:    resolver,
		Bus:       eventBus,
		Photos:    photos,
		Config:    cfg,
		Validator: val,
		Logger:    log,
		Metrics:   m,
		Location:  cfg.GetReportLocation(),
	})

	analyticsSvc := analytics.New(pipelinerepo.New(pool), resolver, cfg.GetReportLocation(), log, m)
	lookupsSvc := lookups.NewService(lookups.NewRepository(pool), territoryRepo, redisClient, log, m)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			territory.NewModule(resolver),
			pipelineModule,
			analytics.NewModule(analyticsSvc),
			lookups.NewModule(lookupsSvc),
			exports.NewModule(pipelineModule.Service(), val, cfg.GetReportLocation()),
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRedis connects to Redis when configured. Caches are skipped without it.
func initRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; scope and lookup caches disabled")
		return nil
	}

	var client *redis.Client
	if err := withRetry(ctx, log, "redis connection", 3, time.Second, func() error {
		c, err := cache.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	}); err != nil {
		log.Error("redis unavailable; caches disabled", "error", err)
		return nil
	}
	return client
}

// initPhotoStore returns nil when MinIO is not configured so delivery photos
// are rejected instead of uploaded nowhere.
func initPhotoStore(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.PhotoStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; delivery photo uploads disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketDeliveryPhotos()
	if err := withRetry(ctx, log, "ensure delivery-photos bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "deliveryPhotosBucket", bucket)
	return storageSvc
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; revisit reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
