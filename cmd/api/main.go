// Package main is the entry point for the content-sync-service API.
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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"content-sync-service/internal/app/service"
	cacheloader "content-sync-service/internal/cache"
	"content-sync-service/internal/config"
	"content-sync-service/internal/domain"
	"content-sync-service/internal/infra/postgres"
	"content-sync-service/internal/infra/postgres/migrations"
	"content-sync-service/internal/infra/provider/registry"
	rediscache "content-sync-service/internal/infra/redis"
	"content-sync-service/internal/job"
	"content-sync-service/internal/logger"
	"content-sync-service/internal/metrics"
	"content-sync-service/internal/publisher"
	"content-sync-service/internal/transport/httpserver"
	"content-sync-service/internal/validator"
	"content-sync-service/pkg/locker"
)

func main() {
	// Load .env for local development; real deployments use env vars
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting content-sync-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Connect to database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Create repository
	repo := postgres.NewRepository(db)

	// Create provider clients from config
	providers := registry.NewProviders(cfg.Provider, log.Logger)
	if len(providers) == 0 {
		log.Warn("no providers enabled, syncs will be no-ops")
	}
	for _, p := range providers {
		log.Info("provider enabled", zap.String("provider", p.Name()))
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Ping Redis to verify connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	// Serving cache with serve-stale semantics
	cache := rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)
	loader := cacheloader.NewLoader(cache, cfg.Cache.MaxStale, log.Logger)

	// Change event publisher (optional)
	var pub domain.Publisher
	if cfg.Publisher.Enabled {
		pub, err = publisher.NewRabbitMQ(
			publisher.Config{
				URL:        cfg.Publisher.URL,
				Exchange:   cfg.Publisher.Exchange,
				RoutingKey: cfg.Publisher.RoutingKey,
				Queue:      cfg.Publisher.Queue,
			},
			log.Logger,
		)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer func() { _ = pub.Close() }()
	} else {
		log.Info("change event publishing disabled")
	}

	// Per-provider serving TTLs
	ttls := map[string]time.Duration{
		"instagram":       cfg.Provider.Instagram.CacheTTL,
		"facebook":        cfg.Provider.Facebook.CacheTTL,
		"google_business": cfg.Provider.GoogleBusiness.CacheTTL,
	}

	// Create distributed locker
	distLocker := locker.NewRedisLocker(redisClient, log.Logger)

	// Create services
	contentSvc := service.NewContentService(repo, providers, loader, ttls, cfg.Cache.DefaultTTL, log.Logger)
	syncSvc := service.NewSyncService(repo, providers, loader, pub, distLocker, cfg.Sync.LockTTL, log.Logger)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:               cfg.App.Port,
			BodyLimit:          1024 * 1024, // 1MB
			Debug:              cfg.App.Debug,
			AdminToken:         cfg.App.AdminToken,
			WebhookVerifyToken: cfg.Webhook.VerifyToken,
			SyncTimeout:        cfg.Sync.Timeout,
		},
		contentSvc,
		syncSvc,
		db,
		redisClient,
		v,
		log.Logger,
	)

	// Start sync scheduler with distributed locking
	scheduler := job.NewSyncScheduler(
		syncSvc,
		job.SyncConfig{
			Interval:  cfg.Sync.Interval,
			Timeout:   cfg.Sync.Timeout,
			OnStartup: cfg.Sync.OnStartup,
		},
		log.Logger,
		distLocker,
	)
	scheduler.Start(cfg.Sync.OnStartup)

	// Prometheus listener on its own port
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr)
		go func() {
			log.Info("starting metrics server", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		// Stop scheduler
		scheduler.Stop()

		// Shutdown servers with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if metricsServer != nil {
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Error("metrics server shutdown error", zap.Error(err))
			}
		}

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
