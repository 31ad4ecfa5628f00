package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/taskmgr/taskmgr-api/internal/api/rest"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/auth"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/cache"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/config"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/database"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/notify"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/repository"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/telemetry"
	"github.com/taskmgr/taskmgr-api/internal/service/accounts"
	"github.com/taskmgr/taskmgr-api/internal/service/alerting"
	"github.com/taskmgr/taskmgr-api/internal/service/health"
	"github.com/taskmgr/taskmgr-api/internal/service/metrics"
	"github.com/taskmgr/taskmgr-api/internal/service/taskmgmt"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)

	shutdownTracing, err := telemetry.InitTracing("taskmgr-api", cfg.Version, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shutdown tracing", "error", err)
		}
	}()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create zap logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	redisCache, err := cache.NewRedisCache(&cfg.Redis, zapLogger)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	redisClient, err := cache.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to create Redis client: %v", err)
	}

	authService, err := auth.NewService(cfg.Security.JWTSecret, cfg.Security.TokenExpiry)
	if err != nil {
		log.Fatalf("Failed to create auth service: %v", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	notifier := notify.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Slack.Timeout, logger)
	sink := alerting.NewSink(alertRepo, notifier, logger)

	collector := metrics.NewCollector(redisCache, logger, metrics.CollectorConfig{
		BucketTTL:     cfg.Metrics.BucketTTL,
		RecordTimeout: cfg.Metrics.RecordTimeout,
	})
	loadMetrics := cache.NewLoadMetricsReader(redisClient, zapLogger)
	aggregator := metrics.NewAggregator(redisCache, loadMetrics, logger)
	evaluator := metrics.NewEvaluator(aggregator, redisCache, sink, logger, metrics.EvaluatorConfig{
		ErrorRateThresholdPercent: cfg.Metrics.ErrorRateThresholdPercent,
		P95LatencyThresholdMs:     cfg.Metrics.P95LatencyThresholdMs,
		Cooldown:                  cfg.Metrics.AlertCooldown,
		WindowMinutes:             cfg.Metrics.WindowMinutes,
	})

	services := rest.Services{
		Tasks:      taskmgmt.NewService(taskRepo),
		Accounts:   accounts.NewService(userRepo, authService),
		Aggregator: aggregator,
		Evaluator:  evaluator,
		Alerts:     alertRepo,
		Health:     health.NewChecker(redisCache, db),
	}

	routerCfg := rest.RouterConfig{
		Logger:               logger,
		AuthService:          authService,
		Collector:            collector,
		SlowRequestThreshold: cfg.Metrics.SlowRequestThreshold,
	}
	if cfg.Security.RateLimit.Enabled {
		routerCfg.RateLimitRPS = float64(cfg.Security.RateLimit.RequestsPerSecond)
		routerCfg.RateLimitBurst = cfg.Security.RateLimit.BurstSize
	}

	handler := rest.NewRouter(services, routerCfg)

	server := rest.NewServer(cfg.Server, handler, logger,
		db.Close,
		redisCache.Close,
		redisClient.Close,
	)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
