package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/api"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/auth"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/campaign"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/clientctx"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/config"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/events"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/fraud"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/handler"
	infraconfig "github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/config"
	infragin "github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/profiling"
	infraredis "github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/ledger"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/pipeline"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

// Redis health check timeout.
const redisPingTimeout = 2 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	// Start profiling (if enabled)
	profiling.StartPprofServer(cfg.Profiling, log)
	profiler, err := profiling.StartPyroscope(cfg.Profiling, cfg.Service.Name, cfg.Service.Version, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", logger.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Error("Failed to connect to Redis", logger.Error(err))
			return 1
		}
		defer func() { _ = redisClient.Close() }()

		log.Info("Redis connected", logger.String("address", cfg.Redis.Address))
	}

	return runServer(ctx, cfg, log, redisClient)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := infraconfig.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	logCfg := cfg.Logging
	logCfg.Development = logCfg.Development || cfg.Service.Debug

	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// runServer creates all dependencies and runs the HTTP server until shutdown.
// redisClient is nil when Redis is disabled.
func runServer(ctx context.Context, cfg *config.Config, log logger.Logger, redisClient *redis.Client) int {
	metrics := telemetry.NewProvider()
	clicks := ledger.New()

	// Campaign routing: static YAML campaigns, overlaid from Redis when available
	campaigns := campaign.NewCache(campaign.Defaults{
		WhiteURL: cfg.Campaigns.DefaultWhiteURL,
		BlackURL: cfg.Campaigns.DefaultBlackURL,
	}, cfg.Campaigns.Static)

	opts := []pipeline.Option{pipeline.WithTelemetry(metrics)}
	checks := map[string]infragin.HealthChecker{}

	if redisClient != nil {
		loader := campaign.NewRedisLoader(
			redisClient, cfg.Campaigns.RedisKey, campaigns, cfg.Campaigns.RefreshInterval, log, metrics,
		)
		loader.Start(ctx)

		checks["redis"] = infragin.RedisHealthChecker(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
			defer cancel()
			return redisClient.Ping(pingCtx).Err()
		})
	}

	if cfg.Events.Enabled && redisClient != nil {
		publisher := events.NewPublisher(redisClient, events.NewBuffer(cfg.Events.BufferSize), events.Config{
			Stream:         cfg.Events.Stream,
			MaxLen:         cfg.Events.MaxLen,
			FlushInterval:  cfg.Events.FlushInterval,
			FlushThreshold: cfg.Events.FlushThreshold,
		}, log, metrics)
		publisher.Start()
		defer publisher.Stop()

		opts = append(opts, pipeline.WithEventSink(publisher))
	}

	tracker := pipeline.NewTracker(
		fraud.NewClassifier(fraud.NewSignatureMatcher(fraud.DefaultBotSignatures)),
		fraud.NewFilterEngine(),
		fraud.NewScorer(),
		campaigns,
		clicks,
		opts...,
	)

	// done channel signals background goroutines (rate limiter) on shutdown
	done := make(chan struct{})
	defer close(done)

	trustedProxies, err := clientctx.ParsePrefixes(cfg.RateLimit.TrustedProxies)
	if err != nil {
		log.Error("Invalid trusted proxies", logger.Error(err))
		return 1
	}
	rateLimit := api.RateLimit{
		MaxRequests:    cfg.RateLimit.MaxRequests,
		Window:         cfg.RateLimit.Window,
		TrustedProxies: trustedProxies,
	}
	if cfg.RateLimit.Disabled {
		rateLimit.MaxRequests = 0
	}

	server := api.NewServer(api.Routes{
		Click:         handler.NewClickHandler(tracker, metrics),
		Admin:         handler.NewAdminHandler(clicks, metrics),
		Health:        handler.NewHealthHandler(cfg.Service.Name),
		Verifier:      auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry),
		RequiredScope: cfg.Auth.RequiredScope,
		Telemetry:     metrics,
		RateLimit:     rateLimit,
		Done:          done,
	}, cfg, log, checks)

	log.Info("Traffic-gate starting",
		logger.Int("port", cfg.Service.Port),
		logger.Int("static_campaigns", len(cfg.Campaigns.Static)),
		logger.Bool("redis", redisClient != nil),
		logger.Bool("events", cfg.Events.Enabled),
	)

	if err := server.RunWithGracefulShutdown(ctx); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Traffic-gate exited cleanly")
	return 0
}
