package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flighttracker/api"
	"github.com/Domenick1991/flighttracker/config"
	"github.com/Domenick1991/flighttracker/internal/bootstrap"
	"github.com/Domenick1991/flighttracker/internal/cache"
	"github.com/Domenick1991/flighttracker/internal/kafka"
	"github.com/Domenick1991/flighttracker/internal/repository"
	"github.com/Domenick1991/flighttracker/internal/service/flights"
	"github.com/Domenick1991/flighttracker/internal/synthetic"
	"github.com/gin-gonic/gin"
)

const recentSearchTTL = 30 * 24 * time.Hour

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)
	if cfg.Log.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Provider.HasCredential() {
		logger.Error("configuration error: provider access key missing, serving synthetic data only", "env", config.AccessKeyEnv)
	}

	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	flightRepo := repository.NewFlightRepository(repository.NewHTTPClient(timeout), cfg.Provider.BaseURL, cfg.Provider.AccessKey)
	generator := synthetic.NewGenerator(synthetic.WithDemoCode(cfg.Synthetic.DemoFlightCode))

	opts := []flights.FlightServiceOption{
		flights.WithLogger(logger),
		flights.WithUpstreamTimeout(timeout),
	}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			logger.Warn("kafka unavailable, lookup events may be dropped", "error", err)
		}
		opts = append(opts, flights.WithEvents(producer, cfg.Kafka.LookupTopic))
	}
	flightService := flights.NewFlightService(flightRepo, generator, opts...)

	var recent api.RecentSearches = cache.NewMemoryRecentSearches(cfg.Recent.Limit)
	if cfg.Redis.Enabled() {
		redisRecent := cache.NewRedisRecentSearches(cfg.Redis, cfg.Recent.Limit, recentSearchTTL)
		defer redisRecent.Close()
		if err := redisRecent.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, keeping recent searches in memory", "error", err)
		} else {
			recent = redisRecent
		}
	}

	if err := bootstrap.Run(ctx, cfg, logger, flightService, recent); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
