package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flighttracker/config"
	"github.com/Domenick1991/flighttracker/internal/kafka"
	"github.com/Domenick1991/flighttracker/internal/stats"
	kafkaGo "github.com/segmentio/kafka-go"
)

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

	if !cfg.Kafka.Enabled() {
		logger.Error("kafka brokers and lookup_topic are required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.LookupTopic)
	defer consumer.Close()

	interval := time.Duration(cfg.Worker.StatsIntervalSeconds) * time.Second
	logger.Info("lookup stats worker started", "topic", cfg.Kafka.LookupTopic, "interval_seconds", cfg.Worker.StatsIntervalSeconds)

	if err := run(ctx, logger, consumer, stats.NewTally(), interval); err != nil {
		logger.Error("consumer stopped", "error", err)
		consumer.Close()
		os.Exit(1)
	}
	logger.Info("shutting down worker")
}

type eventSource interface {
	Consume(ctx context.Context, handler func(context.Context, kafkaGo.Message) error) error
}

// run tallies lookup events from source and logs a snapshot every interval.
// It returns nil on shutdown and the consumer's error when consumption stops.
func run(ctx context.Context, logger *slog.Logger, source eventSource, tally *stats.Tally, interval time.Duration) error {
	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- source.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			event, err := kafka.DecodeLookupEvent(msg)
			if err != nil {
				logger.Warn("skipping malformed lookup event", "offset", msg.Offset, "error", err)
				return nil
			}
			tally.Record(event)
			return nil
		})
	}()

	reportTicker := time.NewTicker(interval)
	defer reportTicker.Stop()

	for {
		select {
		case <-reportTicker.C:
			logSnapshot(logger, tally.Flush())
		case err := <-consumeErr:
			logSnapshot(logger, tally.Flush())
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

func logSnapshot(logger *slog.Logger, s stats.Snapshot) {
	if s.Total == 0 {
		return
	}
	logger.Info("lookup stats",
		"total", s.Total,
		"by_kind", s.ByKind,
		"by_reason", s.ByReason,
		"synthetic_rate", s.SyntheticRate,
		"top_reason", s.TopReason(),
		"slowest_flight", s.SlowestFlight,
		"slowest_ms", s.SlowestMs,
	)
}
