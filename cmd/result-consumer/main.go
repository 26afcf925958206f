// Package main is the entry point for the InnSight result consumer.
// It consumes AnalysisCompleted events from Kafka and applies them to the
// reviews in PostgreSQL, invalidating the Redis stats cache as it goes.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"innsight-go/internal/config"
	"innsight-go/internal/domain"
	kafkaqueue "innsight-go/internal/queue/kafka"
	"innsight-go/internal/results"
	"innsight-go/internal/server"
	postgresstor "innsight-go/internal/store/postgres"
	redisstor "innsight-go/internal/store/redis"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	healthAddr := flag.String("health-addr", ":8082", "address for the health and metrics listener")
	flag.Parse()

	logger := initLogger(nil)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}
	logger = initLogger(&cfg.Logger)

	// The dedicated consumer binary only makes sense against real backends;
	// in memory mode the API process runs the pipeline itself.
	if cfg.Storage.UseMemory() {
		logger.Error("result consumer requires storage mode", "storage_mode", cfg.Storage.Mode)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := postgresstor.NewDB(ctx, &cfg.Postgres)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	// The API binary owns migrations; the consumer just verifies it can
	// reach the database before consuming.
	if err := pg.Ping(ctx); err != nil {
		logger.Error("postgres ping failed", "error", err)
		os.Exit(1)
	}

	cache, err := redisstor.NewStatsCache(&cfg.Redis)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() { _ = cache.Close() }()

	consumer := kafkaqueue.NewConsumer(&cfg.Broker, domain.QueueAnalysisCompleted, logger)
	svc := results.NewService(consumer, postgresstor.NewReviewRepository(pg), cache, logger)

	// Health and metrics listener
	go func() {
		logger.Info("starting health server", "address", *healthAddr)
		if err := server.StartServer(*healthAddr); err != nil {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("result consumer started", "brokers", cfg.Broker.Brokers)

	if err := svc.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Error("result consumer error", "error", err)
	}

	if err := svc.Stop(); err != nil {
		logger.Error("result consumer shutdown error", "error", err)
	}

	logger.Info("result consumer stopped")
}

// initLogger creates and configures the consumer logger. A nil config
// yields the defaults: info level, JSON output.
func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	level := slog.LevelInfo
	format := "json"
	if cfg != nil {
		switch strings.ToLower(cfg.Level) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		format = cfg.Format
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
