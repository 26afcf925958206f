// Package main is the entry point for the InnSight analysis worker.
// It consumes ReviewCreated events from Kafka, scores them, and publishes
// AnalysisCompleted events. The worker needs no database: everything it
// uses rides in the event, so instances scale out freely.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"innsight-go/internal/analysis"
	"innsight-go/internal/config"
	"innsight-go/internal/domain"
	kafkaqueue "innsight-go/internal/queue/kafka"
	"innsight-go/internal/sentiment"
	"innsight-go/internal/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	healthAddr := flag.String("health-addr", ":8081", "address for the health and metrics listener")
	flag.Parse()

	logger := initLogger(nil)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}
	logger = initLogger(&cfg.Logger)

	// The dedicated worker binary only makes sense against a real broker;
	// in memory mode the API process runs the pipeline itself.
	if cfg.Storage.UseMemory() {
		logger.Error("analysis worker requires storage mode", "storage_mode", cfg.Storage.Mode)
		os.Exit(1)
	}

	consumer := kafkaqueue.NewConsumer(&cfg.Broker, domain.QueueReviewCreated, logger)
	producer := kafkaqueue.NewProducer(&cfg.Broker)
	defer func() { _ = producer.Close() }()

	analyzer := sentiment.NewAnalyzer(sentiment.NewLexiconModel(), logger)
	svc := analysis.NewService(consumer, producer, analyzer, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Health and metrics listener
	go func() {
		logger.Info("starting health server", "address", *healthAddr)
		if err := server.StartServer(*healthAddr); err != nil {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("analysis worker started", "brokers", cfg.Broker.Brokers)

	if err := svc.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Error("analysis worker error", "error", err)
	}

	if err := svc.Stop(); err != nil {
		logger.Error("analysis worker shutdown error", "error", err)
	}

	logger.Info("analysis worker stopped")
}

// initLogger creates and configures the worker logger. A nil config yields
// the defaults: info level, JSON output.
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
