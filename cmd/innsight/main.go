// Package main is the entry point for the InnSight API service.
// It serves the REST API and, in memory mode, also runs the analysis
// worker and result consumer in-process so the whole pipeline works
// without external infrastructure.
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
	"innsight-go/internal/api"
	"innsight-go/internal/banner"
	"innsight-go/internal/config"
	"innsight-go/internal/domain"
	"innsight-go/internal/hotel"
	"innsight-go/internal/queue"
	kafkaqueue "innsight-go/internal/queue/kafka"
	memoryqueue "innsight-go/internal/queue/memory"
	"innsight-go/internal/results"
	"innsight-go/internal/review"
	"innsight-go/internal/sentiment"
	"innsight-go/internal/store"
	memorystor "innsight-go/internal/store/memory"
	postgresstor "innsight-go/internal/store/postgres"
	redisstor "innsight-go/internal/store/redis"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	banner.Print()

	// Bootstrap logger; reconfigured once the config is loaded
	logger := initLogger(nil)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}
	logger = initLogger(&cfg.Logger)

	logger.Info("configuration loaded",
		"path", *configPath,
		"storage_mode", cfg.Storage.Mode,
	)

	// Initialize dependencies based on storage mode
	deps, cleanup, err := initDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create context that listens for shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start the in-process pipeline stages, if any
	for _, w := range deps.workers {
		w := w
		go func() {
			if err := w.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("pipeline worker error", "error", err)
				cancel()
			}
		}()
	}

	// Start HTTP server
	go func() {
		if err := deps.server.Start(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("InnSight started",
		"address", cfg.Server.Address(),
		"storage_mode", cfg.Storage.Mode,
	)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	for _, w := range deps.workers {
		if err := w.Stop(); err != nil {
			logger.Error("worker shutdown error", "error", err)
		}
	}

	logger.Info("InnSight stopped")
}

// worker is a pipeline stage that consumes until its context is canceled.
type worker interface {
	Start(ctx context.Context) error
	Stop() error
}

// dependencies holds all initialized service dependencies.
type dependencies struct {
	server *api.Server

	// workers are the pipeline stages this process runs itself. Empty in
	// storage mode, where the worker binaries own them.
	workers []worker
}

// initDependencies creates and wires all service dependencies based on config.
// Returns the dependencies and a cleanup function.
func initDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var (
		reviewRepo   store.ReviewRepository
		hotelRepo    store.HotelRepository
		cache        store.StatsCache
		producer     queue.Producer
		workers      []worker
		db           api.Pinger
		cleanupFuncs []func()
	)

	ctx := context.Background()

	if cfg.Storage.UseMemory() {
		// Initialize in-memory implementations and run the full pipeline
		// inside this process
		logger.Info("initializing in-memory storage and in-process pipeline")

		memReviews := memorystor.NewReviewRepository()
		memHotels := memorystor.NewHotelRepository(memReviews)
		if err := memHotels.SeedHotels(ctx); err != nil {
			return nil, nil, err
		}
		reviewRepo = memReviews
		hotelRepo = memHotels

		memCache := memorystor.NewStatsCache()
		cache = memCache
		cleanupFuncs = append(cleanupFuncs, func() { _ = memCache.Close() })

		broker := memoryqueue.NewBroker(10000)
		producer = broker
		cleanupFuncs = append(cleanupFuncs, func() { _ = broker.Close() })

		analyzer := sentiment.NewAnalyzer(sentiment.NewLexiconModel(), logger)
		workers = append(workers,
			analysis.NewService(broker.Consumer(domain.QueueReviewCreated), broker, analyzer, logger),
			results.NewService(broker.Consumer(domain.QueueAnalysisCompleted), memReviews, memCache, logger),
		)
	} else {
		// Initialize real storage implementations
		logger.Info("initializing production storage (Kafka, Redis, PostgreSQL)")

		// Initialize PostgreSQL
		pg, err := postgresstor.NewDB(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, pg.Close)

		// Run migrations and seed the demo hotels
		if err := pg.RunMigrations(ctx); err != nil {
			return nil, nil, err
		}
		if err := pg.SeedHotels(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations completed")

		reviewRepo = postgresstor.NewReviewRepository(pg)
		hotelRepo = postgresstor.NewHotelRepository(pg)
		db = pg

		// Initialize Redis
		redisCache, err := redisstor.NewStatsCache(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		cache = redisCache
		cleanupFuncs = append(cleanupFuncs, func() { _ = redisCache.Close() })

		// Initialize Kafka
		kafkaProducer := kafkaqueue.NewProducer(&cfg.Broker)
		producer = kafkaProducer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaProducer.Close() })
	}

	// Initialize services
	reviewService := review.NewService(reviewRepo, hotelRepo, producer, cache, logger)
	hotelService := hotel.NewService(hotelRepo, cache, logger)

	// Initialize API handlers
	reviewHandler := api.NewReviewHandler(reviewService, logger)
	hotelHandler := api.NewHotelHandler(hotelService, logger)

	// Initialize HTTP server
	server := api.NewServer(api.ServerDeps{
		Config:        &cfg.Server,
		Logger:        logger,
		ReviewHandler: reviewHandler,
		HotelHandler:  hotelHandler,
		DB:            db,
	})

	// Build cleanup function
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	return &dependencies{
		server:  server,
		workers: workers,
	}, cleanup, nil
}

// initLogger creates and configures the application logger. A nil config
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
