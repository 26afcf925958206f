package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"innsight-go/internal/config"
)

// Pinger reports whether a storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server with all configured routes and middleware.
type Server struct {
	app    *fiber.App
	config *config.ServerConfig
	logger *slog.Logger

	// Handlers
	reviewHandler *ReviewHandler
	hotelHandler  *HotelHandler

	// db is nil in memory mode; the database probe then reports that no
	// database is configured instead of failing.
	db Pinger
}

// ServerDeps contains all dependencies required to create a new Server.
type ServerDeps struct {
	Config        *config.ServerConfig
	Logger        *slog.Logger
	ReviewHandler *ReviewHandler
	HotelHandler  *HotelHandler
	DB            Pinger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps ServerDeps) *Server {
	// Create Fiber app with optimized settings for high throughput
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable strict routing for consistency
		StrictRouting: true,
		// Case sensitive routing
		CaseSensitive: true,
		// Read timeout from config
		ReadTimeout: deps.Config.ReadTimeout,
		// Write timeout from config
		WriteTimeout: deps.Config.WriteTimeout,
		// Idle timeout from config
		IdleTimeout: deps.Config.IdleTimeout,
		// Custom error handler
		ErrorHandler: customErrorHandler,
	})

	s := &Server{
		app:           app,
		config:        deps.Config,
		logger:        deps.Logger,
		reviewHandler: deps.ReviewHandler,
		hotelHandler:  deps.HotelHandler,
		db:            deps.DB,
	}

	// Register middleware
	s.registerMiddleware()

	// Register routes
	s.registerRoutes()

	return s
}

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	// Recovery middleware to handle panics
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware for tracing
	s.app.Use(requestid.New())

	// Logger middleware for request logging
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	// Health check endpoints (outside versioned API)
	s.app.Get("/health", s.healthCheck)
	s.app.Get("/health/db", s.databaseHealth)

	// Prometheus metrics endpoint
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.app.Group("/api/v1")

	// Review intake and reads
	v1.Post("/reviews", s.reviewHandler.Create)
	v1.Get("/reviews/:id", s.reviewHandler.GetByID)

	// Hotel CRUD
	v1.Post("/hotels", s.hotelHandler.Create)
	v1.Get("/hotels", s.hotelHandler.List)
	v1.Get("/hotels/:id", s.hotelHandler.GetByID)
	v1.Put("/hotels/:id", s.hotelHandler.Update)
	v1.Delete("/hotels/:id", s.hotelHandler.Delete)

	// Hotel-scoped reads
	v1.Get("/hotels/:id/stats", s.hotelHandler.Stats)
	v1.Get("/hotels/:id/reviews", s.reviewHandler.ListByHotel)
}

// healthCheck returns the health status of the service.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return Success(c, map[string]string{
		"status": "healthy",
	})
}

// databaseHealth reports database connectivity.
func (s *Server) databaseHealth(c *fiber.Ctx) error {
	if s.db == nil {
		return Success(c, map[string]string{
			"status":   "healthy",
			"database": "not configured",
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("database health check failed", "error", err)
		return Error(c, fiber.StatusServiceUnavailable, ErrCodeUnavailable, "database unreachable")
	}

	return Success(c, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	addr := s.config.Address()
	s.logger.Info("starting HTTP server", "address", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler handles errors returned from handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		return Error(c, e.Code, ErrCodeInternalError, e.Message)
	}

	// Default to internal server error
	return InternalError(c, fmt.Sprintf("unexpected error: %v", err))
}
