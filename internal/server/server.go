// Package server contains HTTP and WebSocket handlers for the ledger API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"postchain/internal/cache"
	"postchain/internal/config"
	"postchain/internal/database"
	"postchain/internal/featureflags"
	"postchain/internal/middleware"
	"postchain/internal/notifications"
	"postchain/internal/repository"
	"postchain/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownFn     context.CancelFunc
	featureFlags   *featureflags.Manager
	repo           repository.LedgerRepository
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	ledger         *service.LedgerService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(ctx, cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	repo := repository.NewLedgerRepository(db)

	// JWT validation reads the secret from here
	middleware.InitMiddleware(cfg)

	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("postchain-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		repo:           repo,
	}

	// Events flow through Redis pub/sub when available so every instance
	// sees commits made by its peers. Without Redis the ledger still runs;
	// only the event stream is dark.
	var publisher service.EventPublisher
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
		publisher = server.notifier
	}

	ledgerSvc, err := service.NewLedgerService(ctx, repo, publisher, cfg.OwnerPrincipal)
	if err != nil {
		return nil, fmt.Errorf("ledger restore failed: %w", err)
	}
	server.ledger = ledgerSvc

	return server, nil
}

// Ledger exposes the serialized ledger service, primarily for seeding.
func (s *Server) Ledger() *service.LedgerService {
	return s.ledger
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and Principal
	app.Use(middleware.ContextMiddleware())

	// Distributed tracing spans
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if s.featureFlags.Enabled("metrics_dashboard", "") {
		api.Get("/metrics/dashboard", monitor.New(monitor.Config{
			Title: "Postchain Metrics Dashboard",
		}))
	}

	// Public ledger reads
	api.Get("/ledger/status", s.GetLedgerStatus)

	posts := api.Group("/posts")
	// Specific /total route before generic /:id
	posts.Get("/total", s.GetTotalPosts)
	posts.Get("/:id", s.GetPost)

	users := api.Group("/users")
	users.Get("/:principal/posts/count", s.GetUserPostCount)
	users.Get("/:principal/posts/:index", s.GetUserPostAt)

	// Protected ledger mutations
	protected := api.Group("", middleware.AuthRequired)

	protectedPosts := protected.Group("/posts")
	protectedPosts.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	protectedPosts.Post("/:id/like", middleware.RateLimit(
		s.redis, 30, time.Minute, "like"), s.LikePost)
	protectedPosts.Delete("/:id/like", middleware.RateLimit(
		s.redis, 30, time.Minute, "like"), s.UnlikePost)
	protectedPosts.Get("/:id/liked", s.GetLikedByMe)

	admin := protected.Group("/admin")
	admin.Post("/pause", s.PauseLedger)
	admin.Post("/unpause", s.UnpauseLedger)

	// WebSocket event stream
	ws := api.Group("/ws", middleware.WebSocketAuthRequired)
	ws.Get("/events", s.EventStreamHandler())
}

// Start begins wiring background goroutines and listens on the configured
// port. It blocks until the listener stops.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:      "postchain",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app

	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownFn = cancel

	if s.hub != nil && s.notifier != nil {
		if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
			log.Printf("event hub wiring failed: %v", err)
		}
	}

	return app.Listen(":" + s.config.Port)
}

// Shutdown stops background goroutines, the HTTP/WS listener, and closes
// the database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", s.hub.Name(), err)
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	return nil
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The ledger runs without Redis; only the event stream degrades.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
