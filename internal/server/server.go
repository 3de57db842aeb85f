// Package server hosts the ops HTTP surface: a small Fiber API mirroring
// the admin command table for operators who prefer a dashboard over
// in-chat commands, plus the gateway webhook endpoint and the three
// lifecycle sweep loops, all sharing one process.
package server

import (
	"context"
	"errors"
	"log"
	"time"

	"anonrelay/internal/config"
	"anonrelay/internal/dispatch"
	"anonrelay/internal/featureflags"
	"anonrelay/internal/filter"
	"anonrelay/internal/gateway"
	"anonrelay/internal/lifecycle"
	"anonrelay/internal/matchmaker"
	"anonrelay/internal/middleware"
	"anonrelay/internal/models"
	"anonrelay/internal/notifications"
	"anonrelay/internal/pool"
	"anonrelay/internal/presence"
	"anonrelay/internal/queue"
	"anonrelay/internal/relay"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds every dependency the ops HTTP surface, the gateway
// webhook, and the lifecycle sweep loops need.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	admin      *gateway.AdminCommands
	dispatcher *dispatch.Dispatcher
	lifecycle  *lifecycle.Controller
	hub        *notifications.Hub
	notifier   *notifications.Notifier

	shutdownCtx context.Context
	shutdownFn  context.CancelFunc
}

// NewServer creates a new server instance with all dependencies, wiring
// the full matchmaking/relay/lifecycle stack on top of a fresh DB/Redis
// connection.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, sender gateway.Sender) (*Server, error) {
	users := repository.NewUserRepository(db)
	rooms := repository.NewRoomRepository(db)
	chatlog := repository.NewChatLogRepository(db)
	words := repository.NewBlockedWordRepository(db)
	reports := repository.NewReportRepository(db)
	queueRepo := repository.NewQueueRepository(db)

	var stored []string
	if list, err := words.List(context.Background()); err == nil {
		for _, w := range list {
			stored = append(stored, w.Word)
		}
	}
	f := filter.New(stored)
	strikes := filter.NewStrikeCounter()
	flags := featureflags.NewManager(cfg.FeatureFlags)
	roomMgr := roommgr.New(rooms)
	p := pool.New()
	q := queue.New(queueRepo)
	pr := presence.NewTracker(redisClient)

	var hub *notifications.Hub
	var notifier *notifications.Notifier
	if redisClient != nil {
		hub = notifications.NewHub(redisClient)
		notifier = notifications.NewNotifier(redisClient)
		sender = opsMirrorSender{Sender: sender, notifier: notifier}
	}

	mm := matchmaker.New(p, q, roomMgr, users, flags, pr)
	admin := gateway.NewAdminCommands(cfg, sender, users, roomMgr, rooms, chatlog, words, reports, f, p, q)
	userCmds := gateway.NewUserCommands(cfg, sender, users, mm, roomMgr, reports, chatlog)
	rel := relay.New(roomMgr, rooms, users, chatlog, f, strikes, sender, cfg.MaxStrikes)
	dispatcher := dispatch.New(admin, userCmds, rel, pr, users)

	lc := lifecycle.New(lifecycle.Config{
		ExpirySweepInterval:      cfg.ExpirySweepInterval(),
		QueueScanInterval:        cfg.QueueScanInterval(),
		BindingReconcileInterval: cfg.BindingReconcileInterval(),
		RoomRetention:            cfg.RoomRetention(),
	}, users, p, q, roomMgr, rooms, sender, pr)

	return &Server{
		config: cfg, db: db, redis: redisClient,
		admin: admin, dispatcher: dispatcher, lifecycle: lc,
		hub: hub, notifier: notifier,
	}, nil
}

// NewServerWithDeps creates a Server using already-constructed collaborators.
// Intended for tests that want to supply fakes for Sender, repositories, or
// the matching engine instead of a live DB/Redis pair.
func NewServerWithDeps(
	cfg *config.Config, db *gorm.DB, redisClient *redis.Client,
	admin *gateway.AdminCommands, dispatcher *dispatch.Dispatcher, lc *lifecycle.Controller,
	hub *notifications.Hub, notifier *notifications.Notifier,
) *Server {
	return &Server{
		config: cfg, db: db, redis: redisClient,
		admin: admin, dispatcher: dispatcher, lifecycle: lc,
		hub: hub, notifier: notifier,
	}
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	if s.config.Env != "development" && s.config.Env != "test" && s.config.Env != "stress" {
		app.Use(limiter.New(limiter.Config{
			Max:        100,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests, please try again later.",
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the ops HTTP surface.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "anonrelay ops dashboard metrics",
	}))
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Gateway inbound webhook: a real SDK binding posts normalized Updates
	// here; this is the concrete seam the dispatcher is exercised through.
	// Rate-limited by caller IP since it sits ahead of any per-user auth.
	app.Post("/gateway/webhook",
		middleware.RateLimit(s.redis, 60, time.Minute, "gateway_webhook"),
		s.GatewayWebhook,
	)

	ops := app.Group("/ops", middleware.AuthRequired, s.opsAuthorized)
	ops.Get("/stats", s.GetStats)
	ops.Get("/export", s.GetExport)
	ops.Get("/users/:id", s.GetUserInfo)
	ops.Get("/rooms/:id", s.GetRoomInfo)
	ops.Get("/rooms/:id/history", s.GetRoomHistory)

	// The live feed is a WebSocket upgrade, so it authenticates via
	// middleware.WebSocketAuthRequired (query-param token) rather than the
	// Authorization-header path the rest of /ops uses.
	app.Get("/ops/feed",
		requireUpgrade,
		middleware.WebSocketAuthRequired,
		s.opsAuthorized,
		s.OpsFeedWebSocket(),
	)
}

// requireUpgrade rejects non-WebSocket requests to an upgrade route.
func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "up", "time": time.Now()})
}

// ReadinessCheck handles readiness probe requests.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{"database": dbStatus, "redis": redisStatus},
		"time":   time.Now(),
	})
}

// opsAuthorized rejects non-admin callers with 403. Must run after
// middleware.AuthRequired so userID is already in locals.
func (s *Server) opsAuthorized(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok || !s.config.IsAdmin(userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("admin access required"))
	}
	return c.Next()
}

// Start builds the Fiber app, wires routes/middleware, launches the
// lifecycle sweep loops and ops-feed Redis wiring, and blocks serving
// HTTP until shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx, s.shutdownFn = ctx, cancel

	s.promMiddleware = fiberprometheus.New("anonrelay-ops")

	app := fiber.New(fiber.Config{
		AppName: "anonrelay ops API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			log.Printf("error [%d]: %v", code, err)
			return models.RespondWithError(c, code, err)
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if s.lifecycle != nil {
		s.lifecycle.Start(ctx)
	}
	if s.hub != nil && s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
				log.Printf("failed to start ops feed wiring: %v", err)
			}
		}()
	}

	log.Printf("ops server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the HTTP server, the lifecycle loops,
// the ops feed hub, and the DB/Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}
	if s.lifecycle != nil {
		s.lifecycle.Stop()
	}
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down ops feed hub: %v", err)
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}
	log.Println("server shutdown complete")
	return nil
}
