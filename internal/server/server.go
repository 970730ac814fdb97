// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "instaclone/docs" // swagger docs
	"instaclone/internal/config"
	"instaclone/internal/middleware"
	"instaclone/internal/models"
	"instaclone/internal/notifications"
	"instaclone/internal/repository"
	"instaclone/internal/service"
	"instaclone/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config             *config.Config
	db                 *gorm.DB
	redis              *redis.Client
	app                *fiber.App
	promMiddleware     *fiberprometheus.FiberPrometheus
	shutdownCtx        context.Context
	shutdownFn         context.CancelFunc
	images             storage.ImageStore
	notifier           *notifications.Notifier
	hub                *notifications.Hub
	events             *notifications.Dispatcher
	policy             *service.Policy
	userService        *service.UserService
	followService      *service.FollowService
	feedService        *service.FeedService
	publicationService *service.PublicationService
	commentService     *service.CommentService
	likeService        *service.LikeService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; events are then delivered to sockets on this
// instance only and websocket tickets are unavailable.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images storage.ImageStore) (*Server, error) {
	repos := repository.NewRepositories(db)
	tx := repository.NewTransactor(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("instaclone-api"),
		images:         images,
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}
	server.events = notifications.NewDispatcher(server.hub, server.notifier)

	server.policy = service.NewPolicy(repos.Groups)
	server.userService = service.NewUserService(repos.Users, tx, images)
	server.followService = service.NewFollowService(repos.Follows, repos.Users, server.events)
	server.feedService = service.NewFeedService(repos.Publications, repos.Users)
	server.publicationService = service.NewPublicationService(repos.Publications, repos.Users, tx, images)
	server.commentService = service.NewCommentService(repos.Comments, repos.Publications, server.events)
	server.likeService = service.NewLikeService(repos.Likes, repos.Publications, server.events)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers; uploaded media is served cross-origin to the SPA.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
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
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if s.config.MediaDir != "" {
		app.Static("/media", s.config.MediaDir, fiber.Static{
			MaxAge: 3600,
		})
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Instaclone Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public account routes
	api.Post("/users/user/create", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.CreateUser)
	auth := api.Group("/users/auth")
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/jwt/renew", s.RenewToken)
	auth.Post("/jwt/verify", s.VerifyToken)

	authed := s.AuthRequired()

	users := api.Group("/users/user", authed)
	users.Get("/search", s.Can(models.ActionList, models.ResourceUser), s.SearchUsers)
	users.Get("/:username/get", s.Can(models.ActionView, models.ResourceUser), s.GetUser)
	users.Put("/:username/update", s.Can(models.ActionChange, models.ResourceUser), s.UpdateUser)
	users.Post("/:username/upload_avatar", s.Can(models.ActionChange, models.ResourceUser), s.UploadAvatar)
	users.Delete("/:username/remove_avatar", s.Can(models.ActionChange, models.ResourceUser), s.RemoveAvatar)

	follow := api.Group("/users/follow", authed)
	follow.Get("/not_following", s.Can(models.ActionList, models.ResourceFollow), s.GetNotFollowing)
	follow.Get("/:username/count", s.Can(models.ActionList, models.ResourceFollow), s.GetFollowCount)
	follow.Get("/:username/get_followers", s.Can(models.ActionList, models.ResourceFollow), s.GetFollowers)
	follow.Get("/:username/get_following", s.Can(models.ActionList, models.ResourceFollow), s.GetFollowing)
	follow.Get("/:username/is_following", s.Can(models.ActionView, models.ResourceFollow), s.IsFollowing)
	follow.Post("/:username/add_follow", s.Can(models.ActionCreate, models.ResourceFollow), middleware.RateLimit(
		s.redis, 30, time.Minute, "follow"), s.AddFollow)
	follow.Delete("/:username/unfollow", s.Can(models.ActionChange, models.ResourceFollow), s.Unfollow)

	// Static segments are registered before the parameterized ones.
	publications := api.Group("/posts/publication", authed)
	publications.Get("/feed", s.Can(models.ActionList, models.ResourcePublication), s.GetFeed)
	publications.Post("/create", s.Can(models.ActionCreate, models.ResourcePublication), middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_publication"), s.CreatePublication)
	publications.Get("/:code/get", s.Can(models.ActionView, models.ResourcePublication), s.GetPublication)
	publications.Put("/:code/update", s.Can(models.ActionChange, models.ResourcePublication), s.UpdatePublication)
	publications.Delete("/:code/delete", s.Can(models.ActionChange, models.ResourcePublication), s.DeletePublication)
	publications.Get("/:username/list", s.Can(models.ActionList, models.ResourcePublication), s.ListPublications)

	comments := api.Group("/posts/comment", authed)
	comments.Post("/add", s.Can(models.ActionCreate, models.ResourceComment), middleware.RateLimit(
		s.redis, 20, time.Minute, "create_comment"), s.AddComment)
	comments.Get("/:code/list", s.Can(models.ActionList, models.ResourceComment), s.ListComments)
	comments.Delete("/:id/remove", s.Can(models.ActionChange, models.ResourceComment), s.RemoveComment)

	likes := api.Group("/posts/like", authed)
	likes.Get("/:code/count", s.Can(models.ActionList, models.ResourceLike), s.CountLikes)
	likes.Get("/:code/liked", s.Can(models.ActionView, models.ResourceLike), s.IsLiked)
	likes.Post("/:code/add", s.Can(models.ActionCreate, models.ResourceLike), s.AddLike)
	likes.Delete("/:code/remove", s.Can(models.ActionChange, models.ResourceLike), s.RemoveLike)

	// WebSocket ticket issuance and the notification socket
	api.Post("/ws/ticket", authed, s.IssueWSTicket)
	api.Get("/ws", authed, s.WebsocketHandler())
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
		// Redis is considered required for full readiness in this app
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": s.config.ServiceVersion,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Instaclone API",
		BodyLimit: int(s.config.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	// Wire the hub to Redis pub/sub if available
	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close WebSocket connections gracefully
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
