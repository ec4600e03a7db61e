// Package server contains the HTTP handlers and routing of the blog.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/events"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
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
	pages          cache.PageCache
	store          media.Store
	publisher      events.Publisher
	sessions       *sessionManager

	userRepo repository.UserRepository

	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	groupService   *service.GroupService
	accountService *service.AccountService
}

// Deps are the optional collaborators of a Server. Nil fields fall back to
// local media storage and a discarding event publisher.
type Deps struct {
	Store     media.Store
	Publisher events.Publisher
	Pages     cache.PageCache
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.NewClient(context.Background(), cfg.RedisURL)

	store, err := newMediaStore(cfg)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if strings.TrimSpace(cfg.KafkaBrokers) != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		middleware.Logger.Info("activity events enabled", slog.String("topic", cfg.KafkaTopic))
	}

	return NewServerWithDeps(cfg, db, redisClient, Deps{Store: store, Publisher: publisher})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case pages are not cached and logout does not revoke tokens.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, deps Deps) (*Server, error) {
	if deps.Store == nil {
		local, err := media.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
		if err != nil {
			return nil, fmt.Errorf("media store: %w", err)
		}
		deps.Store = local
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Pages == nil {
		if redisClient != nil {
			deps.Pages = cache.NewRedisPageCache(redisClient)
		} else {
			deps.Pages = cache.NopPageCache{}
		}
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: observability.HTTPMetrics("yatube"),
		pages:          deps.Pages,
		store:          deps.Store,
		publisher:      deps.Publisher,
		sessions:       newSessionManager(cfg.SessionSecret, cfg.SessionTTL(), redisClient),
		userRepo:       userRepo,
	}
	s.postService = service.NewPostService(postRepo, groupRepo, deps.Store, deps.Publisher, cfg.PostsPerPage)
	s.commentService = service.NewCommentService(commentRepo, deps.Publisher)
	s.followService = service.NewFollowService(followRepo, deps.Publisher)
	s.groupService = service.NewGroupService(groupRepo, deps.Publisher)
	s.accountService = service.NewAccountService(userRepo)

	return s, nil
}

func newMediaStore(cfg *config.Config) (media.Store, error) {
	if cfg.MediaBackend != "s3" {
		return media.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	}
	store, err := media.NewS3Store(media.S3Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 media store: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("s3 bucket: %w", err)
	}
	return store, nil
}

// PageCache exposes the index page cache so operators and tests can clear it.
func (s *Server) PageCache() cache.PageCache {
	return s.pages
}

// App builds the fiber application with middleware and routes. It is built once.
func (s *Server) App() (*fiber.App, error) {
	if s.app != nil {
		return s.app, nil
	}
	app, err := s.newApp()
	if err != nil {
		return nil, err
	}
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app, nil
}

func (s *Server) newApp() (*fiber.App, error) {
	engine, err := newViewEngine(s.postService.ImageURL)
	if err != nil {
		return nil, err
	}
	return fiber.New(fiber.Config{
		AppName:      "yatube",
		Views:        engine,
		ViewsLayout:  "layouts/base",
		ErrorHandler: s.errorHandler,
		UnescapePath: true,
		BodyLimit:    s.config.MaxUploadSize() + 1024*1024,
	}), nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))

	app.Use(middleware.StructuredLogger(statusFor))

	// Signup and login are the only endpoints worth brute forcing.
	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost || !strings.HasPrefix(c.Path(), "/auth/")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Слишком много попыток, попробуйте позже.")
		},
	}))

	app.Use(s.sessionMiddleware())
}

// SetupRoutes configures all routes for the application. Fixed paths are
// registered before the username patterns so they never resolve as profiles.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if local, ok := s.store.(*media.LocalStore); ok {
		app.Static(strings.TrimSuffix(s.config.MediaURL, "/"), local.Root())
	}

	app.Get("/", cache.PageMiddleware(s.pages, s.config.PageCacheTTL(), s.pageKey), s.withViewer(s.Index))
	app.Get("/group/:slug", s.withViewer(s.GroupPosts))
	app.Get("/new", s.loginRequired(s.PostCreate))
	app.Post("/new", s.loginRequired(s.PostCreate))
	app.Get("/follow", s.loginRequired(s.FollowIndex))
	app.Get("/search", s.withViewer(s.Search))
	app.Get("/add_group", s.loginRequired(s.AddGroup))
	app.Post("/add_group", s.loginRequired(s.AddGroup))

	app.Get("/about/author", s.withViewer(s.staticPage("about/author")))
	app.Get("/about/tech", s.withViewer(s.staticPage("about/tech")))

	auth := app.Group("/auth")
	auth.Get("/signup", s.withViewer(s.Signup))
	auth.Post("/signup", s.withViewer(s.Signup))
	auth.Get("/login", s.withViewer(s.Login))
	auth.Post("/login", s.withViewer(s.Login))
	auth.Get("/logout", s.withViewer(s.Logout))

	app.Get("/:username", s.withViewer(s.Profile))
	app.Get("/:username/follow", s.loginRequired(s.ProfileFollow))
	app.Get("/:username/unfollow", s.loginRequired(s.ProfileUnfollow))
	app.Get("/:username/:post_id", s.withViewer(s.PostView))
	app.Get("/:username/:post_id/edit", s.loginRequired(s.PostEdit))
	app.Post("/:username/:post_id/edit", s.loginRequired(s.PostEdit))
	app.Post("/:username/:post_id/comment", s.loginRequired(s.AddComment))
	app.Post("/:username/:post_id/like", s.loginRequired(s.ToggleLike))
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and redis health. Redis is optional, so its
// absence does not make the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app, err := s.App()
	if err != nil {
		return err
	}
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			middleware.Logger.Error("error closing event publisher", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
