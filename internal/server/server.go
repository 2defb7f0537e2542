// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "tubbit/docs" // swagger docs
	"tubbit/internal/bootstrap"
	"tubbit/internal/config"
	"tubbit/internal/featureflags"
	"tubbit/internal/mailer"
	"tubbit/internal/middleware"
	"tubbit/internal/models"
	"tubbit/internal/notifications"
	"tubbit/internal/oauth"
	"tubbit/internal/repository"
	"tubbit/internal/service"
	"tubbit/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
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
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo     repository.UserRepository
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	authService         *service.AuthService
	otpService          *service.OTPService
	oauthService        *service.OAuthService
	userService         *service.UserService
	videoService        *service.VideoService
	tweetService        *service.TweetService
	commentService      *service.CommentService
	likeService         *service.LikeService
	subscriptionService *service.SubscriptionService
	playlistService     *service.PlaylistService
	dashboardService    *service.DashboardService
}

// Deps are the collaborators a Server is built from. Store, Prober and Mailer
// are optional; missing ones are derived from the config.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Store    storage.Store
	Prober   storage.Prober
	Mailer   mailer.Mailer
	Registry *oauth.Registry
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var store storage.Store
	s3Store, err := storage.NewS3Store(ctx, cfg)
	switch {
	case err == nil:
		store = s3Store
	case errors.Is(err, storage.ErrNotConfigured):
		middleware.Logger.Warn("S3_BUCKET is not set; media uploads are disabled")
		store = storage.DisabledStore{}
	default:
		return nil, fmt.Errorf("media storage init failed: %w", err)
	}

	return NewServerWithDeps(cfg, Deps{DB: db, Redis: rdb, Store: store})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	if deps.Store == nil {
		deps.Store = storage.DisabledStore{}
	}
	if deps.Prober == nil {
		deps.Prober = storage.NewFFProbe(cfg.FFProbePath)
	}
	if deps.Mailer == nil {
		deps.Mailer = mailer.New(cfg, middleware.Logger)
	}
	if deps.Registry == nil {
		deps.Registry = oauth.NewRegistryFromConfig(cfg)
	}

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("tubbit-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		hub:            notifications.NewHub(),
	}

	// Interfaces below must stay nil rather than hold a typed nil client.
	var rdb redis.Cmdable
	var events service.EventNotifier
	if deps.Redis != nil {
		rdb = deps.Redis
		s.notifier = notifications.NewNotifier(deps.Redis)
		events = s.notifier
	}

	userRepo := repository.NewUserRepository(deps.DB)
	videoRepo := repository.NewVideoRepository(deps.DB)
	historyRepo := repository.NewWatchHistoryRepository(deps.DB)
	likeRepo := repository.NewLikeRepository(deps.DB)
	s.userRepo = userRepo

	uploader := storage.NewUploader(deps.Store, deps.Prober, storage.UploaderOptions{
		TempDir:       cfg.MediaTempDir,
		MaxImageBytes: int64(cfg.ImageMaxUpload) << 20,
		MaxVideoBytes: int64(cfg.MediaMaxUpload) << 20,
		Logger:        middleware.Logger,
	})

	s.otpService = service.NewOTPService(rdb, userRepo, deps.Mailer, cfg.OTPTTL(), cfg.OTPVerifiedTTL())
	s.authService = service.NewAuthService(userRepo, s.otpService, uploader, rdb, service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL(),
		RefreshTTL:    cfg.RefreshTokenTTL(),
	})
	s.oauthService = service.NewOAuthService(deps.Registry, oauth.NewStateStore(rdb), userRepo, s.authService, s.featureFlags)
	s.userService = service.NewUserService(userRepo, historyRepo, uploader)
	s.videoService = service.NewVideoService(videoRepo, historyRepo, uploader, s.featureFlags)
	s.tweetService = service.NewTweetService(repository.NewTweetRepository(deps.DB), userRepo, uploader)
	s.commentService = service.NewCommentService(repository.NewCommentRepository(deps.DB), likeRepo, events)
	s.likeService = service.NewLikeService(likeRepo, events)
	s.subscriptionService = service.NewSubscriptionService(repository.NewSubscriptionRepository(deps.DB), userRepo, events)
	s.playlistService = service.NewPlaylistService(repository.NewPlaylistRepository(deps.DB), videoRepo)
	s.dashboardService = service.NewDashboardService(repository.NewDashboardRepository(deps.DB), videoRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses carry the headers too.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				StatusCode: fiber.StatusTooManyRequests,
				Message:    "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/v1")
	api.Get("/healthcheck", s.HealthCheck)
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/feature-flags", s.OptionalAuth(), s.GetFeatureFlags)

	auth := api.Group("/auth")
	auth.Post("/otp/send", middleware.RateLimitWithPolicy(
		s.redis, 5, 10*time.Minute, middleware.FailClosed, "otp_send"), s.SendOTP)
	auth.Post("/otp/verify", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "otp_verify"), s.VerifyOTP)
	auth.Get("/oauth/:provider", s.OAuthBegin)
	auth.Get("/oauth/:provider/callback", s.OAuthCallback)

	users := api.Group("/users")
	users.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	users.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	users.Post("/refresh-token", s.RefreshToken)
	users.Post("/reset-password", s.ResetPassword)
	users.Get("/c/:username", s.OptionalAuth(), s.GetChannelProfile)
	users.Post("/logout", s.AuthRequired(), s.Logout)
	users.Post("/change-password", s.AuthRequired(), s.ChangePassword)
	users.Get("/current-user", s.AuthRequired(), s.GetCurrentUser)
	users.Patch("/update-account", s.AuthRequired(), s.UpdateAccountDetails)
	users.Patch("/avatar", s.AuthRequired(), s.UpdateAvatar)
	users.Patch("/cover-image", s.AuthRequired(), s.UpdateCoverImage)
	users.Get("/history", s.AuthRequired(), s.GetWatchHistory)

	videos := api.Group("/videos")
	videos.Get("/", s.OptionalAuth(), middleware.RateLimit(
		s.redis, 60, time.Minute, "search"), s.SearchVideos)
	videos.Get("/:videoId", s.OptionalAuth(), s.GetVideo)
	videos.Post("/", s.AuthRequired(), s.PublishVideo)
	// Specific routes before the generic /:videoId mutations.
	videos.Patch("/toggle/publish/:videoId", s.AuthRequired(), s.TogglePublishStatus)
	videos.Patch("/:videoId", s.AuthRequired(), s.UpdateVideo)
	videos.Delete("/:videoId", s.AuthRequired(), s.DeleteVideo)

	tweets := api.Group("/tweets")
	tweets.Get("/user/:userId", s.OptionalAuth(), s.GetUserTweets)
	tweets.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_tweet"), s.CreateTweet)
	tweets.Patch("/:tweetId", s.AuthRequired(), s.UpdateTweet)
	tweets.Delete("/:tweetId", s.AuthRequired(), s.DeleteTweet)

	comments := api.Group("/comments")
	comments.Get("/v/:videoId", s.GetVideoComments)
	comments.Get("/t/:tweetId", s.GetTweetComments)
	comments.Post("/v/:videoId", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.AddVideoComment)
	comments.Post("/t/:tweetId", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.AddTweetComment)
	comments.Patch("/c/:commentId", s.AuthRequired(), s.UpdateComment)
	comments.Delete("/c/:commentId", s.AuthRequired(), s.DeleteComment)

	likes := api.Group("/likes", s.AuthRequired())
	likes.Post("/toggle/v/:videoId", s.ToggleVideoLike)
	likes.Post("/toggle/c/:commentId", s.ToggleCommentLike)
	likes.Post("/toggle/t/:tweetId", s.ToggleTweetLike)
	likes.Get("/videos", s.GetLikedVideos)

	subscriptions := api.Group("/subscriptions")
	subscriptions.Get("/c/:channelId", s.GetChannelSubscribers)
	subscriptions.Get("/u/:subscriberId", s.GetSubscribedChannels)
	subscriptions.Post("/c/:channelId", s.AuthRequired(), s.ToggleSubscription)

	playlists := api.Group("/playlist")
	playlists.Get("/user/:userId", s.OptionalAuth(), s.GetUserPlaylists)
	playlists.Get("/:playlistId", s.OptionalAuth(), s.GetPlaylist)
	playlists.Post("/", s.AuthRequired(), s.CreatePlaylist)
	playlists.Patch("/add/:videoId/:playlistId", s.AuthRequired(), s.AddVideoToPlaylist)
	playlists.Patch("/remove/:videoId/:playlistId", s.AuthRequired(), s.RemoveVideoFromPlaylist)
	playlists.Patch("/:playlistId", s.AuthRequired(), s.UpdatePlaylist)
	playlists.Delete("/:playlistId", s.AuthRequired(), s.DeletePlaylist)

	dashboard := api.Group("/dashboard", s.AuthRequired())
	dashboard.Get("/stats", s.GetChannelStats)
	dashboard.Get("/videos", s.GetChannelVideos)

	api.Get("/ws", s.AuthRequired(), s.WebsocketHandler())
}

// HealthCheck answers the API-level health route with the readiness result.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} models.ApiResponse
// @Failure 503 {object} models.ApiResponse
// @Router /healthcheck [get]
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	status, report := s.readiness(c.UserContext())
	message := "OK"
	if status != fiber.StatusOK {
		message = "Service unavailable"
	}
	return models.Respond(c, status, report, message)
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
	status, report := s.readiness(c.UserContext())
	return c.Status(status).JSON(report)
}

func (s *Server) readiness(parent context.Context) (int, fiber.Map) {
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unavailable"
	} else if sqlDB, err := s.db.DB(); err != nil {
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
		// OTP, sessions and rate limits all need Redis.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return status, fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	}
}

// authenticate validates the request's access token and rejects revoked ones.
func (s *Server) authenticate(c *fiber.Ctx) (*middleware.TokenClaims, error) {
	claims, err := middleware.ParseToken(s.config.JWTSecret, middleware.ExtractToken(c))
	if err != nil {
		if errors.Is(err, middleware.ErrMissingToken) {
			return nil, models.NewUnauthorizedError("Unauthorized request")
		}
		return nil, models.NewUnauthorizedError("Invalid or expired access token")
	}

	if s.authService != nil {
		revoked, err := s.authService.IsRevoked(c.UserContext(), claims.JTI)
		if err != nil {
			// Fail open: a Redis outage should not sign everybody out.
			middleware.Logger.WarnContext(c.UserContext(), "token blacklist lookup failed", slog.String("error", err.Error()))
		} else if revoked {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

func setViewer(c *fiber.Ctx, claims *middleware.TokenClaims) {
	c.Locals("userID", claims.UserID)
	c.Locals("tokenClaims", claims)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := s.authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		setViewer(c, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the viewer when a valid token is presented and
// lets anonymous requests through otherwise.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if middleware.ExtractToken(c) == "" {
			return c.Next()
		}
		if claims, err := s.authenticate(c); err == nil {
			setViewer(c, claims)
		}
		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.newApp()

	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// newApp builds the Fiber app with middleware and routes installed.
func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Tubbit API",
		BodyLimit: (s.config.MediaMaxUpload + s.config.ImageMaxUpload + 1) << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{StatusCode: fe.Code, Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down notification hub", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
