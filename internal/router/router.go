package router

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/anonto42/job-board/backend/internal/events"
	"github.com/anonto42/job-board/backend/internal/handlers"
	"github.com/anonto42/job-board/backend/internal/middleware"
	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/anonto42/job-board/backend/internal/repositories"
	"github.com/anonto42/job-board/backend/internal/services"
	"github.com/anonto42/job-board/backend/pkg/config"
	"github.com/anonto42/job-board/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes and injects dependencies.
// mgClient and verifier may be nil; the activity log and OAuth sign-in are then disabled.
// Background maintenance stops when ctx is done.
func SetupRoutes(
	ctx context.Context,
	e *echo.Echo,
	pgdb *gorm.DB,
	mgClient *mongo.Client,
	verifier services.IDTokenVerifier,
	cfg *config.Config,
	logger *slog.Logger,
) error {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(models.Tables()...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	e.Validator = validators.NewValidator()

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck(pgdb))

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	tokenRepo := repositories.NewPostgresTokenRepository(pgdb)
	jobRepo := repositories.NewPostgresJobRepository(pgdb)
	savedJobRepo := repositories.NewPostgresSavedJobRepository(pgdb)

	var activityRepo repositories.ActivityRepository = repositories.NopActivityRepository{}
	if mgClient != nil {
		mongoActivity := repositories.NewMongoActivityRepository(mgClient.Database(cfg.MongoDatabase))
		if err := mongoActivity.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create activity indexes: %w", err)
		}
		activityRepo = mongoActivity
		log.Println("MongoDB activity log configured.")
	}

	// --- Initialize Services ---
	authService := services.NewAuthService(
		userRepo,
		tokenRepo,
		verifier,
		services.LogMailer{Logger: logger.With("component", "mailer")},
		events.NewHub(),
		services.AuthConfig{
			JWTSecret:        cfg.JWTSecret,
			TokenTTL:         cfg.JWTTTL,
			PasswordResetURL: cfg.PasswordResetURL,
		},
		logger,
	)
	jobService := services.NewJobService(jobRepo, savedJobRepo, activityRepo, logger)

	var limiter *middleware.ClientLimiter
	if cfg.AuthRateLimit > 0 {
		limiter = middleware.NewClientLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	}

	if err := schedulePurge(ctx, cfg.TokenPurgeSchedule, authService, limiter, logger); err != nil {
		return err
	}

	// --- Authentication routes ---
	authGroup := e.Group("/api/v1/auth")
	if limiter != nil {
		authGroup.Use(limiter.Middleware())
	}
	authHandler := handlers.NewAuthHandler(authService)
	authHandler.RegisterAuthRoutes(authGroup, middleware.JWTAuthMiddleware(authService))
	log.Println("Auth routes configured.")

	// --- API routes: sessions are optional, writes require one ---
	api := e.Group("/api/v1")
	api.Use(middleware.OptionalJWTAuthMiddleware(authService))
	requireSession := middleware.RequireSession()

	jobHandler := handlers.NewJobHandler(jobService)
	jobHandler.RegisterJobRoutes(api, requireSession)
	log.Println("Job routes configured.")

	savedJobHandler := handlers.NewSavedJobHandler(jobService)
	savedJobHandler.RegisterSavedJobRoutes(api, requireSession)
	log.Println("Saved job routes configured.")

	profileHandler := handlers.NewProfileHandler(authService, jobService)
	profileHandler.RegisterProfileRoutes(api, requireSession)
	log.Println("Profile routes configured.")

	log.Println("All routes configured.")
	return nil
}

// limiterIdle is how long a client may stay quiet before its rate limiter is dropped
const limiterIdle = time.Hour

// schedulePurge drops expired revocations and recovery tokens, and idle rate
// limiters when limiter is set, on schedule until ctx is done.
// An empty schedule disables the job.
func schedulePurge(ctx context.Context, schedule string, authService *services.AuthService, limiter *middleware.ClientLimiter, logger *slog.Logger) error {
	if schedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := authService.PurgeExpired(ctx); err != nil {
			logger.Warn("failed to purge expired tokens", "error", err)
		}
		if limiter != nil {
			if n := limiter.Prune(limiterIdle); n > 0 {
				logger.Debug("pruned idle rate limiters", "count", n)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("invalid token purge schedule %q: %w", schedule, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return nil
}
