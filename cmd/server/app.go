package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lessonhub-api/internal/api"
	"github.com/phrazzld/lessonhub-api/internal/cache"
	"github.com/phrazzld/lessonhub-api/internal/config"
	"github.com/phrazzld/lessonhub-api/internal/enrollment"
	"github.com/phrazzld/lessonhub-api/internal/generation"
	"github.com/phrazzld/lessonhub-api/internal/platform/gemini"
	"github.com/phrazzld/lessonhub-api/internal/platform/metrics"
	"github.com/phrazzld/lessonhub-api/internal/platform/postgres"
	"github.com/phrazzld/lessonhub-api/internal/platform/redis"
	"github.com/phrazzld/lessonhub-api/internal/ratelimit"
	"github.com/phrazzld/lessonhub-api/internal/service"
	"github.com/phrazzld/lessonhub-api/internal/service/auth"
	"github.com/phrazzld/lessonhub-api/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// dependencies are the external adapters the application is assembled from.
// Tests substitute in-memory implementations.
type dependencies struct {
	courses     store.CourseStore
	lessons     store.LessonStore
	memberships store.MembershipStore
	progress    store.ProgressStore
	cacheStore  cache.Store
	windows     ratelimit.WindowStore
	generator   generation.Generator
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Connections owned by the application; nil when assembled in tests.
	db    *sql.DB
	redis *goredis.Client

	metrics  *metrics.Collector
	tokens   auth.TokenValidator
	handlers api.Handlers
}

// newApplication opens the database and Redis connections, builds the LLM
// generator and assembles the application around them.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := postgres.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	redisClient, err := redis.NewClient(ctx, cfg.Redis.URL, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	llm, err := gemini.NewGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		_ = db.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized", slog.String("model", cfg.LLM.ModelName))

	deps := dependencies{
		courses:     postgres.NewPostgresCourseStore(db, logger),
		lessons:     postgres.NewPostgresLessonStore(db, logger),
		memberships: postgres.NewPostgresMembershipStore(db, logger),
		progress:    postgres.NewPostgresProgressStore(db, logger),
		cacheStore:  redis.NewCacheStore(redisClient, logger),
		windows:     redis.NewWindowStore(redisClient),
		generator: gemini.NewBreakerGenerator(llm, gemini.BreakerSettings{
			MaxFailures: cfg.LLM.BreakerMaxFailures,
			Timeout:     cfg.LLM.BreakerTimeout(),
		}, logger),
	}

	app, err := assemble(cfg, logger, deps, metrics.NewCollector())
	if err != nil {
		_ = db.Close()
		_ = redisClient.Close()
		return nil, err
	}
	app.db = db
	app.redis = redisClient

	logger.Info("application initialized")
	return app, nil
}

// assemble wires the cache, rate limiter, ledger and services over deps.
func assemble(
	cfg *config.Config,
	logger *slog.Logger,
	deps dependencies,
	collector *metrics.Collector,
) (*application, error) {
	readThrough := cache.NewReadThrough(deps.cacheStore, collector, logger)
	invalidator := cache.NewInvalidator(deps.cacheStore, collector, logger)

	limiter, err := ratelimit.NewLimiter(deps.windows, rateLimitPolicies(cfg.RateLimit), logger,
		ratelimit.WithMetrics(collector))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	ledger, err := enrollment.NewLedger(
		deps.courses, deps.lessons, deps.memberships, deps.progress, invalidator, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create enrollment ledger: %w", err)
	}

	courseService, err := service.NewCourseService(
		deps.courses, deps.memberships, readThrough, invalidator, cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create course service: %w", err)
	}

	lessonService, err := service.NewLessonService(
		deps.courses, deps.lessons, deps.progress, readThrough, invalidator, cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create lesson service: %w", err)
	}

	generationService, err := service.NewGenerationService(
		deps.courses, deps.lessons, limiter, deps.generator, invalidator, collector, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	tokens, err := auth.NewTokenValidator(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token validator: %w", err)
	}

	return &application{
		config:  cfg,
		logger:  logger,
		metrics: collector,
		tokens:  tokens,
		handlers: api.Handlers{
			Courses:    api.NewCourseHandler(courseService),
			Lessons:    api.NewLessonHandler(lessonService),
			Enrollment: api.NewEnrollmentHandler(ledger),
			Generation: api.NewGenerationHandler(generationService),
		},
	}, nil
}

func rateLimitPolicies(cfg config.RateLimitConfig) map[ratelimit.Action]ratelimit.Policy {
	return map[ratelimit.Action]ratelimit.Policy{
		ratelimit.ActionLessonGeneration: {
			Limit:  cfg.LessonGeneration.Limit,
			Window: cfg.LessonGeneration.Window(),
		},
		ratelimit.ActionPresentationGeneration: {
			Limit:  cfg.PresentationGeneration.Limit,
			Window: cfg.PresentationGeneration.Window(),
		},
	}
}

// Run starts the HTTP server and blocks until it shuts down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
}
