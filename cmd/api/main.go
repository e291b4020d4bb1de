package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/analysis"
	"github.com/noah-isme/gcc-pulse-api/internal/config"
	"github.com/noah-isme/gcc-pulse-api/internal/database"
	"github.com/noah-isme/gcc-pulse-api/internal/handler"
	"github.com/noah-isme/gcc-pulse-api/internal/middleware"
	"github.com/noah-isme/gcc-pulse-api/internal/repository"
	"github.com/noah-isme/gcc-pulse-api/internal/router"
	"github.com/noah-isme/gcc-pulse-api/internal/service"
	"github.com/noah-isme/gcc-pulse-api/internal/session"
	"github.com/noah-isme/gcc-pulse-api/pkg/ai"
	cloud "github.com/noah-isme/gcc-pulse-api/pkg/cloudinary"
	"github.com/noah-isme/gcc-pulse-api/pkg/document"
	"github.com/noah-isme/gcc-pulse-api/pkg/events"
	"github.com/noah-isme/gcc-pulse-api/pkg/objectstore"
	"github.com/noah-isme/gcc-pulse-api/pkg/sandbox"
)

func main() {
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	addr := pflag.String("addr", "", "listen address, overrides GCC_PULSE_APP_PORT")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *addr != "" {
		cfg.AppPort = *addr
	}

	logger := newLogger(cfg)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	if *migrateOnly {
		logger.Info().Msg("migrations applied")
		return
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, session revocation and job caching disabled")
	}

	var revocations session.RevocationStore
	if redisClient != nil {
		revocations = session.NewRedisRevocationStore(redisClient)
	}
	sessions := session.NewManager(session.Config{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, revocations)

	hub := newEventHub(rootCtx, cfg, logger)
	model := newModel(rootCtx, cfg, logger)
	opts := analysis.Options{
		DemoDelay:      cfg.DemoDelay,
		RequestTimeout: cfg.AIRequestTimeout,
		Logger:         logger,
	}
	analyzer := analysis.NewResumeAnalyzer(model, opts)
	logger.Info().Str("mode", string(analyzer.Mode())).Msg("resume analysis configured")

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	jobRepo := repository.NewJobRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)

	authService := service.NewAuthService(userRepo, sessions, validate, logger)
	intakeService := service.NewResumeIntakeService(
		analyzer,
		newExtractor(rootCtx, cfg, logger),
		newStorage(cfg, logger),
		candidateRepo,
		hub,
		service.ResumeIntakeConfig{
			MinChars:       cfg.MinResumeChars,
			MaxFileBytes:   cfg.MaxResumeBytes,
			Bucket:         cfg.ResumeBucket,
			StorageTimeout: cfg.StorageTimeout,
		},
		logger,
	)
	jobService := service.NewJobService(jobRepo, redisClient, cfg.JobCacheTTL, validate, logger)
	applicationService := service.NewApplicationService(applicationRepo, jobRepo, candidateRepo, assessmentRepo, validate, logger)
	candidateService := service.NewCandidateService(candidateRepo, validate, logger)
	assessmentService := service.NewAssessmentService(
		assessmentRepo,
		applicationRepo,
		candidateRepo,
		analysis.NewQuestionGenerator(model, opts),
		analysis.NewAnswerEvaluator(model, opts),
		newRunner(cfg, logger),
		hub,
		logger,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxResumeBytes) + 2*1024*1024,
	})

	middleware.Register(app, middleware.Config{Logger: logger, AllowOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler: handler.NewAuthHandler(authService, handler.CookieConfig{
			Name:   cfg.SessionCookie,
			Secure: cfg.SecureCookies,
		}, logger),
		ResumeHandler:      handler.NewResumeHandler(intakeService, cfg.MaxResumeBytes, logger),
		JobHandler:         handler.NewJobHandler(jobService, applicationService, logger),
		ApplicationHandler: handler.NewApplicationHandler(applicationService, logger),
		AssessmentHandler:  handler.NewAssessmentHandler(assessmentService, logger),
		CandidateHandler:   handler.NewCandidateHandler(candidateService, logger),
		EventHandler:       handler.NewEventHandler(hub, logger),
		PageHandler:        handler.NewPageHandler(sessions, cfg.SessionCookie, logger),
		Sessions:           sessions,
		Gatekeeper:         access.NewGatekeeper(),
		HealthChecks:       healthChecks(db, redisClient),
		AnalysisMode:       string(analyzer.Mode()),
		Logger:             logger,
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(rootCtx, app, logger)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogFormat == "pretty" || cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
}

// newModel returns nil when no provider is usable, which selects the offline
// analysers.
func newModel(ctx context.Context, cfg config.Config, logger zerolog.Logger) ai.Model {
	switch cfg.AIProvider {
	case config.AIProviderOpenAI:
		if !ai.HasUsableAPIKey(cfg.OpenAIAPIKey) {
			logger.Warn().Msg("openai api key missing or placeholder, running in demo mode")
			return nil
		}
		model, err := ai.NewOpenAIModel(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("openai model unavailable, running in demo mode")
			return nil
		}
		return model
	default:
		if strings.TrimSpace(cfg.GeminiProject) == "" {
			logger.Warn().Msg("gemini project not configured, running in demo mode")
			return nil
		}
		model, err := ai.NewGeminiModel(ctx, ai.GeminiConfig{
			ProjectID:       cfg.GeminiProject,
			Location:        cfg.GeminiLocation,
			Model:           cfg.AIModel,
			CredentialsFile: cfg.GeminiCredsFile,
			Logger:          logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("gemini model unavailable, running in demo mode")
			return nil
		}
		return model
	}
}

func newExtractor(ctx context.Context, cfg config.Config, logger zerolog.Logger) service.TextExtractor {
	extractor, err := document.NewPDFExtractor(ctx, cfg.AIRequestTimeout, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("pdf extraction disabled")
		return nil
	}
	return extractor
}

func newStorage(cfg config.Config, logger zerolog.Logger) service.FileStorage {
	switch cfg.StorageProvider {
	case config.StorageCloudinary:
		if cfg.CloudinaryCloudName == "" {
			logger.Warn().Msg("cloudinary not configured, resume files will not be stored")
			return nil
		}
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("cloudinary unavailable, resume files will not be stored")
			return nil
		}
		return store
	case config.StorageMinio:
		store, err := objectstore.NewMinIO(objectstore.Config{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicBaseURL,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("minio unavailable, resume files will not be stored")
			return nil
		}
		return store
	default:
		return nil
	}
}

func newEventHub(ctx context.Context, cfg config.Config, logger zerolog.Logger) *events.Hub {
	var conn *nats.Conn
	if cfg.NATSURL != "" {
		var err error
		conn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, events stay local")
			conn = nil
		}
	}

	hub := events.NewHub(events.Config{
		NATS:   conn,
		Buffer: cfg.EventBufferSize,
		Logger: logger,
	})
	if err := hub.Start(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to subscribe to remote events")
	}
	return hub
}

// newRunner returns nil unless the sandbox is enabled and Docker answers.
func newRunner(cfg config.Config, logger zerolog.Logger) service.AnswerRunner {
	if !cfg.SandboxEnabled {
		return nil
	}
	executor, err := sandbox.NewDockerExecutor(sandbox.DockerConfig{
		Host:          cfg.DockerHost,
		Timeout:       cfg.SandboxTimeout,
		MemoryLimitMB: int64(cfg.SandboxMemoryMB),
		CPUShares:     int64(cfg.SandboxCPUShares),
		Logger:        logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("sandbox disabled")
		return nil
	}
	return sandbox.NewRunner(executor, sandbox.RunnerConfig{
		Timeout:       cfg.SandboxTimeout,
		MemoryLimitMB: cfg.SandboxMemoryMB,
		CPUShares:     cfg.SandboxCPUShares,
	})
}

func healthChecks(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthCheckFunc {
	checks := map[string]handler.HealthCheckFunc{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
