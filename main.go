package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"

	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/internmatch/internmatch-engine/pkg/audit"
	"github.com/internmatch/internmatch-engine/pkg/auth"
	"github.com/internmatch/internmatch-engine/pkg/config"
	"github.com/internmatch/internmatch-engine/pkg/database"
	"github.com/internmatch/internmatch-engine/pkg/handlers"
	"github.com/internmatch/internmatch-engine/pkg/logging"
	"github.com/internmatch/internmatch-engine/pkg/middleware"
	"github.com/internmatch/internmatch-engine/pkg/repositories"
	"github.com/internmatch/internmatch-engine/pkg/scoring"
	"github.com/internmatch/internmatch-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.PoolConfig().DSN())),
		zap.Bool("llm_scoring", cfg.Scoring.LLMEnabled()))

	ctx := context.Background()

	// Migrations run over database/sql; the pool itself is pgx native.
	migrationDB, err := sql.Open("pgx", cfg.Database.PoolConfig().DSN())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.String("error", logging.SanitizeError(err)))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, cfg.Database.PoolConfig())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	opportunityRepo := repositories.NewOpportunityRepository(db)
	applicationRepo := repositories.NewApplicationRepository(db)
	progressRepo := repositories.NewProgressRepository(db)
	feedbackRepo := repositories.NewFeedbackRepository(db)

	// Scoring: the overlap scorer always backs fast mode; full mode uses
	// the LLM backend when one is configured.
	fastScorer := scoring.OverlapScorer{}
	var fullScorer scoring.Scorer = fastScorer
	if cfg.Scoring.LLMEnabled() {
		llmScorer, err := scoring.NewLLMScorer(&scoring.LLMConfig{
			Endpoint: cfg.Scoring.LLMEndpoint,
			Model:    cfg.Scoring.LLMModel,
			APIKey:   cfg.Scoring.LLMAPIKey,
			Timeout:  cfg.Scoring.Timeout(),
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create LLM scorer", zap.Error(err))
		}
		fullScorer = llmScorer
	}
	pool := scoring.NewWorkerPool(scoring.WorkerPoolConfig{
		MaxConcurrent: cfg.Scoring.MaxConcurrent,
	}, logger)

	// Services
	userService := services.NewUserService(userRepo, logger)
	opportunityService := services.NewOpportunityService(opportunityRepo, applicationRepo, logger)
	applicationService := services.NewApplicationService(applicationRepo, opportunityRepo, userRepo, logger)
	progressService := services.NewProgressService(progressRepo, applicationRepo, opportunityRepo, logger)
	feedbackService := services.NewFeedbackService(feedbackRepo, applicationRepo, opportunityRepo, logger)
	matchService := services.NewMatchService(opportunityRepo, userRepo, fullScorer, fastScorer, pool, logger)
	statsService := services.NewStatsService(userRepo, opportunityRepo, applicationRepo, logger)

	// Auth
	tokenService, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		logger.Fatal("Failed to create token service", zap.Error(err))
	}
	authMiddleware := auth.NewMiddleware(tokenService, userRepo, logger)
	auditor := audit.NewSecurityAuditor(logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(userService, tokenService, auditor, logger).RegisterRoutes(mux)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAdminHandler(userService, statsService, auditor, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewOpportunitiesHandler(opportunityService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewApplicationsHandler(applicationService, matchService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewProgressHandler(progressService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewFeedbackHandler(feedbackService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewMatchesHandler(matchService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting internmatch-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a development logger locally and a production logger
// everywhere else.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
