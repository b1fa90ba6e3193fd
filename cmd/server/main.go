package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"

	"namo/docs"
	"namo/internal/auth"
	"namo/internal/cache"
	"namo/internal/config"
	"namo/internal/db"
	"namo/internal/enrichment"
	"namo/internal/graphql"
	"namo/internal/handler"
	"namo/internal/logging"
	"namo/internal/repository"
	"namo/internal/router"
	"namo/internal/service"
)

// @title Namo API
// @version 1.0
// @description Vote on first names, browse them by popularity and compare likes with other users.
// @host localhost:8000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			logger.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("database init", "error", err)
		os.Exit(1)
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logger.Warn("drop tables", "error", err)
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		logger.Error("auto-migrate", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, running without cache", "addr", cfg.RedisAddr, "error", err)
	}
	cancel()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	nameRepo := repository.NewNameRepository(gormDB)
	voteRepo := repository.NewVoteRepository(gormDB)

	// Initialize auth components
	jwtService, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL)
	if err != nil {
		logger.Error("token service", "error", err)
		os.Exit(1)
	}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	fetcher := enrichment.NewWiktionaryFetcher(cfg.EnrichmentBaseURL, cfg.EnrichmentTimeout)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, hasher)
	nameService := service.NewNameService(nameRepo, fetcher, cacheClient, logger,
		service.WithInfoTTL(cfg.EnrichmentCacheTTL))
	voteService := service.NewVoteService(voteRepo, nameRepo)
	compareService := service.NewCompareService(voteRepo, userRepo)

	schema, err := graphql.NewSchema(nameService, voteService, logger)
	if err != nil {
		logger.Error("graphql schema", "error", err)
		os.Exit(1)
	}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	router.Register(e, cfg, logger, authService, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Names:   handler.NewNameHandler(nameService),
		Votes:   handler.NewVoteHandler(voteService, compareService),
		GraphQL: graphql.NewHandler(schema, handler.UserContextKey),
	})

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info("server starting", "addr", addr, "environment", cfg.Environment,
			"swagger", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}
