package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joacominatel/pulsefeed/internal/application"
	"github.com/joacominatel/pulsefeed/internal/domain"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/api"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/auth"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/cache"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/config"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/database"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/logging"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/metrics"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/postgres"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/worker"
)

const (
	// postExistsCacheSize bounds the interaction post lookup cache
	postExistsCacheSize = 10000
	postExistsCacheTTL  = time.Minute

	// devTokenTTL is the lifetime of tokens printed by the token command
	devTokenTTL = 24 * time.Hour
)

func main() {
	logger := logging.New()

	// "pulsefeed token [viewer-id]" prints a bearer token for local testing
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := printToken(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("pulsefeed starting up")

	if err := run(logger); err != nil {
		logger.Error("application failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger *logging.Logger) error {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		return err
	}

	logger = logging.NewWithLevel(logging.ParseLevel(cfg.LogLevel))

	// establish database connection
	conn, err := database.New(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	// run migrations
	migrator := database.NewMigrator(conn, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrator.Run(ctx); err != nil {
		return err
	}

	// verify health after migrations
	if err := conn.HealthCheck(ctx); err != nil {
		return err
	}

	logger.Info("pulsefeed infrastructure ready", "schema", conn.Schema())

	// initialize prometheus metrics
	appMetrics := metrics.New()

	// initialize jwt validator
	jwtValidator := auth.NewJWTValidator(cfg.Auth.JWTSecret)

	// initialize repositories
	pool := conn.Pool()
	postRepo := postgres.NewPostRepository(pool)
	signalRepo := postgres.NewSignalRepository(pool)
	interactionRepo := postgres.NewInteractionRepository(pool)
	uow := postgres.NewUnitOfWork(pool)

	// initialize redis (optional - trending is disabled if REDIS_URL is empty)
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(cache.RedisConfig{URL: cfg.Redis.URL}, logger)
		if err != nil {
			logger.Error("failed to create redis client", "error", err.Error())
			return err
		}

		if err := redisClient.Connect(ctx); err != nil {
			logger.Warn("redis connection failed, continuing without trending", "error", err.Error())
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("redis trending board enabled")
		}
	}

	// initialize interaction ingestion worker (async buffer pattern)
	ingestionWorker := worker.NewIngestionWorker(interactionRepo, uow, worker.IngestionConfig{
		BufferSize:    cfg.Ingestion.BufferSize,
		BatchSize:     cfg.Ingestion.BatchSize,
		FlushInterval: cfg.Ingestion.FlushInterval,
		WorkerCount:   cfg.Ingestion.Workers,
	}, logger).WithMetrics(appMetrics)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var decayWorker *worker.TrendingDecayWorker
	if redisClient != nil {
		ingestionWorker.WithTrendingBoard(redisClient)
		decayWorker = worker.NewTrendingDecayWorker(redisClient, cfg.Trending.DecayInterval, cfg.Trending.DecayFactor, logger)
		decayWorker.Start(workerCtx)
	}

	// start the ingestion worker before accepting requests
	ingestionWorker.Start(workerCtx)

	// initialize use cases
	feedConfig := application.DefaultFeedConfig()
	feedConfig.Timeout = cfg.Feed.RequestTimeout

	rankFeedUseCase := application.NewRankFeedUseCase(
		domain.NewDefaultStrategyRegistry(cfg.Feed.PopularWindow),
		postRepo,
		signalRepo,
		feedConfig,
		logger,
	).WithMetrics(appMetrics)

	if cfg.Feed.CandidateCacheSize > 0 {
		rankFeedUseCase.WithCandidateCache(cache.NewCandidateCache(cfg.Feed.CandidateCacheSize, cfg.Feed.CandidateCacheTTL))
	}

	recordInteractionUseCase := application.NewRecordInteractionUseCase(
		cache.NewPostExistsCache(postRepo, postExistsCacheSize, postExistsCacheTTL),
		ingestionWorker,
		logger,
	)

	readiness := api.ReadinessChecks{
		Required: map[string]api.HealthChecker{"database": conn},
	}

	var getTrendingUseCase *application.GetTrendingUseCase
	if redisClient != nil {
		getTrendingUseCase = application.NewGetTrendingUseCase(redisClient, postRepo, logger)
		readiness.Optional = map[string]api.HealthChecker{"redis": redisClient}
	}

	// initialize http server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = ":" + cfg.Server.Port

	server := api.NewServer(serverConfig, logger)

	// register routes
	api.RegisterRoutes(server.Echo(), api.RouterConfig{
		RankFeedUseCase:          rankFeedUseCase,
		RecordInteractionUseCase: recordInteractionUseCase,
		GetTrendingUseCase:       getTrendingUseCase,
		FeedLimits:               api.FeedLimits{Default: cfg.Feed.DefaultLimit, Max: cfg.Feed.MaxLimit},
		Readiness:                readiness,
		JWTValidator:             jwtValidator,
		Logger:                   logger,
		Metrics:                  appMetrics,
	})

	// start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// wait for shutdown signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			logger.Error("http server error", "error", err.Error())
			runErr = err
		}
	}

	logger.Info("pulsefeed shutting down")

	// stop accepting requests first so nothing is enqueued after the drain
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err.Error())
		runErr = errors.Join(runErr, err)
	}

	// stop ingestion worker and drain buffer
	ingestionWorker.Stop()

	if decayWorker != nil {
		decayWorker.Stop()
	}
	workerCancel()

	logger.Info("pulsefeed shutdown complete")
	return runErr
}

// printToken signs a viewer token with JWT_SECRET.
// a random viewer id is used when none is given.
func printToken(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	viewerID := uuid.NewString()
	if len(args) > 0 {
		id, err := domain.ParseUserID(args[0])
		if err != nil {
			return err
		}
		viewerID = id.String()
	}

	token, err := auth.NewJWTValidator(cfg.Auth.JWTSecret).IssueToken(viewerID, devTokenTTL)
	if err != nil {
		return err
	}

	fmt.Printf("viewer: %s\ntoken:  %s\n", viewerID, token)
	return nil
}
