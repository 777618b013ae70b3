package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/unach-dtic/chatbot-api/internal/api"
	"github.com/unach-dtic/chatbot-api/internal/cache"
	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/database"
	"github.com/unach-dtic/chatbot-api/internal/embedding"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/services"
	"github.com/unach-dtic/chatbot-api/internal/services/workerpool"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrations(); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

// run wires configuration, stores, services, and the HTTP server, then
// blocks until a termination signal triggers graceful shutdown.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Environment,
			TracesSampleRate: 0.1,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize Sentry: %v\n", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	logger := logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDatabaseConnection(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Error("failed to close database connection")
		}
	}()

	radiusStores, err := database.NewRadiusStores(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to RADIUS stores: %w", err)
	}
	defer radiusStores.Close()

	// Redis is optional. Without it the embedding cache and the distributed
	// rate limiter degrade to in-process behavior.
	redisClient, err := database.NewRedisConnection(cfg.Redis, logger)
	if err != nil {
		logger.WithError(err).Warn("failed to connect to Redis, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding engine: %w", err)
	}
	if redisClient != nil && cfg.Embedding.CacheTTL > 0 {
		engine = embedding.NewCachedEngine(engine, redisClient.Client,
			time.Duration(cfg.Embedding.CacheTTL)*time.Second)
	}

	pool := workerpool.New(workerpool.Config{
		Workers:   cfg.Embedding.Workers,
		QueueSize: cfg.Embedding.QueueSize,
	})
	if err := pool.Start(); err != nil {
		return fmt.Errorf("failed to start embedding worker pool: %w", err)
	}
	defer func() { _ = pool.Stop() }()
	embedder := services.NewEmbeddingDispatcher(engine, pool)

	faqCache := services.NewFaqCache(db, embedder, logger)
	if err := faqCache.Reload(ctx); err != nil {
		// An empty cache still answers greetings and password intents.
		logger.WithError(err).Warn("initial FAQ load failed, starting with empty cache")
	}

	var corpus *services.CorpusSearcher
	if cfg.Classifier.EnableScraping {
		corpus = services.NewCorpusSearcher(cfg.Classifier.CorpusDir, embedder, logger)
		if err := corpus.Load(ctx); err != nil {
			logger.WithError(err).Warn("corpus load failed, scraping fallback disabled")
			corpus = nil
		}
	}

	unanswered := services.NewUnansweredStore(db, logger)
	resolver, err := services.NewIntentResolver(ctx, embedder, faqCache, corpus, unanswered, cfg.Classifier, logger)
	if err != nil {
		return fmt.Errorf("failed to build intent resolver: %w", err)
	}

	audit := services.NewAuditLog(db, logger)
	otp := services.NewOtpAuthority(db, logger)
	identity := services.NewIdentityGateway(cfg.Identity, logger)
	mail := services.NewMailGateway(cfg.SMTP, logger)
	radiusBackend := services.NewRadiusBackend(radiusStores, audit, logger)
	ldapBackend := services.NewLdapBackend(cfg.LDAP, audit, logger)
	reset := services.NewResetService(otp, radiusBackend, ldapBackend, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	deps := api.Dependencies{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Resolver:   resolver,
		Identity:   identity,
		Otp:        otp,
		Mail:       mail,
		Reset:      reset,
		FaqCache:   faqCache,
		Unanswered: unanswered,
	}
	if redisClient != nil {
		deps.RedisCheck = redisClient
		deps.RedisClient = redisClient.Client
		deps.Responses = cache.NewResponseCache(redisClient.Client, 0)
	}
	api.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	go func() {
		logger.LogStartup("unach-chatbot-api", "1.0.0", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.LogShutdown("unach-chatbot-api", "signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}
