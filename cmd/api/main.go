package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caption-shopify-layer/internal/application"
	"caption-shopify-layer/internal/application/webhook_handlers"
	"caption-shopify-layer/internal/config"
	apiinfra "caption-shopify-layer/internal/infrastructure/api"
	"caption-shopify-layer/internal/infrastructure/billing"
	"caption-shopify-layer/internal/infrastructure/caption"
	"caption-shopify-layer/internal/infrastructure/encryption"
	"caption-shopify-layer/internal/infrastructure/metrics"
	"caption-shopify-layer/internal/infrastructure/pubsub"
	"caption-shopify-layer/internal/infrastructure/redisstore"
	"caption-shopify-layer/internal/infrastructure/repository"
	shopifyinfra "caption-shopify-layer/internal/infrastructure/shopify"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	db := mongoClient.Database(cfg.MongoDatabase)
	if err := repository.CheckSchema(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("MongoDB schema check failed")
	}

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Initialize infrastructure (implementations)
	encryptionService, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	shopRepo := repository.NewMongoShopRepository(db)
	eventRepo := repository.NewMongoCaptionEventRepository(db)
	sessionStore := redisstore.NewSessionStore(redisClient)
	deduper := redisstore.NewWebhookDeduper(redisClient, redisstore.DefaultDedupeTTL)

	shopifyClient := shopifyinfra.NewClient(shopifyinfra.ClientConfig{
		APIKey:      cfg.Shopify.APIKey,
		APISecret:   cfg.Shopify.APISecret,
		RedirectURL: cfg.AppURL + "/oauth/callback",
		Scopes:      cfg.Shopify.Scopes,
		APIVersion:  cfg.Shopify.APIVersion,
		Retries:     3,
	}, logger)
	captionWorker := caption.NewClient(caption.Config{
		BaseURL: cfg.Caption.WorkerURL,
		RPS:     cfg.Caption.RPS,
	}, logger)
	if cfg.Caption.WorkerURL == "" {
		logger.Warn().Msg("CAPTION_WORKER_URL not set, product webhooks will record failed captions")
	}
	stripeProvider := billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, logger)

	appMetrics := metrics.NewMetrics()
	captionStream := pubsub.NewCaptionPubSub(logger)

	// Initialize application services
	webhookManager := application.NewWebhookManager(shopifyClient, cfg.AppURL, appMetrics, logger)
	shopService := application.NewShopService(shopRepo, eventRepo, encryptionService, webhookManager, logger)
	installService := application.NewInstallService(
		shopifyClient,
		sessionStore,
		shopRepo,
		encryptionService,
		webhookManager,
		appMetrics,
		logger,
		cfg.Shopify.Scopes,
	)
	billingService := application.NewBillingService(
		stripeProvider,
		shopRepo,
		cfg.Stripe.PlanPrices(),
		cfg.AppURL,
		appMetrics,
		logger,
	)

	// Initialize webhook dispatcher and its handlers
	webhookDispatcher := application.NewWebhookDispatcher(
		webhook_handlers.NewComplianceHandler(logger, shopRepo, eventRepo),
		webhook_handlers.NewProductHandler(logger, shopService, eventRepo, captionWorker, shopifyClient, captionStream, appMetrics),
		deduper,
		appMetrics,
		logger,
	)

	router := apiinfra.NewRouter(&apiinfra.Dependencies{
		AppURL:         cfg.AppURL,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Install:        installService,
		Shops:          shopService,
		Dispatcher:     webhookDispatcher,
		Verifier:       shopifyinfra.NewWebhookVerifier(cfg.Shopify.WebhookSecret),
		Billing:        billingService,
		Stream:         captionStream,
		Metrics:        appMetrics,
		Health: func(ctx context.Context) error {
			if err := mongoClient.Ping(ctx, nil); err != nil {
				return fmt.Errorf("mongodb: %w", err)
			}
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
		Logger: logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown does not cancel open event streams
	server.RegisterOnShutdown(captionStream.Close)

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}

	// let in-flight webhook registrations finish before the stores close
	installService.Wait()
	logger.Info().Msg("API server stopped")
}
