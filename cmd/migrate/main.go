package main

import (
	"context"
	"os"
	"time"

	"caption-shopify-layer/internal/config"
	"caption-shopify-layer/internal/infrastructure/repository"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// migrate creates the MongoDB indexes the API server checks for at startup.
func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: .env file not found")
	}

	cfg := config.LoadMongo()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	if err := repository.Migrate(ctx, client.Database(cfg.Database)); err != nil {
		logger.Fatal().Err(err).Msg("Migration failed")
	}
	logger.Info().Str("database", cfg.Database).Msg("Migrations applied")
}
