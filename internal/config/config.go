package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultPort      = "8080"
	defaultAppURL    = "http://localhost:8080"
	defaultMongoURI  = "mongodb://localhost:27017"
	defaultDatabase  = "caption"
	defaultRedisURL  = "redis://localhost:6379/0"
	defaultScopes    = "read_products,write_products"
	defaultWorkerRPS = 5
)

// Config is the process configuration, read from the environment
type Config struct {
	Port   string
	AppURL string

	MongoURI      string
	MongoDatabase string
	RedisURL      string

	EncryptionKey string

	Shopify ShopifyConfig
	Caption CaptionConfig
	Stripe  StripeConfig

	CORSAllowedOrigins []string
}

// ShopifyConfig holds the app credentials issued by the platform
type ShopifyConfig struct {
	APIKey        string
	APISecret     string
	WebhookSecret string
	Scopes        []string
	APIVersion    string
}

// CaptionConfig points at the caption worker
type CaptionConfig struct {
	WorkerURL string
	RPS       float64
}

// MongoConfig locates the MongoDB database
type MongoConfig struct {
	URI      string
	Database string
}

// LoadMongo reads only the MongoDB settings. Unlike Load it requires no
// secrets, so tools that touch nothing but the database can use it.
func LoadMongo() MongoConfig {
	return MongoConfig{
		URI:      getEnv("MONGODB_URI", defaultMongoURI),
		Database: getEnv("MONGODB_DATABASE", defaultDatabase),
	}
}

// StripeConfig holds billing credentials and the plan price ids
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceStarter  string
	PriceGrowth   string
	PricePro      string
}

// Load reads the configuration from environment variables, applying defaults.
// Callers load any .env file beforehand.
func Load() (*Config, error) {
	mongo := LoadMongo()
	cfg := &Config{
		Port:          getEnv("PORT", defaultPort),
		AppURL:        strings.TrimRight(getEnv("APP_URL", defaultAppURL), "/"),
		MongoURI:      mongo.URI,
		MongoDatabase: mongo.Database,
		RedisURL:      getEnv("REDIS_URL", defaultRedisURL),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		Shopify: ShopifyConfig{
			APIKey:     os.Getenv("SHOPIFY_API_KEY"),
			APISecret:  os.Getenv("SHOPIFY_API_SECRET"),
			Scopes:     splitList(getEnv("SHOPIFY_SCOPES", defaultScopes)),
			APIVersion: os.Getenv("SHOPIFY_API_VERSION"),
		},
		Caption: CaptionConfig{
			WorkerURL: strings.TrimSpace(os.Getenv("CAPTION_WORKER_URL")),
			RPS:       defaultWorkerRPS,
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceStarter:  getEnv("STRIPE_PRICE_STARTER", "price_starter"),
			PriceGrowth:   getEnv("STRIPE_PRICE_GROWTH", "price_growth"),
			PricePro:      getEnv("STRIPE_PRICE_PRO", "price_pro"),
		},
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	cfg.Shopify.WebhookSecret = getEnv("SHOPIFY_WEBHOOK_SECRET", cfg.Shopify.APISecret)

	if raw := strings.TrimSpace(os.Getenv("CAPTION_WORKER_RPS")); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CAPTION_WORKER_RPS %q: %w", raw, err)
		}
		cfg.Caption.RPS = rps
	}

	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{cfg.AppURL}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the settings every request path depends on are present
func (c *Config) Validate() error {
	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY environment variable is required")
	}
	if c.Shopify.APIKey == "" || c.Shopify.APISecret == "" {
		return errors.New("SHOPIFY_API_KEY and SHOPIFY_API_SECRET environment variables are required")
	}
	if len(c.Shopify.Scopes) == 0 {
		return errors.New("SHOPIFY_SCOPES must list at least one scope")
	}
	if c.Caption.RPS <= 0 {
		return errors.New("CAPTION_WORKER_RPS must be positive")
	}
	return nil
}

// PlanPrices maps each paid plan name to its price id
func (s StripeConfig) PlanPrices() map[string]string {
	return map[string]string{
		"starter": s.PriceStarter,
		"growth":  s.PriceGrowth,
		"pro":     s.PricePro,
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
