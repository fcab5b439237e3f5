package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// DefaultAPIVersion is the Admin API version the app is built against
const DefaultAPIVersion = "2025-01"

// ClientConfig configures the Shopify adapter
type ClientConfig struct {
	APIKey      string
	APISecret   string
	RedirectURL string
	Scopes      []string
	APIVersion  string
	Retries     int
	Timeout     time.Duration
}

type client struct {
	app        goshopify.App
	apiVersion string
	retries    int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Shopify client adapter
func NewClient(cfg ClientConfig, logger zerolog.Logger) ports.ShopifyClient {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	app := goshopify.App{
		ApiKey:      cfg.APIKey,
		ApiSecret:   cfg.APISecret,
		RedirectUrl: cfg.RedirectURL,
		Scope:       strings.Join(cfg.Scopes, ","),
	}
	return &client{
		app:        app,
		apiVersion: cfg.APIVersion,
		retries:    cfg.Retries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// createClient is a helper to create a goshopify client for one shop
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	opts := []goshopify.Option{
		goshopify.WithVersion(c.apiVersion),
		goshopify.WithHTTPClient(c.httpClient),
	}
	if c.retries > 0 {
		opts = append(opts, goshopify.WithRetry(c.retries))
	}
	client, err := goshopify.NewClient(c.app, shopDomain, accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Authentication methods

func (c *client) AuthorizeURL(shop string, state string) (string, error) {
	authURL, err := c.app.AuthorizeUrl(shop, state)
	if err != nil {
		return "", fmt.Errorf("failed to build authorize url: %w", err)
	}

	c.logger.Debug().
		Str("shop", shop).
		Str("scopes", c.app.Scope).
		Msg("Generated OAuth authorization URL")

	return authURL, nil
}

func (c *client) VerifyCallback(callbackURL *url.URL) (bool, error) {
	ok, err := c.app.VerifyAuthorizationURL(callbackURL)
	if err != nil {
		return false, fmt.Errorf("failed to verify callback: %w", err)
	}
	return ok, nil
}

func (c *client) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	token, err := c.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("failed to exchange token: empty access token")
	}
	return token, nil
}

// Webhook API

func (c *client) CreateWebhook(ctx context.Context, shopDomain string, accessToken string, topic string, address string) (*domain.Subscription, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	webhook := goshopify.Webhook{
		Topic:   topic,
		Address: address,
		Format:  "json",
	}
	created, err := client.Webhook.Create(ctx, webhook)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	sub := toSubscription(*created)
	return &sub, nil
}

func (c *client) ListWebhooks(ctx context.Context, shopDomain string, accessToken string) ([]domain.Subscription, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	webhooks, err := client.Webhook.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	subs := make([]domain.Subscription, 0, len(webhooks))
	for _, w := range webhooks {
		subs = append(subs, toSubscription(w))
	}
	return subs, nil
}

// Product image API

type imageAltUpdate struct {
	Image imageAlt `json:"image"`
}

type imageAlt struct {
	ID  uint64 `json:"id"`
	Alt string `json:"alt"`
}

func (c *client) UpdateImageAlt(ctx context.Context, shopDomain string, accessToken string, productID uint64, imageID uint64, alt string) error {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("products/%d/images/%d.json", productID, imageID)
	body := imageAltUpdate{Image: imageAlt{ID: imageID, Alt: alt}}
	if err := client.Put(ctx, path, body, nil); err != nil {
		return fmt.Errorf("failed to update image alt: %w", err)
	}
	return nil
}

func toSubscription(w goshopify.Webhook) domain.Subscription {
	return domain.Subscription{
		ID:        w.Id,
		Topic:     w.Topic,
		Address:   w.Address,
		Format:    w.Format,
		CreatedAt: w.CreatedAt,
	}
}
