package ports

import (
	"context"
	"net/url"

	"caption-shopify-layer/internal/domain"
)

// ShopifyClient defines the Shopify operations the app performs
type ShopifyClient interface {
	// Authentication
	AuthorizeURL(shop string, state string) (string, error)
	VerifyCallback(callbackURL *url.URL) (bool, error)
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)

	// Webhook API
	CreateWebhook(ctx context.Context, shop string, accessToken string, topic string, address string) (*domain.Subscription, error)
	ListWebhooks(ctx context.Context, shop string, accessToken string) ([]domain.Subscription, error)

	// Product image API
	UpdateImageAlt(ctx context.Context, shop string, accessToken string, productID uint64, imageID uint64, alt string) error
}
