package application

import (
	"context"
	"fmt"
	"sync"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	productsWebhookPath   = "/webhooks/products"
	complianceWebhookPath = "/webhooks/compliance"
)

// WebhookManager registers the app's webhook subscriptions for a shop
type WebhookManager struct {
	shopify ports.ShopifyClient
	appURL  string
	metrics ports.Metrics
	logger  zerolog.Logger

	hooksMu sync.RWMutex
	hooks   []func(shop string)
}

// NewWebhookManager creates a new webhook manager; callback addresses are built from appURL
func NewWebhookManager(shopify ports.ShopifyClient, appURL string, metrics ports.Metrics, logger zerolog.Logger) *WebhookManager {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &WebhookManager{
		shopify: shopify,
		appURL:  appURL,
		metrics: metrics,
		logger:  logger,
	}
}

// DefaultRegistrations returns the fixed subscriptions every shop gets, in registration order
func (m *WebhookManager) DefaultRegistrations() []domain.WebhookRegistration {
	products := m.appURL + productsWebhookPath
	compliance := m.appURL + complianceWebhookPath
	return []domain.WebhookRegistration{
		{Topic: domain.TopicProductsCreate, Address: products},
		{Topic: domain.TopicProductsUpdate, Address: products},
		{Topic: domain.TopicCustomersDataRequest, Address: compliance},
		{Topic: domain.TopicCustomersRedact, Address: compliance},
		{Topic: domain.TopicShopRedact, Address: compliance},
	}
}

// OnRegistered adds a hook that runs once RegisterDefaults has finished for a shop
func (m *WebhookManager) OnRegistered(fn func(shop string)) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// RegisterDefaults creates every default subscription concurrently. One failure
// never cancels the others; each outcome is reported in its own result.
func (m *WebhookManager) RegisterDefaults(ctx context.Context, shop string, accessToken string) []domain.RegistrationResult {
	registrations := m.DefaultRegistrations()
	results := make([]domain.RegistrationResult, len(registrations))

	var g errgroup.Group
	for i, reg := range registrations {
		g.Go(func() error {
			results[i] = m.register(ctx, shop, accessToken, reg)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}

	m.logger.Info().
		Str("shop", shop).
		Int("registered", len(results)-failed).
		Int("failed", failed).
		Msg("Webhook registration finished")

	m.hooksMu.RLock()
	hooks := m.hooks
	m.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(shop)
	}

	return results
}

func (m *WebhookManager) register(ctx context.Context, shop, accessToken string, reg domain.WebhookRegistration) domain.RegistrationResult {
	result := domain.RegistrationResult{Topic: reg.Topic, Address: reg.Address}

	sub, err := m.shopify.CreateWebhook(ctx, shop, accessToken, reg.Topic.String(), reg.Address)
	if err != nil {
		result.Err = fmt.Errorf("failed to register %s: %w", reg.Topic, err)
		m.metrics.RegistrationResult(reg.Topic.String(), false)
		m.logger.Warn().
			Err(err).
			Str("shop", shop).
			Str("topic", reg.Topic.String()).
			Msg("Failed to register webhook")
		return result
	}

	if sub != nil {
		result.WebhookID = sub.ID
	}
	m.metrics.RegistrationResult(reg.Topic.String(), true)
	return result
}

// ListSubscriptions returns the subscriptions the platform holds for the shop
func (m *WebhookManager) ListSubscriptions(ctx context.Context, shop string, accessToken string) ([]domain.Subscription, error) {
	subs, err := m.shopify.ListWebhooks(ctx, shop, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return subs, nil
}
