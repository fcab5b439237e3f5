// Package mocks holds testify mocks of the ports interfaces.
package mocks

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/stretchr/testify/mock"
)

// MockShopRepository is a mock implementation of ports.ShopRepository
type MockShopRepository struct {
	mock.Mock
}

func (m *MockShopRepository) UpsertShop(ctx context.Context, shop *domain.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

func (m *MockShopRepository) GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	args := m.Called(ctx, shopDomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// copy so callers mutating the result do not alter the fixture
	shop := *args.Get(0).(*domain.Shop)
	return &shop, args.Error(1)
}

func (m *MockShopRepository) LatestShop(ctx context.Context) (*domain.Shop, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	shop := *args.Get(0).(*domain.Shop)
	return &shop, args.Error(1)
}

func (m *MockShopRepository) DeleteShop(ctx context.Context, shopDomain string) (int64, error) {
	args := m.Called(ctx, shopDomain)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShopRepository) IncrementUsage(ctx context.Context, shopDomain string) error {
	args := m.Called(ctx, shopDomain)
	return args.Error(0)
}

func (m *MockShopRepository) UpdatePlan(ctx context.Context, shopDomain string, plan domain.Plan, customerID string) error {
	args := m.Called(ctx, shopDomain, plan, customerID)
	return args.Error(0)
}

func (m *MockShopRepository) ResetPlanByCustomer(ctx context.Context, customerID string, plan domain.Plan) (int64, error) {
	args := m.Called(ctx, customerID, plan)
	return args.Get(0).(int64), args.Error(1)
}

// MockCaptionEventRepository is a mock implementation of ports.CaptionEventRepository
type MockCaptionEventRepository struct {
	mock.Mock
}

func (m *MockCaptionEventRepository) CreateEvent(ctx context.Context, event *domain.CaptionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockCaptionEventRepository) DeleteEventsByShop(ctx context.Context, shop string) (int64, error) {
	args := m.Called(ctx, shop)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCaptionEventRepository) CountEvents(ctx context.Context, shop string) (int64, error) {
	args := m.Called(ctx, shop)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCaptionEventRepository) ListEvents(ctx context.Context, shop string, skip, limit int64) ([]*domain.CaptionEvent, error) {
	args := m.Called(ctx, shop, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CaptionEvent), args.Error(1)
}

// MockSessionRepository is a mock implementation of ports.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) ConsumeSession(ctx context.Context, state string) (*domain.Session, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// MockWebhookDeduper is a mock implementation of ports.WebhookDeduper
type MockWebhookDeduper struct {
	mock.Mock
}

func (m *MockWebhookDeduper) Claim(ctx context.Context, id, shop, topic string) (bool, error) {
	args := m.Called(ctx, id, shop, topic)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookDeduper) Release(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockShopifyClient is a mock implementation of ports.ShopifyClient
type MockShopifyClient struct {
	mock.Mock
}

func (m *MockShopifyClient) AuthorizeURL(shop string, state string) (string, error) {
	args := m.Called(shop, state)
	return args.String(0), args.Error(1)
}

func (m *MockShopifyClient) VerifyCallback(callbackURL *url.URL) (bool, error) {
	args := m.Called(callbackURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockShopifyClient) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	args := m.Called(ctx, shop, code)
	return args.String(0), args.Error(1)
}

func (m *MockShopifyClient) CreateWebhook(ctx context.Context, shop string, accessToken string, topic string, address string) (*domain.Subscription, error) {
	args := m.Called(ctx, shop, accessToken, topic, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockShopifyClient) ListWebhooks(ctx context.Context, shop string, accessToken string) ([]domain.Subscription, error) {
	args := m.Called(ctx, shop, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func (m *MockShopifyClient) UpdateImageAlt(ctx context.Context, shop string, accessToken string, productID uint64, imageID uint64, alt string) error {
	args := m.Called(ctx, shop, accessToken, productID, imageID, alt)
	return args.Error(0)
}

// MockCaptionWorker is a mock implementation of ports.CaptionWorker
type MockCaptionWorker struct {
	mock.Mock
}

func (m *MockCaptionWorker) Caption(ctx context.Context, req ports.CaptionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockBillingProvider is a mock implementation of ports.BillingProvider
type MockBillingProvider struct {
	mock.Mock
}

func (m *MockBillingProvider) CreateCheckout(ctx context.Context, req ports.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) ParseEvent(payload []byte, signature string) (*ports.BillingEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.BillingEvent), args.Error(1)
}

// ErrNotEncrypted is returned by FakeEncryption.Decrypt for values it did not produce
var ErrNotEncrypted = errors.New("value was not encrypted")

// FakeEncryption reverses the "enc:" prefix; it is not a mock because every
// test needs the same behaviour
type FakeEncryption struct{}

func (FakeEncryption) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (FakeEncryption) Decrypt(ciphertext string) (string, error) {
	if len(ciphertext) < 4 || ciphertext[:4] != "enc:" {
		return "", ErrNotEncrypted
	}
	return ciphertext[4:], nil
}

// RecordingPublisher collects published caption events
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*domain.CaptionEvent
}

func (p *RecordingPublisher) Publish(event *domain.CaptionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns a snapshot of the published events
func (p *RecordingPublisher) Events() []*domain.CaptionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.CaptionEvent(nil), p.events...)
}
