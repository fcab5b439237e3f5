package application

import (
	"context"
	"fmt"
	"time"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	DefaultLogsTake = 10
	MaxLogsTake     = 100

	webhookStatusTTL = 30 * time.Second
)

// WebhookStatus reports the subscriptions the platform holds for a shop
type WebhookStatus struct {
	Shop     string                `json:"shop"`
	Webhooks []domain.Subscription `json:"webhooks"`
	Count    int                   `json:"count"`
}

// ShopService serves shop lookups and the dashboard's read paths
type ShopService struct {
	shops         ports.ShopRepository
	events        ports.CaptionEventRepository
	encryptionSvc ports.EncryptionService
	webhooks      *WebhookManager
	statusCache   *cache.Cache
	logger        zerolog.Logger
}

// NewShopService creates a new shop service. A shop's cached webhook status is
// dropped whenever webhooks finishes registering that shop.
func NewShopService(
	shops ports.ShopRepository,
	events ports.CaptionEventRepository,
	encryptionSvc ports.EncryptionService,
	webhooks *WebhookManager,
	logger zerolog.Logger,
) *ShopService {
	s := &ShopService{
		shops:         shops,
		events:        events,
		encryptionSvc: encryptionSvc,
		webhooks:      webhooks,
		statusCache:   cache.New(webhookStatusTTL, 2*webhookStatusTTL),
		logger:        logger,
	}
	if webhooks != nil {
		webhooks.OnRegistered(s.InvalidateWebhookStatus)
	}
	return s
}

// GetShop returns the shop with its access token decrypted, or nil, nil when unknown
func (s *ShopService) GetShop(ctx context.Context, domain string) (*domain.Shop, error) {
	shop, err := s.shops.GetShop(ctx, domain)
	if err != nil {
		s.logger.Error().Err(err).Str("domain", domain).Msg("Failed to get shop")
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return nil, nil
	}

	if shop.AccessToken != "" {
		decryptedToken, err := s.encryptionSvc.Decrypt(shop.AccessToken)
		if err != nil {
			s.logger.Error().Err(err).Str("domain", domain).Msg("Failed to decrypt access token")
			return nil, fmt.Errorf("failed to decrypt access token: %w", err)
		}
		shop.AccessToken = decryptedToken
	}

	return shop, nil
}

// LatestShop returns the most recently installed shop without its credential
func (s *ShopService) LatestShop(ctx context.Context) (*domain.Shop, error) {
	shop, err := s.shops.LatestShop(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest shop: %w", err)
	}
	if shop != nil {
		shop.AccessToken = ""
	}
	return shop, nil
}

// RecordUsage increments the shop's caption counter
func (s *ShopService) RecordUsage(ctx context.Context, domain string) error {
	if err := s.shops.IncrementUsage(ctx, domain); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// ListLogs returns one page of caption events, newest first. take is clamped
// to [1, MaxLogsTake] with DefaultLogsTake for non-positive values; page starts at 1.
func (s *ShopService) ListLogs(ctx context.Context, shop string, take, page int) (*domain.CaptionEventPage, error) {
	if take <= 0 {
		take = DefaultLogsTake
	}
	if take > MaxLogsTake {
		take = MaxLogsTake
	}
	if page < 1 {
		page = 1
	}

	count, err := s.events.CountEvents(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to count caption events: %w", err)
	}

	pages := int((count + int64(take) - 1) / int64(take))
	if pages < 1 {
		pages = 1
	}

	logs, err := s.events.ListEvents(ctx, shop, int64(page-1)*int64(take), int64(take))
	if err != nil {
		return nil, fmt.Errorf("failed to list caption events: %w", err)
	}

	return &domain.CaptionEventPage{
		Logs:  logs,
		Page:  page,
		Pages: pages,
		Count: count,
		Take:  take,
	}, nil
}

// WebhookStatus lists the platform subscriptions for shop, or for the latest
// shop when shop is empty. Results are cached briefly per shop.
func (s *ShopService) WebhookStatus(ctx context.Context, shop string) (*WebhookStatus, error) {
	var (
		target *domain.Shop
		err    error
	)
	if shop == "" {
		target, err = s.shops.LatestShop(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest shop: %w", err)
		}
		if target != nil {
			target, err = s.GetShop(ctx, target.Domain)
		}
	} else {
		target, err = s.GetShop(ctx, shop)
	}
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, domain.ErrShopNotFound
	}

	if cached, ok := s.statusCache.Get(target.Domain); ok {
		return cached.(*WebhookStatus), nil
	}

	subs, err := s.webhooks.ListSubscriptions(ctx, target.Domain, target.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", target.Domain).Msg("Failed to list webhooks")
		return nil, err
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}

	status := &WebhookStatus{
		Shop:     target.Domain,
		Webhooks: subs,
		Count:    len(subs),
	}
	s.statusCache.SetDefault(target.Domain, status)
	return status, nil
}

// InvalidateWebhookStatus drops any cached status for shop
func (s *ShopService) InvalidateWebhookStatus(shop string) {
	s.statusCache.Delete(shop)
}
