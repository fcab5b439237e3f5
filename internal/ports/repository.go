package ports

import (
	"context"

	"caption-shopify-layer/internal/domain"
)

// ShopRepository persists shop installations keyed by domain
type ShopRepository interface {
	// UpsertShop creates the shop or overwrites its credential and scopes.
	// Plan, usage and billing fields are left untouched on reinstall.
	UpsertShop(ctx context.Context, shop *domain.Shop) error
	// GetShop returns nil, nil when the domain is unknown
	GetShop(ctx context.Context, domain string) (*domain.Shop, error)
	// LatestShop returns the most recently created shop, or nil, nil
	LatestShop(ctx context.Context) (*domain.Shop, error)
	DeleteShop(ctx context.Context, domain string) (int64, error)
	IncrementUsage(ctx context.Context, domain string) error

	// Billing operations
	UpdatePlan(ctx context.Context, domain string, plan domain.Plan, customerID string) error
	ResetPlanByCustomer(ctx context.Context, customerID string, plan domain.Plan) (int64, error)
}

// CaptionEventRepository persists caption events
type CaptionEventRepository interface {
	CreateEvent(ctx context.Context, event *domain.CaptionEvent) error
	DeleteEventsByShop(ctx context.Context, shop string) (int64, error)
	// CountEvents counts all events when shop is empty
	CountEvents(ctx context.Context, shop string) (int64, error)
	// ListEvents returns events newest first
	ListEvents(ctx context.Context, shop string, skip, limit int64) ([]*domain.CaptionEvent, error)
}

// SessionRepository stores pending OAuth handshakes
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	// ConsumeSession returns and deletes the session; nil, nil when absent or expired
	ConsumeSession(ctx context.Context, state string) (*domain.Session, error)
}

// WebhookDeduper claims webhook delivery ids so retries are processed once
type WebhookDeduper interface {
	// Claim returns true when id has already been claimed
	Claim(ctx context.Context, id, shop, topic string) (bool, error)
	// Release forgets id so a redelivery is processed again
	Release(ctx context.Context, id string) error
}
