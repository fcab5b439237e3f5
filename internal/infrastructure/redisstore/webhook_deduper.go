package redisstore

import (
	"context"
	"fmt"
	"time"

	"caption-shopify-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	webhookKeyPrefix = "webhook:"

	// DefaultDedupeTTL covers the platform's retry window for a delivery
	DefaultDedupeTTL = 24 * time.Hour
)

// WebhookDeduper remembers webhook delivery ids in Redis
type WebhookDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWebhookDeduper creates a deduper; ttl <= 0 uses DefaultDedupeTTL
func NewWebhookDeduper(client *redis.Client, ttl time.Duration) ports.WebhookDeduper {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &WebhookDeduper{client: client, ttl: ttl}
}

// Claim records id and reports whether it had been seen before.
// An empty id is never treated as a duplicate.
func (d *WebhookDeduper) Claim(ctx context.Context, id, shop, topic string) (bool, error) {
	if id == "" {
		return false, nil
	}

	ok, err := d.client.SetNX(ctx, webhookKeyPrefix+id, shop+"|"+topic, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim webhook %s: %w", id, err)
	}
	return !ok, nil
}

// Release drops the claim on id; releasing an unknown id is not an error
func (d *WebhookDeduper) Release(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := d.client.Del(ctx, webhookKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to release webhook %s: %w", id, err)
	}
	return nil
}
