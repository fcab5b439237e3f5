package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ComplianceHandler handles the mandatory privacy webhooks
type ComplianceHandler struct {
	logger zerolog.Logger
	shops  ports.ShopRepository
	events ports.CaptionEventRepository
}

// NewComplianceHandler creates a new compliance webhook handler
func NewComplianceHandler(
	logger zerolog.Logger,
	shops ports.ShopRepository,
	events ports.CaptionEventRepository,
) *ComplianceHandler {
	return &ComplianceHandler{
		logger: logger,
		shops:  shops,
		events: events,
	}
}

type dataRequestPayload struct {
	Customer struct {
		ID domain.FlexibleID `json:"id"`
	} `json:"customer"`
	DataRequest struct {
		ID domain.FlexibleID `json:"id"`
	} `json:"data_request"`
}

// Handle processes a compliance webhook event. Redactions are idempotent, so
// a store failure is returned and the platform's retry is safe.
func (h *ComplianceHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if event.Shop == "" {
		return fmt.Errorf("%w: missing shop domain", domain.ErrInvalidPayload)
	}

	switch event.Topic {
	case domain.TopicShopRedact:
		// events first, so a failure never leaves logs without their shop
		deletedEvents, err := h.events.DeleteEventsByShop(ctx, event.Shop)
		if err != nil {
			return fmt.Errorf("failed to redact caption events: %w", err)
		}
		deletedShops, err := h.shops.DeleteShop(ctx, event.Shop)
		if err != nil {
			return fmt.Errorf("failed to redact shop: %w", err)
		}
		h.logger.Info().
			Str("shop", event.Shop).
			Int64("events", deletedEvents).
			Int64("shops", deletedShops).
			Msg("Shop redacted")

	case domain.TopicCustomersRedact:
		deletedEvents, err := h.events.DeleteEventsByShop(ctx, event.Shop)
		if err != nil {
			return fmt.Errorf("failed to redact caption events: %w", err)
		}
		h.logger.Info().
			Str("shop", event.Shop).
			Int64("events", deletedEvents).
			Msg("Customer data redacted")

	case domain.TopicCustomersDataRequest:
		// no customer data is stored, so there is nothing to export
		var payload dataRequestPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
		}
		h.logger.Info().
			Str("shop", event.Shop).
			Str("customerId", string(payload.Customer.ID)).
			Str("dataRequestId", string(payload.DataRequest.ID)).
			Msg("Customer data request acknowledged")

	default:
		return fmt.Errorf("compliance handler cannot process topic %s", event.Topic)
	}

	return nil
}
