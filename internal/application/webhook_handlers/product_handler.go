package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"caption-shopify-layer/internal/application"
	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ProductHandler captions the first image of a product and writes the alt text back
type ProductHandler struct {
	logger    zerolog.Logger
	shops     *application.ShopService
	events    ports.CaptionEventRepository
	worker    ports.CaptionWorker
	shopify   ports.ShopifyClient
	publisher ports.CaptionEventPublisher
	metrics   ports.Metrics
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(
	logger zerolog.Logger,
	shops *application.ShopService,
	events ports.CaptionEventRepository,
	worker ports.CaptionWorker,
	shopify ports.ShopifyClient,
	publisher ports.CaptionEventPublisher,
	metrics ports.Metrics,
) *ProductHandler {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &ProductHandler{
		logger:    logger,
		shops:     shops,
		events:    events,
		worker:    worker,
		shopify:   shopify,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Handle processes a product webhook event.
//
// A product without an image is acknowledged without side effects. An unknown
// shop returns domain.ErrShopNotFound before the worker is called. Once the
// caption step is reached, worker and write-back failures are recorded as a
// failed caption event and Handle returns nil.
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var product domain.ProductPayload
	if err := json.Unmarshal(event.Payload, &product); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
	}

	image, ok := product.FirstImage()
	if !ok {
		h.logger.Debug().
			Str("shop", event.Shop).
			Str("productId", string(product.ID)).
			Msg("Product has no image, nothing to caption")
		return nil
	}

	shop, err := h.shops.GetShop(ctx, event.Shop)
	if err != nil {
		return err
	}
	if shop == nil {
		return fmt.Errorf("%w: %s", domain.ErrShopNotFound, event.Shop)
	}

	captionEvent := &domain.CaptionEvent{
		Shop:      shop.Domain,
		ProductID: string(product.ID),
		ImageID:   string(image.ID),
	}

	productID, imageID := product.ID.Uint64(), image.ID.Uint64()
	if productID == 0 || imageID == 0 {
		h.recordFailure(ctx, captionEvent, fmt.Errorf("%w: product or image id is not numeric", domain.ErrInvalidPayload))
		return nil
	}

	alt, err := h.caption(ctx, product, image)
	if err != nil {
		h.recordFailure(ctx, captionEvent, err)
		return nil
	}

	if err := h.shopify.UpdateImageAlt(ctx, shop.Domain, shop.AccessToken, productID, imageID, alt); err != nil {
		captionEvent.Alt = alt
		h.recordFailure(ctx, captionEvent, fmt.Errorf("failed to write alt text: %w", err))
		return nil
	}

	captionEvent.Alt = alt
	captionEvent.OK = true
	h.record(ctx, captionEvent)

	if err := h.shops.RecordUsage(ctx, shop.Domain); err != nil {
		h.logger.Warn().Err(err).Str("shop", shop.Domain).Msg("Failed to record caption usage")
	}

	h.logger.Info().
		Str("topic", event.Topic.String()).
		Str("shop", shop.Domain).
		Str("productId", captionEvent.ProductID).
		Str("imageId", captionEvent.ImageID).
		Str("alt", alt).
		Msg("Product image captioned")

	return nil
}

func (h *ProductHandler) caption(ctx context.Context, product domain.ProductPayload, image domain.ProductImage) (string, error) {
	start := time.Now()
	alt, err := h.worker.Caption(ctx, ports.CaptionRequest{
		ImageURL: image.Src,
		Title:    product.Title,
		Vendor:   product.Vendor,
	})
	h.metrics.ObserveCaptionWorker(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("failed to caption image: %w", err)
	}
	if alt == "" {
		alt = domain.DefaultCaption
	}
	return alt, nil
}

func (h *ProductHandler) recordFailure(ctx context.Context, event *domain.CaptionEvent, cause error) {
	event.OK = false
	event.Msg = cause.Error()

	h.logger.Error().
		Err(cause).
		Str("shop", event.Shop).
		Str("productId", event.ProductID).
		Str("imageId", event.ImageID).
		Msg("Product caption failed")

	h.record(ctx, event)
}

// record persists and publishes the event; persistence failures are only logged
func (h *ProductHandler) record(ctx context.Context, event *domain.CaptionEvent) {
	h.metrics.CaptionResult(event.OK)

	if err := h.events.CreateEvent(ctx, event); err != nil {
		h.logger.Error().
			Err(err).
			Str("shop", event.Shop).
			Str("productId", event.ProductID).
			Msg("Failed to record caption event")
	}

	if h.publisher != nil {
		h.publisher.Publish(event)
	}
}
