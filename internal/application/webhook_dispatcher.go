package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookHandler processes one family of verified webhook events
type WebhookHandler interface {
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// Endpoint is the inbound route a webhook arrived on
type Endpoint int

const (
	EndpointCompliance Endpoint = iota
	EndpointProducts
)

func (e Endpoint) String() string {
	if e == EndpointProducts {
		return "products"
	}
	return "compliance"
}

// Accepts reports whether topic is served by this endpoint
func (e Endpoint) Accepts(topic domain.Topic) bool {
	if e == EndpointProducts {
		return topic.IsProduct()
	}
	return topic.IsCompliance()
}

// WebhookHeaders carries the platform headers relevant to dispatch
type WebhookHeaders struct {
	ID    string
	Topic string
	Shop  string
}

// Outcome describes what the dispatcher did with an event
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// WebhookDispatcher routes verified webhook events to their handler
type WebhookDispatcher struct {
	compliance WebhookHandler
	products   WebhookHandler
	deduper    ports.WebhookDeduper
	metrics    ports.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewWebhookDispatcher creates a dispatcher; deduper may be nil
func NewWebhookDispatcher(
	compliance WebhookHandler,
	products WebhookHandler,
	deduper ports.WebhookDeduper,
	metrics ports.Metrics,
	logger zerolog.Logger,
) *WebhookDispatcher {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &WebhookDispatcher{
		compliance: compliance,
		products:   products,
		deduper:    deduper,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

type envelope struct {
	Topic      string `json:"topic"`
	ShopDomain string `json:"shop_domain"`
	Domain     string `json:"domain"`
}

// ParseEvent builds a verified event from the raw body and headers. The topic
// comes from the payload, then the topic header; a products endpoint with
// neither treats the body as a product update. The shop comes from the header,
// then the payload. A body that is not a JSON object returns domain.ErrInvalidPayload.
func (d *WebhookDispatcher) ParseEvent(endpoint Endpoint, body []byte, headers WebhookHeaders) (*domain.WebhookEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
	}

	topicName := env.Topic
	if topicName == "" {
		topicName = headers.Topic
	}
	topic := domain.ParseTopic(topicName)
	if topicName == "" && endpoint == EndpointProducts {
		topic = domain.TopicProductsUpdate
	}

	shop := headers.Shop
	if shop == "" {
		shop = env.ShopDomain
	}
	if shop == "" {
		shop = env.Domain
	}
	if normalized, err := domain.NormalizeShopDomain(shop); err == nil {
		shop = normalized
	}

	return &domain.WebhookEvent{
		ID:       headers.ID,
		Topic:    topic,
		Shop:     shop,
		Payload:  body,
		Verified: true,
		Received: d.now(),
	}, nil
}

// Dispatch runs the handler for the event's topic. Topics the endpoint does
// not serve are acknowledged without side effects. Compliance handler
// failures report OutcomeFailed with a nil error; product handler failures
// are returned and release the delivery's dedupe claim.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, endpoint Endpoint, event *domain.WebhookEvent) (Outcome, error) {
	if !event.Verified {
		return OutcomeFailed, domain.ErrInvalidSignature
	}

	outcome, err := d.dispatch(ctx, endpoint, event)
	if err != nil {
		outcome = OutcomeFailed
	}
	d.metrics.WebhookReceived(event.Topic.String(), string(outcome))

	logEvent := d.logger.Info()
	if err != nil {
		logEvent = d.logger.Error().Err(err)
	}
	logEvent.
		Str("endpoint", endpoint.String()).
		Str("topic", event.Topic.String()).
		Str("shop", event.Shop).
		Str("webhookId", event.ID).
		Str("outcome", string(outcome)).
		Msg("Webhook dispatched")

	return outcome, err
}

func (d *WebhookDispatcher) dispatch(ctx context.Context, endpoint Endpoint, event *domain.WebhookEvent) (Outcome, error) {
	if event.Topic != domain.TopicUnknown && !endpoint.Accepts(event.Topic) {
		return OutcomeIgnored, nil
	}

	switch event.Topic {
	case domain.TopicShopRedact, domain.TopicCustomersRedact, domain.TopicCustomersDataRequest:
		// compliance deliveries are always acknowledged; failures are only logged and counted
		if err := d.compliance.Handle(ctx, event); err != nil {
			d.logger.Error().
				Err(err).
				Str("topic", event.Topic.String()).
				Str("shop", event.Shop).
				Str("webhookId", event.ID).
				Msg("Compliance webhook failed")
			return OutcomeFailed, nil
		}
		return OutcomeProcessed, nil

	case domain.TopicProductsCreate, domain.TopicProductsUpdate:
		if d.isDuplicate(ctx, event) {
			return OutcomeDuplicate, nil
		}
		if err := d.products.Handle(ctx, event); err != nil {
			d.release(ctx, event)
			return OutcomeFailed, err
		}
		return OutcomeProcessed, nil

	default:
		return OutcomeIgnored, nil
	}
}

// isDuplicate claims the delivery id; store errors are logged and treated as a first delivery
func (d *WebhookDispatcher) isDuplicate(ctx context.Context, event *domain.WebhookEvent) bool {
	if d.deduper == nil || event.ID == "" {
		return false
	}
	dup, err := d.deduper.Claim(ctx, event.ID, event.Shop, event.Topic.String())
	if err != nil {
		d.logger.Warn().Err(err).Str("webhookId", event.ID).Msg("Webhook dedupe unavailable")
		return false
	}
	return dup
}

// release lets the platform's retry of a failed delivery be processed
func (d *WebhookDispatcher) release(ctx context.Context, event *domain.WebhookEvent) {
	if d.deduper == nil || event.ID == "" {
		return
	}
	if err := d.deduper.Release(ctx, event.ID); err != nil {
		d.logger.Warn().Err(err).Str("webhookId", event.ID).Msg("Failed to release webhook claim")
	}
}
