package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"caption-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionDeleted = "customer.subscription.deleted"

	metadataShop    = "shop"
	metadataPriceID = "priceId"
)

// ErrNotConfigured is returned when no Stripe secret key is set
var ErrNotConfigured = errors.New("stripe is not configured")

// StripeProvider implements ports.BillingProvider on top of Stripe
type StripeProvider struct {
	sessions      session.Client
	secretKey     string
	webhookSecret string
	logger        zerolog.Logger
}

// Option customizes the provider
type Option func(*StripeProvider)

// WithBackend overrides the API backend, used to point at a test server
func WithBackend(b stripe.Backend) Option {
	return func(p *StripeProvider) {
		if b != nil {
			p.sessions.B = b
		}
	}
}

// NewStripeProvider creates a provider for the given secret and webhook signing keys
func NewStripeProvider(secretKey, webhookSecret string, logger zerolog.Logger, opts ...Option) *StripeProvider {
	p := &StripeProvider{
		sessions: session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: secretKey,
		},
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateCheckout starts a subscription checkout and returns its hosted URL
func (p *StripeProvider) CreateCheckout(ctx context.Context, req ports.CheckoutRequest) (string, error) {
	if p.secretKey == "" {
		return "", ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataShop, req.Shop)
	params.AddMetadata(metadataPriceID, req.PriceID)

	s, err := p.sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	p.logger.Info().
		Str("shop", req.Shop).
		Str("priceId", req.PriceID).
		Str("sessionId", s.ID).
		Msg("Created checkout session")

	return s.URL, nil
}

// ParseEvent verifies the Stripe-Signature header and maps the event to a BillingEvent
func (p *StripeProvider) ParseEvent(payload []byte, signature string) (*ports.BillingEvent, error) {
	if p.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify billing event: %w", err)
	}

	out := &ports.BillingEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Kind: ports.BillingEventIgnored,
	}

	switch string(event.Type) {
	case eventCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.Kind = ports.BillingEventCheckoutCompleted
		out.Shop = s.Metadata[metadataShop]
		out.PriceID = s.Metadata[metadataPriceID]
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}

	case eventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		out.Kind = ports.BillingEventSubscriptionDeleted
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	}

	return out, nil
}
