package application

import (
	"context"
	"errors"
	"fmt"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// BillingService starts subscription checkouts and applies billing events to shops
type BillingService struct {
	provider ports.BillingProvider
	shops    ports.ShopRepository
	plans    map[string]domain.Plan // price id -> plan
	appURL   string
	metrics  ports.Metrics
	logger   zerolog.Logger
}

// NewBillingService creates a billing service. prices maps plan names to price ids;
// entries naming an unknown plan are skipped.
func NewBillingService(
	provider ports.BillingProvider,
	shops ports.ShopRepository,
	prices map[string]string,
	appURL string,
	metrics ports.Metrics,
	logger zerolog.Logger,
) *BillingService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	plans := make(map[string]domain.Plan, len(prices))
	for name, priceID := range prices {
		plan := domain.Plan(name)
		if !plan.Valid() || plan == domain.PlanTrial || priceID == "" {
			logger.Warn().Str("plan", name).Msg("Skipping unknown billing plan")
			continue
		}
		plans[priceID] = plan
	}
	return &BillingService{
		provider: provider,
		shops:    shops,
		plans:    plans,
		appURL:   appURL,
		metrics:  metrics,
		logger:   logger,
	}
}

// PlanForPrice returns the plan a price id subscribes to
func (s *BillingService) PlanForPrice(priceID string) (domain.Plan, bool) {
	plan, ok := s.plans[priceID]
	return plan, ok
}

// StartCheckout creates a hosted checkout for shop and returns its URL
func (s *BillingService) StartCheckout(ctx context.Context, rawShop, priceID string) (string, error) {
	shop, err := domain.NormalizeShopDomain(rawShop)
	if err != nil {
		return "", err
	}
	if _, ok := s.plans[priceID]; !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownPrice, priceID)
	}

	url, err := s.provider.CreateCheckout(ctx, ports.CheckoutRequest{
		Shop:       shop,
		PriceID:    priceID,
		SuccessURL: s.appURL + "/dashboard?billing=success",
		CancelURL:  s.appURL + "/dashboard?billing=cancel",
	})
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Str("priceId", priceID).Msg("Failed to create checkout")
		return "", err
	}
	return url, nil
}

// HandleEvent verifies a provider webhook and applies it. A bad signature
// returns domain.ErrInvalidSignature; events for unknown shops or prices are
// acknowledged and logged.
func (s *BillingService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidSignature, err)
	}
	s.metrics.BillingEvent(event.Type)

	switch event.Kind {
	case ports.BillingEventCheckoutCompleted:
		return s.applyCheckout(ctx, event)

	case ports.BillingEventSubscriptionDeleted:
		if event.CustomerID == "" {
			s.logger.Warn().Str("eventId", event.ID).Msg("Subscription deleted without customer")
			return nil
		}
		n, err := s.shops.ResetPlanByCustomer(ctx, event.CustomerID, domain.PlanTrial)
		if err != nil {
			return fmt.Errorf("failed to reset plan: %w", err)
		}
		s.logger.Info().
			Str("customerId", event.CustomerID).
			Int64("shops", n).
			Msg("Subscription cancelled, shops reset to trial")

	case ports.BillingEventIgnored:
		s.logger.Debug().Str("type", event.Type).Msg("Ignoring billing event")
	}

	return nil
}

func (s *BillingService) applyCheckout(ctx context.Context, event *ports.BillingEvent) error {
	plan, ok := s.plans[event.PriceID]
	if event.Shop == "" || !ok {
		s.logger.Warn().
			Str("eventId", event.ID).
			Str("shop", event.Shop).
			Str("priceId", event.PriceID).
			Msg("Checkout completed without a known shop or price")
		return nil
	}

	err := s.shops.UpdatePlan(ctx, event.Shop, plan, event.CustomerID)
	if errors.Is(err, domain.ErrShopNotFound) {
		s.logger.Warn().Str("shop", event.Shop).Msg("Checkout completed for unknown shop")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	s.logger.Info().
		Str("shop", event.Shop).
		Str("plan", string(plan)).
		Str("customerId", event.CustomerID).
		Msg("Shop plan updated")
	return nil
}
