package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"caption-shopify-layer/internal/application"
	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/infrastructure/billing"

	"github.com/rs/zerolog"
)

type checkoutRequest struct {
	Shop    string `json:"shop"`
	PriceID string `json:"priceId"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// checkoutHandler starts a subscription checkout
func checkoutHandler(svc *application.BillingService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		url, err := svc.StartCheckout(r.Context(), req.Shop, req.PriceID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
		case errors.Is(err, domain.ErrInvalidShopDomain), errors.Is(err, domain.ErrUnknownPrice):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, billing.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "billing is not configured")
		default:
			logger.Error().Err(err).Str("shop", req.Shop).Msg("Failed to start checkout")
			writeError(w, http.StatusInternalServerError, "failed to start checkout")
		}
	}
}

// billingWebhookHandler applies a signed billing provider event
func billingWebhookHandler(svc *application.BillingService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		if err := svc.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
			if errors.Is(err, domain.ErrInvalidSignature) {
				logger.Warn().Err(err).Msg("Billing webhook verification failed")
				writeError(w, http.StatusBadRequest, "invalid signature")
				return
			}
			logger.Error().Err(err).Msg("Failed to apply billing event")
			writeError(w, http.StatusInternalServerError, "failed to process event")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}
