package api

import (
	"errors"
	"io"
	"net/http"

	"caption-shopify-layer/internal/application"
	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/infrastructure/shopify"

	"github.com/rs/zerolog"
)

// Platform webhook headers
const (
	headerWebhookID  = "X-Shopify-Webhook-Id"
	headerTopic      = "X-Shopify-Topic"
	headerShopDomain = "X-Shopify-Shop-Domain"
)

type webhookStatusResponse struct {
	OK       bool                  `json:"ok"`
	Shop     string                `json:"shop"`
	Webhooks []domain.Subscription `json:"webhooks"`
	Count    int                   `json:"count"`
}

// webhookHandler verifies and dispatches webhooks arriving on one endpoint
func webhookHandler(
	endpoint application.Endpoint,
	verifier *shopify.WebhookVerifier,
	dispatcher *application.WebhookDispatcher,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		// the signature covers the raw bytes, so read before any parsing
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			logger.Warn().Err(err).Str("endpoint", endpoint.String()).Msg("Failed to read webhook payload")
			writeJSON(w, http.StatusRequestEntityTooLarge, okResponse{OK: false, Error: "payload too large"})
			return
		}

		signature := r.Header.Get(shopify.HeaderHmacSHA256)
		if signature == "" {
			signature = r.Header.Get(shopify.HeaderSignature)
		}
		if !verifier.Verify(body, signature) {
			logger.Warn().
				Str("endpoint", endpoint.String()).
				Str("shop", r.Header.Get(headerShopDomain)).
				Msg("Webhook signature verification failed")
			writeJSON(w, http.StatusUnauthorized, okResponse{OK: false, Error: "invalid signature"})
			return
		}

		event, err := dispatcher.ParseEvent(endpoint, body, application.WebhookHeaders{
			ID:    r.Header.Get(headerWebhookID),
			Topic: r.Header.Get(headerTopic),
			Shop:  r.Header.Get(headerShopDomain),
		})
		if err != nil {
			logger.Error().Err(err).Str("endpoint", endpoint.String()).Msg("Failed to parse webhook payload")
			writeJSON(w, http.StatusInternalServerError, okResponse{OK: false, Error: "invalid payload"})
			return
		}

		if _, err := dispatcher.Dispatch(r.Context(), endpoint, event); err != nil {
			if errors.Is(err, domain.ErrShopNotFound) {
				writeJSON(w, http.StatusNotFound, okResponse{OK: false, Error: "shop not found"})
				return
			}
			// 500 makes the platform retry
			writeJSON(w, http.StatusInternalServerError, okResponse{OK: false, Error: "failed to process webhook"})
			return
		}

		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

// webhookStatusHandler lists the platform's subscriptions for ?shop=, or the
// most recently installed shop
func webhookStatusHandler(shops *application.ShopService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		if normalized, err := domain.NormalizeShopDomain(shop); err == nil {
			shop = normalized
		}

		status, err := shops.WebhookStatus(r.Context(), shop)
		if err != nil {
			if errors.Is(err, domain.ErrShopNotFound) {
				writeJSON(w, http.StatusNotFound, okResponse{OK: false, Error: "shop not found"})
				return
			}
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to get webhook status")
			writeJSON(w, http.StatusInternalServerError, okResponse{OK: false, Error: "failed to list webhooks"})
			return
		}

		writeJSON(w, http.StatusOK, webhookStatusResponse{
			OK:       true,
			Shop:     status.Shop,
			Webhooks: status.Webhooks,
			Count:    status.Count,
		})
	}
}
