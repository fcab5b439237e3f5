package api

import (
	"context"
	"net/http"
	"strings"

	"caption-shopify-layer/internal/application"
	"caption-shopify-layer/internal/infrastructure/metrics"
	"caption-shopify-layer/internal/infrastructure/pubsub"
	"caption-shopify-layer/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SwaggerFile is the API definition served at /swagger/doc.json
const SwaggerFile = "./docs/swagger.json"

// Dependencies holds everything the HTTP layer needs
type Dependencies struct {
	AppURL         string
	AllowedOrigins []string

	Install    *application.InstallService
	Shops      *application.ShopService
	Dispatcher *application.WebhookDispatcher
	Verifier   *shopify.WebhookVerifier
	Billing    *application.BillingService
	Stream     *pubsub.CaptionPubSub
	Metrics    *metrics.Metrics

	// Health reports whether the backing stores are reachable; nil means always healthy
	Health func(ctx context.Context) error

	Logger zerolog.Logger
}

// NewRouter builds the chi router with every route mounted
func NewRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", healthHandler(deps.Health))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, SwaggerFile)
	})

	// OAuth routes
	secureCookies := strings.HasPrefix(deps.AppURL, "https://")
	r.Get("/install", installHandler(deps.Install, secureCookies, deps.Logger))
	r.Get("/oauth/callback", oauthCallbackHandler(deps.Install, deps.Shops, deps.AppURL, secureCookies, deps.Logger))

	// Webhook routes
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/compliance", webhookHandler(application.EndpointCompliance, deps.Verifier, deps.Dispatcher, deps.Logger))
		r.Post("/products", webhookHandler(application.EndpointProducts, deps.Verifier, deps.Dispatcher, deps.Logger))
		r.Get("/status", webhookStatusHandler(deps.Shops, deps.Logger))
	})

	// Dashboard API
	r.Route("/api", func(r chi.Router) {
		r.Get("/logs", logsHandler(deps.Shops, deps.Logger))
		r.Get("/logs/stream", logsStreamHandler(deps.Stream, deps.Logger))
		r.Get("/shop", shopHandler(deps.Shops, deps.Logger))

		if deps.Billing != nil {
			r.Post("/billing/checkout", checkoutHandler(deps.Billing, deps.Logger))
			r.Post("/billing/webhook", billingWebhookHandler(deps.Billing, deps.Logger))
		}
	})

	return r
}

// healthHandler reports liveness plus store reachability
func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
