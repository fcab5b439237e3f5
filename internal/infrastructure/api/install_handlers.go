package api

import (
	"errors"
	"net/http"

	"caption-shopify-layer/internal/application"
	"caption-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

const (
	stateCookie = "oauth_state"
	shopCookie  = "shop_domain"
)

// installHandler starts the OAuth install for ?shop=
func installHandler(install *application.InstallService, secure bool, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect, err := install.BeginInstall(r.Context(), r.URL.Query().Get("shop"))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidShopDomain) {
				writeError(w, http.StatusBadRequest, "missing or invalid shop parameter")
				return
			}
			logger.Error().Err(err).Msg("Failed to start install")
			writeError(w, http.StatusInternalServerError, "failed to start install")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    redirect.State,
			Path:     "/",
			MaxAge:   int(domain.OAuthStateTTL.Seconds()),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, redirect.AuthURL, http.StatusFound)
	}
}

// oauthCallbackHandler completes the install and sends the merchant to the dashboard
func oauthCallbackHandler(
	install *application.InstallService,
	shops *application.ShopService,
	appURL string,
	secure bool,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, err := install.CompleteInstall(r.Context(), r.URL)
		if err != nil {
			if errors.Is(err, domain.ErrHandshakeFailed) {
				logger.Warn().Err(err).Str("shop", r.URL.Query().Get("shop")).Msg("OAuth callback rejected")
				writeError(w, http.StatusUnauthorized, "oauth handshake failed")
				return
			}
			logger.Error().Err(err).Msg("Failed to complete install")
			writeError(w, http.StatusInternalServerError, "failed to complete install")
			return
		}

		// registration for this shop is still running in the background
		shops.InvalidateWebhookStatus(shop.Domain)

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
		http.SetCookie(w, &http.Cookie{
			Name:     shopCookie,
			Value:    shop.Domain,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})

		logger.Info().Str("shop", shop.Domain).Msg("Redirecting to dashboard after install")
		http.Redirect(w, r, appURL+"/dashboard?installed=1", http.StatusFound)
	}
}
