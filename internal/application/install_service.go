package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultRegistrationTimeout bounds the background webhook registration after an install
const DefaultRegistrationTimeout = 30 * time.Second

// InstallRedirect is where the merchant is sent to approve the app
type InstallRedirect struct {
	Shop    string
	State   string
	AuthURL string
}

// InstallService runs the OAuth install handshake
type InstallService struct {
	shopify       ports.ShopifyClient
	sessions      ports.SessionRepository
	shops         ports.ShopRepository
	encryptionSvc ports.EncryptionService
	webhooks      *WebhookManager
	metrics       ports.Metrics
	logger        zerolog.Logger

	scopes              []string
	registrationTimeout time.Duration
	now                 func() time.Time
	wg                  sync.WaitGroup
}

// NewInstallService creates a new install service requesting the given scopes
func NewInstallService(
	shopify ports.ShopifyClient,
	sessions ports.SessionRepository,
	shops ports.ShopRepository,
	encryptionSvc ports.EncryptionService,
	webhooks *WebhookManager,
	metrics ports.Metrics,
	logger zerolog.Logger,
	scopes []string,
) *InstallService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &InstallService{
		shopify:             shopify,
		sessions:            sessions,
		shops:               shops,
		encryptionSvc:       encryptionSvc,
		webhooks:            webhooks,
		metrics:             metrics,
		logger:              logger,
		scopes:              scopes,
		registrationTimeout: DefaultRegistrationTimeout,
		now:                 time.Now,
	}
}

// BeginInstall validates the shop and returns the authorization redirect.
// Invalid input returns domain.ErrInvalidShopDomain without contacting the platform.
func (s *InstallService) BeginInstall(ctx context.Context, rawShop string) (*InstallRedirect, error) {
	shop, err := domain.NormalizeShopDomain(rawShop)
	if err != nil {
		s.metrics.InstallStep("begin", false)
		return nil, err
	}

	state := uuid.NewString()
	session := &domain.Session{
		State:     state,
		Shop:      shop,
		Scopes:    s.scopes,
		ExpiresAt: s.now().Add(domain.OAuthStateTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to create session")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	authURL, err := s.shopify.AuthorizeURL(shop, state)
	if err != nil {
		return nil, fmt.Errorf("failed to build authorize url: %w", err)
	}

	s.metrics.InstallStep("begin", true)
	s.logger.Info().
		Str("shop", shop).
		Strs("scopes", s.scopes).
		Msg("Starting OAuth install")

	return &InstallRedirect{Shop: shop, State: state, AuthURL: authURL}, nil
}

// CompleteInstall verifies the callback, exchanges the code for a token and
// persists the shop. Webhook registration starts in the background; see Wait.
// Every rejection of the callback itself wraps domain.ErrHandshakeFailed.
func (s *InstallService) CompleteInstall(ctx context.Context, callbackURL *url.URL) (*domain.Shop, error) {
	shop, err := s.verifyCallback(ctx, callbackURL)
	if err != nil {
		s.metrics.InstallStep("callback", false)
		return nil, err
	}

	code := callbackURL.Query().Get("code")
	accessToken, err := s.shopify.ExchangeToken(ctx, shop.Domain, code)
	if err != nil {
		s.metrics.InstallStep("callback", false)
		s.logger.Error().Err(err).Str("shop", shop.Domain).Msg("Failed to exchange token")
		return nil, fmt.Errorf("%w: token exchange: %w", domain.ErrHandshakeFailed, err)
	}
	if accessToken == "" {
		s.metrics.InstallStep("callback", false)
		return nil, fmt.Errorf("%w: empty access token", domain.ErrHandshakeFailed)
	}

	encryptedToken, err := s.encryptionSvc.Encrypt(accessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop.Domain).Msg("Failed to encrypt access token")
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	shop.AccessToken = encryptedToken
	if err := s.shops.UpsertShop(ctx, shop); err != nil {
		s.logger.Error().Err(err).Str("shop", shop.Domain).Msg("Failed to save shop")
		return nil, fmt.Errorf("failed to save shop: %w", err)
	}

	s.metrics.InstallStep("callback", true)
	s.logger.Info().
		Str("shop", shop.Domain).
		Strs("scopes", shop.Scopes).
		Msg("OAuth install completed")

	s.startRegistration(shop.Domain, accessToken)

	shop.AccessToken = ""
	return shop, nil
}

func (s *InstallService) verifyCallback(ctx context.Context, callbackURL *url.URL) (*domain.Shop, error) {
	q := callbackURL.Query()
	if q.Get("code") == "" || q.Get("state") == "" {
		return nil, fmt.Errorf("%w: missing code or state", domain.ErrHandshakeFailed)
	}

	shopDomain, err := domain.NormalizeShopDomain(q.Get("shop"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHandshakeFailed, err)
	}

	ok, err := s.shopify.VerifyCallback(callbackURL)
	if err != nil || !ok {
		s.logger.Warn().Err(err).Str("shop", shopDomain).Msg("OAuth callback HMAC verification failed")
		return nil, fmt.Errorf("%w: invalid hmac", domain.ErrHandshakeFailed)
	}

	session, err := s.sessions.ConsumeSession(ctx, q.Get("state"))
	if err != nil {
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}
	if session == nil || session.Shop != shopDomain {
		s.logger.Warn().Str("shop", shopDomain).Msg("OAuth state missing, expired or issued for another shop")
		return nil, fmt.Errorf("%w: invalid state", domain.ErrHandshakeFailed)
	}

	return &domain.Shop{Domain: shopDomain, Scopes: session.Scopes}, nil
}

func (s *InstallService) startRegistration(shop, accessToken string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.registrationTimeout)
		defer cancel()

		results := s.webhooks.RegisterDefaults(ctx, shop, accessToken)
		var errs []error
		for _, r := range results {
			if !r.OK() {
				errs = append(errs, r.Err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			s.logger.Error().Err(err).Str("shop", shop).Msg("Some webhooks could not be registered")
		}
	}()
}

// Wait blocks until every background webhook registration has finished
func (s *InstallService) Wait() {
	s.wg.Wait()
}
