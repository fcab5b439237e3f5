package application

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type installFixture struct {
	service  *InstallService
	shopify  *mocks.MockShopifyClient
	sessions *mocks.MockSessionRepository
	shops    *mocks.MockShopRepository
}

func setupInstallServiceTest() installFixture {
	shopify := new(mocks.MockShopifyClient)
	sessions := new(mocks.MockSessionRepository)
	shops := new(mocks.MockShopRepository)
	manager := NewWebhookManager(shopify, "https://app.example.com", nil, zerolog.Nop())
	service := NewInstallService(shopify, sessions, shops, mocks.FakeEncryption{}, manager, nil, zerolog.Nop(),
		[]string{"read_products", "write_products"})
	return installFixture{service: service, shopify: shopify, sessions: sessions, shops: shops}
}

func callbackURL(t *testing.T, query string) *url.URL {
	t.Helper()
	u, err := url.Parse("https://app.example.com/oauth/callback?" + query)
	require.NoError(t, err)
	return u
}

func TestInstallService_BeginInstall(t *testing.T) {
	t.Run("normalizes the shop and stores state", func(t *testing.T) {
		f := setupInstallServiceTest()
		var stored *domain.Session
		f.sessions.On("CreateSession", mock.Anything, mock.AnythingOfType("*domain.Session")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Session) }).
			Return(nil).Once()
		f.shopify.On("AuthorizeURL", "acme.myshopify.com", mock.AnythingOfType("string")).
			Return("https://acme.myshopify.com/admin/oauth/authorize?client_id=key", nil).Once()

		redirect, err := f.service.BeginInstall(context.Background(), "https://ACME.myshopify.com/admin?x=1")
		require.NoError(t, err)

		assert.Equal(t, "acme.myshopify.com", redirect.Shop)
		assert.NotEmpty(t, redirect.State)
		assert.Equal(t, "https://acme.myshopify.com/admin/oauth/authorize?client_id=key", redirect.AuthURL)
		require.NotNil(t, stored)
		assert.Equal(t, redirect.State, stored.State)
		assert.Equal(t, "acme.myshopify.com", stored.Shop)
		assert.Equal(t, []string{"read_products", "write_products"}, stored.Scopes)
		f.sessions.AssertExpectations(t)
		f.shopify.AssertExpectations(t)
	})

	t.Run("bare store name is suffixed", func(t *testing.T) {
		f := setupInstallServiceTest()
		f.sessions.On("CreateSession", mock.Anything, mock.Anything).Return(nil).Once()
		f.shopify.On("AuthorizeURL", "acme.myshopify.com", mock.Anything).Return("https://x", nil).Once()

		redirect, err := f.service.BeginInstall(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme.myshopify.com", redirect.Shop)
	})

	t.Run("invalid domain never reaches the platform", func(t *testing.T) {
		f := setupInstallServiceTest()

		for _, raw := range []string{"", "evil.com", "-acme", "acme_shop", "acme.myshopify.com.evil.com"} {
			_, err := f.service.BeginInstall(context.Background(), raw)
			assert.ErrorIs(t, err, domain.ErrInvalidShopDomain, raw)
		}
		f.sessions.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
		f.shopify.AssertNotCalled(t, "AuthorizeURL", mock.Anything, mock.Anything)
	})

	t.Run("session store failure", func(t *testing.T) {
		f := setupInstallServiceTest()
		f.sessions.On("CreateSession", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

		_, err := f.service.BeginInstall(context.Background(), "acme")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidShopDomain)
		f.shopify.AssertNotCalled(t, "AuthorizeURL", mock.Anything, mock.Anything)
	})
}

func TestInstallService_CompleteInstall(t *testing.T) {
	const query = "code=c0de&hmac=abc&shop=acme.myshopify.com&state=s1&timestamp=1700000000"

	t.Run("success persists encrypted token and registers webhooks", func(t *testing.T) {
		f := setupInstallServiceTest()
		u := callbackURL(t, query)

		f.shopify.On("VerifyCallback", u).Return(true, nil).Once()
		f.sessions.On("ConsumeSession", mock.Anything, "s1").
			Return(&domain.Session{State: "s1", Shop: "acme.myshopify.com", Scopes: []string{"read_products"}}, nil).Once()
		f.shopify.On("ExchangeToken", mock.Anything, "acme.myshopify.com", "c0de").Return("shpat_1", nil).Once()
		f.shops.On("UpsertShop", mock.Anything, mock.MatchedBy(func(s *domain.Shop) bool {
			return s.Domain == "acme.myshopify.com" && s.AccessToken == "enc:shpat_1"
		})).Return(nil).Once()
		f.shopify.On("CreateWebhook", mock.Anything, "acme.myshopify.com", "shpat_1", mock.Anything, mock.Anything).
			Return(&domain.Subscription{ID: 1}, nil).Times(5)

		shop, err := f.service.CompleteInstall(context.Background(), u)
		require.NoError(t, err)
		f.service.Wait()

		assert.Equal(t, "acme.myshopify.com", shop.Domain)
		assert.Empty(t, shop.AccessToken, "credential is not returned to callers")
		assert.Equal(t, []string{"read_products"}, shop.Scopes)
		f.shops.AssertExpectations(t)
		f.shopify.AssertExpectations(t)
		f.shopify.AssertNumberOfCalls(t, "CreateWebhook", 5)
	})

	t.Run("registration failures do not fail the install", func(t *testing.T) {
		f := setupInstallServiceTest()
		u := callbackURL(t, query)

		f.shopify.On("VerifyCallback", u).Return(true, nil).Once()
		f.sessions.On("ConsumeSession", mock.Anything, "s1").
			Return(&domain.Session{State: "s1", Shop: "acme.myshopify.com"}, nil).Once()
		f.shopify.On("ExchangeToken", mock.Anything, "acme.myshopify.com", "c0de").Return("shpat_1", nil).Once()
		f.shops.On("UpsertShop", mock.Anything, mock.Anything).Return(nil).Once()
		f.shopify.On("CreateWebhook", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("422 address already taken"))

		_, err := f.service.CompleteInstall(context.Background(), u)
		require.NoError(t, err)
		f.service.Wait()
		f.shopify.AssertNumberOfCalls(t, "CreateWebhook", 5)
	})

	t.Run("bad hmac writes nothing", func(t *testing.T) {
		f := setupInstallServiceTest()
		u := callbackURL(t, query)
		f.shopify.On("VerifyCallback", u).Return(false, nil).Once()

		_, err := f.service.CompleteInstall(context.Background(), u)
		assert.ErrorIs(t, err, domain.ErrHandshakeFailed)
		f.sessions.AssertNotCalled(t, "ConsumeSession", mock.Anything, mock.Anything)
		f.shops.AssertNotCalled(t, "UpsertShop", mock.Anything, mock.Anything)
	})

	t.Run("unknown state", func(t *testing.T) {
		f := setupInstallServiceTest()
		u := callbackURL(t, query)
		f.shopify.On("VerifyCallback", u).Return(true, nil).Once()
		f.sessions.On("ConsumeSession", mock.Anything, "s1").Return(nil, nil).Once()

		_, err := f.service.CompleteInstall(context.Background(), u)
		assert.ErrorIs(t, err, domain.ErrHandshakeFailed)
		f.shopify.AssertNotCalled(t, "ExchangeToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("state issued for another shop", func(t *testing.T) {
		f := setupInstallServiceTest()
		u := callbackURL(t, query)
		f.shopify.On("VerifyCallback", u).Return(true, nil).Once()
		f.sessions.On("ConsumeSession", mock.Anything, "s1").
			Return(&domain.Session{State: "s1", Shop: "other.myshopify.com"}, nil).Once()

		_, err := f.service.CompleteInstall(context.Background(), u)
		assert.ErrorIs(t, err, domain.ErrHandshakeFailed)
		f.shops.AssertNotCalled(t, "UpsertShop", mock.Anything, mock.Anything)
	})

	t.Run("token exchange failure", func(t *testing.T) {
		f := setupInstallServiceTest()
		u := callbackURL(t, query)
		exchangeErr := errors.New("invalid code")
		f.shopify.On("VerifyCallback", u).Return(true, nil).Once()
		f.sessions.On("ConsumeSession", mock.Anything, "s1").
			Return(&domain.Session{State: "s1", Shop: "acme.myshopify.com"}, nil).Once()
		f.shopify.On("ExchangeToken", mock.Anything, "acme.myshopify.com", "c0de").Return("", exchangeErr).Once()

		_, err := f.service.CompleteInstall(context.Background(), u)
		assert.ErrorIs(t, err, domain.ErrHandshakeFailed)
		assert.ErrorIs(t, err, exchangeErr)
		f.shops.AssertNotCalled(t, "UpsertShop", mock.Anything, mock.Anything)
	})

	t.Run("missing parameters", func(t *testing.T) {
		f := setupInstallServiceTest()

		_, err := f.service.CompleteInstall(context.Background(), callbackURL(t, "shop=acme.myshopify.com&state=s1"))
		assert.ErrorIs(t, err, domain.ErrHandshakeFailed)

		_, err = f.service.CompleteInstall(context.Background(), callbackURL(t, "code=c&state=s1&shop=evil.com"))
		assert.ErrorIs(t, err, domain.ErrHandshakeFailed)
		f.shopify.AssertNotCalled(t, "VerifyCallback", mock.Anything)
	})
}
