package application

import (
	"context"
	"errors"
	"testing"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type shopFixture struct {
	service *ShopService
	shops   *mocks.MockShopRepository
	events  *mocks.MockCaptionEventRepository
	shopify *mocks.MockShopifyClient
	manager *WebhookManager
}

func setupShopServiceTest() shopFixture {
	shops := new(mocks.MockShopRepository)
	events := new(mocks.MockCaptionEventRepository)
	shopify := new(mocks.MockShopifyClient)
	manager := NewWebhookManager(shopify, "https://app.example.com", nil, zerolog.Nop())
	return shopFixture{
		service: NewShopService(shops, events, mocks.FakeEncryption{}, manager, zerolog.Nop()),
		shops:   shops,
		events:  events,
		shopify: shopify,
		manager: manager,
	}
}

func TestShopService_GetShop(t *testing.T) {
	f := setupShopServiceTest()
	ctx := context.Background()

	f.shops.On("GetShop", mock.Anything, "acme.myshopify.com").
		Return(&domain.Shop{Domain: "acme.myshopify.com", AccessToken: "enc:tok"}, nil).Once()
	shop, err := f.service.GetShop(ctx, "acme.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "tok", shop.AccessToken)

	f.shops.On("GetShop", mock.Anything, "ghost.myshopify.com").Return(nil, nil).Once()
	shop, err = f.service.GetShop(ctx, "ghost.myshopify.com")
	require.NoError(t, err)
	assert.Nil(t, shop)

	f.shops.On("GetShop", mock.Anything, "broken.myshopify.com").
		Return(&domain.Shop{Domain: "broken.myshopify.com", AccessToken: "plaintext"}, nil).Once()
	_, err = f.service.GetShop(ctx, "broken.myshopify.com")
	assert.ErrorIs(t, err, mocks.ErrNotEncrypted)
}

func TestShopService_LatestShopOmitsCredential(t *testing.T) {
	f := setupShopServiceTest()
	f.shops.On("LatestShop", mock.Anything).
		Return(&domain.Shop{Domain: "acme.myshopify.com", AccessToken: "enc:tok", Plan: domain.PlanTrial}, nil).Once()

	shop, err := f.service.LatestShop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme.myshopify.com", shop.Domain)
	assert.Empty(t, shop.AccessToken)
}

func TestShopService_ListLogs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		take      int
		page      int
		count     int64
		wantTake  int
		wantPage  int
		wantPages int
		wantSkip  int64
	}{
		{name: "defaults", take: 0, page: 0, count: 25, wantTake: 10, wantPage: 1, wantPages: 3, wantSkip: 0},
		{name: "second page", take: 10, page: 2, count: 25, wantTake: 10, wantPage: 2, wantPages: 3, wantSkip: 10},
		{name: "take capped", take: 500, page: 1, count: 250, wantTake: 100, wantPage: 1, wantPages: 3, wantSkip: 0},
		{name: "empty has one page", take: 10, page: 1, count: 0, wantTake: 10, wantPage: 1, wantPages: 1, wantSkip: 0},
		{name: "exact multiple", take: 5, page: 4, count: 20, wantTake: 5, wantPage: 4, wantPages: 4, wantSkip: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupShopServiceTest()
			logs := []*domain.CaptionEvent{{Shop: "acme.myshopify.com", OK: true}}
			f.events.On("CountEvents", mock.Anything, "acme.myshopify.com").Return(tt.count, nil).Once()
			f.events.On("ListEvents", mock.Anything, "acme.myshopify.com", tt.wantSkip, int64(tt.wantTake)).Return(logs, nil).Once()

			page, err := f.service.ListLogs(ctx, "acme.myshopify.com", tt.take, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTake, page.Take)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantPages, page.Pages)
			assert.Equal(t, tt.count, page.Count)
			assert.Equal(t, logs, page.Logs)
			f.events.AssertExpectations(t)
		})
	}

	t.Run("count failure", func(t *testing.T) {
		f := setupShopServiceTest()
		f.events.On("CountEvents", mock.Anything, "").Return(int64(0), errors.New("mongo down")).Once()

		_, err := f.service.ListLogs(ctx, "", 10, 1)
		assert.Error(t, err)
		f.events.AssertNotCalled(t, "ListEvents", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestShopService_WebhookStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("lists and caches per shop", func(t *testing.T) {
		f := setupShopServiceTest()
		f.shops.On("GetShop", mock.Anything, "acme.myshopify.com").
			Return(&domain.Shop{Domain: "acme.myshopify.com", AccessToken: "enc:tok"}, nil)
		f.shopify.On("ListWebhooks", mock.Anything, "acme.myshopify.com", "tok").
			Return([]domain.Subscription{{ID: 1, Topic: "products/create"}, {ID: 2, Topic: "shop/redact"}}, nil).Once()

		status, err := f.service.WebhookStatus(ctx, "acme.myshopify.com")
		require.NoError(t, err)
		assert.Equal(t, 2, status.Count)

		again, err := f.service.WebhookStatus(ctx, "acme.myshopify.com")
		require.NoError(t, err)
		assert.Same(t, status, again)
		f.shopify.AssertNumberOfCalls(t, "ListWebhooks", 1)

		f.service.InvalidateWebhookStatus("acme.myshopify.com")
		f.shopify.On("ListWebhooks", mock.Anything, "acme.myshopify.com", "tok").Return([]domain.Subscription{}, nil).Once()
		status, err = f.service.WebhookStatus(ctx, "acme.myshopify.com")
		require.NoError(t, err)
		assert.Equal(t, 0, status.Count)
	})

	t.Run("registration refreshes the cached status", func(t *testing.T) {
		f := setupShopServiceTest()
		f.shops.On("GetShop", mock.Anything, "acme.myshopify.com").
			Return(&domain.Shop{Domain: "acme.myshopify.com", AccessToken: "enc:tok"}, nil)
		f.shopify.On("ListWebhooks", mock.Anything, "acme.myshopify.com", "tok").
			Return([]domain.Subscription{{ID: 1, Topic: "products/create"}}, nil).Once()

		status, err := f.service.WebhookStatus(ctx, "acme.myshopify.com")
		require.NoError(t, err)
		assert.Equal(t, 1, status.Count)

		f.shopify.On("CreateWebhook", mock.Anything, "acme.myshopify.com", "tok", mock.Anything, mock.Anything).
			Return(&domain.Subscription{ID: 2}, nil).Times(5)
		f.manager.RegisterDefaults(ctx, "acme.myshopify.com", "tok")

		f.shopify.On("ListWebhooks", mock.Anything, "acme.myshopify.com", "tok").
			Return([]domain.Subscription{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}, nil).Once()
		status, err = f.service.WebhookStatus(ctx, "acme.myshopify.com")
		require.NoError(t, err)
		assert.Equal(t, 5, status.Count)
		f.shopify.AssertNumberOfCalls(t, "ListWebhooks", 2)
	})

	t.Run("defaults to the latest shop", func(t *testing.T) {
		f := setupShopServiceTest()
		f.shops.On("LatestShop", mock.Anything).Return(&domain.Shop{Domain: "acme.myshopify.com"}, nil).Once()
		f.shops.On("GetShop", mock.Anything, "acme.myshopify.com").
			Return(&domain.Shop{Domain: "acme.myshopify.com", AccessToken: "enc:tok"}, nil).Once()
		f.shopify.On("ListWebhooks", mock.Anything, "acme.myshopify.com", "tok").Return(nil, nil).Once()

		status, err := f.service.WebhookStatus(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "acme.myshopify.com", status.Shop)
		assert.NotNil(t, status.Webhooks)
	})

	t.Run("no shop", func(t *testing.T) {
		f := setupShopServiceTest()
		f.shops.On("LatestShop", mock.Anything).Return(nil, nil).Once()

		_, err := f.service.WebhookStatus(ctx, "")
		assert.ErrorIs(t, err, domain.ErrShopNotFound)
	})

	t.Run("platform error is not cached", func(t *testing.T) {
		f := setupShopServiceTest()
		f.shops.On("GetShop", mock.Anything, "acme.myshopify.com").
			Return(&domain.Shop{Domain: "acme.myshopify.com", AccessToken: "enc:tok"}, nil)
		f.shopify.On("ListWebhooks", mock.Anything, "acme.myshopify.com", "tok").Return(nil, errors.New("503")).Once()
		f.shopify.On("ListWebhooks", mock.Anything, "acme.myshopify.com", "tok").Return([]domain.Subscription{{ID: 1}}, nil).Once()

		_, err := f.service.WebhookStatus(ctx, "acme.myshopify.com")
		require.Error(t, err)

		status, err := f.service.WebhookStatus(ctx, "acme.myshopify.com")
		require.NoError(t, err)
		assert.Equal(t, 1, status.Count)
	})
}
