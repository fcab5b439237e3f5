package webhook_handlers

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

func setupComplianceHandlerTest() (*ComplianceHandler, *mocks.MockShopRepository, *mocks.MockCaptionEventRepository) {
	shops := new(mocks.MockShopRepository)
	events := new(mocks.MockCaptionEventRepository)
	return NewComplianceHandler(zerolog.Nop(), shops, events), shops, events
}

func complianceEvent(topic domain.Topic, payload string) *domain.WebhookEvent {
	return &domain.WebhookEvent{
		Topic:    topic,
		Shop:     "acme.myshopify.com",
		Payload:  []byte(payload),
		Verified: true,
	}
}

func TestComplianceHandler_ShopRedact(t *testing.T) {
	h, shops, events := setupComplianceHandlerTest()
	ctx := context.Background()

	var order []string
	events.On("DeleteEventsByShop", mock.Anything, "acme.myshopify.com").
		Run(func(mock.Arguments) { order = append(order, "events") }).
		Return(int64(3), nil).Once()
	shops.On("DeleteShop", mock.Anything, "acme.myshopify.com").
		Run(func(mock.Arguments) { order = append(order, "shop") }).
		Return(int64(1), nil).Once()

	require.NoError(t, h.Handle(ctx, complianceEvent(domain.TopicShopRedact, `{"shop_domain":"acme.myshopify.com"}`)))
	assert.Equal(t, []string{"events", "shop"}, order)
}

func TestComplianceHandler_ShopRedactIsIdempotent(t *testing.T) {
	h, shops, events := setupComplianceHandlerTest()
	ctx := context.Background()

	events.On("DeleteEventsByShop", mock.Anything, "acme.myshopify.com").Return(int64(0), nil).Twice()
	shops.On("DeleteShop", mock.Anything, "acme.myshopify.com").Return(int64(0), nil).Twice()

	ev := complianceEvent(domain.TopicShopRedact, `{}`)
	require.NoError(t, h.Handle(ctx, ev))
	require.NoError(t, h.Handle(ctx, ev))
	shops.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestComplianceHandler_ShopRedactStoreFailure(t *testing.T) {
	h, shops, events := setupComplianceHandlerTest()
	storeErr := errors.New("mongo down")
	events.On("DeleteEventsByShop", mock.Anything, "acme.myshopify.com").Return(int64(0), storeErr).Once()

	err := h.Handle(context.Background(), complianceEvent(domain.TopicShopRedact, `{}`))
	assert.ErrorIs(t, err, storeErr)
	shops.AssertNotCalled(t, "DeleteShop", mock.Anything, mock.Anything)
}

func TestComplianceHandler_CustomersRedact(t *testing.T) {
	h, shops, events := setupComplianceHandlerTest()
	events.On("DeleteEventsByShop", mock.Anything, "acme.myshopify.com").Return(int64(2), nil).Once()

	require.NoError(t, h.Handle(context.Background(), complianceEvent(domain.TopicCustomersRedact, `{"customer":{"id":1}}`)))
	events.AssertExpectations(t)
	shops.AssertNotCalled(t, "DeleteShop", mock.Anything, mock.Anything)
}

func TestComplianceHandler_DataRequest(t *testing.T) {
	h, shops, events := setupComplianceHandlerTest()

	err := h.Handle(context.Background(), complianceEvent(domain.TopicCustomersDataRequest,
		`{"customer":{"id":191167},"data_request":{"id":9999}}`))
	require.NoError(t, err)
	events.AssertNotCalled(t, "DeleteEventsByShop", mock.Anything, mock.Anything)
	shops.AssertNotCalled(t, "DeleteShop", mock.Anything, mock.Anything)
}

func TestComplianceHandler_MissingShop(t *testing.T) {
	h, _, events := setupComplianceHandlerTest()
	ev := complianceEvent(domain.TopicShopRedact, `{}`)
	ev.Shop = ""

	err := h.Handle(context.Background(), ev)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	events.AssertNotCalled(t, "DeleteEventsByShop", mock.Anything, mock.Anything)
}
