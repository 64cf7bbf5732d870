package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/catalog"
	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shared"
	"github.com/shopflow/backend/internal/domain/shop"
)

const testOrderSn = "2408ABCDEF1234"

type pipelineFixture struct {
	orders   *mockOrderRepository
	products *mockProductRepository
	audits   *mockAuditLogRepository
	client   *mockMarketplaceClient
	pipeline *FulfillmentPipeline
	shop     *shop.Shop
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		orders:   new(mockOrderRepository),
		products: new(mockProductRepository),
		audits:   new(mockAuditLogRepository),
		client:   new(mockMarketplaceClient),
		shop:     testShop(),
	}
	refresher := NewTokenRefresher(new(mockShopRepository), new(mockAuthenticator), f.audits, zap.NewNop())
	f.pipeline = NewFulfillmentPipeline(f.orders, f.products, f.audits, f.client, refresher, zap.NewNop())
	f.audits.On("Append", mock.Anything, mock.Anything).Return(nil)
	return f
}

func (f *pipelineFixture) fulfillableProduct(itemID int64, sku string) *catalog.Product {
	return &catalog.Product{
		ID:                uuid.New(),
		ShopID:            f.shop.ID,
		MarketplaceItemID: itemID,
		SKU:               sku,
		Name:              "Netflix Premium 1 Bulan",
		DownloadLink:      "https://files.example.com/" + sku,
		IsActive:          true,
	}
}

func orderDetail(items ...marketplace.OrderItem) []marketplace.OrderDetail {
	return []marketplace.OrderDetail{{
		OrderSn:       testOrderSn,
		Status:        marketplace.OrderStatusReadyToShip,
		BuyerUserID:   44001,
		BuyerUsername: "buyer_one",
		Items:         items,
	}}
}

func TestFulfillmentPipeline_ProcessOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers chat per item and ships", func(t *testing.T) {
		f := newPipelineFixture()
		f.orders.On("FindByOrderSn", ctx, testOrderSn).Return(nil, shared.ErrNotFound)
		f.client.On("GetOrderDetail", ctx, mock.Anything, []string{testOrderSn}).
			Return(orderDetail(
				marketplace.OrderItem{ItemID: 101, SKU: "NFX-1M", Quantity: 1},
				marketplace.OrderItem{ItemID: 102, SKU: "SPT-1M", Quantity: 1},
			), nil)

		var created *fulfillment.Order
		f.orders.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			created = args.Get(1).(*fulfillment.Order)
		}).Return(nil)
		f.orders.On("Update", ctx, mock.Anything).Return(nil)

		f.products.On("FindByItem", ctx, f.shop.ID, int64(101), "NFX-1M").
			Return(f.fulfillableProduct(101, "NFX-1M"), nil)
		f.products.On("FindByItem", ctx, f.shop.ID, int64(102), "SPT-1M").
			Return(f.fulfillableProduct(102, "SPT-1M"), nil)
		f.client.On("SendChatMessage", ctx, mock.Anything, int64(44001), mock.Anything).Return(nil).Times(2)
		f.client.On("ShipOrder", ctx, mock.Anything, testOrderSn).Return(nil)

		err := f.pipeline.ProcessOrder(ctx, f.shop, testOrderSn)
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, fulfillment.OrderStatusShipped, created.Status)
		assert.NotNil(t, created.ProcessedAt)
		assert.Equal(t, "buyer_one", created.BuyerUsername)
		assert.Len(t, f.audits.entriesFor(fulfillment.LogActionChatSent), 2)
		assert.Len(t, f.audits.entriesFor(fulfillment.LogActionOrderShipped), 1)
		f.client.AssertExpectations(t)
	})

	t.Run("already processed order is a no-op", func(t *testing.T) {
		f := newPipelineFixture()
		existing := fulfillment.NewOrder(f.shop.ID, testOrderSn, 44001, "buyer_one")
		f.orders.On("FindByOrderSn", ctx, testOrderSn).Return(existing, nil)

		err := f.pipeline.ProcessOrder(ctx, f.shop, testOrderSn)
		require.NoError(t, err)
		f.client.AssertNotCalled(t, "GetOrderDetail", mock.Anything, mock.Anything, mock.Anything)
		f.client.AssertNotCalled(t, "SendChatMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.client.AssertNotCalled(t, "ShipOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unmapped item is skipped, rest of order still ships", func(t *testing.T) {
		f := newPipelineFixture()
		f.orders.On("FindByOrderSn", ctx, testOrderSn).Return(nil, shared.ErrNotFound)
		f.client.On("GetOrderDetail", ctx, mock.Anything, []string{testOrderSn}).
			Return(orderDetail(
				marketplace.OrderItem{ItemID: 101, SKU: "NFX-1M", Quantity: 1},
				marketplace.OrderItem{ItemID: 999, SKU: "UNKNOWN", Quantity: 1},
				marketplace.OrderItem{ItemID: 102, SKU: "SPT-1M", Quantity: 1},
			), nil)

		var created *fulfillment.Order
		f.orders.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			created = args.Get(1).(*fulfillment.Order)
		}).Return(nil)
		f.orders.On("Update", ctx, mock.Anything).Return(nil)

		f.products.On("FindByItem", ctx, f.shop.ID, int64(101), "NFX-1M").
			Return(f.fulfillableProduct(101, "NFX-1M"), nil)
		f.products.On("FindByItem", ctx, f.shop.ID, int64(999), "UNKNOWN").
			Return(nil, shared.ErrNotFound)
		f.products.On("FindByItem", ctx, f.shop.ID, int64(102), "SPT-1M").
			Return(f.fulfillableProduct(102, "SPT-1M"), nil)
		f.client.On("SendChatMessage", ctx, mock.Anything, int64(44001), mock.Anything).Return(nil).Times(2)
		f.client.On("ShipOrder", ctx, mock.Anything, testOrderSn).Return(nil)

		err := f.pipeline.ProcessOrder(ctx, f.shop, testOrderSn)
		require.NoError(t, err)
		assert.Equal(t, fulfillment.OrderStatusShipped, created.Status)
		assert.Len(t, f.audits.entriesFor(fulfillment.LogActionChatSent), 2)
		assert.NotEmpty(t, f.audits.entriesFor(fulfillment.LogActionError))
		f.client.AssertExpectations(t)
	})

	t.Run("inactive product is not fulfilled", func(t *testing.T) {
		f := newPipelineFixture()
		f.orders.On("FindByOrderSn", ctx, testOrderSn).Return(nil, shared.ErrNotFound)
		f.client.On("GetOrderDetail", ctx, mock.Anything, []string{testOrderSn}).
			Return(orderDetail(marketplace.OrderItem{ItemID: 101, SKU: "NFX-1M", Quantity: 1}), nil)
		f.orders.On("Create", ctx, mock.Anything).Return(nil)
		f.orders.On("Update", ctx, mock.Anything).Return(nil)

		inactive := f.fulfillableProduct(101, "NFX-1M")
		inactive.IsActive = false
		f.products.On("FindByItem", ctx, f.shop.ID, int64(101), "NFX-1M").Return(inactive, nil)
		f.client.On("ShipOrder", ctx, mock.Anything, testOrderSn).Return(nil)

		err := f.pipeline.ProcessOrder(ctx, f.shop, testOrderSn)
		require.NoError(t, err)
		f.client.AssertNotCalled(t, "SendChatMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("chat failure for one item does not abort the order", func(t *testing.T) {
		f := newPipelineFixture()
		f.orders.On("FindByOrderSn", ctx, testOrderSn).Return(nil, shared.ErrNotFound)
		f.client.On("GetOrderDetail", ctx, mock.Anything, []string{testOrderSn}).
			Return(orderDetail(
				marketplace.OrderItem{ItemID: 101, SKU: "NFX-1M", Quantity: 1},
				marketplace.OrderItem{ItemID: 102, SKU: "SPT-1M", Quantity: 1},
			), nil)

		var created *fulfillment.Order
		f.orders.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			created = args.Get(1).(*fulfillment.Order)
		}).Return(nil)
		f.orders.On("Update", ctx, mock.Anything).Return(nil)

		f.products.On("FindByItem", ctx, f.shop.ID, int64(101), "NFX-1M").
			Return(f.fulfillableProduct(101, "NFX-1M"), nil)
		f.products.On("FindByItem", ctx, f.shop.ID, int64(102), "SPT-1M").
			Return(f.fulfillableProduct(102, "SPT-1M"), nil)
		f.client.On("SendChatMessage", ctx, mock.Anything, int64(44001), mock.Anything).
			Return(errors.New("chat service unavailable")).Once()
		f.client.On("SendChatMessage", ctx, mock.Anything, int64(44001), mock.Anything).
			Return(nil).Once()
		f.client.On("ShipOrder", ctx, mock.Anything, testOrderSn).Return(nil)

		err := f.pipeline.ProcessOrder(ctx, f.shop, testOrderSn)
		require.NoError(t, err)
		assert.Equal(t, fulfillment.OrderStatusShipped, created.Status)
		assert.Len(t, f.audits.entriesFor(fulfillment.LogActionChatSent), 1)
	})

	t.Run("ship failure moves the order to FAILED", func(t *testing.T) {
		f := newPipelineFixture()
		f.orders.On("FindByOrderSn", ctx, testOrderSn).Return(nil, shared.ErrNotFound)
		f.client.On("GetOrderDetail", ctx, mock.Anything, []string{testOrderSn}).
			Return(orderDetail(marketplace.OrderItem{ItemID: 101, SKU: "NFX-1M", Quantity: 1}), nil)

		var created *fulfillment.Order
		f.orders.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			created = args.Get(1).(*fulfillment.Order)
		}).Return(nil)
		f.orders.On("Update", ctx, mock.Anything).Return(nil)

		f.products.On("FindByItem", ctx, f.shop.ID, int64(101), "NFX-1M").
			Return(f.fulfillableProduct(101, "NFX-1M"), nil)
		f.client.On("SendChatMessage", ctx, mock.Anything, int64(44001), mock.Anything).Return(nil)
		shipErr := errors.New("logistics not ready")
		f.client.On("ShipOrder", ctx, mock.Anything, testOrderSn).Return(shipErr)

		err := f.pipeline.ProcessOrder(ctx, f.shop, testOrderSn)
		assert.ErrorIs(t, err, shipErr)
		assert.Equal(t, fulfillment.OrderStatusFailed, created.Status)
		assert.NotEmpty(t, f.audits.entriesFor(fulfillment.LogActionError))
	})

	t.Run("detail fetch failure records a FAILED order", func(t *testing.T) {
		f := newPipelineFixture()
		f.orders.On("FindByOrderSn", ctx, testOrderSn).Return(nil, shared.ErrNotFound)
		f.client.On("GetOrderDetail", ctx, mock.Anything, []string{testOrderSn}).
			Return(nil, marketplace.ErrUpstreamUnavailable)

		var created *fulfillment.Order
		f.orders.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			created = args.Get(1).(*fulfillment.Order)
		}).Return(nil)

		err := f.pipeline.ProcessOrder(ctx, f.shop, testOrderSn)
		assert.ErrorIs(t, err, marketplace.ErrUpstreamUnavailable)
		require.NotNil(t, created)
		assert.Equal(t, fulfillment.OrderStatusFailed, created.Status)
		f.client.AssertNotCalled(t, "ShipOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("losing the create race is a clean no-op", func(t *testing.T) {
		f := newPipelineFixture()
		f.orders.On("FindByOrderSn", ctx, testOrderSn).Return(nil, shared.ErrNotFound)
		f.client.On("GetOrderDetail", ctx, mock.Anything, []string{testOrderSn}).
			Return(orderDetail(marketplace.OrderItem{ItemID: 101, SKU: "NFX-1M", Quantity: 1}), nil)
		f.orders.On("Create", ctx, mock.Anything).Return(shared.ErrAlreadyExists)

		err := f.pipeline.ProcessOrder(ctx, f.shop, testOrderSn)
		require.NoError(t, err)
		f.client.AssertNotCalled(t, "SendChatMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.client.AssertNotCalled(t, "ShipOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FAILED record is re-driven on redelivery", func(t *testing.T) {
		f := newPipelineFixture()
		failed := fulfillment.NewOrder(f.shop.ID, testOrderSn, 44001, "buyer_one")
		failed.Status = fulfillment.OrderStatusFailed
		f.orders.On("FindByOrderSn", ctx, testOrderSn).Return(failed, nil)
		f.client.On("GetOrderDetail", ctx, mock.Anything, []string{testOrderSn}).
			Return(orderDetail(marketplace.OrderItem{ItemID: 101, SKU: "NFX-1M", Quantity: 1}), nil)
		f.orders.On("Update", ctx, mock.Anything).Return(nil)
		f.products.On("FindByItem", ctx, f.shop.ID, int64(101), "NFX-1M").
			Return(f.fulfillableProduct(101, "NFX-1M"), nil)
		f.client.On("SendChatMessage", ctx, mock.Anything, int64(44001), mock.Anything).Return(nil)
		f.client.On("ShipOrder", ctx, mock.Anything, testOrderSn).Return(nil)

		err := f.pipeline.ProcessOrder(ctx, f.shop, testOrderSn)
		require.NoError(t, err)
		assert.Equal(t, fulfillment.OrderStatusShipped, failed.Status)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
