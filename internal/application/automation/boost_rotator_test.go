package automation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/catalog"
	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shop"
)

type rotatorFixture struct {
	shops    *mockShopRepository
	products *mockProductRepository
	audits   *mockAuditLogRepository
	client   *mockMarketplaceClient
	rotator  *BoostRotator
}

func newRotatorFixture(slots int) *rotatorFixture {
	f := &rotatorFixture{
		shops:    new(mockShopRepository),
		products: new(mockProductRepository),
		audits:   new(mockAuditLogRepository),
		client:   new(mockMarketplaceClient),
	}
	refresher := NewTokenRefresher(f.shops, new(mockAuthenticator), f.audits, zap.NewNop())
	f.rotator = NewBoostRotator(f.shops, f.products, f.audits, f.client, refresher, slots, zap.NewNop())
	f.audits.On("Append", mock.Anything, mock.Anything).Return(nil)
	return f
}

func boostCandidates(shopID uuid.UUID, itemIDs ...int64) []catalog.Product {
	out := make([]catalog.Product, 0, len(itemIDs))
	for _, id := range itemIDs {
		out = append(out, catalog.Product{
			ID:                uuid.New(),
			ShopID:            shopID,
			MarketplaceItemID: id,
			IsActive:          true,
			BoostEligible:     true,
		})
	}
	return out
}

func TestBoostRotator_RotateShop(t *testing.T) {
	ctx := context.Background()

	t.Run("boosts the selected slots and records all of them", func(t *testing.T) {
		f := newRotatorFixture(5)
		sh := testShop()
		candidates := boostCandidates(sh.ID, 11, 12, 13, 14, 15)

		f.products.On("FindBoostable", ctx, sh.ID, 5).Return(candidates, nil)
		f.client.On("BoostItems", ctx, mock.Anything, []int64{11, 12, 13, 14, 15}).
			Return(&marketplace.BoostResult{SuccessIDs: []int64{11, 12, 13, 14, 15}}, nil)

		var marked []uuid.UUID
		f.products.On("MarkBoosted", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			marked = args.Get(1).([]uuid.UUID)
		}).Return(nil)

		result, err := f.rotator.RotateShop(ctx, sh)
		require.NoError(t, err)
		assert.Equal(t, 5, result.Selected)
		assert.Equal(t, 5, result.Accepted)
		assert.Zero(t, result.Failed)
		assert.Len(t, marked, 5)
		assert.Len(t, f.audits.entriesFor(fulfillment.LogActionBoostExecuted), 1)
	})

	t.Run("only upstream-accepted items get a boost timestamp", func(t *testing.T) {
		f := newRotatorFixture(5)
		sh := testShop()
		candidates := boostCandidates(sh.ID, 11, 12, 13)

		f.products.On("FindBoostable", ctx, sh.ID, 5).Return(candidates, nil)
		f.client.On("BoostItems", ctx, mock.Anything, []int64{11, 12, 13}).
			Return(&marketplace.BoostResult{
				SuccessIDs: []int64{11, 13},
				Failures: []marketplace.BoostFailure{
					{ItemID: 12, Description: "item is already in a boost slot"},
				},
			}, nil)

		var marked []uuid.UUID
		f.products.On("MarkBoosted", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			marked = args.Get(1).([]uuid.UUID)
		}).Return(nil)

		result, err := f.rotator.RotateShop(ctx, sh)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Accepted)
		assert.Equal(t, []int64{12}, result.FailedItemIDs)
		require.Len(t, marked, 2)
		assert.ElementsMatch(t, []uuid.UUID{candidates[0].ID, candidates[2].ID}, marked)
	})

	t.Run("shop with nothing boostable is skipped without upstream calls", func(t *testing.T) {
		f := newRotatorFixture(5)
		sh := testShop()
		f.products.On("FindBoostable", ctx, sh.ID, 5).Return([]catalog.Product{}, nil)

		result, err := f.rotator.RotateShop(ctx, sh)
		require.NoError(t, err)
		assert.Zero(t, result.Selected)
		f.client.AssertNotCalled(t, "BoostItems", mock.Anything, mock.Anything, mock.Anything)
		f.products.AssertNotCalled(t, "MarkBoosted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("boost call failure marks nothing", func(t *testing.T) {
		f := newRotatorFixture(5)
		sh := testShop()
		f.products.On("FindBoostable", ctx, sh.ID, 5).Return(boostCandidates(sh.ID, 11), nil)
		f.client.On("BoostItems", ctx, mock.Anything, []int64{11}).
			Return(nil, marketplace.ErrUpstreamUnavailable)

		_, err := f.rotator.RotateShop(ctx, sh)
		assert.ErrorIs(t, err, marketplace.ErrUpstreamUnavailable)
		f.products.AssertNotCalled(t, "MarkBoosted", mock.Anything, mock.Anything, mock.Anything)
		assert.NotEmpty(t, f.audits.entriesFor(fulfillment.LogActionError))
	})

	t.Run("all rejected leaves timestamps untouched", func(t *testing.T) {
		f := newRotatorFixture(5)
		sh := testShop()
		f.products.On("FindBoostable", ctx, sh.ID, 5).Return(boostCandidates(sh.ID, 11, 12), nil)
		f.client.On("BoostItems", ctx, mock.Anything, []int64{11, 12}).
			Return(&marketplace.BoostResult{
				Failures: []marketplace.BoostFailure{
					{ItemID: 11, Description: "boost quota exhausted"},
					{ItemID: 12, Description: "boost quota exhausted"},
				},
			}, nil)

		result, err := f.rotator.RotateShop(ctx, sh)
		require.NoError(t, err)
		assert.Zero(t, result.Accepted)
		assert.Equal(t, 2, result.Failed)
		f.products.AssertNotCalled(t, "MarkBoosted", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBoostRotator_RotateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("skips shops with boosting disabled and survives per-shop failures", func(t *testing.T) {
		f := newRotatorFixture(5)

		active := testShop()
		disabled := testShop()
		disabled.MarketplaceShopID = 67891
		disabled.Settings.AutoBoost = false
		broken := testShop()
		broken.MarketplaceShopID = 67892

		f.shops.On("FindActive", ctx).Return([]shop.Shop{*broken, *disabled, *active}, nil)

		f.products.On("FindBoostable", ctx, broken.ID, 5).
			Return(nil, assert.AnError)
		f.products.On("FindBoostable", ctx, active.ID, 5).
			Return(boostCandidates(active.ID, 21), nil)
		f.client.On("BoostItems", ctx, mock.Anything, []int64{21}).
			Return(&marketplace.BoostResult{SuccessIDs: []int64{21}}, nil)
		f.products.On("MarkBoosted", ctx, mock.Anything, mock.Anything).Return(nil)

		err := f.rotator.RotateAll(ctx)
		require.NoError(t, err)
		f.products.AssertNotCalled(t, "FindBoostable", ctx, disabled.ID, 5)
		f.client.AssertNumberOfCalls(t, "BoostItems", 1)
	})
}

func TestBoostRotator_SlotDefault(t *testing.T) {
	f := newRotatorFixture(0)
	sh := testShop()
	f.products.On("FindBoostable", context.Background(), sh.ID, DefaultBoostSlots).
		Return([]catalog.Product{}, nil)

	_, err := f.rotator.RotateShop(context.Background(), sh)
	require.NoError(t, err)
	f.products.AssertExpectations(t)
}

func TestBoostRotator_RotateShopByID(t *testing.T) {
	ctx := context.Background()
	f := newRotatorFixture(5)
	sh := testShop()

	f.shops.On("FindByMarketplaceID", ctx, sh.MarketplaceShopID).Return(sh, nil)
	f.products.On("FindBoostable", ctx, sh.ID, 5).Return(boostCandidates(sh.ID, 31), nil)
	f.client.On("BoostItems", ctx, mock.Anything, []int64{31}).
		Return(&marketplace.BoostResult{SuccessIDs: []int64{31}}, nil)

	var when time.Time
	f.products.On("MarkBoosted", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		when = args.Get(2).(time.Time)
	}).Return(nil)

	result, err := f.rotator.RotateShopByID(ctx, sh.MarketplaceShopID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
	assert.WithinDuration(t, time.Now(), when, 5*time.Second)
}
