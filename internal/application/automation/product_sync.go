package automation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/catalog"
	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shop"
)

const (
	syncPageSize   = 50
	itemStatusLive = "NORMAL"
)

// ProductSync pulls the shop's marketplace listings and merges them into the
// local catalog by item ID. Sync never touches download links or chat
// templates; those stay whatever the seller configured.
type ProductSync struct {
	products  catalog.Repository
	client    marketplace.Client
	refresher *TokenRefresher
	logger    *zap.Logger
}

// NewProductSync creates a new ProductSync
func NewProductSync(
	products catalog.Repository,
	client marketplace.Client,
	refresher *TokenRefresher,
	logger *zap.Logger,
) *ProductSync {
	return &ProductSync{
		products:  products,
		client:    client,
		refresher: refresher,
		logger:    logger,
	}
}

// SyncShop walks the shop's listing pages and upserts each item. Returns the
// number of listings merged.
func (s *ProductSync) SyncShop(ctx context.Context, sh *shop.Shop) (int, error) {
	synced := 0
	offset := 0

	for {
		var page *marketplace.ItemPage
		err := s.refresher.WithRetry(ctx, sh, func(creds marketplace.Credentials) error {
			var callErr error
			page, callErr = s.client.ListItems(ctx, creds, offset, syncPageSize, "")
			return callErr
		})
		if err != nil {
			return synced, fmt.Errorf("product sync: list items at offset %d: %w", offset, err)
		}

		items := make([]catalog.ItemSync, 0, len(page.Items))
		for _, it := range page.Items {
			items = append(items, catalog.ItemSync{
				MarketplaceItemID: it.ItemID,
				SKU:               it.SKU,
				Name:              it.Name,
				IsActive:          it.Status == itemStatusLive,
			})
		}

		if len(items) > 0 {
			n, err := s.products.UpsertItems(ctx, sh.ID, items)
			if err != nil {
				return synced, fmt.Errorf("product sync: upsert items: %w", err)
			}
			synced += n
		}

		if !page.HasMore {
			break
		}
		offset = page.NextOffset
	}

	s.logger.Info("Product sync finished",
		zap.Int64("marketplace_shop_id", sh.MarketplaceShopID),
		zap.Int("synced", synced),
	)

	return synced, nil
}
