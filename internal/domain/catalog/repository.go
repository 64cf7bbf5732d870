package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ItemSync carries marketplace listing fields upserted during product sync.
// Download links and chat templates are owned by the dashboard CRUD layer
// and are never touched by a sync.
type ItemSync struct {
	MarketplaceItemID int64
	SKU               string
	Name              string
	IsActive          bool
}

// Repository is the storage port for products
type Repository interface {
	// FindByItem looks up the product mapped to a marketplace line item.
	// Returns shared.ErrNotFound when no mapping exists.
	FindByItem(ctx context.Context, shopID uuid.UUID, marketplaceItemID int64, sku string) (*Product, error)

	// FindBoostable returns up to limit active, boost-eligible products for a
	// shop ordered by last_boosted_at ascending with never-boosted first.
	FindBoostable(ctx context.Context, shopID uuid.UUID, limit int) ([]Product, error)

	// MarkBoosted sets last_boosted_at for the given products
	MarkBoosted(ctx context.Context, ids []uuid.UUID, when time.Time) error

	// UpsertItems merges marketplace listing data into the shop's products
	// by marketplace item ID, creating rows for unseen listings.
	UpsertItems(ctx context.Context, shopID uuid.UUID, items []ItemSync) (int, error)
}
