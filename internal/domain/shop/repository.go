package shop

import (
	"context"

	"github.com/google/uuid"

	"github.com/shopflow/backend/internal/domain/marketplace"
)

// Repository is the storage port for shops. The core only reads credentials
// and settings and writes token/active-flag updates; everything else is owned
// by the excluded CRUD layer.
type Repository interface {
	// FindByMarketplaceID looks up a shop by its marketplace-issued numeric ID.
	// Returns shared.ErrNotFound when the shop is not registered.
	FindByMarketplaceID(ctx context.Context, marketplaceShopID int64) (*Shop, error)

	// FindActive returns all active shops
	FindActive(ctx context.Context) ([]Shop, error)

	// Save creates or updates a shop
	Save(ctx context.Context, s *Shop) error

	// UpdateTokens persists a refreshed token bundle for a shop.
	// Concurrent refreshes race last-writer-wins; tokens are fungible.
	UpdateTokens(ctx context.Context, id uuid.UUID, tokens marketplace.TokenBundle) error
}
