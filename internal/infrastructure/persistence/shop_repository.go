package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shared"
	"github.com/shopflow/backend/internal/domain/shop"
	"github.com/shopflow/backend/internal/infrastructure/persistence/models"
)

// GormShopRepository implements shop.Repository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// FindByMarketplaceID finds a shop by its marketplace-issued numeric ID
func (r *GormShopRepository) FindByMarketplaceID(ctx context.Context, marketplaceShopID int64) (*shop.Shop, error) {
	var model models.ShopModel
	if err := r.db.WithContext(ctx).
		Where("marketplace_shop_id = ?", marketplaceShopID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive finds all active shops
func (r *GormShopRepository) FindActive(ctx context.Context) ([]shop.Shop, error) {
	var shopModels []models.ShopModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at asc").
		Find(&shopModels).Error; err != nil {
		return nil, err
	}

	shops := make([]shop.Shop, len(shopModels))
	for i, model := range shopModels {
		shops[i] = *model.ToDomain()
	}
	return shops, nil
}

// Save creates or updates a shop
func (r *GormShopRepository) Save(ctx context.Context, s *shop.Shop) error {
	var model models.ShopModel
	model.FromDomain(s)
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateTokens persists a refreshed token bundle for a shop. Concurrent
// refreshes race last-writer-wins; any of the refreshed tokens is valid.
func (r *GormShopRepository) UpdateTokens(ctx context.Context, id uuid.UUID, tokens marketplace.TokenBundle) error {
	now := time.Now()
	updates := map[string]any{
		"access_token":     tokens.AccessToken,
		"token_expires_at": tokens.ExpiresAt(now),
		"is_active":        true,
		"updated_at":       now,
	}
	if tokens.RefreshToken != "" {
		updates["refresh_token"] = tokens.RefreshToken
	}

	result := r.db.WithContext(ctx).
		Model(&models.ShopModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormShopRepository implements the repository interface
var _ shop.Repository = (*GormShopRepository)(nil)
