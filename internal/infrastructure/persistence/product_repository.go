package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopflow/backend/internal/domain/catalog"
	"github.com/shopflow/backend/internal/domain/shared"
	"github.com/shopflow/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements catalog.Repository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByItem looks up the product mapped to a marketplace line item. The item
// ID is the primary match; the SKU is the fallback for listings created
// before the first sync ran.
func (r *GormProductRepository) FindByItem(ctx context.Context, shopID uuid.UUID, marketplaceItemID int64, sku string) (*catalog.Product, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND marketplace_item_id = ?", shopID, marketplaceItemID).
		First(&model).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if sku == "" {
		return nil, shared.ErrNotFound
	}
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND sku = ?", shopID, sku).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBoostable returns up to limit active, boost-eligible products ordered
// by last_boosted_at ascending with never-boosted products first.
func (r *GormProductRepository) FindBoostable(ctx context.Context, shopID uuid.UUID, limit int) ([]catalog.Product, error) {
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND is_active = ? AND boost_eligible = ?", shopID, true, true).
		Order("last_boosted_at asc NULLS FIRST").
		Limit(limit).
		Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// MarkBoosted sets last_boosted_at for the given products
func (r *GormProductRepository) MarkBoosted(ctx context.Context, ids []uuid.UUID, when time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"last_boosted_at": when,
			"updated_at":      when,
		}).Error
}

// UpsertItems merges marketplace listing data into the shop's products by
// marketplace item ID. Download links and chat templates are owned by the
// dashboard and are never overwritten here.
func (r *GormProductRepository) UpsertItems(ctx context.Context, shopID uuid.UUID, items []catalog.ItemSync) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	now := time.Now()
	productModels := make([]models.ProductModel, 0, len(items))
	for _, item := range items {
		productModels = append(productModels, models.ProductModel{
			ID:                uuid.New(),
			ShopID:            shopID,
			MarketplaceItemID: item.MarketplaceItemID,
			SKU:               item.SKU,
			Name:              item.Name,
			IsActive:          item.IsActive,
			BoostEligible:     true,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_id"}, {Name: "marketplace_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sku", "name", "is_active", "updated_at"}),
	}).Create(&productModels)
	if result.Error != nil {
		return 0, result.Error
	}
	return len(productModels), nil
}

// Ensure GormProductRepository implements the repository interface
var _ catalog.Repository = (*GormProductRepository)(nil)
