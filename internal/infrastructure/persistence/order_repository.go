package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/domain/shared"
	"github.com/shopflow/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements fulfillment.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByOrderSn finds an order by its marketplace serial number
func (r *GormOrderRepository) FindByOrderSn(ctx context.Context, orderSn string) (*fulfillment.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("order_sn = ?", orderSn).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new order record. A unique violation on order_sn means a
// concurrent delivery of the same webhook won the race.
func (r *GormOrderRepository) Create(ctx context.Context, o *fulfillment.Order) error {
	var model models.OrderModel
	model.FromDomain(o)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists status and timestamp changes for an existing record
func (r *GormOrderRepository) Update(ctx context.Context, o *fulfillment.Order) error {
	var model models.OrderModel
	model.FromDomain(o)
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"status":       model.Status,
			"processed_at": model.ProcessedAt,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormOrderRepository implements the repository interface
var _ fulfillment.OrderRepository = (*GormOrderRepository)(nil)
