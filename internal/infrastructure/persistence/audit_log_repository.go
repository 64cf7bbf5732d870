package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/infrastructure/persistence/models"
)

// GormAuditLogRepository implements fulfillment.AuditLogRepository using GORM.
// Entries are append-only; there are no update or delete paths.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// AuditLogSortFields whitelists the columns an audit listing may sort by
var AuditLogSortFields = map[string]bool{
	"created_at":      true,
	"action":          true,
	"response_status": true,
}

const (
	defaultAuditLogLimit = 50
	maxAuditLogLimit     = 200
)

// Append inserts an audit entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *fulfillment.AuditLog) error {
	var model models.AuditLogModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// List returns audit entries matching the filter, newest first by default,
// plus the total match count before paging.
func (r *GormAuditLogRepository) List(ctx context.Context, filter fulfillment.AuditLogFilter) ([]*fulfillment.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLogModel{})

	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.OrderSn != "" {
		query = query.Where("order_sn = ?", filter.OrderSn)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, AuditLogSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLogLimit
	}
	if limit > maxAuditLogLimit {
		limit = maxAuditLogLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []models.AuditLogModel
	if err := query.
		Order(sortField + " " + sortOrder).
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*fulfillment.AuditLog, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, total, nil
}

// Ensure GormAuditLogRepository implements the repository interfaces
var (
	_ fulfillment.AuditLogRepository = (*GormAuditLogRepository)(nil)
	_ fulfillment.AuditLogReader     = (*GormAuditLogRepository)(nil)
)
