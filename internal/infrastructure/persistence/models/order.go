package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopflow/backend/internal/domain/fulfillment"
)

// OrderModel is the persistence model for the fulfillment Order entity.
// The unique index on order_sn backs the idempotency guarantee: concurrent
// inserts for the same order collapse to one row.
type OrderModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primary_key"`
	ShopID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	OrderSn       string                  `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_order_sn"`
	BuyerID       int64                   `gorm:"not null;default:0"`
	BuyerUsername string                  `gorm:"type:varchar(100)"`
	Status        fulfillment.OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ProcessedAt   *time.Time              `gorm:""`
	CreatedAt     time.Time               `gorm:"not null"`
	UpdatedAt     time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *fulfillment.Order {
	return &fulfillment.Order{
		ID:            m.ID,
		ShopID:        m.ShopID,
		OrderSn:       m.OrderSn,
		BuyerID:       m.BuyerID,
		BuyerUsername: m.BuyerUsername,
		Status:        m.Status,
		ProcessedAt:   m.ProcessedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *fulfillment.Order) {
	m.ID = o.ID
	m.ShopID = o.ShopID
	m.OrderSn = o.OrderSn
	m.BuyerID = o.BuyerID
	m.BuyerUsername = o.BuyerUsername
	m.Status = o.Status
	m.ProcessedAt = o.ProcessedAt
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
}
