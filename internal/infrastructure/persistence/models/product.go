package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopflow/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
// (shop_id, sku) is unique so each marketplace listing maps to at most one
// download; (shop_id, marketplace_item_id) is unique for the sync path.
type ProductModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key"`
	ShopID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_products_shop_sku,priority:1;uniqueIndex:idx_products_shop_item,priority:1"`
	MarketplaceItemID int64      `gorm:"not null;uniqueIndex:idx_products_shop_item,priority:2"`
	SKU               string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_shop_sku,priority:2"`
	Name              string     `gorm:"type:varchar(200)"`
	DownloadLink      string     `gorm:"type:text"`
	ChatTemplate      string     `gorm:"type:text"`
	IsActive          bool       `gorm:"not null;default:true"`
	BoostEligible     bool       `gorm:"not null;default:true"`
	LastBoostedAt     *time.Time `gorm:"index"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:                m.ID,
		ShopID:            m.ShopID,
		MarketplaceItemID: m.MarketplaceItemID,
		SKU:               m.SKU,
		Name:              m.Name,
		DownloadLink:      m.DownloadLink,
		ChatTemplate:      m.ChatTemplate,
		IsActive:          m.IsActive,
		BoostEligible:     m.BoostEligible,
		LastBoostedAt:     m.LastBoostedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.ID = p.ID
	m.ShopID = p.ShopID
	m.MarketplaceItemID = p.MarketplaceItemID
	m.SKU = p.SKU
	m.Name = p.Name
	m.DownloadLink = p.DownloadLink
	m.ChatTemplate = p.ChatTemplate
	m.IsActive = p.IsActive
	m.BoostEligible = p.BoostEligible
	m.LastBoostedAt = p.LastBoostedAt
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}
