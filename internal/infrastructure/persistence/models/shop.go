package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/shopflow/backend/internal/domain/shop"
)

// ShopModel is the persistence model for the Shop domain entity.
type ShopModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key"`
	MarketplaceShopID int64      `gorm:"not null;uniqueIndex:idx_shops_marketplace_id"`
	Name              string     `gorm:"type:varchar(200)"`
	PartnerID         int64      `gorm:"not null"`
	PartnerKey        string     `gorm:"type:varchar(200);not null"`
	AccessToken       string     `gorm:"type:varchar(200)"`
	RefreshToken      string     `gorm:"type:varchar(200)"`
	TokenExpiresAt    *time.Time `gorm:""`
	IsActive          bool       `gorm:"not null;default:true;index"`
	Settings          string     `gorm:"type:jsonb"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the persistence model to a domain Shop entity.
func (m *ShopModel) ToDomain() *shop.Shop {
	settings := shop.DefaultAutomationSettings()
	if m.Settings != "" {
		// Unknown keys are ignored; a corrupt column falls back to defaults
		_ = json.Unmarshal([]byte(m.Settings), &settings)
	}

	return &shop.Shop{
		ID:                m.ID,
		MarketplaceShopID: m.MarketplaceShopID,
		Name:              m.Name,
		PartnerID:         m.PartnerID,
		PartnerKey:        m.PartnerKey,
		AccessToken:       m.AccessToken,
		RefreshToken:      m.RefreshToken,
		TokenExpiresAt:    m.TokenExpiresAt,
		IsActive:          m.IsActive,
		Settings:          settings,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Shop entity.
func (m *ShopModel) FromDomain(s *shop.Shop) {
	m.ID = s.ID
	m.MarketplaceShopID = s.MarketplaceShopID
	m.Name = s.Name
	m.PartnerID = s.PartnerID
	m.PartnerKey = s.PartnerKey
	m.AccessToken = s.AccessToken
	m.RefreshToken = s.RefreshToken
	m.TokenExpiresAt = s.TokenExpiresAt
	m.IsActive = s.IsActive
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt

	if b, err := json.Marshal(s.Settings); err == nil {
		m.Settings = string(b)
	}
}
