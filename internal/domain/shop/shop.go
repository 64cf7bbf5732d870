package shop

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/shopflow/backend/internal/domain/marketplace"
)

var (
	ErrMissingMarketplaceID = errors.New("shop: marketplace shop ID is required")
	ErrMissingPartnerID     = errors.New("shop: partner ID is required")
	ErrMissingPartnerKey    = errors.New("shop: partner key is required")
)

// AutomationSettings holds the independent per-shop automation switches
type AutomationSettings struct {
	AutoFulfillment bool `json:"auto_fulfillment"`
	AutoReply       bool `json:"auto_reply"`
	AutoRating      bool `json:"auto_rating"`
	AutoBoost       bool `json:"auto_boost"`
}

// DefaultAutomationSettings enables everything, matching the defaults applied
// when a shop first authorizes the application.
func DefaultAutomationSettings() AutomationSettings {
	return AutomationSettings{
		AutoFulfillment: true,
		AutoReply:       true,
		AutoRating:      true,
		AutoBoost:       true,
	}
}

// Shop is a seller's store on the marketplace together with the partner
// credentials and tokens needed to call the open platform on its behalf.
type Shop struct {
	ID                uuid.UUID
	MarketplaceShopID int64
	Name              string
	PartnerID         int64
	PartnerKey        string
	AccessToken       string
	RefreshToken      string
	TokenExpiresAt    *time.Time
	IsActive          bool
	Settings          AutomationSettings
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewShop creates a shop for a freshly authorized marketplace store
func NewShop(marketplaceShopID, partnerID int64, partnerKey, name string) (*Shop, error) {
	if marketplaceShopID == 0 {
		return nil, ErrMissingMarketplaceID
	}
	if partnerID == 0 {
		return nil, ErrMissingPartnerID
	}
	if partnerKey == "" {
		return nil, ErrMissingPartnerKey
	}
	now := time.Now()
	return &Shop{
		ID:                uuid.New(),
		MarketplaceShopID: marketplaceShopID,
		Name:              name,
		PartnerID:         partnerID,
		PartnerKey:        partnerKey,
		IsActive:          true,
		Settings:          DefaultAutomationSettings(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Credentials builds the immutable per-call credential set for this shop
func (s *Shop) Credentials() marketplace.Credentials {
	return marketplace.Credentials{
		PartnerID:   s.PartnerID,
		PartnerKey:  s.PartnerKey,
		ShopID:      s.MarketplaceShopID,
		AccessToken: s.AccessToken,
	}
}

// ApplyTokens stores a fresh token bundle on the shop and re-activates it
func (s *Shop) ApplyTokens(tokens marketplace.TokenBundle, now time.Time) {
	s.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		s.RefreshToken = tokens.RefreshToken
	}
	expiresAt := tokens.ExpiresAt(now)
	s.TokenExpiresAt = &expiresAt
	s.IsActive = true
	s.UpdatedAt = now
}

// TokenExpired reports whether the stored access token is past its expiry.
// A shop without a recorded expiry is treated as expired so the next call
// goes through the refresh path.
func (s *Shop) TokenExpired(now time.Time) bool {
	if s.AccessToken == "" {
		return true
	}
	if s.TokenExpiresAt == nil {
		return true
	}
	return !now.Before(*s.TokenExpiresAt)
}

// Deactivate marks the shop inactive, excluding it from boost rotation and
// webhook processing until it re-authorizes.
func (s *Shop) Deactivate(now time.Time) {
	s.IsActive = false
	s.UpdatedAt = now
}
