package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Credentials is the immutable per-call credential set for shop-scoped API
// calls. It is built from the Shop aggregate at the call site and never held
// as client state, so a token refresh between two calls is always picked up.
type Credentials struct {
	PartnerID   int64
	PartnerKey  string
	ShopID      int64
	AccessToken string
}

// Validate checks that all shop-scoped credential fields are present
func (c Credentials) Validate() error {
	if c.PartnerID == 0 {
		return errors.New("marketplace: partner ID is required")
	}
	if c.PartnerKey == "" {
		return errors.New("marketplace: partner key is required")
	}
	if c.ShopID == 0 {
		return errors.New("marketplace: shop ID is required")
	}
	if c.AccessToken == "" {
		return ErrTokenExpired
	}
	return nil
}

// TokenBundle is the result of an authorization-code exchange or a token
// refresh on the marketplace open platform.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// ExpiresAt computes the absolute expiry from a reference time
func (t TokenBundle) ExpiresAt(now time.Time) time.Time {
	return now.Add(t.ExpiresIn)
}

// OrderDetail is a marketplace order as returned by the order detail API
type OrderDetail struct {
	OrderSn       string
	Status        string
	BuyerUserID   int64
	BuyerUsername string
	TotalAmount   decimal.Decimal
	Currency      string
	Items         []OrderItem
	CreatedAt     time.Time
}

// OrderItem is a line item within a marketplace order
type OrderItem struct {
	ItemID    int64
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Item is a marketplace listing summary from the item list API
type Item struct {
	ItemID    int64
	SKU       string
	Name      string
	Status    string
	UpdatedAt time.Time
}

// ItemPage is one page of the shop's listings
type ItemPage struct {
	Items      []Item
	TotalCount int
	HasMore    bool
	NextOffset int
}

// BoostResult reports the per-item outcome of a boost call. The marketplace
// may accept some item IDs and reject others in the same request; callers
// must only treat the accepted IDs as boosted.
type BoostResult struct {
	SuccessIDs []int64
	Failures   []BoostFailure
}

// BoostFailure describes one rejected item in a boost request
type BoostFailure struct {
	ItemID      int64
	ErrorCode   string
	Description string
}

// Accepted returns true if the given item ID was accepted by the upstream
func (r *BoostResult) Accepted(itemID int64) bool {
	for _, id := range r.SuccessIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// Client is the port interface for shop-scoped marketplace API calls.
// The concrete adapter lives in the infrastructure layer; application
// services depend only on this interface.
type Client interface {
	// GetOrderDetail fetches full order records including item list and buyer info
	GetOrderDetail(ctx context.Context, creds Credentials, orderSnList []string) ([]OrderDetail, error)

	// ListItems returns one page of the shop's listings
	ListItems(ctx context.Context, creds Credentials, offset, pageSize int, status string) (*ItemPage, error)

	// ShipOrder marks the order shipped with the order serial number as the
	// tracking number (non-integrated logistics). An already-shipped conflict
	// from the upstream is treated as success.
	ShipOrder(ctx context.Context, creds Credentials, orderSn string) error

	// SendChatMessage sends a text chat message to a buyer
	SendChatMessage(ctx context.Context, creds Credentials, buyerID int64, text string) error

	// ReplyToRating posts a public reply to a product rating. A duplicate-reply
	// error from the upstream is treated as success.
	ReplyToRating(ctx context.Context, creds Credentials, commentID int64, text string) error

	// BoostItems requests a visibility boost for the given item IDs and
	// surfaces partial success in the result rather than an error.
	BoostItems(ctx context.Context, creds Credentials, itemIDs []int64) (*BoostResult, error)
}

// Authenticator is the port interface for partner-scoped auth calls, which
// sign with the public base string (no access token or shop ID).
type Authenticator interface {
	// ExchangeCode exchanges an authorization code for a token bundle
	ExchangeCode(ctx context.Context, partnerID int64, partnerKey, code string, shopID int64) (*TokenBundle, error)

	// RefreshToken exchanges a refresh token for a fresh token bundle
	RefreshToken(ctx context.Context, partnerID int64, partnerKey, refreshToken string, shopID int64) (*TokenBundle, error)

	// AuthorizationURL builds the signed shop-authorization redirect URL
	AuthorizationURL(partnerID int64, partnerKey, redirectURL string) string
}

// WebhookVerifier decides whether an inbound webhook is authentic
type WebhookVerifier interface {
	// Verify returns true when the signature matches
	// HMAC-SHA256(partnerKey, url + "|" + body) in hex encoding.
	Verify(url string, body []byte, signature, partnerKey string) bool
}
