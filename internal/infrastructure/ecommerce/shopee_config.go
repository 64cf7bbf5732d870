package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/shopflow/backend/internal/domain/marketplace"
)

// ShopeeConfig holds the environment-level settings for the Shopee Open
// Platform adapter. Credentials are deliberately not part of this struct;
// they are passed per call so that a token refresh is always picked up.
type ShopeeConfig struct {
	// APIBaseURL is the base URL for the Shopee partner API
	APIBaseURL string
	// IsSandbox indicates if this is a sandbox environment
	IsSandbox bool
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// ShopeeProductionAPIURL is the production partner API endpoint
	ShopeeProductionAPIURL = "https://partner.shopeemobile.com"
	// ShopeeSandboxAPIURL is the sandbox partner API endpoint
	ShopeeSandboxAPIURL = "https://partner.test-stable.shopeemobile.com"
)

// API paths on the Shopee Open Platform v2
const (
	pathAuthPartner  = "/api/v2/shop/auth_partner"
	pathAccessToken  = "/api/v2/auth/access_token/get"
	pathOrderDetail  = "/api/v2/order/get_order_detail"
	pathItemList     = "/api/v2/product/get_item_list"
	pathShipOrder    = "/api/v2/logistics/ship_order"
	pathSendMessage  = "/api/v2/sellerchat/send_message"
	pathReplyComment = "/api/v2/product/reply_comment"
	pathBoostItem    = "/api/v2/product/boost_item"
)

// ErrShopeeConfigMissingBaseURL is returned for an empty API base URL after
// defaulting failed
var ErrShopeeConfigMissingBaseURL = errors.New("shopee: API base URL is required")

// NewShopeeConfig creates a production configuration with defaults
func NewShopeeConfig() *ShopeeConfig {
	return &ShopeeConfig{
		APIBaseURL:     ShopeeProductionAPIURL,
		IsSandbox:      false,
		TimeoutSeconds: 30,
	}
}

// NewSandboxShopeeConfig creates a sandbox configuration with defaults
func NewSandboxShopeeConfig() *ShopeeConfig {
	return &ShopeeConfig{
		APIBaseURL:     ShopeeSandboxAPIURL,
		IsSandbox:      true,
		TimeoutSeconds: 30,
	}
}

// Validate validates the configuration and applies defaults
func (c *ShopeeConfig) Validate() error {
	if c.APIBaseURL == "" {
		if c.IsSandbox {
			c.APIBaseURL = ShopeeSandboxAPIURL
		} else {
			c.APIBaseURL = ShopeeProductionAPIURL
		}
	}
	if c.APIBaseURL == "" {
		return ErrShopeeConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// SignPublic generates the signature for public (partner-level) endpoints.
// Base string: partner_id + path + timestamp, HMAC-SHA256 keyed by the
// partner key, hex encoded.
func SignPublic(partnerID int64, partnerKey, path string, timestamp int64) string {
	base := fmt.Sprintf("%d%s%d", partnerID, path, timestamp)
	h := hmac.New(sha256.New, []byte(partnerKey))
	h.Write([]byte(base))
	return hex.EncodeToString(h.Sum(nil))
}

// SignShop generates the signature for shop-scoped endpoints.
// Base string: partner_id + path + timestamp + access_token + shop_id,
// HMAC-SHA256 keyed by the partner key, hex encoded.
func SignShop(creds marketplace.Credentials, path string, timestamp int64) string {
	base := fmt.Sprintf("%d%s%d%s%d", creds.PartnerID, path, timestamp, creds.AccessToken, creds.ShopID)
	h := hmac.New(sha256.New, []byte(creds.PartnerKey))
	h.Write([]byte(base))
	return hex.EncodeToString(h.Sum(nil))
}
