package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/shopflow/backend/internal/domain/marketplace"
)

// ShopeeWebhookVerifier verifies push-notification signatures from the Shopee
// Open Platform. The platform signs each push with
// HMAC-SHA256(partnerKey, url + "|" + rawBody) and sends the hex digest in the
// Authorization header.
type ShopeeWebhookVerifier struct{}

// NewShopeeWebhookVerifier creates a webhook verifier
func NewShopeeWebhookVerifier() *ShopeeWebhookVerifier {
	return &ShopeeWebhookVerifier{}
}

// Verify returns true when the signature matches the expected digest.
// Comparison is constant-time; an empty signature never matches.
func (v *ShopeeWebhookVerifier) Verify(url string, body []byte, signature, partnerKey string) bool {
	if signature == "" || partnerKey == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(partnerKey))
	mac.Write([]byte(url))
	mac.Write([]byte("|"))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignWebhook computes the signature Shopee would attach to a push with the
// given target URL and body. Used by tests and the local sandbox tooling.
func SignWebhook(url string, body []byte, partnerKey string) string {
	mac := hmac.New(sha256.New, []byte(partnerKey))
	mac.Write([]byte(url))
	mac.Write([]byte("|"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ marketplace.WebhookVerifier = (*ShopeeWebhookVerifier)(nil)
