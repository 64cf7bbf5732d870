package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultChatTemplate is the fallback message used when a product has no
// template of its own. {link} is replaced with the product's download link.
const DefaultChatTemplate = "Terima kasih sudah order! 🎉\n\nBerikut link download produk kamu:\n{link}\n\nJangan lupa beri ⭐⭐⭐⭐⭐ ya kak!"

// LinkPlaceholder is the substitution token inside chat templates
const LinkPlaceholder = "{link}"

// Product maps one marketplace listing to a digital download. (shop, SKU)
// pairs are unique; a product without a download link is "not yet mapped"
// and is skipped during fulfillment.
type Product struct {
	ID                uuid.UUID
	ShopID            uuid.UUID
	MarketplaceItemID int64
	SKU               string
	Name              string
	DownloadLink      string
	ChatTemplate      string
	IsActive          bool
	BoostEligible     bool
	LastBoostedAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Fulfillable reports whether this product can be delivered automatically
func (p *Product) Fulfillable() bool {
	return p.IsActive && p.DownloadLink != ""
}

// ChatMessage renders the buyer-facing delivery message. Products without a
// template use the default one; a template without the placeholder gets the
// raw link appended so the buyer always receives it.
func (p *Product) ChatMessage() string {
	template := p.ChatTemplate
	if template == "" {
		template = DefaultChatTemplate
	}
	if !strings.Contains(template, LinkPlaceholder) {
		return template + "\n" + p.DownloadLink
	}
	return strings.ReplaceAll(template, LinkPlaceholder, p.DownloadLink)
}

// MarkBoosted records the boost timestamp after the upstream accepted the item
func (p *Product) MarkBoosted(when time.Time) {
	p.LastBoostedAt = &when
	p.UpdatedAt = when
}
