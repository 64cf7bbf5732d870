package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shared"
	"github.com/shopflow/backend/internal/domain/shop"
)

// ShopOnboarding drives the OAuth-style shop authorization flow: it builds
// the partner authorization URL and handles the redirect callback, exchanging
// the one-time code for tokens and creating or re-activating the shop record.
type ShopOnboarding struct {
	shops       shop.Repository
	auth        marketplace.Authenticator
	audits      fulfillment.AuditLogRepository
	partnerID   int64
	partnerKey  string
	redirectURL string
	logger      *zap.Logger
}

// NewShopOnboarding creates a new ShopOnboarding. The partner credentials are
// the application-level ones from configuration; they seed every shop record
// created through the callback.
func NewShopOnboarding(
	shops shop.Repository,
	auth marketplace.Authenticator,
	audits fulfillment.AuditLogRepository,
	partnerID int64,
	partnerKey string,
	redirectURL string,
	logger *zap.Logger,
) *ShopOnboarding {
	return &ShopOnboarding{
		shops:       shops,
		auth:        auth,
		audits:      audits,
		partnerID:   partnerID,
		partnerKey:  partnerKey,
		redirectURL: redirectURL,
		logger:      logger,
	}
}

// LoginURL returns the signed marketplace authorization page URL the seller
// is sent to at the start of the flow.
func (o *ShopOnboarding) LoginURL() string {
	return o.auth.AuthorizationURL(o.partnerID, o.partnerKey, o.redirectURL)
}

// HandleCallback completes the authorization redirect for a shop. The
// one-time code is exchanged for a token bundle; an existing shop gets the
// new tokens applied and is re-activated, an unseen shop is created with
// all automation switches on.
func (o *ShopOnboarding) HandleCallback(ctx context.Context, code string, marketplaceShopID int64) (*shop.Shop, error) {
	if code == "" || marketplaceShopID == 0 {
		return nil, fmt.Errorf("onboarding: code and shop_id are required")
	}

	bundle, err := o.auth.ExchangeCode(ctx, o.partnerID, o.partnerKey, code, marketplaceShopID)
	if err != nil {
		o.logger.Error("Authorization code exchange failed",
			zap.Int64("marketplace_shop_id", marketplaceShopID),
			zap.Error(err),
		)
		o.appendAudit(ctx, fulfillment.NewAuditLog(nil, fulfillment.LogActionError).
			WithError(err).
			WithStatus(401))
		return nil, err
	}

	now := time.Now()

	sh, err := o.shops.FindByMarketplaceID(ctx, marketplaceShopID)
	switch {
	case err == nil:
		sh.ApplyTokens(*bundle, now)
		if err := o.shops.Save(ctx, sh); err != nil {
			return nil, fmt.Errorf("onboarding: save shop: %w", err)
		}
		o.logger.Info("Shop re-authorized",
			zap.Int64("marketplace_shop_id", marketplaceShopID),
		)

	case errors.Is(err, shared.ErrNotFound):
		sh, err = shop.NewShop(marketplaceShopID, o.partnerID, o.partnerKey, fmt.Sprintf("Shop %d", marketplaceShopID))
		if err != nil {
			return nil, err
		}
		sh.ApplyTokens(*bundle, now)
		if err := o.shops.Save(ctx, sh); err != nil {
			return nil, fmt.Errorf("onboarding: create shop: %w", err)
		}
		o.logger.Info("Shop authorized",
			zap.Int64("marketplace_shop_id", marketplaceShopID),
		)

	default:
		return nil, fmt.Errorf("onboarding: find shop: %w", err)
	}

	o.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionTokenRefreshed).
		WithStatus(200))

	return sh, nil
}

func (o *ShopOnboarding) appendAudit(ctx context.Context, entry *fulfillment.AuditLog) {
	if err := o.audits.Append(ctx, entry); err != nil {
		o.logger.Warn("Failed to append audit log",
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
	}
}
