package automation

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shop"
)

// TokenRefresher owns the access-token refresh contract: when a shop call
// fails with an expired token, refresh exactly once, persist the new bundle,
// and retry the original call once. Concurrent refreshes for the same shop
// race last-writer-wins; tokens are fungible.
type TokenRefresher struct {
	shops  shop.Repository
	auth   marketplace.Authenticator
	audits fulfillment.AuditLogRepository
	logger *zap.Logger
}

// NewTokenRefresher creates a new TokenRefresher
func NewTokenRefresher(
	shops shop.Repository,
	auth marketplace.Authenticator,
	audits fulfillment.AuditLogRepository,
	logger *zap.Logger,
) *TokenRefresher {
	return &TokenRefresher{
		shops:  shops,
		auth:   auth,
		audits: audits,
		logger: logger,
	}
}

// Refresh exchanges the shop's refresh token for a fresh bundle and persists
// it. The shop aggregate is updated in place so the caller can retry with the
// new credentials immediately.
func (r *TokenRefresher) Refresh(ctx context.Context, sh *shop.Shop) error {
	bundle, err := r.auth.RefreshToken(ctx, sh.PartnerID, sh.PartnerKey, sh.RefreshToken, sh.MarketplaceShopID)
	if err != nil {
		r.logger.Error("Token refresh failed",
			zap.Int64("marketplace_shop_id", sh.MarketplaceShopID),
			zap.Error(err),
		)
		r.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionError).
			WithError(err).
			WithStatus(401))
		return err
	}

	sh.ApplyTokens(*bundle, time.Now())

	if err := r.shops.UpdateTokens(ctx, sh.ID, *bundle); err != nil {
		r.logger.Error("Failed to persist refreshed tokens",
			zap.Int64("marketplace_shop_id", sh.MarketplaceShopID),
			zap.Error(err),
		)
		return err
	}

	r.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionTokenRefreshed).
		WithStatus(200))

	r.logger.Info("Access token refreshed",
		zap.Int64("marketplace_shop_id", sh.MarketplaceShopID),
	)
	return nil
}

// WithRetry runs call with the shop's current credentials. If the upstream
// rejects the access token as expired, it refreshes once and retries once;
// a second failure is returned to the caller.
func (r *TokenRefresher) WithRetry(ctx context.Context, sh *shop.Shop, call func(creds marketplace.Credentials) error) error {
	err := call(sh.Credentials())
	if err == nil || !errors.Is(err, marketplace.ErrTokenExpired) {
		return err
	}

	r.logger.Info("Access token expired, refreshing",
		zap.Int64("marketplace_shop_id", sh.MarketplaceShopID),
	)
	if refreshErr := r.Refresh(ctx, sh); refreshErr != nil {
		return refreshErr
	}

	return call(sh.Credentials())
}

// appendAudit writes an audit entry; failures are logged, not propagated,
// because audit writes never take down the operation they describe.
func (r *TokenRefresher) appendAudit(ctx context.Context, entry *fulfillment.AuditLog) {
	if err := r.audits.Append(ctx, entry); err != nil {
		r.logger.Warn("Failed to append audit log",
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
	}
}
