package automation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/catalog"
	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shop"
)

// DefaultBoostSlots is the number of concurrent boost slots the marketplace
// grants per shop.
const DefaultBoostSlots = 5

// RotationResult summarizes one boost run for a shop
type RotationResult struct {
	Selected      int     `json:"selected"`
	Accepted      int     `json:"accepted"`
	Failed        int     `json:"failed"`
	FailedItemIDs []int64 `json:"failed_item_ids,omitempty"`
}

// BoostRotator rotates a shop's boost slots across its catalog. Products are
// picked oldest-boosted first with never-boosted products ahead of everything,
// so every eligible product cycles through the slots over time. Only items
// the upstream actually accepted get their boost timestamp advanced; rejected
// items keep their place at the front of the rotation.
type BoostRotator struct {
	shops     shop.Repository
	products  catalog.Repository
	audits    fulfillment.AuditLogRepository
	client    marketplace.Client
	refresher *TokenRefresher
	slots     int
	logger    *zap.Logger
}

// NewBoostRotator creates a new BoostRotator
func NewBoostRotator(
	shops shop.Repository,
	products catalog.Repository,
	audits fulfillment.AuditLogRepository,
	client marketplace.Client,
	refresher *TokenRefresher,
	slots int,
	logger *zap.Logger,
) *BoostRotator {
	if slots <= 0 {
		slots = DefaultBoostSlots
	}
	return &BoostRotator{
		shops:     shops,
		products:  products,
		audits:    audits,
		client:    client,
		refresher: refresher,
		slots:     slots,
		logger:    logger,
	}
}

// RotateAll runs one rotation pass over every active shop with boosting
// enabled. A failure for one shop is logged and does not stop the others.
func (b *BoostRotator) RotateAll(ctx context.Context) error {
	shops, err := b.shops.FindActive(ctx)
	if err != nil {
		return err
	}

	for i := range shops {
		sh := &shops[i]
		if !sh.Settings.AutoBoost {
			continue
		}
		if _, err := b.RotateShop(ctx, sh); err != nil {
			b.logger.Error("Boost rotation failed for shop",
				zap.Int64("marketplace_shop_id", sh.MarketplaceShopID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// RotateShopByID loads the shop and runs one rotation for it
func (b *BoostRotator) RotateShopByID(ctx context.Context, marketplaceShopID int64) (*RotationResult, error) {
	sh, err := b.shops.FindByMarketplaceID(ctx, marketplaceShopID)
	if err != nil {
		return nil, err
	}
	return b.RotateShop(ctx, sh)
}

// RotateShop runs one boost rotation for a single shop. An empty selection
// skips the shop without error.
func (b *BoostRotator) RotateShop(ctx context.Context, sh *shop.Shop) (*RotationResult, error) {
	logger := b.logger.With(zap.Int64("marketplace_shop_id", sh.MarketplaceShopID))

	candidates, err := b.products.FindBoostable(ctx, sh.ID, b.slots)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		logger.Debug("No boostable products, skipping shop")
		return &RotationResult{}, nil
	}

	itemIDs := make([]int64, 0, len(candidates))
	for i := range candidates {
		itemIDs = append(itemIDs, candidates[i].MarketplaceItemID)
	}

	var boostResult *marketplace.BoostResult
	err = b.refresher.WithRetry(ctx, sh, func(creds marketplace.Credentials) error {
		var callErr error
		boostResult, callErr = b.client.BoostItems(ctx, creds, itemIDs)
		return callErr
	})
	if err != nil {
		b.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionError).
			WithPayloads(map[string]any{"item_ids": itemIDs}, nil).
			WithError(err).
			WithStatus(502))
		return nil, err
	}

	now := time.Now()
	acceptedIDs := make([]uuid.UUID, 0, len(candidates))
	for i := range candidates {
		if boostResult.Accepted(candidates[i].MarketplaceItemID) {
			acceptedIDs = append(acceptedIDs, candidates[i].ID)
		}
	}

	if len(acceptedIDs) > 0 {
		if err := b.products.MarkBoosted(ctx, acceptedIDs, now); err != nil {
			logger.Error("Failed to record boost timestamps", zap.Error(err))
			return nil, err
		}
	}

	result := &RotationResult{
		Selected: len(candidates),
		Accepted: len(acceptedIDs),
		Failed:   len(boostResult.Failures),
	}
	for _, f := range boostResult.Failures {
		result.FailedItemIDs = append(result.FailedItemIDs, f.ItemID)
	}

	b.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionBoostExecuted).
		WithPayloads(map[string]any{"item_ids": itemIDs}, map[string]any{
			"accepted": result.Accepted,
			"failed":   result.FailedItemIDs,
		}).
		WithStatus(200))

	logger.Info("Boost rotation executed",
		zap.Int("selected", result.Selected),
		zap.Int("accepted", result.Accepted),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (b *BoostRotator) appendAudit(ctx context.Context, entry *fulfillment.AuditLog) {
	if err := b.audits.Append(ctx, entry); err != nil {
		b.logger.Warn("Failed to append audit log",
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
	}
}
