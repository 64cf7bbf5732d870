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

// WebhookDispatcher is the single entry point for inbound marketplace
// webhooks: it parses the envelope, resolves the shop, verifies the
// signature, deduplicates redeliveries, and routes the event to the matching
// automation per the shop's settings. Verification failures and malformed
// envelopes are returned before any side effect runs.
type WebhookDispatcher struct {
	shops     shop.Repository
	verifier  marketplace.WebhookVerifier
	pipeline  *FulfillmentPipeline
	ratings   *RatingResponder
	audits    fulfillment.AuditLogRepository
	dedupe    shared.IdempotencyStore
	dedupeTTL time.Duration
	logger    *zap.Logger
}

// NewWebhookDispatcher creates a new WebhookDispatcher
func NewWebhookDispatcher(
	shops shop.Repository,
	verifier marketplace.WebhookVerifier,
	pipeline *FulfillmentPipeline,
	ratings *RatingResponder,
	audits fulfillment.AuditLogRepository,
	dedupe shared.IdempotencyStore,
	dedupeTTL time.Duration,
	logger *zap.Logger,
) *WebhookDispatcher {
	if dedupeTTL <= 0 {
		dedupeTTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &WebhookDispatcher{
		shops:     shops,
		verifier:  verifier,
		pipeline:  pipeline,
		ratings:   ratings,
		audits:    audits,
		dedupe:    dedupe,
		dedupeTTL: dedupeTTL,
		logger:    logger,
	}
}

// Dispatch processes one inbound webhook. url is the externally visible
// request URL the signature was computed over; body is the raw request body.
// Error mapping for the HTTP edge: ErrMalformedWebhook → 400,
// ErrShopNotFound / ErrSignatureMismatch → 401, anything else → 500.
// Routed automation failures are recorded internally and acknowledged.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, url string, body []byte, signature string) error {
	env, err := marketplace.ParseWebhookEnvelope(body)
	if err != nil {
		return err
	}

	logger := d.logger.With(
		zap.Int64("marketplace_shop_id", env.ShopID),
		zap.Int("code", env.Code),
	)

	sh, err := d.shops.FindByMarketplaceID(ctx, env.ShopID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Unknown shop fails closed, same as a bad signature
			logger.Warn("Webhook for unregistered shop")
			return fmt.Errorf("%w: shop %d", marketplace.ErrShopNotFound, env.ShopID)
		}
		return err
	}

	if !d.verifier.Verify(url, body, signature, sh.PartnerKey) {
		logger.Warn("Webhook signature verification failed")
		return marketplace.ErrSignatureMismatch
	}

	d.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionWebhookReceived).
		WithPayloads(env, nil).
		WithStatus(200))

	data, err := env.EventData()
	if err != nil {
		return err
	}
	kind := env.Kind()

	// Rating events dedupe inside the responder on the comment ID, marked
	// only after a successful reply, so a failed reply is retried on the
	// next delivery. Claiming the envelope fingerprint here would swallow
	// that redelivery as a duplicate.
	if kind != marketplace.EventKindRating {
		newlyMarked, err := d.dedupe.MarkProcessed(ctx, env.Fingerprint(), d.dedupeTTL)
		if err != nil {
			logger.Warn("Webhook dedupe unavailable, proceeding", zap.Error(err))
		} else if !newlyMarked {
			logger.Debug("Duplicate webhook delivery, acknowledging")
			return nil
		}
	}

	switch kind {
	case marketplace.EventKindOrderStatus:
		if data.Status != marketplace.OrderStatusReadyToShip {
			logger.Debug("Order status not actionable", zap.String("status", data.Status))
			return nil
		}
		if !sh.Settings.AutoFulfillment {
			logger.Debug("Auto fulfillment disabled for shop")
			return nil
		}
		if data.OrderSn == "" {
			return fmt.Errorf("%w: order event without ordersn", marketplace.ErrMalformedWebhook)
		}
		if err := d.pipeline.ProcessOrder(ctx, sh, data.OrderSn); err != nil {
			// The pipeline recorded the failure; acknowledge so the
			// marketplace does not hammer a terminally failed order.
			logger.Error("Fulfillment failed", zap.String("order_sn", data.OrderSn), zap.Error(err))
		}
		return nil

	case marketplace.EventKindRating:
		if !sh.Settings.AutoRating {
			logger.Debug("Auto rating disabled for shop")
			return nil
		}
		if err := d.ratings.Respond(ctx, sh, data.CommentID, data.RatingStar); err != nil {
			logger.Error("Rating reply failed", zap.Int64("comment_id", data.CommentID), zap.Error(err))
		}
		return nil

	case marketplace.EventKindChat:
		// Chat auto-reply is handled by the dashboard layer; acknowledge
		logger.Debug("Chat message acknowledged")
		return nil

	default:
		logger.Debug("Unhandled webhook event code, acknowledging")
		return nil
	}
}

func (d *WebhookDispatcher) appendAudit(ctx context.Context, entry *fulfillment.AuditLog) {
	if err := d.audits.Append(ctx, entry); err != nil {
		d.logger.Warn("Failed to append audit log",
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
	}
}
