package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/catalog"
	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shared"
	"github.com/shopflow/backend/internal/domain/shop"
)

// FulfillmentPipeline drives one order from the order-ready webhook to
// SHIPPED: fetch full detail, deliver each mapped item's download link over
// chat, then ship. The unique constraint on order_sn makes redelivered
// webhooks a no-op after the first successful run.
type FulfillmentPipeline struct {
	orders    fulfillment.OrderRepository
	products  catalog.Repository
	audits    fulfillment.AuditLogRepository
	client    marketplace.Client
	refresher *TokenRefresher
	logger    *zap.Logger
}

// NewFulfillmentPipeline creates a new FulfillmentPipeline
func NewFulfillmentPipeline(
	orders fulfillment.OrderRepository,
	products catalog.Repository,
	audits fulfillment.AuditLogRepository,
	client marketplace.Client,
	refresher *TokenRefresher,
	logger *zap.Logger,
) *FulfillmentPipeline {
	return &FulfillmentPipeline{
		orders:    orders,
		products:  products,
		audits:    audits,
		client:    client,
		refresher: refresher,
		logger:    logger,
	}
}

// ProcessOrder runs the fulfillment state machine for one order serial
// number. Redelivery of an already-processed order is a no-op; a FAILED
// record is re-driven from the start. Hard failures move the order to FAILED
// with an audit entry and are not retried here.
func (p *FulfillmentPipeline) ProcessOrder(ctx context.Context, sh *shop.Shop, orderSn string) error {
	logger := p.logger.With(
		zap.Int64("marketplace_shop_id", sh.MarketplaceShopID),
		zap.String("order_sn", orderSn),
	)

	existing, err := p.orders.FindByOrderSn(ctx, orderSn)
	switch {
	case err == nil && existing.Processed():
		logger.Debug("Order already processed, skipping")
		return nil
	case err == nil:
		// FAILED record: a redelivered webhook re-drives the machine
		logger.Info("Re-driving failed order")
		return p.run(ctx, sh, existing, logger)
	case errors.Is(err, shared.ErrNotFound):
		// First delivery, fall through
	default:
		return fmt.Errorf("order lookup: %w", err)
	}

	detail, err := p.fetchDetail(ctx, sh, orderSn)
	if err != nil {
		// Record the order as FAILED so operators see the lookup failure
		order := fulfillment.NewOrder(sh.ID, orderSn, 0, "")
		order.Transition(fulfillment.OrderStatusFailed, time.Now())
		if createErr := p.orders.Create(ctx, order); createErr != nil && !errors.Is(createErr, shared.ErrAlreadyExists) {
			logger.Error("Failed to record failed order", zap.Error(createErr))
		}
		p.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionError).
			WithOrder(orderSn).
			WithError(err).
			WithStatus(502))
		logger.Error("Order detail fetch failed", zap.Error(err))
		return err
	}

	order := fulfillment.NewOrder(sh.ID, orderSn, detail.BuyerUserID, detail.BuyerUsername)
	if err := p.orders.Create(ctx, order); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost the race against a concurrent delivery; the winner runs
			// the side effects.
			logger.Debug("Concurrent delivery won the order record, skipping")
			return nil
		}
		return fmt.Errorf("order create: %w", err)
	}

	return p.runWithDetail(ctx, sh, order, detail, logger)
}

// run re-fetches detail and executes the side-effect phase for an existing
// order record.
func (p *FulfillmentPipeline) run(ctx context.Context, sh *shop.Shop, order *fulfillment.Order, logger *zap.Logger) error {
	detail, err := p.fetchDetail(ctx, sh, order.OrderSn)
	if err != nil {
		p.fail(ctx, sh, order, err, logger)
		return err
	}
	return p.runWithDetail(ctx, sh, order, detail, logger)
}

// runWithDetail delivers chat messages for every fulfillable item, then
// ships the order.
func (p *FulfillmentPipeline) runWithDetail(ctx context.Context, sh *shop.Shop, order *fulfillment.Order, detail *marketplace.OrderDetail, logger *zap.Logger) error {
	sent := 0
	skipped := 0

	for _, item := range detail.Items {
		product, err := p.products.FindByItem(ctx, sh.ID, item.ItemID, item.SKU)
		if err != nil || !product.Fulfillable() {
			skipped++
			reason := "no fulfillable product mapping"
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				reason = err.Error()
			}
			p.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionError).
				WithOrder(order.OrderSn).
				WithPayloads(map[string]any{"item_id": item.ItemID, "sku": item.SKU}, nil).
				WithError(errors.New(reason)))
			logger.Warn("Skipping order item",
				zap.Int64("item_id", item.ItemID),
				zap.String("sku", item.SKU),
				zap.String("reason", reason),
			)
			continue
		}

		message := product.ChatMessage()
		err = p.refresher.WithRetry(ctx, sh, func(creds marketplace.Credentials) error {
			return p.client.SendChatMessage(ctx, creds, detail.BuyerUserID, message)
		})
		if err != nil {
			// One bad send does not abort the order; remaining items and
			// shipping still run.
			skipped++
			p.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionError).
				WithOrder(order.OrderSn).
				WithPayloads(map[string]any{"item_id": item.ItemID, "sku": item.SKU}, nil).
				WithError(err).
				WithStatus(502))
			logger.Error("Chat send failed for item",
				zap.Int64("item_id", item.ItemID),
				zap.Error(err),
			)
			continue
		}

		sent++
		p.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionChatSent).
			WithOrder(order.OrderSn).
			WithPayloads(map[string]any{"item_id": item.ItemID, "sku": item.SKU}, nil).
			WithStatus(200))
	}

	if sent > 0 && order.Transition(fulfillment.OrderStatusChatSent, time.Now()) {
		if err := p.orders.Update(ctx, order); err != nil {
			logger.Warn("Failed to persist CHAT_SENT status", zap.Error(err))
		}
	}

	err := p.refresher.WithRetry(ctx, sh, func(creds marketplace.Credentials) error {
		return p.client.ShipOrder(ctx, creds, order.OrderSn)
	})
	if err != nil {
		p.fail(ctx, sh, order, err, logger)
		return err
	}

	order.Transition(fulfillment.OrderStatusShipped, time.Now())
	if err := p.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("order update: %w", err)
	}

	p.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionOrderShipped).
		WithOrder(order.OrderSn).
		WithPayloads(map[string]any{"chat_sent": sent, "items_skipped": skipped}, nil).
		WithStatus(200))

	logger.Info("Order fulfilled",
		zap.Int("chat_sent", sent),
		zap.Int("items_skipped", skipped),
	)
	return nil
}

// fetchDetail fetches the order detail, refreshing the token once if needed
func (p *FulfillmentPipeline) fetchDetail(ctx context.Context, sh *shop.Shop, orderSn string) (*marketplace.OrderDetail, error) {
	var details []marketplace.OrderDetail
	err := p.refresher.WithRetry(ctx, sh, func(creds marketplace.Credentials) error {
		var callErr error
		details, callErr = p.client.GetOrderDetail(ctx, creds, []string{orderSn})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	for i := range details {
		if details[i].OrderSn == orderSn {
			return &details[i], nil
		}
	}
	return nil, fmt.Errorf("%w: order %s not in detail response", marketplace.ErrInvalidResponse, orderSn)
}

// fail moves the order to FAILED and records the cause
func (p *FulfillmentPipeline) fail(ctx context.Context, sh *shop.Shop, order *fulfillment.Order, cause error, logger *zap.Logger) {
	order.Transition(fulfillment.OrderStatusFailed, time.Now())
	if err := p.orders.Update(ctx, order); err != nil {
		logger.Error("Failed to persist FAILED status", zap.Error(err))
	}
	p.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionError).
		WithOrder(order.OrderSn).
		WithError(cause).
		WithStatus(502))
	logger.Error("Order fulfillment failed", zap.Error(cause))
}

func (p *FulfillmentPipeline) appendAudit(ctx context.Context, entry *fulfillment.AuditLog) {
	if err := p.audits.Append(ctx, entry); err != nil {
		p.logger.Warn("Failed to append audit log",
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
	}
}
