package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShopRef identifies a shop eligible for boost rotation
type ShopRef struct {
	ID                uuid.UUID
	MarketplaceShopID int64
}

// ShopProvider lists the shops that participate in boost rotation
type ShopProvider interface {
	ListBoostableShops(ctx context.Context) ([]ShopRef, error)
}

// BoostTrigger periodically schedules boost rotation for all eligible shops
type BoostTrigger struct {
	scheduler    *BoostScheduler
	shopProvider ShopProvider
	interval     time.Duration
	logger       *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRunAt time.Time
}

// NewBoostTrigger creates a new boost rotation trigger
func NewBoostTrigger(scheduler *BoostScheduler, shopProvider ShopProvider, interval time.Duration, logger *zap.Logger) *BoostTrigger {
	return &BoostTrigger{
		scheduler:    scheduler,
		shopProvider: shopProvider,
		interval:     interval,
		logger:       logger,
	}
}

// Start starts the trigger loop
func (t *BoostTrigger) Start(ctx context.Context) error {
	if t.interval <= 0 {
		return ErrInvalidConfig
	}

	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Boost trigger started",
		zap.Duration("interval", t.interval),
	)

	return nil
}

// Stop stops the trigger loop
func (t *BoostTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Boost trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop schedules rotation on every tick
func (t *BoostTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.TriggerRotation(ctx)
		}
	}
}

// TriggerRotation schedules a boost job for every eligible shop.
// Also called directly for manual runs.
func (t *BoostTrigger) TriggerRotation(ctx context.Context) {
	t.mu.Lock()
	t.lastRunAt = time.Now()
	t.mu.Unlock()

	shops, err := t.shopProvider.ListBoostableShops(ctx)
	if err != nil {
		t.logger.Error("Failed to list shops for boost rotation", zap.Error(err))
		return
	}

	t.logger.Info("Scheduling boost rotation",
		zap.Int("shop_count", len(shops)),
	)

	for _, sh := range shops {
		if err := t.scheduler.ScheduleShop(sh.ID, sh.MarketplaceShopID); err != nil {
			t.logger.Error("Failed to schedule boost rotation for shop",
				zap.String("shop_id", sh.ID.String()),
				zap.Int64("marketplace_shop_id", sh.MarketplaceShopID),
				zap.Error(err),
			)
		}
	}
}

// LastRunAt returns when rotation was last triggered
func (t *BoostTrigger) LastRunAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRunAt
}
