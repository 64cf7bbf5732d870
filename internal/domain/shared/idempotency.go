package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed event keys to prevent duplicate processing.
// Used to deduplicate redelivered webhooks and rating replies.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL
	// Returns true if the key was newly marked, false if it was already processed
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// NopIdempotencyStore never records anything; every key is treated as new.
// Used when deduplication is disabled.
type NopIdempotencyStore struct{}

func (NopIdempotencyStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (NopIdempotencyStore) IsProcessed(context.Context, string) (bool, error) {
	return false, nil
}

func (NopIdempotencyStore) Close() error { return nil }

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed keys
	// After this duration, the same key can be processed again
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
