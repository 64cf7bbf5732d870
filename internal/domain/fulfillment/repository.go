package fulfillment

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository is the storage port for fulfillment orders. The unique
// constraint on order_sn is the concurrency guard for duplicate webhook
// delivery: the first writer to create the record wins, losers observe
// shared.ErrAlreadyExists and re-read.
type OrderRepository interface {
	// FindByOrderSn looks up an order by its marketplace serial number.
	// Returns shared.ErrNotFound when no record exists.
	FindByOrderSn(ctx context.Context, orderSn string) (*Order, error)

	// Create inserts a new order record.
	// Returns shared.ErrAlreadyExists when the order_sn is already taken.
	Create(ctx context.Context, o *Order) error

	// Update persists status and timestamp changes for an existing record
	Update(ctx context.Context, o *Order) error
}

// AuditLogRepository is the append-only storage port for audit entries
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditLog) error
}

// AuditLogFilter narrows an audit listing. Zero values mean "no filter";
// Limit is capped by the implementation.
type AuditLogFilter struct {
	ShopID  *uuid.UUID
	Action  LogAction
	OrderSn string

	OrderBy  string
	OrderDir string
	Limit    int
	Offset   int
}

// AuditLogReader is the read-side port for audit entries, kept separate
// from AuditLogRepository because the automation services only ever append.
type AuditLogReader interface {
	// List returns matching entries plus the total count before paging
	List(ctx context.Context, filter AuditLogFilter) ([]*AuditLog, int64, error)
}
