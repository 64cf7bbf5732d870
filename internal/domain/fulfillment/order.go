package fulfillment

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfillment state of an order. Statuses only move
// forward, except that FAILED is reachable from any non-terminal state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusChatSent  OrderStatus = "CHAT_SENT"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// IsValid returns true if the status is one of the known states
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusChatSent, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states the pipeline never leaves on its own.
// A FAILED order stays failed until an operator or scheduled re-drive
// processes it again.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

// rank orders the forward progression of statuses
func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusChatSent:
		return 1
	case OrderStatusShipped:
		return 2
	case OrderStatusCompleted:
		return 3
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving to the target status is allowed
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if target == OrderStatusFailed {
		return !s.IsTerminal()
	}
	if s == OrderStatusFailed {
		// Re-drive of a failed order restarts the machine
		return target == OrderStatusPending || target == OrderStatusChatSent || target == OrderStatusShipped
	}
	return target.rank() > s.rank()
}

// Order tracks the fulfillment of one marketplace order. The order serial
// number is globally unique and serves as the idempotency key: the unique
// constraint on it is what makes duplicate webhook delivery a no-op.
type Order struct {
	ID            uuid.UUID
	ShopID        uuid.UUID
	OrderSn       string
	BuyerID       int64
	BuyerUsername string
	Status        OrderStatus
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder creates a pending order record for an order-ready event
func NewOrder(shopID uuid.UUID, orderSn string, buyerID int64, buyerUsername string) *Order {
	now := time.Now()
	return &Order{
		ID:            uuid.New(),
		ShopID:        shopID,
		OrderSn:       orderSn,
		BuyerID:       buyerID,
		BuyerUsername: buyerUsername,
		Status:        OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Transition moves the order to the target status, returning false when the
// state machine forbids the move.
func (o *Order) Transition(target OrderStatus, now time.Time) bool {
	if !o.Status.CanTransitionTo(target) {
		return false
	}
	o.Status = target
	o.UpdatedAt = now
	if target == OrderStatusShipped {
		o.ProcessedAt = &now
	}
	return true
}

// Processed reports whether this record already ran the pipeline to a
// non-failed state, i.e. side effects must not be repeated.
func (o *Order) Processed() bool {
	return o.Status != OrderStatusFailed
}
