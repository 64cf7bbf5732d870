package fulfillment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  OrderStatus
		to    OrderStatus
		valid bool
	}{
		{OrderStatusPending, OrderStatusChatSent, true},
		{OrderStatusPending, OrderStatusShipped, true},
		{OrderStatusChatSent, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusCompleted, true},

		// no moving backwards
		{OrderStatusShipped, OrderStatusChatSent, false},
		{OrderStatusChatSent, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusShipped, false},

		// FAILED is reachable from any non-terminal state
		{OrderStatusPending, OrderStatusFailed, true},
		{OrderStatusChatSent, OrderStatusFailed, true},
		{OrderStatusShipped, OrderStatusFailed, true},
		{OrderStatusCompleted, OrderStatusFailed, false},
		{OrderStatusFailed, OrderStatusFailed, false},

		// a failed order can be re-driven from the start
		{OrderStatusFailed, OrderStatusPending, true},
		{OrderStatusFailed, OrderStatusChatSent, true},
		{OrderStatusFailed, OrderStatusShipped, true},
		{OrderStatusFailed, OrderStatusCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatus_IsValid(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderStatusPending, OrderStatusChatSent, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusFailed,
	} {
		assert.True(t, s.IsValid(), "%s", s)
	}
	assert.False(t, OrderStatus("CANCELLED").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}

func TestNewOrder(t *testing.T) {
	shopID := uuid.New()
	o := NewOrder(shopID, "2408ABCDEF1234", 44001, "buyer_one")

	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.Equal(t, shopID, o.ShopID)
	assert.Equal(t, "2408ABCDEF1234", o.OrderSn)
	assert.Equal(t, int64(44001), o.BuyerID)
	assert.Equal(t, "buyer_one", o.BuyerUsername)
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Nil(t, o.ProcessedAt)
}

func TestOrder_Transition(t *testing.T) {
	t.Run("shipping stamps the processed time", func(t *testing.T) {
		o := NewOrder(uuid.New(), "SN-1", 0, "")
		now := time.Now().Add(time.Minute)

		require.True(t, o.Transition(OrderStatusShipped, now))
		assert.Equal(t, OrderStatusShipped, o.Status)
		require.NotNil(t, o.ProcessedAt)
		assert.Equal(t, now, *o.ProcessedAt)
		assert.Equal(t, now, o.UpdatedAt)
	})

	t.Run("a forbidden move leaves the order untouched", func(t *testing.T) {
		o := NewOrder(uuid.New(), "SN-2", 0, "")
		require.True(t, o.Transition(OrderStatusCompleted, time.Now()))

		before := o.UpdatedAt
		assert.False(t, o.Transition(OrderStatusPending, time.Now().Add(time.Hour)))
		assert.Equal(t, OrderStatusCompleted, o.Status)
		assert.Equal(t, before, o.UpdatedAt)
	})
}

func TestOrder_Processed(t *testing.T) {
	o := NewOrder(uuid.New(), "SN-3", 0, "")
	assert.True(t, o.Processed(), "a pending record blocks duplicate side effects")

	require.True(t, o.Transition(OrderStatusFailed, time.Now()))
	assert.False(t, o.Processed(), "a failed record is eligible for re-drive")

	require.True(t, o.Transition(OrderStatusShipped, time.Now()))
	assert.True(t, o.Processed())
}
