package ecommerce

import (
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Common Shopee API Response Types
// ---------------------------------------------------------------------------

// ShopeeResponse is the base response wrapper for all Shopee API calls
type ShopeeResponse struct {
	// Error is the error code (empty for success)
	Error string `json:"error"`
	// Message is the error message
	Message string `json:"message"`
	// RequestID is the request trace ID for debugging
	RequestID string `json:"request_id,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *ShopeeResponse) IsSuccess() bool {
	return r.Error == ""
}

// Error codes the adapter gives special treatment
const (
	// shopeeErrAuthExpired signals an expired or invalid access token; the
	// caller may refresh once and retry.
	shopeeErrAuthExpired = "error_auth"
	// shopeeErrInvalidToken is an alternative auth failure code used by some
	// endpoints for expired tokens.
	shopeeErrInvalidToken = "invalid_access_token"
	// shopeeErrAlreadyShipped is returned when the order was shipped before;
	// treated as success to keep shipping idempotent.
	shopeeErrAlreadyShipped = "logistics.error_order_already_shipped"
	// shopeeErrDuplicateReply is returned when the comment already has a
	// reply; treated as success to keep rating replies idempotent.
	shopeeErrDuplicateReply = "product.error_comment_already_replied"
)

// isAuthExpired reports whether the error code means the token is stale
func (r *ShopeeResponse) isAuthExpired() bool {
	return r.Error == shopeeErrAuthExpired || r.Error == shopeeErrInvalidToken
}

// ---------------------------------------------------------------------------
// Auth Types
// ---------------------------------------------------------------------------

// ShopeeTokenResponse is the response for auth/access_token/get
type ShopeeTokenResponse struct {
	ShopeeResponse
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpireIn     int64  `json:"expire_in"`
}

// ---------------------------------------------------------------------------
// Order Types
// ---------------------------------------------------------------------------

// ShopeeOrderDetailResponse is the response for order/get_order_detail
type ShopeeOrderDetailResponse struct {
	ShopeeResponse
	Response *ShopeeOrderDetailData `json:"response,omitempty"`
}

// ShopeeOrderDetailData contains the returned order list
type ShopeeOrderDetailData struct {
	OrderList []ShopeeOrder `json:"order_list,omitempty"`
}

// ShopeeOrder represents an order from the Shopee platform
type ShopeeOrder struct {
	OrderSn       string            `json:"order_sn"`
	OrderStatus   string            `json:"order_status"`
	BuyerUserID   int64             `json:"buyer_user_id"`
	BuyerUsername string            `json:"buyer_username"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Currency      string            `json:"currency"`
	CreateTime    int64             `json:"create_time"`
	ItemList      []ShopeeOrderItem `json:"item_list,omitempty"`
}

// ShopeeOrderItem is a line item in a Shopee order
type ShopeeOrderItem struct {
	ItemID                 int64           `json:"item_id"`
	ItemSku                string          `json:"item_sku"`
	ItemName               string          `json:"item_name"`
	ModelQuantityPurchased int             `json:"model_quantity_purchased"`
	ModelDiscountedPrice   decimal.Decimal `json:"model_discounted_price"`
}

// ---------------------------------------------------------------------------
// Item / Listing Types
// ---------------------------------------------------------------------------

// ShopeeItemListResponse is the response for product/get_item_list
type ShopeeItemListResponse struct {
	ShopeeResponse
	Response *ShopeeItemListData `json:"response,omitempty"`
}

// ShopeeItemListData contains one page of listings
type ShopeeItemListData struct {
	ItemList   []ShopeeItem `json:"item_list,omitempty"`
	TotalCount int          `json:"total_count"`
	HasNext    bool         `json:"has_next_page"`
	NextOffset int          `json:"next_offset"`
}

// ShopeeItem is a listing summary from the item list API
type ShopeeItem struct {
	ItemID     int64  `json:"item_id"`
	ItemSku    string `json:"item_sku"`
	ItemName   string `json:"item_name"`
	ItemStatus string `json:"item_status"`
	UpdateTime int64  `json:"update_time"`
}

// ---------------------------------------------------------------------------
// Logistics / Chat / Rating Types
// ---------------------------------------------------------------------------

// ShopeeShipOrderResponse is the response for logistics/ship_order
type ShopeeShipOrderResponse struct {
	ShopeeResponse
}

// ShopeeSendMessageResponse is the response for sellerchat/send_message
type ShopeeSendMessageResponse struct {
	ShopeeResponse
	Response *ShopeeSentMessage `json:"response,omitempty"`
}

// ShopeeSentMessage echoes the delivered message
type ShopeeSentMessage struct {
	MessageID string `json:"message_id"`
	ToID      int64  `json:"to_id"`
}

// ShopeeReplyCommentResponse is the response for product/reply_comment
type ShopeeReplyCommentResponse struct {
	ShopeeResponse
}

// ---------------------------------------------------------------------------
// Boost Types
// ---------------------------------------------------------------------------

// ShopeeBoostItemResponse is the response for product/boost_item
type ShopeeBoostItemResponse struct {
	ShopeeResponse
	Response *ShopeeBoostItemData `json:"response,omitempty"`
}

// ShopeeBoostItemData reports which item IDs were accepted and rejected
type ShopeeBoostItemData struct {
	SuccessIDList []int64              `json:"success_id_list,omitempty"`
	FailureList   []ShopeeBoostFailure `json:"failure_list,omitempty"`
}

// ShopeeBoostFailure describes one rejected item in a boost request
type ShopeeBoostFailure struct {
	ItemID       int64  `json:"item_id"`
	ErrorCode    string `json:"error_code"`
	FailedReason string `json:"failed_reason"`
}
