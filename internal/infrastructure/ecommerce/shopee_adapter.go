package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopflow/backend/internal/domain/marketplace"
)

// Constants for Shopee API
const (
	// maxShopeeResponseSize limits the response body size to prevent memory exhaustion
	maxShopeeResponseSize = 10 * 1024 * 1024 // 10MB max response
	// defaultItemPageSize is used when the caller does not request a page size
	defaultItemPageSize = 50
)

// ShopeeAdapter implements the marketplace Client and Authenticator interfaces
// for the Shopee Open Platform v2 API.
//
// Credentials are passed per call rather than held on the adapter, so a single
// adapter instance serves every connected shop concurrently.
type ShopeeAdapter struct {
	config     *ShopeeConfig
	httpClient *http.Client
}

// NewShopeeAdapter creates a new Shopee adapter with the given configuration
func NewShopeeAdapter(config *ShopeeConfig) (*ShopeeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ShopeeAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Auth Operations
// ---------------------------------------------------------------------------

// AuthorizationURL builds the seller-facing URL that starts the shop
// authorization flow. The seller is redirected back with a one-time code.
func (a *ShopeeAdapter) AuthorizationURL(partnerID int64, partnerKey, redirectURL string) string {
	timestamp := time.Now().Unix()
	sign := SignPublic(partnerID, partnerKey, pathAuthPartner, timestamp)

	query := url.Values{}
	query.Set("partner_id", strconv.FormatInt(partnerID, 10))
	query.Set("timestamp", strconv.FormatInt(timestamp, 10))
	query.Set("sign", sign)
	query.Set("redirect", redirectURL)

	return fmt.Sprintf("%s%s?%s", a.config.APIBaseURL, pathAuthPartner, query.Encode())
}

// ExchangeCode exchanges a one-time authorization code for a token bundle
func (a *ShopeeAdapter) ExchangeCode(ctx context.Context, partnerID int64, partnerKey, code string, shopID int64) (*marketplace.TokenBundle, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", marketplace.ErrAuthFailed)
	}

	body := map[string]any{
		"code":       code,
		"shop_id":    shopID,
		"partner_id": partnerID,
	}

	return a.requestTokens(ctx, partnerID, partnerKey, body)
}

// RefreshToken exchanges a refresh token for a fresh token bundle
func (a *ShopeeAdapter) RefreshToken(ctx context.Context, partnerID int64, partnerKey, refreshToken string, shopID int64) (*marketplace.TokenBundle, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: empty refresh token", marketplace.ErrAuthFailed)
	}

	body := map[string]any{
		"refresh_token": refreshToken,
		"shop_id":       shopID,
		"partner_id":    partnerID,
	}

	return a.requestTokens(ctx, partnerID, partnerKey, body)
}

// requestTokens performs the token endpoint call shared by code exchange and refresh
func (a *ShopeeAdapter) requestTokens(ctx context.Context, partnerID int64, partnerKey string, body map[string]any) (*marketplace.TokenBundle, error) {
	timestamp := time.Now().Unix()
	sign := SignPublic(partnerID, partnerKey, pathAccessToken, timestamp)

	query := url.Values{}
	query.Set("partner_id", strconv.FormatInt(partnerID, 10))
	query.Set("timestamp", strconv.FormatInt(timestamp, 10))
	query.Set("sign", sign)

	respBody, err := a.doRequest(ctx, http.MethodPost, pathAccessToken, query, body)
	if err != nil {
		return nil, err
	}

	var resp ShopeeTokenResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s - %s", marketplace.ErrAuthFailed, resp.Error, resp.Message)
	}

	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", marketplace.ErrInvalidResponse)
	}

	return &marketplace.TokenBundle{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    time.Duration(resp.ExpireIn) * time.Second,
	}, nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// GetOrderDetail retrieves full order records for the given order serial numbers
func (a *ShopeeAdapter) GetOrderDetail(ctx context.Context, creds marketplace.Credentials, orderSnList []string) ([]marketplace.OrderDetail, error) {
	if len(orderSnList) == 0 {
		return nil, fmt.Errorf("%w: empty order sn list", marketplace.ErrUpstreamRequest)
	}

	query := a.shopQuery(creds, pathOrderDetail)
	query.Set("order_sn_list", strings.Join(orderSnList, ","))
	query.Set("response_optional_fields", "buyer_user_id,buyer_username,item_list,total_amount")

	respBody, err := a.doRequest(ctx, http.MethodGet, pathOrderDetail, query, nil)
	if err != nil {
		return nil, err
	}

	var resp ShopeeOrderDetailResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	if !resp.IsSuccess() {
		return nil, a.upstreamError(&resp.ShopeeResponse)
	}

	if resp.Response == nil || len(resp.Response.OrderList) == 0 {
		return nil, fmt.Errorf("%w: no orders returned for %s", marketplace.ErrInvalidResponse, strings.Join(orderSnList, ","))
	}

	orders := make([]marketplace.OrderDetail, 0, len(resp.Response.OrderList))
	for i := range resp.Response.OrderList {
		orders = append(orders, convertShopeeOrder(&resp.Response.OrderList[i]))
	}
	return orders, nil
}

// ShipOrder marks an order as shipped using non-integrated logistics.
// The order sn doubles as the tracking number since digital goods have no
// physical shipment. Shipping an already-shipped order is treated as success.
func (a *ShopeeAdapter) ShipOrder(ctx context.Context, creds marketplace.Credentials, orderSn string) error {
	if orderSn == "" {
		return fmt.Errorf("%w: empty order sn", marketplace.ErrUpstreamRequest)
	}

	body := map[string]any{
		"order_sn": orderSn,
		"non_integrated": map[string]any{
			"tracking_number": orderSn,
		},
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, pathShipOrder, a.shopQuery(creds, pathShipOrder), body)
	if err != nil {
		return err
	}

	var resp ShopeeShipOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	if !resp.IsSuccess() {
		if resp.Error == shopeeErrAlreadyShipped {
			return nil
		}
		return a.upstreamError(&resp.ShopeeResponse)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Item Operations
// ---------------------------------------------------------------------------

// ListItems retrieves one page of the shop's listings
func (a *ShopeeAdapter) ListItems(ctx context.Context, creds marketplace.Credentials, offset, pageSize int, status string) (*marketplace.ItemPage, error) {
	if pageSize <= 0 {
		pageSize = defaultItemPageSize
	}
	if status == "" {
		status = "NORMAL"
	}

	query := a.shopQuery(creds, pathItemList)
	query.Set("offset", strconv.Itoa(offset))
	query.Set("page_size", strconv.Itoa(pageSize))
	query.Set("item_status", status)

	respBody, err := a.doRequest(ctx, http.MethodGet, pathItemList, query, nil)
	if err != nil {
		return nil, err
	}

	var resp ShopeeItemListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	if !resp.IsSuccess() {
		return nil, a.upstreamError(&resp.ShopeeResponse)
	}

	if resp.Response == nil {
		return nil, fmt.Errorf("%w: item list response missing body", marketplace.ErrInvalidResponse)
	}

	page := &marketplace.ItemPage{
		Items:      make([]marketplace.Item, 0, len(resp.Response.ItemList)),
		TotalCount: resp.Response.TotalCount,
		HasMore:    resp.Response.HasNext,
		NextOffset: resp.Response.NextOffset,
	}
	for _, item := range resp.Response.ItemList {
		entry := marketplace.Item{
			ItemID: item.ItemID,
			SKU:    item.ItemSku,
			Name:   item.ItemName,
			Status: item.ItemStatus,
		}
		if item.UpdateTime > 0 {
			entry.UpdatedAt = time.Unix(item.UpdateTime, 0)
		}
		page.Items = append(page.Items, entry)
	}

	return page, nil
}

// BoostItems submits up to five item IDs for a boost slot rotation.
// The result carries accepted and rejected IDs separately; callers must only
// record boosts for accepted IDs.
func (a *ShopeeAdapter) BoostItems(ctx context.Context, creds marketplace.Credentials, itemIDs []int64) (*marketplace.BoostResult, error) {
	if len(itemIDs) == 0 {
		return &marketplace.BoostResult{}, nil
	}

	body := map[string]any{
		"item_id_list": itemIDs,
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, pathBoostItem, a.shopQuery(creds, pathBoostItem), body)
	if err != nil {
		return nil, err
	}

	var resp ShopeeBoostItemResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	if !resp.IsSuccess() {
		return nil, a.upstreamError(&resp.ShopeeResponse)
	}

	result := &marketplace.BoostResult{}
	if resp.Response != nil {
		result.SuccessIDs = append(result.SuccessIDs, resp.Response.SuccessIDList...)
		for _, failure := range resp.Response.FailureList {
			result.Failures = append(result.Failures, marketplace.BoostFailure{
				ItemID:      failure.ItemID,
				ErrorCode:   failure.ErrorCode,
				Description: failure.FailedReason,
			})
		}
	}

	return result, nil
}

// ---------------------------------------------------------------------------
// Chat and Rating Operations
// ---------------------------------------------------------------------------

// SendChatMessage sends a text chat message to a buyer
func (a *ShopeeAdapter) SendChatMessage(ctx context.Context, creds marketplace.Credentials, buyerID int64, message string) error {
	if message == "" {
		return fmt.Errorf("%w: empty chat message", marketplace.ErrUpstreamRequest)
	}

	body := map[string]any{
		"to_id":        buyerID,
		"message_type": "text",
		"content": map[string]any{
			"text": message,
		},
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, pathSendMessage, a.shopQuery(creds, pathSendMessage), body)
	if err != nil {
		return err
	}

	var resp ShopeeSendMessageResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	if !resp.IsSuccess() {
		return a.upstreamError(&resp.ShopeeResponse)
	}

	return nil
}

// ReplyToRating posts a public reply to a buyer rating. Replying to a comment
// that already has a reply is treated as success.
func (a *ShopeeAdapter) ReplyToRating(ctx context.Context, creds marketplace.Credentials, commentID int64, reply string) error {
	if reply == "" {
		return fmt.Errorf("%w: empty rating reply", marketplace.ErrUpstreamRequest)
	}

	body := map[string]any{
		"comment_list": []map[string]any{
			{
				"comment_id": commentID,
				"comment":    reply,
			},
		},
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, pathReplyComment, a.shopQuery(creds, pathReplyComment), body)
	if err != nil {
		return err
	}

	var resp ShopeeReplyCommentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	if !resp.IsSuccess() {
		if resp.Error == shopeeErrDuplicateReply {
			return nil
		}
		return a.upstreamError(&resp.ShopeeResponse)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// shopQuery builds the authenticated query parameters for a shop-level API
// call. A fresh timestamp and signature are computed per request.
func (a *ShopeeAdapter) shopQuery(creds marketplace.Credentials, path string) url.Values {
	timestamp := time.Now().Unix()
	sign := SignShop(creds, path, timestamp)

	query := url.Values{}
	query.Set("partner_id", strconv.FormatInt(creds.PartnerID, 10))
	query.Set("timestamp", strconv.FormatInt(timestamp, 10))
	query.Set("access_token", creds.AccessToken)
	query.Set("shop_id", strconv.FormatInt(creds.ShopID, 10))
	query.Set("sign", sign)
	return query
}

// doRequest performs an HTTP request to the Shopee API
func (a *ShopeeAdapter) doRequest(ctx context.Context, method, path string, query url.Values, body map[string]any) ([]byte, error) {
	requestURL := fmt.Sprintf("%s%s?%s", a.config.APIBaseURL, path, query.Encode())

	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("shopee: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("shopee: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxShopeeResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopee: failed to read response: %w", err)
	}

	// Shopee returns auth failures with a 403 and a JSON error envelope;
	// decode those instead of discarding the body.
	if resp.StatusCode >= 400 && len(respBody) == 0 {
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrUpstreamRequest, resp.StatusCode)
	}

	return respBody, nil
}

// upstreamError maps a Shopee error envelope to a marketplace sentinel error
func (a *ShopeeAdapter) upstreamError(resp *ShopeeResponse) error {
	if resp.isAuthExpired() {
		return fmt.Errorf("%w: %s - %s", marketplace.ErrTokenExpired, resp.Error, resp.Message)
	}
	return fmt.Errorf("%w: %s - %s", marketplace.ErrUpstreamRequest, resp.Error, resp.Message)
}

// convertShopeeOrder converts a Shopee order payload to the domain model
func convertShopeeOrder(order *ShopeeOrder) marketplace.OrderDetail {
	detail := marketplace.OrderDetail{
		OrderSn:       order.OrderSn,
		Status:        order.OrderStatus,
		BuyerUserID:   order.BuyerUserID,
		BuyerUsername: order.BuyerUsername,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		Items:         make([]marketplace.OrderItem, 0, len(order.ItemList)),
	}

	if order.CreateTime > 0 {
		detail.CreatedAt = time.Unix(order.CreateTime, 0)
	}

	for _, item := range order.ItemList {
		detail.Items = append(detail.Items, marketplace.OrderItem{
			ItemID:    item.ItemID,
			SKU:       item.ItemSku,
			Name:      item.ItemName,
			Quantity:  item.ModelQuantityPurchased,
			UnitPrice: item.ModelDiscountedPrice,
		})
	}

	return detail
}

// Ensure ShopeeAdapter implements the marketplace interfaces
var (
	_ marketplace.Client        = (*ShopeeAdapter)(nil)
	_ marketplace.Authenticator = (*ShopeeAdapter)(nil)
)
