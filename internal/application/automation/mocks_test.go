package automation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shopflow/backend/internal/domain/catalog"
	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shop"
)

// Mock implementations shared across the service tests

type mockShopRepository struct {
	mock.Mock
}

func (m *mockShopRepository) FindByMarketplaceID(ctx context.Context, marketplaceShopID int64) (*shop.Shop, error) {
	args := m.Called(ctx, marketplaceShopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Shop), args.Error(1)
}

func (m *mockShopRepository) FindActive(ctx context.Context) ([]shop.Shop, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shop.Shop), args.Error(1)
}

func (m *mockShopRepository) Save(ctx context.Context, sh *shop.Shop) error {
	args := m.Called(ctx, sh)
	return args.Error(0)
}

func (m *mockShopRepository) UpdateTokens(ctx context.Context, id uuid.UUID, tokens marketplace.TokenBundle) error {
	args := m.Called(ctx, id, tokens)
	return args.Error(0)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) FindByItem(ctx context.Context, shopID uuid.UUID, marketplaceItemID int64, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, shopID, marketplaceItemID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductRepository) FindBoostable(ctx context.Context, shopID uuid.UUID, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, shopID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *mockProductRepository) MarkBoosted(ctx context.Context, ids []uuid.UUID, when time.Time) error {
	args := m.Called(ctx, ids, when)
	return args.Error(0)
}

func (m *mockProductRepository) UpsertItems(ctx context.Context, shopID uuid.UUID, items []catalog.ItemSync) (int, error) {
	args := m.Called(ctx, shopID, items)
	return args.Int(0), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) FindByOrderSn(ctx context.Context, orderSn string) (*fulfillment.Order, error) {
	args := m.Called(ctx, orderSn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *mockOrderRepository) Create(ctx context.Context, o *fulfillment.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepository) Update(ctx context.Context, o *fulfillment.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Append(ctx context.Context, entry *fulfillment.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// entriesFor returns the recorded audit entries with the given action
func (m *mockAuditLogRepository) entriesFor(action fulfillment.LogAction) []*fulfillment.AuditLog {
	var out []*fulfillment.AuditLog
	for _, call := range m.Calls {
		if call.Method != "Append" {
			continue
		}
		entry := call.Arguments.Get(1).(*fulfillment.AuditLog)
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

type mockMarketplaceClient struct {
	mock.Mock
}

func (m *mockMarketplaceClient) GetOrderDetail(ctx context.Context, creds marketplace.Credentials, orderSnList []string) ([]marketplace.OrderDetail, error) {
	args := m.Called(ctx, creds, orderSnList)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.OrderDetail), args.Error(1)
}

func (m *mockMarketplaceClient) ListItems(ctx context.Context, creds marketplace.Credentials, offset, pageSize int, status string) (*marketplace.ItemPage, error) {
	args := m.Called(ctx, creds, offset, pageSize, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.ItemPage), args.Error(1)
}

func (m *mockMarketplaceClient) ShipOrder(ctx context.Context, creds marketplace.Credentials, orderSn string) error {
	args := m.Called(ctx, creds, orderSn)
	return args.Error(0)
}

func (m *mockMarketplaceClient) SendChatMessage(ctx context.Context, creds marketplace.Credentials, buyerID int64, text string) error {
	args := m.Called(ctx, creds, buyerID, text)
	return args.Error(0)
}

func (m *mockMarketplaceClient) ReplyToRating(ctx context.Context, creds marketplace.Credentials, commentID int64, text string) error {
	args := m.Called(ctx, creds, commentID, text)
	return args.Error(0)
}

func (m *mockMarketplaceClient) BoostItems(ctx context.Context, creds marketplace.Credentials, itemIDs []int64) (*marketplace.BoostResult, error) {
	args := m.Called(ctx, creds, itemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.BoostResult), args.Error(1)
}

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) ExchangeCode(ctx context.Context, partnerID int64, partnerKey, code string, shopID int64) (*marketplace.TokenBundle, error) {
	args := m.Called(ctx, partnerID, partnerKey, code, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.TokenBundle), args.Error(1)
}

func (m *mockAuthenticator) RefreshToken(ctx context.Context, partnerID int64, partnerKey, refreshToken string, shopID int64) (*marketplace.TokenBundle, error) {
	args := m.Called(ctx, partnerID, partnerKey, refreshToken, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.TokenBundle), args.Error(1)
}

func (m *mockAuthenticator) AuthorizationURL(partnerID int64, partnerKey, redirectURL string) string {
	args := m.Called(partnerID, partnerKey, redirectURL)
	return args.String(0)
}

type mockWebhookVerifier struct {
	mock.Mock
}

func (m *mockWebhookVerifier) Verify(url string, body []byte, signature, partnerKey string) bool {
	args := m.Called(url, body, signature, partnerKey)
	return args.Bool(0)
}

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// testShop builds an authorized shop with all automation switches on
func testShop() *shop.Shop {
	sh, _ := shop.NewShop(67890, 2011234, "test_partner_key", "Test Shop")
	sh.ApplyTokens(marketplace.TokenBundle{
		AccessToken:  "access_token",
		RefreshToken: "refresh_token",
		ExpiresIn:    4 * time.Hour,
	}, time.Now())
	return sh
}
