package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shop"
)

type stubOnboarder struct {
	loginURL string
	shop     *shop.Shop
	err      error
	gotCode  string
	gotShop  int64
}

func (s *stubOnboarder) LoginURL() string { return s.loginURL }

func (s *stubOnboarder) HandleCallback(ctx context.Context, code string, marketplaceShopID int64) (*shop.Shop, error) {
	s.gotCode = code
	s.gotShop = marketplaceShopID
	return s.shop, s.err
}

func newAuthEngine(o *stubOnboarder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewAuthHandler(o, zap.NewNop()).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestAuthHandler_Login(t *testing.T) {
	o := &stubOnboarder{loginURL: "https://partner.shopeemobile.com/api/v2/shop/auth_partner?sign=abc"}
	w := httptest.NewRecorder()
	newAuthEngine(o).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/marketplace/login", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, o.loginURL, w.Header().Get("Location"))
}

func TestAuthHandler_Callback(t *testing.T) {
	t.Run("returns the authorized shop", func(t *testing.T) {
		sh, err := shop.NewShop(67890, 2011234, "partner_key", "Test Shop")
		require.NoError(t, err)
		o := &stubOnboarder{shop: sh}

		w := httptest.NewRecorder()
		newAuthEngine(o).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/api/v1/auth/marketplace/callback?code=one_time_code&shop_id=67890", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "one_time_code", o.gotCode)
		assert.Equal(t, int64(67890), o.gotShop)
		assert.Contains(t, w.Body.String(), `"shop_id":67890`)
	})

	t.Run("missing code is a 400", func(t *testing.T) {
		o := &stubOnboarder{}
		w := httptest.NewRecorder()
		newAuthEngine(o).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/api/v1/auth/marketplace/callback?shop_id=67890", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-numeric shop_id is a 400", func(t *testing.T) {
		o := &stubOnboarder{}
		w := httptest.NewRecorder()
		newAuthEngine(o).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/api/v1/auth/marketplace/callback?code=x&shop_id=not-a-number", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejected code is a 401", func(t *testing.T) {
		o := &stubOnboarder{err: marketplace.ErrAuthFailed}
		w := httptest.NewRecorder()
		newAuthEngine(o).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/api/v1/auth/marketplace/callback?code=bad&shop_id=67890", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
