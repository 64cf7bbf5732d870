package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shop"
)

// ShopOnboarder drives the marketplace authorization flow
type ShopOnboarder interface {
	LoginURL() string
	HandleCallback(ctx context.Context, code string, marketplaceShopID int64) (*shop.Shop, error)
}

// AuthHandler exposes the marketplace authorization endpoints
type AuthHandler struct {
	BaseHandler
	onboarding ShopOnboarder
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(onboarding ShopOnboarder, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		onboarding: onboarding,
		logger:     logger,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth/marketplace")
	auth.GET("/login", h.Login)
	auth.GET("/callback", h.Callback)
}

// ShopResponse is the authorized-shop summary returned by the callback
type ShopResponse struct {
	ShopID   int64                   `json:"shop_id"`
	Name     string                  `json:"name"`
	IsActive bool                    `json:"is_active"`
	Settings shop.AutomationSettings `json:"settings"`
}

// Login redirects the seller to the marketplace authorization page
func (h *AuthHandler) Login(c *gin.Context) {
	c.Redirect(http.StatusFound, h.onboarding.LoginURL())
}

// Callback completes the authorization redirect from the marketplace
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		h.BadRequest(c, "code query parameter is required")
		return
	}

	shopID, err := strconv.ParseInt(c.Query("shop_id"), 10, 64)
	if err != nil || shopID == 0 {
		h.BadRequest(c, "shop_id query parameter must be a numeric shop ID")
		return
	}

	sh, err := h.onboarding.HandleCallback(c.Request.Context(), code, shopID)
	if err != nil {
		if errors.Is(err, marketplace.ErrAuthFailed) {
			h.Unauthorized(c, "authorization code exchange failed")
			return
		}
		h.logger.Error("Shop authorization failed",
			zap.Int64("marketplace_shop_id", shopID),
			zap.Error(err),
		)
		h.InternalError(c, "shop authorization failed")
		return
	}

	h.Success(c, ShopResponse{
		ShopID:   sh.MarketplaceShopID,
		Name:     sh.Name,
		IsActive: sh.IsActive,
		Settings: sh.Settings,
	})
}
