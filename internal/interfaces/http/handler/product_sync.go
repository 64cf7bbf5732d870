package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/shared"
	"github.com/shopflow/backend/internal/domain/shop"
)

// ProductSyncer pulls marketplace listings into the local catalog
type ProductSyncer interface {
	SyncShop(ctx context.Context, sh *shop.Shop) (int, error)
}

// ProductSyncHandler triggers a listing sync for one shop
type ProductSyncHandler struct {
	BaseHandler
	shops  shop.Repository
	syncer ProductSyncer
	logger *zap.Logger
}

// NewProductSyncHandler creates a new ProductSyncHandler
func NewProductSyncHandler(shops shop.Repository, syncer ProductSyncer, logger *zap.Logger) *ProductSyncHandler {
	return &ProductSyncHandler{
		shops:  shops,
		syncer: syncer,
		logger: logger,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ProductSyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/products/sync", h.Sync)
}

// SyncRequest identifies the shop whose listings should be pulled
type SyncRequest struct {
	ShopID int64 `json:"shop_id" binding:"required"`
}

// SyncResponse reports how many listings were merged
type SyncResponse struct {
	ShopID int64 `json:"shop_id"`
	Synced int   `json:"synced"`
}

// Sync pulls the shop's marketplace listings and upserts them
func (h *ProductSyncHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "shop_id is required")
		return
	}

	sh, err := h.shops.FindByMarketplaceID(c.Request.Context(), req.ShopID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "shop is not registered")
			return
		}
		h.InternalError(c, "shop lookup failed")
		return
	}

	synced, err := h.syncer.SyncShop(c.Request.Context(), sh)
	if err != nil {
		h.logger.Error("Product sync failed",
			zap.Int64("marketplace_shop_id", req.ShopID),
			zap.Error(err),
		)
		h.BadGateway(c, "marketplace listing pull failed")
		return
	}

	h.Success(c, SyncResponse{ShopID: req.ShopID, Synced: synced})
}
