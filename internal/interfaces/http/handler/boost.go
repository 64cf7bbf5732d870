package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/application/automation"
	"github.com/shopflow/backend/internal/domain/shared"
)

// BoostRunner executes boost rotations outside the scheduler cadence
type BoostRunner interface {
	RotateAll(ctx context.Context) error
	RotateShopByID(ctx context.Context, marketplaceShopID int64) (*automation.RotationResult, error)
}

// BoostHandler lets operators trigger a boost rotation manually
type BoostHandler struct {
	BaseHandler
	rotator BoostRunner
	logger  *zap.Logger
}

// NewBoostHandler creates a new BoostHandler
func NewBoostHandler(rotator BoostRunner, logger *zap.Logger) *BoostHandler {
	return &BoostHandler{
		rotator: rotator,
		logger:  logger,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *BoostHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/boost/rotate", h.Rotate)
}

// RotateRequest optionally narrows the rotation to one shop
type RotateRequest struct {
	ShopID int64 `json:"shop_id"`
}

// Rotate runs one boost rotation, for a single shop when shop_id is given
// or for every active shop otherwise.
func (h *BoostHandler) Rotate(c *gin.Context) {
	var req RotateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "invalid request body")
			return
		}
	}

	if req.ShopID != 0 {
		result, err := h.rotator.RotateShopByID(c.Request.Context(), req.ShopID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				h.NotFound(c, "shop is not registered")
				return
			}
			h.logger.Error("Boost rotation failed",
				zap.Int64("marketplace_shop_id", req.ShopID),
				zap.Error(err),
			)
			h.BadGateway(c, "boost rotation failed")
			return
		}
		h.Success(c, result)
		return
	}

	if err := h.rotator.RotateAll(c.Request.Context()); err != nil {
		h.InternalError(c, "boost rotation failed")
		return
	}
	h.Success(c, gin.H{"rotated": true})
}
