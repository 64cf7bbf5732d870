package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/fulfillment"
)

// AuditLogHandler exposes the automation audit trail for operators
type AuditLogHandler struct {
	BaseHandler
	audits fulfillment.AuditLogReader
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(audits fulfillment.AuditLogReader, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		audits: audits,
		logger: logger,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *AuditLogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit-logs", h.List)
}

// AuditLogQuery holds the supported listing filters
type AuditLogQuery struct {
	ShopID   string `form:"shop_id"`
	Action   string `form:"action"`
	OrderSn  string `form:"order_sn"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// AuditLogEntry is one audit record in the listing response
type AuditLogEntry struct {
	ID             uuid.UUID             `json:"id"`
	ShopID         *uuid.UUID            `json:"shop_id,omitempty"`
	Action         fulfillment.LogAction `json:"action"`
	OrderSn        string                `json:"order_sn,omitempty"`
	ResponseStatus int                   `json:"response_status"`
	ErrorMessage   string                `json:"error_message,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// AuditLogListResponse pages through audit entries
type AuditLogListResponse struct {
	Entries []AuditLogEntry `json:"entries"`
	Total   int64           `json:"total"`
}

// List returns audit entries matching the query, newest first by default
func (h *AuditLogHandler) List(c *gin.Context) {
	var query AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "invalid query parameters")
		return
	}

	filter := fulfillment.AuditLogFilter{
		Action:   fulfillment.LogAction(query.Action),
		OrderSn:  query.OrderSn,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if query.ShopID != "" {
		shopID, err := uuid.Parse(query.ShopID)
		if err != nil {
			h.BadRequest(c, "shop_id must be a UUID")
			return
		}
		filter.ShopID = &shopID
	}

	entries, total, err := h.audits.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Audit log listing failed", zap.Error(err))
		h.InternalError(c, "audit log listing failed")
		return
	}

	resp := AuditLogListResponse{
		Entries: make([]AuditLogEntry, len(entries)),
		Total:   total,
	}
	for i, entry := range entries {
		resp.Entries[i] = AuditLogEntry{
			ID:             entry.ID,
			ShopID:         entry.ShopID,
			Action:         entry.Action,
			OrderSn:        entry.OrderSn,
			ResponseStatus: entry.ResponseStatus,
			ErrorMessage:   entry.ErrorMessage,
			CreatedAt:      entry.CreatedAt,
		}
	}

	h.Success(c, resp)
}
