package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/marketplace"
)

// WebhookDispatcher routes a verified webhook to the automation services
type WebhookDispatcher interface {
	Dispatch(ctx context.Context, url string, body []byte, signature string) error
}

// WebhookHandler receives marketplace push notifications. The marketplace
// retries non-200 responses, so only rejections we want redelivered return
// an error status.
type WebhookHandler struct {
	BaseHandler
	dispatcher WebhookDispatcher
	publicURL  string
	logger     *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler. publicURL is the externally
// visible endpoint URL the marketplace signed its payload against.
func NewWebhookHandler(dispatcher WebhookDispatcher, publicURL string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		publicURL:  publicURL,
		logger:     logger,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhook/marketplace", h.Receive)
}

// Receive handles one webhook delivery
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "unreadable request body")
		return
	}

	signature := c.GetHeader("Authorization")

	err = h.dispatcher.Dispatch(c.Request.Context(), h.publicURL, body, signature)
	switch {
	case err == nil:
		h.Success(c, gin.H{"received": true})
	case errors.Is(err, marketplace.ErrMalformedWebhook):
		h.BadRequest(c, "malformed webhook payload")
	case errors.Is(err, marketplace.ErrSignatureMismatch), errors.Is(err, marketplace.ErrShopNotFound):
		h.Unauthorized(c, "webhook verification failed")
	default:
		h.logger.Error("Webhook dispatch failed",
			zap.String("request_id", getRequestID(c)),
			zap.Error(err),
		)
		h.InternalError(c, "webhook processing failed")
	}
}
