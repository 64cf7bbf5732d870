package marketplace

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Webhook event codes used by the marketplace push mechanism
const (
	// EventCodeOrderStatus is pushed when an order's status changes
	EventCodeOrderStatus = 3
	// EventCodeChatMessage is pushed when the buyer sends a chat message
	EventCodeChatMessage = 4
)

// OrderStatusReadyToShip is the order status that triggers fulfillment
const OrderStatusReadyToShip = "READY_TO_SHIP"

// EventKind classifies a webhook event after inspection of code and payload
type EventKind string

const (
	EventKindOrderStatus EventKind = "ORDER_STATUS"
	EventKindRating      EventKind = "RATING"
	EventKindChat        EventKind = "CHAT"
	EventKindUnknown     EventKind = "UNKNOWN"
)

// WebhookEnvelope is the outer shape of every marketplace webhook push
type WebhookEnvelope struct {
	ShopID int64           `json:"shop_id" validate:"required"`
	Code   int             `json:"code"`
	Data   json.RawMessage `json:"data"`
}

// WebhookEventData is the union of per-event payload fields. Rating events
// carry no dedicated code; they are detected by the presence of a comment_id
// in the data object.
type WebhookEventData struct {
	OrderSn    string `json:"ordersn"`
	Status     string `json:"status"`
	CommentID  int64  `json:"comment_id"`
	RatingStar int    `json:"rating_star"`
	Content    string `json:"content"`
	FromUserID int64  `json:"from_id"`
}

var envelopeValidator = validator.New()

// ParseWebhookEnvelope decodes and validates the raw webhook body.
// Malformed input is reported as ErrMalformedWebhook so the edge can
// distinguish it from a signature failure.
func ParseWebhookEnvelope(body []byte) (*WebhookEnvelope, error) {
	var env WebhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}
	if err := envelopeValidator.Struct(&env); err != nil {
		return nil, fmt.Errorf("%w: missing shop_id", ErrMalformedWebhook)
	}
	return &env, nil
}

// EventData decodes the nested data object for this event
func (e *WebhookEnvelope) EventData() (*WebhookEventData, error) {
	if len(e.Data) == 0 {
		return &WebhookEventData{}, nil
	}
	var data WebhookEventData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: bad data object: %v", ErrMalformedWebhook, err)
	}
	return &data, nil
}

// Kind classifies the event. Rating detection takes precedence over the
// numeric code because the marketplace reuses codes for rating pushes.
// A comment_id alone marks a rating; rating_star can legitimately be 0
// and still gets a reply downstream.
func (e *WebhookEnvelope) Kind() EventKind {
	if data, err := e.EventData(); err == nil && data.CommentID != 0 {
		return EventKindRating
	}
	switch e.Code {
	case EventCodeOrderStatus:
		return EventKindOrderStatus
	case EventCodeChatMessage:
		return EventKindChat
	default:
		return EventKindUnknown
	}
}

// Fingerprint returns a stable dedupe key for redelivered webhooks
func (e *WebhookEnvelope) Fingerprint() string {
	data, err := e.EventData()
	if err != nil {
		data = &WebhookEventData{}
	}
	switch {
	case data.CommentID != 0:
		return fmt.Sprintf("webhook:%d:rating:%d", e.ShopID, data.CommentID)
	case data.OrderSn != "":
		return fmt.Sprintf("webhook:%d:%d:%s:%s", e.ShopID, e.Code, data.OrderSn, data.Status)
	default:
		return fmt.Sprintf("webhook:%d:%d:%s", e.ShopID, e.Code, string(e.Data))
	}
}
