package fulfillment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LogAction identifies what kind of automation step an audit entry records
type LogAction string

const (
	LogActionWebhookReceived LogAction = "WEBHOOK_RECEIVED"
	LogActionChatSent        LogAction = "CHAT_SENT"
	LogActionOrderShipped    LogAction = "ORDER_SHIPPED"
	LogActionBoostExecuted   LogAction = "BOOST_EXECUTED"
	LogActionTokenRefreshed  LogAction = "TOKEN_REFRESHED"
	LogActionRatingReplied   LogAction = "RATING_REPLIED"
	LogActionError           LogAction = "ERROR"
)

// AuditLog is an immutable, append-only record of an automation outcome.
// Operators observe failures through these entries; the core never updates
// or deletes them.
type AuditLog struct {
	ID              uuid.UUID
	ShopID          *uuid.UUID
	Action          LogAction
	OrderSn         string
	RequestPayload  string
	ResponsePayload string
	ResponseStatus  int
	ErrorMessage    string
	CreatedAt       time.Time
}

// NewAuditLog creates an audit entry for a shop-scoped action
func NewAuditLog(shopID *uuid.UUID, action LogAction) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		ShopID:    shopID,
		Action:    action,
		CreatedAt: time.Now(),
	}
}

// WithOrder attaches the order serial number
func (l *AuditLog) WithOrder(orderSn string) *AuditLog {
	l.OrderSn = orderSn
	return l
}

// WithPayloads attaches request/response snapshots as JSON strings. Values
// that fail to marshal are dropped rather than failing the log write.
func (l *AuditLog) WithPayloads(request, response any) *AuditLog {
	if request != nil {
		if b, err := json.Marshal(request); err == nil {
			l.RequestPayload = string(b)
		}
	}
	if response != nil {
		if b, err := json.Marshal(response); err == nil {
			l.ResponsePayload = string(b)
		}
	}
	return l
}

// WithStatus attaches the HTTP-equivalent outcome status
func (l *AuditLog) WithStatus(status int) *AuditLog {
	l.ResponseStatus = status
	return l
}

// WithError attaches the failure message and marks the entry as an error
func (l *AuditLog) WithError(err error) *AuditLog {
	if err != nil {
		l.ErrorMessage = err.Error()
	}
	return l
}
