package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopflow/backend/internal/domain/fulfillment"
)

// AuditLogModel is the persistence model for append-only audit entries.
type AuditLogModel struct {
	ID              uuid.UUID             `gorm:"type:uuid;primary_key"`
	ShopID          *uuid.UUID            `gorm:"type:uuid;index"`
	Action          fulfillment.LogAction `gorm:"type:varchar(30);not null;index"`
	OrderSn         string                `gorm:"type:varchar(64);index"`
	RequestPayload  string                `gorm:"type:jsonb"`
	ResponsePayload string                `gorm:"type:jsonb"`
	ResponseStatus  int                   `gorm:"not null;default:0"`
	ErrorMessage    string                `gorm:"type:text"`
	CreatedAt       time.Time             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain AuditLog entity.
func (m *AuditLogModel) ToDomain() *fulfillment.AuditLog {
	return &fulfillment.AuditLog{
		ID:              m.ID,
		ShopID:          m.ShopID,
		Action:          m.Action,
		OrderSn:         m.OrderSn,
		RequestPayload:  m.RequestPayload,
		ResponsePayload: m.ResponsePayload,
		ResponseStatus:  m.ResponseStatus,
		ErrorMessage:    m.ErrorMessage,
		CreatedAt:       m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain AuditLog entity.
func (m *AuditLogModel) FromDomain(l *fulfillment.AuditLog) {
	m.ID = l.ID
	m.ShopID = l.ShopID
	m.Action = l.Action
	m.OrderSn = l.OrderSn
	m.RequestPayload = l.RequestPayload
	m.ResponsePayload = l.ResponsePayload
	m.ResponseStatus = l.ResponseStatus
	m.ErrorMessage = l.ErrorMessage
	m.CreatedAt = l.CreatedAt
}
