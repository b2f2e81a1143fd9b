package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openbaseline/compliance/pkg/constants"
)

// AuditEvent is a structured domain event emitted by every state-changing
// operation. Message is the human-readable, greppable audit line; Metadata
// carries the machine-readable identifiers and counts.
type AuditEvent struct {
	EventID   uuid.UUID                `json:"event_id" gorm:"type:uuid;primaryKey"`
	AccountID string                   `json:"account_id" gorm:"index"`
	EventType constants.AuditEventType `json:"event_type" gorm:"index"`
	Message   string                   `json:"message"`
	Metadata  json.RawMessage          `json:"metadata,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

// NewAuditEvent creates an audit event with a generated id and timestamp.
func NewAuditEvent(accountID string, eventType constants.AuditEventType, message string) *AuditEvent {
	return &AuditEvent{
		EventID:   uuid.New(),
		AccountID: accountID,
		EventType: eventType,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// WithMetadata attaches JSON-serializable metadata to the event. Marshal
// failures leave metadata empty rather than failing the audit write.
func (e *AuditEvent) WithMetadata(data interface{}) *AuditEvent {
	raw, err := json.Marshal(data)
	if err == nil {
		e.Metadata = raw
	}
	return e
}
