package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WebhookEventStatus tracks internal processing of one gateway callback.
type WebhookEventStatus string

const (
	WebhookReceived  WebhookEventStatus = "received"
	WebhookProcessed WebhookEventStatus = "processed"
	WebhookSkipped   WebhookEventStatus = "skipped"
	WebhookFailed    WebhookEventStatus = "failed"
)

// WebhookEvent stores every gateway callback: raw payload for debugging and
// replay, plus processing state. The unique index on transaction_id is the
// idempotency guard; replaying a delivered notification inserts nothing and
// triggers no state change.
type WebhookEvent struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Provider      string             `gorm:"size:50;not null" json:"provider"`
	TransactionID string             `gorm:"uniqueIndex;not null" json:"transaction_id"`
	TxRef         string             `gorm:"index;not null" json:"tx_ref"` // "<invoice_number>/<school_id>"
	Status        WebhookEventStatus `gorm:"size:20;not null;default:'received'" json:"status"`
	Payload       datatypes.JSON     `json:"payload"`
	Signature     string             `json:"-"`
	Error         string             `json:"error,omitempty"`
	TryCount      int                `gorm:"not null;default:0" json:"try_count"`

	ReceivedAt  time.Time  `gorm:"not null" json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
