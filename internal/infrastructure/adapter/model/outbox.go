package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OutboxMessage represents the database model for pending outbound events
type OutboxMessage struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	DedupKey  uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"`
	Kind      string         `gorm:"not null;size:50"`
	EventType string         `gorm:"not null;size:100"`
	EntityID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	Attempts  int            `gorm:"not null;default:0"`

	CreatedAt   time.Time  `gorm:"not null;index"`
	DeliveredAt *time.Time `gorm:"index"`
}

// TableName specifies the table name for OutboxMessage
func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
