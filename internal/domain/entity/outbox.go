package entity

import (
	"time"

	"github.com/google/uuid"
)

// OutboxKind classifies what collaborator an outbox message is destined for
type OutboxKind string

// Outbox kinds
const (
	OutboxAudit        OutboxKind = "audit"
	OutboxNotification OutboxKind = "notification"
)

// OutboxMessage is one pending outbound event, written in the same database
// transaction as the state change it describes and delivered at-least-once
// by the dispatcher. DedupKey lets consumers drop redeliveries.
type OutboxMessage struct {
	ID        uint64
	DedupKey  uuid.UUID
	Kind      OutboxKind
	EventType string
	EntityID  uuid.UUID
	Payload   map[string]any
	Attempts  int

	CreatedAt   time.Time
	DeliveredAt *time.Time
}
