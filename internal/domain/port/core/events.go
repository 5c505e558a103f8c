package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event kinds emitted by the core
const (
	EventTransactionCreated   = "transaction.created"
	EventStatusChanged        = "transaction.status_changed"
	EventRefundCreated        = "refund.created"
	EventCollectionRecorded   = "collection.recorded"
	EventCollectionVerified   = "collection.verified"
	EventCommissionCalculated = "commission.calculated"
)

// AuditEvent is one structured state-transition notification delivered to
// the audit collaborator. DedupKey makes redelivery idempotent on the
// consumer side.
type AuditEvent struct {
	DedupKey   uuid.UUID
	Type       string
	EntityID   uuid.UUID
	Before     string
	After      string
	Actor      uuid.UUID
	OccurredAt time.Time
	Payload    map[string]any
}

// AuditSink receives one event per state transition. Implementations must
// tolerate at-least-once delivery.
type AuditSink interface {
	Publish(ctx context.Context, event AuditEvent) error
}

// Notifier dispatches fire-and-forget alerts for refund and collection
// events. It is invoked only after successful persistence.
type Notifier interface {
	NotifyRefund(ctx context.Context, transactionID uuid.UUID, amount string, reason string)
	NotifyCollectionDiscrepancy(ctx context.Context, collectionID uuid.UUID, differencePercent string)
}
