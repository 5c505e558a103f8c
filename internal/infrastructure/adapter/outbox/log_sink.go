package outbox

import (
	"context"

	"github.com/google/uuid"

	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// LogAuditSink writes audit events to the structured log. It stands in for
// an external audit pipeline and demonstrates the delivery contract.
type LogAuditSink struct {
	logger coreport.Logger
}

// NewLogAuditSink creates a new log-backed audit sink
func NewLogAuditSink(logger coreport.Logger) *LogAuditSink {
	return &LogAuditSink{logger: logger}
}

// Publish records the event at info level
func (s *LogAuditSink) Publish(ctx context.Context, event coreport.AuditEvent) error {
	s.logger.Info("Audit event", map[string]any{
		"dedup_key":   event.DedupKey,
		"event_type":  event.Type,
		"entity_id":   event.EntityID,
		"before":      event.Before,
		"after":       event.After,
		"actor":       event.Actor,
		"occurred_at": event.OccurredAt,
	})
	return nil
}

// LogNotifier writes refund and collection alerts to the structured log
type LogNotifier struct {
	logger coreport.Logger
}

// NewLogNotifier creates a new log-backed notifier
func NewLogNotifier(logger coreport.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyRefund records a refund alert
func (n *LogNotifier) NotifyRefund(ctx context.Context, transactionID uuid.UUID, amount string, reason string) {
	n.logger.Info("Refund notification", map[string]any{
		"transaction_id": transactionID,
		"amount":         amount,
		"reason":         reason,
	})
}

// NotifyCollectionDiscrepancy records a significant collection discrepancy alert
func (n *LogNotifier) NotifyCollectionDiscrepancy(ctx context.Context, collectionID uuid.UUID, differencePercent string) {
	n.logger.Warn("Collection discrepancy notification", map[string]any{
		"collection_id":      collectionID,
		"difference_percent": differencePercent,
	})
}
