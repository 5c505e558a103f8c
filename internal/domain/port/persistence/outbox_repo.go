package persistence

import (
	"context"

	"github.com/vendtrack/vending-core/internal/domain/entity"
)

// OutboxRepository defines methods for the transactional outbox
type OutboxRepository interface {
	// Enqueue writes a pending message. Must be called inside the same
	// database transaction as the state change the message describes.
	Enqueue(ctx context.Context, message *entity.OutboxMessage) error

	// FetchPending returns up to limit undelivered messages in enqueue order
	FetchPending(ctx context.Context, limit int) ([]entity.OutboxMessage, error)

	// MarkDelivered records successful delivery of a message
	MarkDelivered(ctx context.Context, id uint64) error

	// MarkAttempt increments the attempt counter after a failed delivery
	MarkAttempt(ctx context.Context, id uint64) error
}
