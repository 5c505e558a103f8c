package repository

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/model"
)

// OutboxRepository implements persistence.OutboxRepository using GORM
type OutboxRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewOutboxRepository creates a new OutboxRepository instance
func NewOutboxRepository(db *gorm.DB, logger coreport.Logger) *OutboxRepository {
	return &OutboxRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *OutboxRepository) modelToEntity(m *model.OutboxMessage) entity.OutboxMessage {
	message := entity.OutboxMessage{
		ID:          m.ID,
		DedupKey:    m.DedupKey,
		Kind:        entity.OutboxKind(m.Kind),
		EventType:   m.EventType,
		EntityID:    m.EntityID,
		Attempts:    m.Attempts,
		CreatedAt:   m.CreatedAt,
		DeliveredAt: m.DeliveredAt,
	}
	if len(m.Payload) > 0 {
		_ = json.Unmarshal(m.Payload, &message.Payload)
	}
	return message
}

// Enqueue writes a pending message. Callers must run it inside the same
// database transaction as the state change it describes.
func (r *OutboxRepository) Enqueue(ctx context.Context, message *entity.OutboxMessage) error {
	messageModel := model.OutboxMessage{
		DedupKey:  message.DedupKey,
		Kind:      string(message.Kind),
		EventType: message.EventType,
		EntityID:  message.EntityID,
		Payload:   metadataToJSON(message.Payload),
		CreatedAt: message.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&messageModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			// Redelivery of a turn that already enqueued this event
			r.logger.Warn("Outbox message already enqueued", map[string]any{
				"dedup_key":  message.DedupKey,
				"event_type": message.EventType,
			})
			return nil
		}
		r.logger.Error("Failed to enqueue outbox message", map[string]any{
			"event_type": message.EventType,
			"entity_id":  message.EntityID,
			"error":      result.Error.Error(),
		})
		return r.errorClassifier.Translate(result.Error)
	}

	message.ID = messageModel.ID
	return nil
}

// FetchPending returns up to limit undelivered messages in enqueue order
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]entity.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var models []model.OutboxMessage
	result := r.db.WithContext(ctx).
		Where("delivered_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		r.logger.Error("Failed to fetch pending outbox messages", map[string]any{
			"error": result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	messages := make([]entity.OutboxMessage, 0, len(models))
	for i := range models {
		messages = append(messages, r.modelToEntity(&models[i]))
	}
	return messages, nil
}

// MarkDelivered records successful delivery of a message
func (r *OutboxRepository) MarkDelivered(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Update("delivered_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return r.errorClassifier.Translate(result.Error)
	}
	return nil
}

// MarkAttempt increments the attempt counter after a failed delivery
func (r *OutboxRepository) MarkAttempt(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1"))
	if result.Error != nil {
		return r.errorClassifier.Translate(result.Error)
	}
	return nil
}
