package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
)

// Dispatcher drains the transactional outbox and delivers audit events to
// the configured sink. Delivery is at-least-once: a message is only marked
// delivered after the sink accepts it, so a crash between publish and mark
// causes a redelivery that consumers drop on the dedup key.
type Dispatcher struct {
	repo      persistence.OutboxRepository
	sink      coreport.AuditSink
	logger    coreport.Logger
	interval  time.Duration
	batchSize int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewDispatcher creates a new outbox dispatcher
func NewDispatcher(
	repo persistence.OutboxRepository,
	sink coreport.AuditSink,
	logger coreport.Logger,
	interval time.Duration,
	batchSize int,
) *Dispatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Dispatcher{
		repo:      repo,
		sink:      sink,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the polling loop. It returns immediately; call Shutdown to
// stop the loop and wait for the in-flight batch.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("Outbox dispatcher started", map[string]any{
		"interval":   d.interval.String(),
		"batch_size": d.batchSize,
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case <-ticker.C:
			d.deliverBatch(ctx)
		}
	}
}

// Shutdown stops the polling loop and waits for the current batch to finish
func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	<-d.done
	d.logger.Info("Outbox dispatcher stopped", nil)
}

func (d *Dispatcher) deliverBatch(ctx context.Context) {
	messages, err := d.repo.FetchPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to fetch pending outbox messages", map[string]any{
			"error": err.Error(),
		})
		return
	}

	for i := range messages {
		if err := d.deliver(ctx, &messages[i]); err != nil {
			d.logger.Warn("Outbox delivery failed, will retry", map[string]any{
				"message_id": messages[i].ID,
				"event_type": messages[i].EventType,
				"attempts":   messages[i].Attempts + 1,
				"error":      err.Error(),
			})
			if markErr := d.repo.MarkAttempt(ctx, messages[i].ID); markErr != nil {
				d.logger.Error("Failed to record delivery attempt", map[string]any{
					"message_id": messages[i].ID,
					"error":      markErr.Error(),
				})
			}
			continue
		}
		if err := d.repo.MarkDelivered(ctx, messages[i].ID); err != nil {
			// Next poll redelivers; the sink drops it on the dedup key
			d.logger.Error("Failed to mark outbox message delivered", map[string]any{
				"message_id": messages[i].ID,
				"error":      err.Error(),
			})
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, message *entity.OutboxMessage) error {
	return d.sink.Publish(ctx, d.toAuditEvent(message))
}

func (d *Dispatcher) toAuditEvent(message *entity.OutboxMessage) coreport.AuditEvent {
	event := coreport.AuditEvent{
		DedupKey:   message.DedupKey,
		Type:       message.EventType,
		EntityID:   message.EntityID,
		OccurredAt: message.CreatedAt,
		Payload:    message.Payload,
	}
	if before, ok := message.Payload["before"].(string); ok {
		event.Before = before
	}
	if after, ok := message.Payload["after"].(string); ok {
		event.After = after
	}
	if actor, ok := message.Payload["actor"].(string); ok {
		if id, err := uuid.Parse(actor); err == nil {
			event.Actor = id
		}
	}
	if ts, ok := message.Payload["timestamp"].(string); ok {
		if at, err := time.Parse("2006-01-02T15:04:05.000Z07:00", ts); err == nil {
			event.OccurredAt = at
		}
	}
	return event
}
