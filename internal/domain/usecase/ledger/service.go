package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
)

// Service owns transaction and line-item records and enforces legal state
// transitions. All mutating operations on an existing transaction run
// through the per-id serializer; derived sums are recomputed from committed
// state inside the serialized turn.
type Service struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	notifier     coreport.Notifier
	serializer   *Serializer
	validator    *Validator
}

// NewService creates a new ledger service
func NewService(
	uow persistence.UnitOfWork,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	notifier coreport.Notifier,
	queueSize int,
) *Service {
	return &Service{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
		notifier:     notifier,
		serializer:   NewSerializer(logger, queueSize),
		validator:    NewValidator(),
	}
}

// Shutdown drains the per-transaction workers
func (s *Service) Shutdown() {
	s.serializer.Shutdown()
}

// release retires the serializer queue of a transaction that reached a
// terminal state, so resolved transactions do not pin worker goroutines
func (s *Service) release(txn *entity.Transaction) {
	if txn != nil && entity.IsTerminal(txn.Status) {
		s.serializer.Release(txn.ID)
	}
}

// GetTransaction retrieves a transaction with its items
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return s.uow.GetTransactionRepository(ctx).GetByID(ctx, id)
}

// FindByExternalRef retrieves a transaction by its provider-issued reference
func (s *Service) FindByExternalRef(ctx context.Context, externalRef string) (*entity.Transaction, error) {
	return s.uow.GetTransactionRepository(ctx).GetByExternalRef(ctx, externalRef)
}

// ListTransactions returns transactions matching the filter
func (s *Service) ListTransactions(ctx context.Context, filter persistence.TransactionFilter) ([]entity.Transaction, error) {
	return s.uow.GetTransactionRepository(ctx).List(ctx, filter)
}

// DeleteTransaction soft-deletes a terminal-state transaction. This is an
// administrative action; non-terminal transactions must be cancelled first.
func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	err := s.serializer.Execute(ctx, id, func(ctx context.Context) error {
		repo := s.uow.GetTransactionRepository(ctx)
		txn, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !entity.IsTerminal(txn.Status) && txn.Status != entity.StatusCompleted &&
			txn.Status != entity.StatusPartiallyRefunded {
			return errStateConflict(txn, "delete")
		}
		return repo.SoftDelete(ctx, id)
	})
	if err != nil {
		return err
	}
	// A deleted transaction accepts no further mutations
	s.serializer.Release(id)
	return nil
}

// inTx runs fn inside a unit-of-work transaction, committing on success
func (s *Service) inTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(txCtx); err != nil {
		if rbErr := s.uow.Rollback(txCtx); rbErr != nil {
			s.logger.Error("Rollback failed", map[string]any{"error": rbErr.Error()})
		}
		return err
	}
	return s.uow.Commit(txCtx)
}

// emitTransition enqueues one audit event for a state transition in the
// same database transaction as the state change itself
func (s *Service) emitTransition(
	txCtx context.Context,
	eventType string,
	entityID uuid.UUID,
	before, after entity.TransactionStatus,
	actor uuid.UUID,
	payload map[string]any,
) error {
	msg := &entity.OutboxMessage{
		DedupKey:  uuid.New(),
		Kind:      entity.OutboxAudit,
		EventType: eventType,
		EntityID:  entityID,
		Payload:   payload,
		CreatedAt: s.timeProvider.Now(),
	}
	if msg.Payload == nil {
		msg.Payload = map[string]any{}
	}
	msg.Payload["before"] = string(before)
	msg.Payload["after"] = string(after)
	msg.Payload["actor"] = actor.String()
	msg.Payload["timestamp"] = s.timeProvider.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return s.uow.GetOutboxRepository(txCtx).Enqueue(txCtx, msg)
}
