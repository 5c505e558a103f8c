package collection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
)

// Service records physical cash collections and reconciles them against
// machine counters. Collections are an independent event stream; they touch
// the transaction ledger only through the machine id reference.
type Service struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	notifier     coreport.Notifier
}

// NewService creates a new collection service
func NewService(
	uow persistence.UnitOfWork,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	notifier coreport.Notifier,
) *Service {
	return &Service{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
		notifier:     notifier,
	}
}

// CreateCollectionRequest carries declared and machine-reported figures
type CreateCollectionRequest struct {
	OrganizationID uuid.UUID
	MachineID      uuid.UUID
	CollectorID    uuid.UUID
	ActualCash     decimal.Decimal
	ActualCoin     decimal.Decimal
	ActualTotal    decimal.Decimal
	ExpectedCash   *decimal.Decimal
	ExpectedCoin   *decimal.Decimal
	ExpectedTotal  *decimal.Decimal
	CounterBefore  *int64
	CounterAfter   *int64
	Notes          string
}

// CreateCollectionRecord records one physical collection. Discrepancy
// figures are computed here, once, and are immutable afterwards.
func (s *Service) CreateCollectionRecord(ctx context.Context, req CreateCollectionRequest) (*entity.CollectionRecord, error) {
	rec, err := entity.NewCollectionRecord(entity.NewCollectionRecordInput{
		OrganizationID: req.OrganizationID,
		MachineID:      req.MachineID,
		CollectorID:    req.CollectorID,
		ActualCash:     req.ActualCash,
		ActualCoin:     req.ActualCoin,
		ActualTotal:    req.ActualTotal,
		ExpectedCash:   req.ExpectedCash,
		ExpectedCoin:   req.ExpectedCoin,
		ExpectedTotal:  req.ExpectedTotal,
		CounterBefore:  req.CounterBefore,
		CounterAfter:   req.CounterAfter,
		Notes:          req.Notes,
	}, s.timeProvider)
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.uow.GetCollectionRepository(txCtx).Create(txCtx, rec); err != nil {
			return err
		}
		payload := map[string]any{
			"machine_id":   rec.MachineID.String(),
			"actual_total": entity.FormatAmount(rec.ActualTotal),
		}
		if rec.Difference != nil {
			payload["difference"] = entity.FormatAmount(*rec.Difference)
		}
		return s.uow.GetOutboxRepository(txCtx).Enqueue(txCtx, &entity.OutboxMessage{
			DedupKey:  uuid.New(),
			Kind:      entity.OutboxAudit,
			EventType: coreport.EventCollectionRecorded,
			EntityID:  rec.ID,
			Payload:   payload,
			CreatedAt: s.timeProvider.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	// Alert only after the record is durably persisted.
	if rec.IsSignificantDiscrepancy() {
		s.notifier.NotifyCollectionDiscrepancy(ctx, rec.ID, rec.DifferencePercent.String())
	}

	s.logger.Info("Collection recorded", map[string]any{
		"collection_id": rec.ID.String(),
		"machine_id":    rec.MachineID.String(),
		"actual_total":  rec.ActualTotal.String(),
		"discrepancy":   rec.HasDiscrepancy(),
	})
	return rec, nil
}

// VerifyCollection marks a record as checked by a second actor
// (maker-checker). Verification is one-way; re-verifying is a conflict.
func (s *Service) VerifyCollection(ctx context.Context, id, verifierID uuid.UUID, notes string) (*entity.CollectionRecord, error) {
	var rec *entity.CollectionRecord
	err := s.inTx(ctx, func(txCtx context.Context) error {
		repo := s.uow.GetCollectionRepository(txCtx)
		var err error
		rec, err = repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := rec.Verify(verifierID, notes, s.timeProvider); err != nil {
			return err
		}
		if err := repo.Update(txCtx, rec); err != nil {
			return err
		}
		return s.uow.GetOutboxRepository(txCtx).Enqueue(txCtx, &entity.OutboxMessage{
			DedupKey:  uuid.New(),
			Kind:      entity.OutboxAudit,
			EventType: coreport.EventCollectionVerified,
			EntityID:  rec.ID,
			Payload: map[string]any{
				"verified_by": verifierID.String(),
			},
			CreatedAt: s.timeProvider.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Collection verified", map[string]any{
		"collection_id": id.String(),
		"verified_by":   verifierID.String(),
	})
	return rec, nil
}

// GetCollection retrieves one collection record
func (s *Service) GetCollection(ctx context.Context, id uuid.UUID) (*entity.CollectionRecord, error) {
	return s.uow.GetCollectionRepository(ctx).GetByID(ctx, id)
}

// ListCollections returns collection records matching the filter
func (s *Service) ListCollections(ctx context.Context, filter persistence.CollectionFilter) ([]entity.CollectionRecord, error) {
	return s.uow.GetCollectionRepository(ctx).List(ctx, filter)
}

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
