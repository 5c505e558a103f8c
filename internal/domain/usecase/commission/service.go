package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
)

// Rates carries the configured commission and VAT rates
type Rates struct {
	CommissionRate decimal.Decimal
	VATRate        decimal.Decimal
}

// DefaultRates returns the standard contract terms: 10% commission with 12%
// VAT applied on top of the commission.
func DefaultRates() Rates {
	return Rates{
		CommissionRate: decimal.NewFromFloat(0.10),
		VATRate:        decimal.NewFromFloat(0.12),
	}
}

// Service computes period-based revenue share from completed sales in the
// ledger.
type Service struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	rates        Rates
}

// NewService creates a new commission service
func NewService(
	uow persistence.UnitOfWork,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	rates Rates,
) *Service {
	return &Service{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
		rates:        rates,
	}
}

// CalculateCommission sums completed sale-type transactions for the
// organization and contract inside the half-open period [periodStart,
// periodEnd) and persists a calculated commission with an immutable
// calculation snapshot. Recalculating a period already covered by a
// non-cancelled commission is a conflict.
func (s *Service) CalculateCommission(
	ctx context.Context,
	organizationID, contractID uuid.UUID,
	periodStart, periodEnd time.Time,
	actor uuid.UUID,
) (*entity.Commission, error) {
	if actor == uuid.Nil {
		return nil, errs.NewValidationError("actor", "must not be empty")
	}

	var commission *entity.Commission
	err := s.inTx(ctx, func(txCtx context.Context) error {
		commissionRepo := s.uow.GetCommissionRepository(txCtx)

		exists, err := commissionRepo.ExistsForPeriod(txCtx, contractID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		if exists {
			return errs.ErrDuplicateCommission
		}

		txns, err := s.uow.GetTransactionRepository(txCtx).List(txCtx, persistence.TransactionFilter{
			OrganizationID: organizationID,
			ContractID:     &contractID,
			Types:          []entity.TransactionType{entity.TypeSale},
			Statuses:       []entity.TransactionStatus{entity.StatusCompleted},
			From:           &periodStart,
			To:             &periodEnd,
		})
		if err != nil {
			return err
		}
		if len(txns) == 0 {
			return errs.ErrEmptyCommissionBase
		}

		base := decimal.Zero
		for i := range txns {
			base = base.Add(txns[i].TotalAmount)
		}

		commission, err = entity.CalculateCommission(
			organizationID, contractID,
			periodStart, periodEnd,
			base, len(txns),
			s.rates.CommissionRate, s.rates.VATRate,
			actor, s.timeProvider,
		)
		if err != nil {
			return err
		}

		if err := commissionRepo.Create(txCtx, commission); err != nil {
			return err
		}
		return s.uow.GetOutboxRepository(txCtx).Enqueue(txCtx, &entity.OutboxMessage{
			DedupKey:  uuid.New(),
			Kind:      entity.OutboxAudit,
			EventType: coreport.EventCommissionCalculated,
			EntityID:  commission.ID,
			Payload: map[string]any{
				"contract_id":       contractID.String(),
				"base_amount":       entity.FormatAmount(commission.BaseAmount),
				"commission_amount": entity.FormatAmount(commission.CommissionAmount),
				"total_amount":      entity.FormatAmount(commission.TotalAmount),
				"actor":             actor.String(),
			},
			CreatedAt: s.timeProvider.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Commission calculated", map[string]any{
		"commission_id":     commission.ID.String(),
		"contract_id":       contractID.String(),
		"base_amount":       commission.BaseAmount.String(),
		"transaction_count": commission.CalculationDetails.TransactionCount,
	})
	return commission, nil
}

// MarkPaid records settlement of a calculated commission
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*entity.Commission, error) {
	var commission *entity.Commission
	err := s.inTx(ctx, func(txCtx context.Context) error {
		repo := s.uow.GetCommissionRepository(txCtx)
		var err error
		commission, err = repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := commission.MarkPaid(s.timeProvider); err != nil {
			return err
		}
		return repo.Update(txCtx, commission)
	})
	if err != nil {
		return nil, err
	}
	return commission, nil
}

// CancelCommission voids an unpaid commission, freeing the period for
// recalculation
func (s *Service) CancelCommission(ctx context.Context, id uuid.UUID) (*entity.Commission, error) {
	var commission *entity.Commission
	err := s.inTx(ctx, func(txCtx context.Context) error {
		repo := s.uow.GetCommissionRepository(txCtx)
		var err error
		commission, err = repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := commission.Cancel(); err != nil {
			return err
		}
		return repo.Update(txCtx, commission)
	})
	if err != nil {
		return nil, err
	}
	return commission, nil
}

// GetCommission retrieves one commission
func (s *Service) GetCommission(ctx context.Context, id uuid.UUID) (*entity.Commission, error) {
	return s.uow.GetCommissionRepository(ctx).GetByID(ctx, id)
}

// ListCommissions returns commissions for an organization
func (s *Service) ListCommissions(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]entity.Commission, error) {
	return s.uow.GetCommissionRepository(ctx).ListByOrganization(ctx, organizationID, limit, offset)
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
