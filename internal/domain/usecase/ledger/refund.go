package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// CreateRefundRequest carries the input for the first refund phase
type CreateRefundRequest struct {
	OriginalTransactionID uuid.UUID
	Amount                decimal.Decimal
	Reason                string
	Actor                 uuid.UUID
}

// CreateRefund creates a refund-type transaction linked to the original and
// updates the original's cumulative refunded amount. The cumulative figure
// is recomputed from a transactional re-sum of all refund children, never
// blindly incremented, so concurrent partial refunds cannot overcount.
// Settlement of the refund with the provider is the second phase
// (ProcessRefund).
func (s *Service) CreateRefund(ctx context.Context, req CreateRefundRequest) (*entity.Transaction, error) {
	if err := s.validator.ValidateActor(req.Actor); err != nil {
		return nil, err
	}

	var refund *entity.Transaction
	var original *entity.Transaction
	err := s.serializer.Execute(ctx, req.OriginalTransactionID, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			repo := s.uow.GetTransactionRepository(txCtx)
			var err error
			original, err = repo.GetByID(txCtx, req.OriginalTransactionID)
			if err != nil {
				return err
			}
			if original.Status != entity.StatusCompleted && original.Status != entity.StatusPartiallyRefunded {
				return errStateConflict(original, "refund")
			}

			committed, err := repo.SumRefunds(txCtx, original.ID)
			if err != nil {
				return err
			}
			if err := s.validator.ValidateRefund(original, req.Amount, committed); err != nil {
				return err
			}

			refund, err = entity.NewRefundTransaction(original, req.Amount, req.Reason, s.timeProvider)
			if err != nil {
				return err
			}
			if err := repo.Create(txCtx, refund); err != nil {
				return err
			}

			before := original.Status
			if err := original.ApplyRefundTotal(committed.Add(req.Amount)); err != nil {
				return err
			}
			if err := repo.Update(txCtx, original); err != nil {
				return err
			}
			return s.emitTransition(txCtx, coreport.EventRefundCreated, original.ID,
				before, original.Status, req.Actor, map[string]any{
					"refund_id":       refund.ID.String(),
					"refund_amount":   entity.FormatAmount(req.Amount),
					"refunded_amount": entity.FormatAmount(original.RefundedAmount),
					"reason":          req.Reason,
				})
		})
	})
	if err != nil {
		return nil, err
	}
	// A fully refunded original accepts no further mutations
	s.release(original)

	// Notification goes out only after the refund is durably persisted.
	s.notifier.NotifyRefund(ctx, refund.ID, entity.FormatAmount(req.Amount), req.Reason)

	s.logger.Info("Refund created", map[string]any{
		"refund_id":      refund.ID.String(),
		"transaction_id": req.OriginalTransactionID.String(),
		"amount":         req.Amount.String(),
	})
	return refund, nil
}

// ProcessRefund is the second refund phase, reflecting actual settlement of
// the refund with the provider.
func (s *Service) ProcessRefund(ctx context.Context, refundID uuid.UUID, success bool, providerRef string) (*entity.Transaction, error) {
	var result *entity.Transaction
	err := s.serializer.Execute(ctx, refundID, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			repo := s.uow.GetTransactionRepository(txCtx)
			refund, err := repo.GetByID(txCtx, refundID)
			if err != nil {
				return err
			}
			if refund.Type != entity.TypeRefund {
				return errStateConflict(refund, "settle refund for")
			}

			before := refund.Status
			if refund.Status == entity.StatusPending {
				if err := refund.BeginProcessing(refund.PaymentMethod, providerRef); err != nil {
					return err
				}
			}
			if success {
				if err := refund.MarkCompleted(s.timeProvider); err != nil {
					return err
				}
			} else {
				if err := refund.MarkFailed(s.timeProvider, "refund settlement failed"); err != nil {
					return err
				}
			}
			if providerRef != "" {
				refund.ExternalRef = providerRef
			}

			if err := repo.Update(txCtx, refund); err != nil {
				return err
			}

			// A failed settlement means the money never moved back; re-sum
			// the original's refund children so its cumulative figure and
			// status reflect committed reality.
			if !success && refund.OriginalTransactionID != nil {
				original, err := repo.GetByID(txCtx, *refund.OriginalTransactionID)
				if err != nil {
					return err
				}
				committed, err := repo.SumRefunds(txCtx, original.ID)
				if err != nil {
					return err
				}
				if err := original.ApplyRefundTotal(committed); err != nil {
					return err
				}
				if committed.IsZero() && original.Status != entity.StatusCompleted {
					original.Status = entity.StatusCompleted
				}
				if err := repo.Update(txCtx, original); err != nil {
					return err
				}
			}

			if err := s.emitTransition(txCtx, coreport.EventStatusChanged, refund.ID,
				before, refund.Status, uuid.Nil, map[string]any{
					"provider_ref": providerRef,
				}); err != nil {
				return err
			}
			result = refund
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.release(result)
	return result, nil
}
