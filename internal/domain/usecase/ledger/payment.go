package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// ProcessPaymentRequest carries payment initiation input
type ProcessPaymentRequest struct {
	TransactionID uuid.UUID
	Method        entity.PaymentMethod
	// Amount may be zero, meaning the transaction total
	Amount decimal.Decimal
	// ExternalRef is the provider-issued reference for async methods
	ExternalRef string
	Actor       uuid.UUID
}

// ProcessPayment initiates settlement of a pending transaction. Cash settles
// synchronously to completed; any other method transitions to processing and
// returns before settlement is finalized. The provider webhook resolves the
// asynchronous side later via ConfirmPayment.
func (s *Service) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*entity.Transaction, error) {
	var result *entity.Transaction
	err := s.serializer.Execute(ctx, req.TransactionID, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			repo := s.uow.GetTransactionRepository(txCtx)
			txn, err := repo.GetByID(txCtx, req.TransactionID)
			if err != nil {
				return err
			}
			if err := s.validator.ValidateProcessPayment(req.Method, req.Amount, txn.TotalAmount); err != nil {
				return err
			}

			before := txn.Status
			if req.Method == entity.MethodCash {
				if err := txn.SettleCash(s.timeProvider); err != nil {
					return err
				}
			} else {
				if err := txn.BeginProcessing(req.Method, req.ExternalRef); err != nil {
					return err
				}
			}

			if err := repo.Update(txCtx, txn); err != nil {
				return err
			}
			if err := s.emitTransition(txCtx, coreport.EventStatusChanged, txn.ID,
				before, txn.Status, req.Actor, map[string]any{
					"payment_method": string(req.Method),
					"external_ref":   req.ExternalRef,
				}); err != nil {
				return err
			}
			result = txn
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment initiated", map[string]any{
		"transaction_id": req.TransactionID.String(),
		"payment_method": string(req.Method),
		"status":         string(result.Status),
	})
	return result, nil
}

// ConfirmPaymentRequest carries a provider webhook outcome
type ConfirmPaymentRequest struct {
	// ProviderTransactionID is the provider's own identifier, joined against
	// the ledger's external-reference field. Providers never know internal ids.
	ProviderTransactionID string
	Provider              entity.PaymentProvider
	Success               bool
	FailureReason         string
	RawPayload            map[string]any
}

// ConfirmPayment applies an asynchronous settlement outcome. It is
// idempotent against webhook redelivery: re-applying an outcome that
// already matches the transaction's resolved state is a no-op that emits no
// side effects. Stale or contradictory callbacks targeting a terminal state
// are rejected with a state conflict.
func (s *Service) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (*entity.Transaction, error) {
	if !entity.IsValidProvider(string(req.Provider)) {
		return nil, errs.NewValidationError("provider", "unknown payment provider")
	}

	// Resolve the external reference outside the serialized turn; the join
	// key never changes after processing begins.
	txn, err := s.uow.GetTransactionRepository(ctx).GetByExternalRef(ctx, req.ProviderTransactionID)
	if err != nil {
		return nil, err
	}

	var result *entity.Transaction
	err = s.serializer.Execute(ctx, txn.ID, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			repo := s.uow.GetTransactionRepository(txCtx)
			current, err := repo.GetByID(txCtx, txn.ID)
			if err != nil {
				return err
			}

			// Idempotent no-op: the redelivered outcome already matches.
			if (req.Success && current.Status == entity.StatusCompleted) ||
				(!req.Success && current.Status == entity.StatusFailed) {
				s.logger.Debug("Duplicate webhook ignored", map[string]any{
					"transaction_id": current.ID.String(),
					"provider":       string(req.Provider),
					"external_ref":   req.ProviderTransactionID,
				})
				result = current
				return nil
			}

			// Only legal from processing. A confirm after cancel, or after a
			// contradictory resolution, must not re-mutate the row.
			if current.Status != entity.StatusProcessing {
				return errStateConflict(current, "confirm payment for")
			}

			before := current.Status
			if req.Success {
				if err := current.MarkCompleted(s.timeProvider); err != nil {
					return err
				}
			} else {
				reason := req.FailureReason
				if reason == "" {
					reason = "payment declined by " + string(req.Provider)
				}
				if err := current.MarkFailed(s.timeProvider, reason); err != nil {
					return err
				}
			}

			if err := repo.Update(txCtx, current); err != nil {
				return err
			}
			if err := s.emitTransition(txCtx, coreport.EventStatusChanged, current.ID,
				before, current.Status, uuid.Nil, map[string]any{
					"provider":     string(req.Provider),
					"external_ref": req.ProviderTransactionID,
					"webhook":      req.RawPayload,
				}); err != nil {
				return err
			}
			result = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.release(result)

	s.logger.Info("Payment confirmation applied", map[string]any{
		"transaction_id": result.ID.String(),
		"provider":       string(req.Provider),
		"success":        req.Success,
		"status":         string(result.Status),
	})
	return result, nil
}

// Cancel is a compensating action on a non-terminal transaction. It records
// the reason and timestamp but does not reverse any provider-side capture;
// that is the refund flow.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*entity.Transaction, error) {
	if reason == "" {
		return nil, errs.NewValidationError("reason", "must not be empty")
	}

	var result *entity.Transaction
	err := s.serializer.Execute(ctx, id, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			repo := s.uow.GetTransactionRepository(txCtx)
			txn, err := repo.GetByID(txCtx, id)
			if err != nil {
				return err
			}
			before := txn.Status
			if err := txn.Cancel(s.timeProvider, reason); err != nil {
				return err
			}
			if err := repo.Update(txCtx, txn); err != nil {
				return err
			}
			if err := s.emitTransition(txCtx, coreport.EventStatusChanged, txn.ID,
				before, txn.Status, actor, map[string]any{"reason": reason}); err != nil {
				return err
			}
			result = txn
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.release(result)
	return result, nil
}
