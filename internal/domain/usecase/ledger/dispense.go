package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// RecordDispenseRequest carries one machine-reported fulfillment outcome
type RecordDispenseRequest struct {
	ItemID   uuid.UUID
	Outcome  entity.DispenseStatus
	Quantity int
	// Error is the machine-reported failure detail, if any
	Error string
}

// RecordDispense folds a per-item fulfillment outcome into the parent
// transaction's status. Only legal while the parent is completed or
// processing. The fold always rescans every sibling from committed state,
// so out-of-order dispense reports converge on the same resolution.
func (s *Service) RecordDispense(ctx context.Context, req RecordDispenseRequest) (*entity.Transaction, error) {
	item, err := s.uow.GetTransactionRepository(ctx).GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	var result *entity.Transaction
	err = s.serializer.Execute(ctx, item.TransactionID, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			repo := s.uow.GetTransactionRepository(txCtx)
			txn, err := repo.GetByID(txCtx, item.TransactionID)
			if err != nil {
				return err
			}
			if txn.Status != entity.StatusCompleted && txn.Status != entity.StatusProcessing {
				return errStateConflict(txn, "record dispense for")
			}

			var target *entity.TransactionItem
			for i := range txn.Items {
				if txn.Items[i].ID == req.ItemID {
					target = &txn.Items[i]
					break
				}
			}
			if target == nil {
				return errItemMissing(req.ItemID)
			}

			if err := target.RecordDispense(req.Outcome, req.Quantity, req.Error, s.timeProvider.Now()); err != nil {
				return err
			}
			if err := repo.UpdateItem(txCtx, target); err != nil {
				return err
			}

			folded, resolved := entity.FoldDispenseStatus(txn.Items)
			if resolved && folded != txn.Status {
				before := txn.Status
				if err := txn.ApplyDispenseFold(folded, s.timeProvider); err != nil {
					return err
				}
				if err := repo.Update(txCtx, txn); err != nil {
					return err
				}
				if err := s.emitTransition(txCtx, coreport.EventStatusChanged, txn.ID,
					before, txn.Status, uuid.Nil, map[string]any{
						"trigger": "dispense_fold",
						"item_id": req.ItemID.String(),
					}); err != nil {
					return err
				}
			}
			result = txn
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.release(result)

	s.logger.Info("Dispense recorded", map[string]any{
		"transaction_id": result.ID.String(),
		"item_id":        req.ItemID.String(),
		"outcome":        string(req.Outcome),
		"status":         string(result.Status),
	})
	return result, nil
}
