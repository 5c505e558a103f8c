package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// ExpireStaleProcessing fails transactions stuck in processing for longer
// than ttl. No in-ledger timeout exists otherwise: a provider that never
// calls back would leave the row processing forever. Each expiry runs
// through the transaction's own queue, so a webhook racing the sweep still
// serializes cleanly. Individual failures are logged and skipped.
func (s *Service) ExpireStaleProcessing(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := s.timeProvider.Now().Add(-ttl)
	ids, err := s.uow.GetTransactionRepository(ctx).FindStaleProcessing(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if err := s.expireOne(ctx, id, cutoff); err != nil {
			s.logger.Warn("Failed to expire stale transaction", map[string]any{
				"transaction_id": id.String(),
				"error":          err.Error(),
			})
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("Stale processing sweep finished", map[string]any{
			"expired": expired,
			"cutoff":  cutoff,
		})
	}
	return expired, nil
}

func (s *Service) expireOne(ctx context.Context, id uuid.UUID, cutoff time.Time) error {
	var result *entity.Transaction
	err := s.serializer.Execute(ctx, id, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			repo := s.uow.GetTransactionRepository(txCtx)
			txn, err := repo.GetByID(txCtx, id)
			if err != nil {
				return err
			}
			// A webhook may have resolved the row between the scan and this
			// turn; only still-stale processing rows are touched.
			if txn.Status != entity.StatusProcessing || !txn.CreatedAt.Before(cutoff) {
				return nil
			}

			before := txn.Status
			if err := txn.MarkFailed(s.timeProvider, "payment confirmation timeout"); err != nil {
				return err
			}
			if err := repo.Update(txCtx, txn); err != nil {
				return err
			}
			if err := s.emitTransition(txCtx, coreport.EventStatusChanged, txn.ID,
				before, txn.Status, uuid.Nil, map[string]any{
					"trigger": "stale_processing_sweep",
				}); err != nil {
				return err
			}
			result = txn
			return nil
		})
	})
	if err != nil {
		return err
	}
	s.release(result)
	return nil
}
