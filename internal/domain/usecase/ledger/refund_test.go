package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

func TestCreateRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("Partial refund updates the original", func(t *testing.T) {
		f := newTestFixture(t)
		original := f.completedSale(t) // 13000

		refund, err := f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(4000),
			Reason:                "jammed spiral",
			Actor:                 uuid.New(),
		})

		require.NoError(t, err)
		assert.Equal(t, entity.TypeRefund, refund.Type)
		assert.Equal(t, entity.StatusPending, refund.Status)
		require.NotNil(t, refund.OriginalTransactionID)
		assert.Equal(t, original.ID, *refund.OriginalTransactionID)

		updated, err := f.uow.txRepo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPartiallyRefunded, updated.Status)
		assert.True(t, updated.RefundedAmount.Equal(decimal.NewFromInt(4000)))

		assert.Equal(t, 1, f.notifier.RefundCount())

		msg := f.uow.outboxRepo.Last()
		assert.Equal(t, coreport.EventRefundCreated, msg.EventType)
		assert.Equal(t, refund.ID.String(), msg.Payload["refund_id"])
	})

	t.Run("Second refund exhausts the total", func(t *testing.T) {
		f := newTestFixture(t)
		original := f.completedSale(t)

		_, err := f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(4000),
			Reason:                "one item missing",
			Actor:                 uuid.New(),
		})
		require.NoError(t, err)

		_, err = f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(9000),
			Reason:                "rest of the order",
			Actor:                 uuid.New(),
		})
		require.NoError(t, err)

		updated, err := f.uow.txRepo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusRefunded, updated.Status)
		assert.True(t, updated.RefundedAmount.Equal(decimal.NewFromInt(13000)))
	})

	t.Run("Refund exceeding the remainder is rejected", func(t *testing.T) {
		f := newTestFixture(t)
		original := f.completedSale(t)

		_, err := f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(10000),
			Reason:                "first",
			Actor:                 uuid.New(),
		})
		require.NoError(t, err)

		_, err = f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(4000),
			Reason:                "would overshoot",
			Actor:                 uuid.New(),
		})

		assert.ErrorIs(t, err, errs.ErrRefundExceedsTotal)
		var refundErr *errs.RefundError
		assert.ErrorAs(t, err, &refundErr)
		assert.Equal(t, "10000", refundErr.RefundedAmount)

		updated, err := f.uow.txRepo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.True(t, updated.RefundedAmount.Equal(decimal.NewFromInt(10000)))
	})

	t.Run("Failed refund children do not count against the cap", func(t *testing.T) {
		f := newTestFixture(t)
		original := f.completedSale(t)

		refund, err := f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(13000),
			Reason:                "full refund",
			Actor:                 uuid.New(),
		})
		require.NoError(t, err)

		// provider rejects the settlement; the money never moved
		_, err = f.service.ProcessRefund(ctx, refund.ID, false, "prov-ref-1")
		require.NoError(t, err)

		// the full amount is refundable again
		_, err = f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(13000),
			Reason:                "retry",
			Actor:                 uuid.New(),
		})
		require.NoError(t, err)
	})

	t.Run("Refund of a pending sale", func(t *testing.T) {
		f := newTestFixture(t)
		txn := f.createSale(t)

		_, err := f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: txn.ID,
			Amount:                decimal.NewFromInt(1000),
			Reason:                "nope",
			Actor:                 uuid.New(),
		})
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})

	t.Run("Non-positive amount", func(t *testing.T) {
		f := newTestFixture(t)
		original := f.completedSale(t)

		_, err := f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.Zero,
			Reason:                "nothing",
			Actor:                 uuid.New(),
		})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("Missing actor", func(t *testing.T) {
		f := newTestFixture(t)
		original := f.completedSale(t)

		_, err := f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(1000),
			Reason:                "anon",
		})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestProcessRefund(t *testing.T) {
	ctx := context.Background()

	newRefund := func(t *testing.T, f *testFixture, amount int64) (*entity.Transaction, *entity.Transaction) {
		t.Helper()
		original := f.completedSale(t)
		refund, err := f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(amount),
			Reason:                "test refund",
			Actor:                 uuid.New(),
		})
		require.NoError(t, err)
		return original, refund
	}

	t.Run("Successful settlement completes the refund", func(t *testing.T) {
		f := newTestFixture(t)
		original, refund := newRefund(t, f, 4000)

		settled, err := f.service.ProcessRefund(ctx, refund.ID, true, "prov-ref-2")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, settled.Status)
		assert.Equal(t, "prov-ref-2", settled.ExternalRef)

		// original keeps its refunded state
		updated, err := f.uow.txRepo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPartiallyRefunded, updated.Status)
	})

	t.Run("Failed settlement restores the original", func(t *testing.T) {
		f := newTestFixture(t)
		original, refund := newRefund(t, f, 4000)

		settled, err := f.service.ProcessRefund(ctx, refund.ID, false, "prov-ref-3")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusFailed, settled.Status)

		updated, err := f.uow.txRepo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, updated.Status)
		assert.True(t, updated.RefundedAmount.IsZero())
	})

	t.Run("Failed settlement with a surviving sibling", func(t *testing.T) {
		f := newTestFixture(t)
		original, first := newRefund(t, f, 4000)
		_, err := f.service.ProcessRefund(ctx, first.ID, true, "prov-ref-4")
		require.NoError(t, err)

		second, err := f.service.CreateRefund(ctx, CreateRefundRequest{
			OriginalTransactionID: original.ID,
			Amount:                decimal.NewFromInt(3000),
			Reason:                "second",
			Actor:                 uuid.New(),
		})
		require.NoError(t, err)

		_, err = f.service.ProcessRefund(ctx, second.ID, false, "prov-ref-5")
		require.NoError(t, err)

		updated, err := f.uow.txRepo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPartiallyRefunded, updated.Status)
		assert.True(t, updated.RefundedAmount.Equal(decimal.NewFromInt(4000)))
	})

	t.Run("Settling a non-refund transaction", func(t *testing.T) {
		f := newTestFixture(t)
		sale := f.completedSale(t)

		_, err := f.service.ProcessRefund(ctx, sale.ID, true, "prov-ref-6")
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})

	t.Run("Unknown refund id", func(t *testing.T) {
		f := newTestFixture(t)
		_, err := f.service.ProcessRefund(ctx, uuid.New(), true, "")
		assert.ErrorIs(t, err, errs.ErrTransactionNotFound)
	})
}
