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
)

func twoItems() []CreateItemInput {
	return []CreateItemInput{
		{ProductID: uuid.New(), ProductName: "Cola 0.5L", Quantity: 1, UnitPrice: decimal.NewFromInt(13000)},
		{ProductID: uuid.New(), ProductName: "Snickers", Quantity: 1, UnitPrice: decimal.NewFromInt(9000)},
	}
}

func TestRecordDispense(t *testing.T) {
	ctx := context.Background()

	t.Run("First outcome alone does not resolve the fold", func(t *testing.T) {
		f := newTestFixture(t)
		txn := f.completedSale(t, twoItems()...)

		updated, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID:   txn.Items[0].ID,
			Outcome:  entity.DispenseDone,
			Quantity: 1,
		})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, updated.Status)
		assert.Equal(t, entity.DispenseDone, updated.Items[0].DispenseStatus)
		assert.Equal(t, entity.DispensePending, updated.Items[1].DispenseStatus)
	})

	t.Run("All items dispensed keeps the sale completed", func(t *testing.T) {
		f := newTestFixture(t)
		txn := f.completedSale(t, twoItems()...)

		_, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[0].ID, Outcome: entity.DispenseDone, Quantity: 1,
		})
		require.NoError(t, err)

		events := f.uow.outboxRepo.Count()
		updated, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[1].ID, Outcome: entity.DispenseDone, Quantity: 1,
		})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, updated.Status)
		// the fold target matches the current status, so no transition event
		assert.Equal(t, events, f.uow.outboxRepo.Count())
	})

	t.Run("Mixed outcome degrades to partially refunded", func(t *testing.T) {
		f := newTestFixture(t)
		txn := f.completedSale(t, twoItems()...)

		_, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[0].ID, Outcome: entity.DispenseDone, Quantity: 1,
		})
		require.NoError(t, err)

		updated, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID:  txn.Items[1].ID,
			Outcome: entity.DispenseFailed,
			Error:   "motor stall E12",
		})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusPartiallyRefunded, updated.Status)

		msg := f.uow.outboxRepo.Last()
		assert.Equal(t, "dispense_fold", msg.Payload["trigger"])
		assert.Equal(t, string(entity.StatusCompleted), msg.Payload["before"])
		assert.Equal(t, string(entity.StatusPartiallyRefunded), msg.Payload["after"])
	})

	t.Run("Every item failed fails the sale", func(t *testing.T) {
		f := newTestFixture(t)
		txn := f.completedSale(t, twoItems()...)

		_, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[0].ID, Outcome: entity.DispenseFailed, Error: "jam",
		})
		require.NoError(t, err)

		updated, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[1].ID, Outcome: entity.DispenseFailed, Error: "jam",
		})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusFailed, updated.Status)
		assert.Equal(t, "all items failed to dispense", updated.FailureReason)
	})

	t.Run("Out-of-order reports converge", func(t *testing.T) {
		f := newTestFixture(t)
		txn := f.completedSale(t, twoItems()...)

		// failure lands first, success second
		_, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[1].ID, Outcome: entity.DispenseFailed, Error: "jam",
		})
		require.NoError(t, err)

		updated, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[0].ID, Outcome: entity.DispenseDone, Quantity: 1,
		})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusPartiallyRefunded, updated.Status)
	})

	t.Run("Dispense while still processing", func(t *testing.T) {
		f := newTestFixture(t)
		txn := f.processingSale(t, "payme-disp-1")

		updated, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[0].ID, Outcome: entity.DispenseDone, Quantity: 1,
		})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, updated.Status)
		require.NotNil(t, updated.ProcessedAt)
	})

	t.Run("Dispense on a pending sale", func(t *testing.T) {
		f := newTestFixture(t)
		txn := f.createSale(t)

		_, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[0].ID, Outcome: entity.DispenseDone, Quantity: 1,
		})
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})

	t.Run("Unknown item", func(t *testing.T) {
		f := newTestFixture(t)

		_, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: uuid.New(), Outcome: entity.DispenseDone, Quantity: 1,
		})
		assert.ErrorIs(t, err, errs.ErrItemNotFound)
	})

	t.Run("Invalid outcome", func(t *testing.T) {
		f := newTestFixture(t)
		txn := f.completedSale(t)

		_, err := f.service.RecordDispense(ctx, RecordDispenseRequest{
			ItemID: txn.Items[0].ID, Outcome: "vanished",
		})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}
