package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/vendtrack/vending-core/internal/domain/error"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{"Pending to processing", StatusPending, StatusProcessing, true},
		{"Pending to completed", StatusPending, StatusCompleted, true},
		{"Pending to failed", StatusPending, StatusFailed, true},
		{"Pending to cancelled", StatusPending, StatusCancelled, true},
		{"Processing to completed", StatusProcessing, StatusCompleted, true},
		{"Processing to failed", StatusProcessing, StatusFailed, true},
		{"Processing to cancelled", StatusProcessing, StatusCancelled, true},
		{"Completed to refunded", StatusCompleted, StatusRefunded, true},
		{"Completed to partially refunded", StatusCompleted, StatusPartiallyRefunded, true},
		{"Partially refunded to refunded", StatusPartiallyRefunded, StatusRefunded, true},
		{"Partially refunded to partially refunded", StatusPartiallyRefunded, StatusPartiallyRefunded, true},
		{"Completed to cancelled", StatusCompleted, StatusCancelled, false},
		{"Completed to pending", StatusCompleted, StatusPending, false},
		{"Completed to processing", StatusCompleted, StatusProcessing, false},
		{"Failed to anything", StatusFailed, StatusCompleted, false},
		{"Cancelled to anything", StatusCancelled, StatusProcessing, false},
		{"Refunded to anything", StatusRefunded, StatusPartiallyRefunded, false},
		{"Pending to refunded", StatusPending, StatusRefunded, false},
		{"Processing to refunded", StatusProcessing, StatusRefunded, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusFailed))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.True(t, IsTerminal(StatusRefunded))

	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusProcessing))
	assert.False(t, IsTerminal(StatusCompleted))
	assert.False(t, IsTerminal(StatusPartiallyRefunded))
}

func TestNewSaleTransaction(t *testing.T) {
	fixedTime := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	clock := &stubClock{now: fixedTime}
	orgID := uuid.New()
	machineID := uuid.New()
	productID := uuid.New()

	t.Run("Valid sale with derived amounts", func(t *testing.T) {
		txn, err := NewSaleTransaction(orgID, machineID, []TransactionItem{
			{ProductID: productID, ProductName: "Cola 0.5L", Quantity: 2, UnitPrice: decimal.NewFromInt(13000)},
			{ProductID: uuid.New(), ProductName: "Snickers", Quantity: 1, UnitPrice: decimal.NewFromInt(9000)},
		}, "", clock)

		require.NoError(t, err)
		assert.Equal(t, TypeSale, txn.Type)
		assert.Equal(t, StatusPending, txn.Status)
		assert.Equal(t, DefaultCurrency, txn.Currency)
		assert.Equal(t, fixedTime, txn.CreatedAt)
		assert.Nil(t, txn.ProcessedAt)
		assert.True(t, txn.Amount.Equal(decimal.NewFromInt(35000)))
		assert.True(t, txn.TotalAmount.Equal(decimal.NewFromInt(35000)))
		assert.True(t, txn.RefundedAmount.IsZero())

		require.Len(t, txn.Items, 2)
		assert.Equal(t, txn.ID, txn.Items[0].TransactionID)
		assert.True(t, txn.Items[0].LineTotal.Equal(decimal.NewFromInt(26000)))
		assert.Equal(t, DispensePending, txn.Items[0].DispenseStatus)
		assert.NotEqual(t, uuid.Nil, txn.Items[0].ID)
	})

	t.Run("Empty organization id", func(t *testing.T) {
		txn, err := NewSaleTransaction(uuid.Nil, machineID, []TransactionItem{
			{ProductID: productID, Quantity: 1, UnitPrice: decimal.NewFromInt(1000)},
		}, "UZS", clock)

		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.Nil(t, txn)
	})

	t.Run("Empty machine id", func(t *testing.T) {
		_, err := NewSaleTransaction(orgID, uuid.Nil, []TransactionItem{
			{ProductID: productID, Quantity: 1, UnitPrice: decimal.NewFromInt(1000)},
		}, "UZS", clock)

		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("No items", func(t *testing.T) {
		_, err := NewSaleTransaction(orgID, machineID, nil, "UZS", clock)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("Item with zero quantity", func(t *testing.T) {
		_, err := NewSaleTransaction(orgID, machineID, []TransactionItem{
			{ProductID: productID, Quantity: 0, UnitPrice: decimal.NewFromInt(1000)},
		}, "UZS", clock)

		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("Item with negative price", func(t *testing.T) {
		_, err := NewSaleTransaction(orgID, machineID, []TransactionItem{
			{ProductID: productID, Quantity: 1, UnitPrice: decimal.NewFromInt(-100)},
		}, "UZS", clock)

		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func newCompletedSale(t *testing.T, clock *stubClock) *Transaction {
	t.Helper()
	txn, err := NewSaleTransaction(uuid.New(), uuid.New(), []TransactionItem{
		{ProductID: uuid.New(), ProductName: "Water 1L", Quantity: 1, UnitPrice: decimal.NewFromInt(10000)},
	}, "UZS", clock)
	require.NoError(t, err)
	require.NoError(t, txn.SettleCash(clock))
	return txn
}

func TestPaymentTransitions(t *testing.T) {
	fixedTime := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	clock := &stubClock{now: fixedTime}

	newPending := func(t *testing.T) *Transaction {
		txn, err := NewSaleTransaction(uuid.New(), uuid.New(), []TransactionItem{
			{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(15000)},
		}, "UZS", clock)
		require.NoError(t, err)
		return txn
	}

	t.Run("BeginProcessing from pending", func(t *testing.T) {
		txn := newPending(t)
		err := txn.BeginProcessing(MethodPayme, "prov-42")

		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, txn.Status)
		assert.Equal(t, MethodPayme, txn.PaymentMethod)
		assert.Equal(t, "prov-42", txn.ExternalRef)
		assert.Nil(t, txn.ProcessedAt)
	})

	t.Run("BeginProcessing twice", func(t *testing.T) {
		txn := newPending(t)
		require.NoError(t, txn.BeginProcessing(MethodClick, "prov-1"))

		err := txn.BeginProcessing(MethodClick, "prov-2")
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})

	t.Run("SettleCash completes synchronously", func(t *testing.T) {
		txn := newPending(t)
		err := txn.SettleCash(clock)

		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, txn.Status)
		assert.Equal(t, MethodCash, txn.PaymentMethod)
		require.NotNil(t, txn.ProcessedAt)
		assert.Equal(t, fixedTime, *txn.ProcessedAt)
	})

	t.Run("SettleCash on processing transaction", func(t *testing.T) {
		txn := newPending(t)
		require.NoError(t, txn.BeginProcessing(MethodUzum, "prov-3"))

		err := txn.SettleCash(clock)
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})

	t.Run("MarkCompleted from processing", func(t *testing.T) {
		txn := newPending(t)
		require.NoError(t, txn.BeginProcessing(MethodPayme, "prov-4"))

		require.NoError(t, txn.MarkCompleted(clock))
		assert.Equal(t, StatusCompleted, txn.Status)
		require.NotNil(t, txn.ProcessedAt)
	})

	t.Run("MarkCompleted after failure", func(t *testing.T) {
		txn := newPending(t)
		require.NoError(t, txn.BeginProcessing(MethodPayme, "prov-5"))
		require.NoError(t, txn.MarkFailed(clock, "declined"))

		err := txn.MarkCompleted(clock)
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})

	t.Run("MarkFailed records reason", func(t *testing.T) {
		txn := newPending(t)
		require.NoError(t, txn.BeginProcessing(MethodClick, "prov-6"))

		require.NoError(t, txn.MarkFailed(clock, "insufficient funds"))
		assert.Equal(t, StatusFailed, txn.Status)
		assert.Equal(t, "insufficient funds", txn.FailureReason)
	})

	t.Run("Cancel from pending", func(t *testing.T) {
		txn := newPending(t)
		require.NoError(t, txn.Cancel(clock, "operator abort"))

		assert.Equal(t, StatusCancelled, txn.Status)
		assert.Equal(t, "operator abort", txn.CancelReason)
		require.NotNil(t, txn.CancelledAt)
		assert.Equal(t, fixedTime, *txn.CancelledAt)
	})

	t.Run("Cancel after completion", func(t *testing.T) {
		txn := newCompletedSale(t, clock)
		err := txn.Cancel(clock, "too late")
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})
}

func TestApplyDispenseFold(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}

	t.Run("Degrades a settled transaction to failed", func(t *testing.T) {
		txn := newCompletedSale(t, clock)
		err := txn.ApplyDispenseFold(StatusFailed, clock)

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, txn.Status)
		assert.Equal(t, "all items failed to dispense", txn.FailureReason)
	})

	t.Run("Partial delivery", func(t *testing.T) {
		txn := newCompletedSale(t, clock)
		require.NoError(t, txn.ApplyDispenseFold(StatusPartiallyRefunded, clock))
		assert.Equal(t, StatusPartiallyRefunded, txn.Status)
	})

	t.Run("Sets processed time when still processing", func(t *testing.T) {
		txn, err := NewSaleTransaction(uuid.New(), uuid.New(), []TransactionItem{
			{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(5000)},
		}, "UZS", clock)
		require.NoError(t, err)
		require.NoError(t, txn.BeginProcessing(MethodPayme, "prov-7"))

		require.NoError(t, txn.ApplyDispenseFold(StatusCompleted, clock))
		assert.Equal(t, StatusCompleted, txn.Status)
		require.NotNil(t, txn.ProcessedAt)
	})

	t.Run("Rejected on a pending transaction", func(t *testing.T) {
		txn, err := NewSaleTransaction(uuid.New(), uuid.New(), []TransactionItem{
			{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(5000)},
		}, "UZS", clock)
		require.NoError(t, err)

		err = txn.ApplyDispenseFold(StatusCompleted, clock)
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})

	t.Run("Unsupported fold target", func(t *testing.T) {
		txn := newCompletedSale(t, clock)
		err := txn.ApplyDispenseFold(StatusCancelled, clock)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestApplyRefundTotal(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}

	t.Run("Partial refund", func(t *testing.T) {
		txn := newCompletedSale(t, clock)
		require.NoError(t, txn.ApplyRefundTotal(decimal.NewFromInt(4000)))

		assert.Equal(t, StatusPartiallyRefunded, txn.Status)
		assert.True(t, txn.RefundedAmount.Equal(decimal.NewFromInt(4000)))
	})

	t.Run("Full refund", func(t *testing.T) {
		txn := newCompletedSale(t, clock)
		require.NoError(t, txn.ApplyRefundTotal(decimal.NewFromInt(10000)))
		assert.Equal(t, StatusRefunded, txn.Status)
	})

	t.Run("Refund exceeding total", func(t *testing.T) {
		txn := newCompletedSale(t, clock)
		err := txn.ApplyRefundTotal(decimal.NewFromInt(10001))

		assert.ErrorIs(t, err, errs.ErrRefundExceedsTotal)
		assert.Equal(t, StatusCompleted, txn.Status)
		assert.True(t, txn.RefundedAmount.IsZero())
	})

	t.Run("Zero sum leaves status untouched", func(t *testing.T) {
		txn := newCompletedSale(t, clock)
		require.NoError(t, txn.ApplyRefundTotal(decimal.Zero))
		assert.Equal(t, StatusCompleted, txn.Status)
	})
}

func TestNewRefundTransaction(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	original := newCompletedSale(t, clock)

	t.Run("Links back to the original", func(t *testing.T) {
		refund, err := NewRefundTransaction(original, decimal.NewFromInt(3000), "jammed spiral", clock)

		require.NoError(t, err)
		assert.Equal(t, TypeRefund, refund.Type)
		assert.Equal(t, StatusPending, refund.Status)
		assert.Equal(t, original.PaymentMethod, refund.PaymentMethod)
		assert.Equal(t, original.Currency, refund.Currency)
		require.NotNil(t, refund.OriginalTransactionID)
		assert.Equal(t, original.ID, *refund.OriginalTransactionID)
		assert.True(t, refund.TotalAmount.Equal(decimal.NewFromInt(3000)))
		assert.Equal(t, "jammed spiral", refund.RefundReason)
	})

	t.Run("Non-positive amount", func(t *testing.T) {
		_, err := NewRefundTransaction(original, decimal.Zero, "reason", clock)
		assert.ErrorIs(t, err, errs.ErrValidation)

		_, err = NewRefundTransaction(original, decimal.NewFromInt(-100), "reason", clock)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestPaymentMethodFamily(t *testing.T) {
	assert.Equal(t, FamilyCash, MethodCash.Family())

	assert.Equal(t, FamilyCard, MethodUzcard.Family())
	assert.Equal(t, FamilyCard, MethodHumo.Family())
	assert.Equal(t, FamilyCard, MethodVisa.Family())
	assert.Equal(t, FamilyCard, MethodMastercard.Family())

	assert.Equal(t, FamilyWallet, MethodPayme.Family())
	assert.Equal(t, FamilyWallet, MethodClick.Family())
	assert.Equal(t, FamilyWallet, MethodUzum.Family())
}

func TestPaymentProvider(t *testing.T) {
	assert.Equal(t, MethodPayme, ProviderPayme.Method())
	assert.Equal(t, MethodClick, ProviderClick.Method())
	assert.Equal(t, MethodUzum, ProviderUzum.Method())

	assert.True(t, IsValidProvider("payme"))
	assert.True(t, IsValidProvider("click"))
	assert.True(t, IsValidProvider("uzum"))
	assert.False(t, IsValidProvider("paypal"))
	assert.False(t, IsValidProvider(""))
}
