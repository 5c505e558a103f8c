package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
)

func TestValidateProcessPayment(t *testing.T) {
	v := NewValidator()
	total := decimal.NewFromInt(13000)

	tests := []struct {
		name    string
		method  entity.PaymentMethod
		amount  decimal.Decimal
		wantErr bool
	}{
		{"Cash with implicit amount", entity.MethodCash, decimal.Zero, false},
		{"Cash with matching amount", entity.MethodCash, decimal.NewFromInt(13000), false},
		{"Payme with implicit amount", entity.MethodPayme, decimal.Zero, false},
		{"Click with matching amount", entity.MethodClick, decimal.NewFromInt(13000), false},
		{"Uzcard card payment", entity.MethodUzcard, decimal.Zero, false},
		{"Mismatched amount", entity.MethodCash, decimal.NewFromInt(12999), true},
		{"Negative amount", entity.MethodCash, decimal.NewFromInt(-1), true},
		{"Unknown method", "crypto", decimal.Zero, true},
		{"Empty method", "", decimal.Zero, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateProcessPayment(tc.method, tc.amount, total)
			if tc.wantErr {
				assert.ErrorIs(t, err, errs.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRefund(t *testing.T) {
	v := NewValidator()
	clock := newStubClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	original, err := entity.NewSaleTransaction(uuid.New(), uuid.New(), []entity.TransactionItem{
		{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(10000)},
	}, "UZS", clock)
	require.NoError(t, err)

	t.Run("Within bounds", func(t *testing.T) {
		assert.NoError(t, v.ValidateRefund(original, decimal.NewFromInt(4000), decimal.Zero))
		assert.NoError(t, v.ValidateRefund(original, decimal.NewFromInt(6000), decimal.NewFromInt(4000)))
		assert.NoError(t, v.ValidateRefund(original, decimal.NewFromInt(10000), decimal.Zero))
	})

	t.Run("Exceeds the remainder", func(t *testing.T) {
		err := v.ValidateRefund(original, decimal.NewFromInt(7000), decimal.NewFromInt(4000))

		assert.ErrorIs(t, err, errs.ErrRefundExceedsTotal)
		var refundErr *errs.RefundError
		require.ErrorAs(t, err, &refundErr)
		assert.Equal(t, "7000", refundErr.RequestedAmount)
		assert.Equal(t, "4000", refundErr.RefundedAmount)
	})

	t.Run("Non-positive amount", func(t *testing.T) {
		assert.ErrorIs(t, v.ValidateRefund(original, decimal.Zero, decimal.Zero), errs.ErrValidation)
		assert.ErrorIs(t, v.ValidateRefund(original, decimal.NewFromInt(-1), decimal.Zero), errs.ErrValidation)
	})
}

func TestValidateActor(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateActor(uuid.New()))
	assert.ErrorIs(t, v.ValidateActor(uuid.Nil), errs.ErrValidation)
}
