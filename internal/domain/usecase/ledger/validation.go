package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
)

// Validator performs pre-persistence validation of ledger inputs
type Validator struct{}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{}
}

// validMethods lists every accepted payment method
var validMethods = map[entity.PaymentMethod]bool{
	entity.MethodCash:       true,
	entity.MethodUzcard:     true,
	entity.MethodHumo:       true,
	entity.MethodVisa:       true,
	entity.MethodMastercard: true,
	entity.MethodPayme:      true,
	entity.MethodClick:      true,
	entity.MethodUzum:       true,
}

// ValidateProcessPayment checks the payment initiation input
func (v *Validator) ValidateProcessPayment(method entity.PaymentMethod, amount decimal.Decimal, total decimal.Decimal) error {
	if !validMethods[method] {
		return errs.NewValidationError("paymentMethod", "unknown method "+string(method))
	}
	if amount.IsNegative() {
		return errs.NewValidationError("amount", "must not be negative")
	}
	// A zero amount means "charge the transaction total"; anything else has
	// to match what the items add up to.
	if !amount.IsZero() && !amount.Equal(total) {
		return errs.NewValidationError("amount", "does not match transaction total")
	}
	if method != entity.MethodCash && method.Family() == entity.FamilyCash {
		return errs.NewValidationError("paymentMethod", "non-cash method required for async capture")
	}
	return nil
}

// ValidateRefund checks refund creation input against the bounded-refund invariant
func (v *Validator) ValidateRefund(original *entity.Transaction, amount decimal.Decimal, alreadyRefunded decimal.Decimal) error {
	if !amount.IsPositive() {
		return errs.NewValidationError("amount", "refund amount must be positive")
	}
	if alreadyRefunded.Add(amount).GreaterThan(original.TotalAmount) {
		return &errs.RefundError{
			TransactionID:   original.ID.String(),
			TotalAmount:     original.TotalAmount.String(),
			RequestedAmount: amount.String(),
			RefundedAmount:  alreadyRefunded.String(),
		}
	}
	return nil
}

// ValidateActor checks that a caller-supplied actor id is present
func (v *Validator) ValidateActor(actor uuid.UUID) error {
	if actor == uuid.Nil {
		return errs.NewValidationError("actor", "must not be empty")
	}
	return nil
}

// errStateConflict builds a state conflict error for a transaction operation
func errStateConflict(txn *entity.Transaction, operation string) error {
	return errs.NewStateConflictError(txn.ID.String(), string(txn.Status), operation)
}

// errItemMissing reports an item id that is not part of its parent's item set
func errItemMissing(itemID uuid.UUID) error {
	return fmt.Errorf("%w: %s", errs.ErrItemNotFound, itemID.String())
}
