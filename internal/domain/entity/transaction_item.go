package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/vendtrack/vending-core/internal/domain/error"
)

// DispenseStatus tracks the physical fulfillment of a single line item
type DispenseStatus string

// Dispense statuses
const (
	DispensePending   DispenseStatus = "pending"
	DispenseRunning   DispenseStatus = "dispensing"
	DispenseDone      DispenseStatus = "dispensed"
	DispenseFailed    DispenseStatus = "failed"
	DispensePartial   DispenseStatus = "partial"
)

// TransactionItem is one product line on a transaction. It is owned
// exclusively by its parent; the aggregate dispense state of all items
// determines the parent's resolved status.
type TransactionItem struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	ProductID     uuid.UUID
	ProductName   string
	Quantity      int
	UnitPrice     decimal.Decimal
	LineTotal     decimal.Decimal

	DispenseStatus    DispenseStatus
	DispensedQuantity int
	DispenseError     string
	DispensedAt       *time.Time
}

func (i *TransactionItem) validate() error {
	if i.ProductID == uuid.Nil {
		return errs.NewValidationError("productId", "must not be empty")
	}
	if i.Quantity <= 0 {
		return errs.NewValidationError("quantity", "must be positive")
	}
	if i.UnitPrice.IsNegative() {
		return errs.NewValidationError("unitPrice", "must not be negative")
	}
	return nil
}

// RecordDispense applies a machine-reported fulfillment outcome to the item
func (i *TransactionItem) RecordDispense(status DispenseStatus, quantity int, dispenseErr string, at time.Time) error {
	switch status {
	case DispenseRunning, DispenseDone, DispenseFailed, DispensePartial:
	default:
		return errs.NewValidationError("dispenseStatus", "unknown status "+string(status))
	}
	i.DispenseStatus = status
	i.DispensedQuantity = quantity
	i.DispenseError = dispenseErr
	if status != DispenseRunning {
		i.DispensedAt = &at
	}
	return nil
}

// Resolved reports whether the item's dispense outcome is final
func (i *TransactionItem) Resolved() bool {
	switch i.DispenseStatus {
	case DispenseDone, DispenseFailed, DispensePartial:
		return true
	}
	return false
}

// FoldDispenseStatus derives the parent transaction status from the dispense
// outcomes of all its items. Returns the target status and whether every
// item has resolved.
//
// Policy: all dispensed -> completed; a mix of dispensed and failed ->
// partially_refunded; every item failed -> failed (nothing was delivered,
// so no part of the sale stands).
func FoldDispenseStatus(items []TransactionItem) (TransactionStatus, bool) {
	if len(items) == 0 {
		return StatusCompleted, false
	}

	allResolved := true
	dispensed := 0
	failed := 0
	partial := 0
	for i := range items {
		switch items[i].DispenseStatus {
		case DispenseDone:
			dispensed++
		case DispenseFailed:
			failed++
		case DispensePartial:
			partial++
		default:
			allResolved = false
		}
	}

	if !allResolved {
		return "", false
	}

	switch {
	case dispensed == len(items):
		return StatusCompleted, true
	case failed == len(items):
		return StatusFailed, true
	default:
		// at least one failure or partial alongside successes
		return StatusPartiallyRefunded, true
	}
}
