package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/vendtrack/vending-core/internal/domain/error"
	tport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// TransactionType classifies the financial purpose of a transaction
type TransactionType string

// Transaction types
const (
	TypeSale       TransactionType = "sale"
	TypeRefund     TransactionType = "refund"
	TypeCollection TransactionType = "collection"
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeAdjustment TransactionType = "adjustment"
	TypeCommission TransactionType = "commission"
	TypeExpense    TransactionType = "expense"
)

// TransactionStatus defines possible lifecycle states for a transaction
type TransactionStatus string

// TransactionStatus constants
const (
	StatusPending           TransactionStatus = "pending"
	StatusProcessing        TransactionStatus = "processing"
	StatusCompleted         TransactionStatus = "completed"
	StatusFailed            TransactionStatus = "failed"
	StatusRefunded          TransactionStatus = "refunded"
	StatusCancelled         TransactionStatus = "cancelled"
	StatusPartiallyRefunded TransactionStatus = "partially_refunded"
)

// PaymentMethod identifies how a transaction was paid
type PaymentMethod string

// Payment methods
const (
	MethodCash       PaymentMethod = "cash"
	MethodUzcard     PaymentMethod = "uzcard"
	MethodHumo       PaymentMethod = "humo"
	MethodVisa       PaymentMethod = "visa"
	MethodMastercard PaymentMethod = "mastercard"
	MethodPayme      PaymentMethod = "payme"
	MethodClick      PaymentMethod = "click"
	MethodUzum       PaymentMethod = "uzum"
)

// PaymentFamily groups payment methods for reporting buckets
type PaymentFamily string

// Payment families
const (
	FamilyCash   PaymentFamily = "cash"
	FamilyCard   PaymentFamily = "card"
	FamilyWallet PaymentFamily = "wallet"
)

// PaymentProvider identifies an external payment gateway
type PaymentProvider string

// Payment providers
const (
	ProviderPayme PaymentProvider = "payme"
	ProviderClick PaymentProvider = "click"
	ProviderUzum  PaymentProvider = "uzum"
)

// transitions defines the legal state machine edges.
// pending -> processing -> {completed, failed}
// completed -> {refunded, partially_refunded}
// {pending, processing} -> cancelled
var transitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:  {StatusRefunded, StatusPartiallyRefunded},
	// partially_refunded can still absorb further refunds up to the full total
	StatusPartiallyRefunded: {StatusRefunded, StatusPartiallyRefunded},
}

// CanTransition reports whether moving from one status to another is legal
func CanTransition(from, to TransactionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further payment-side transitions.
// Completed is terminal for payment settlement but may still be refunded.
func IsTerminal(status TransactionStatus) bool {
	switch status {
	case StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Transaction is a single sale attempt (or refund, collection, etc.) on a machine
type Transaction struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	MachineID      uuid.UUID
	ContractID     *uuid.UUID
	Type           TransactionType
	Status         TransactionStatus
	PaymentMethod  PaymentMethod

	Amount         decimal.Decimal
	VATAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       string

	// ExternalRef is the provider-issued transaction identifier. Webhooks
	// join on this field, never on the internal id.
	ExternalRef string

	// OriginalTransactionID links a refund back to the sale it reverses
	OriginalTransactionID *uuid.UUID
	RefundedAmount        decimal.Decimal
	RefundReason          string

	FailureReason string
	CancelReason  string

	FiscalReceiptNumber string
	FiscalSign          string
	Metadata            map[string]any

	Items []TransactionItem

	CreatedAt   time.Time
	ProcessedAt *time.Time
	CancelledAt *time.Time
	DeletedAt   *time.Time
}

// NewSaleTransaction creates a pending sale with its line items.
// Amounts are derived from the items; no payment has occurred yet.
func NewSaleTransaction(
	organizationID, machineID uuid.UUID,
	items []TransactionItem,
	currency string,
	timeProvider tport.TimeProvider,
) (*Transaction, error) {
	if organizationID == uuid.Nil {
		return nil, errs.NewValidationError("organizationId", "must not be empty")
	}
	if machineID == uuid.Nil {
		return nil, errs.NewValidationError("machineId", "must not be empty")
	}
	if len(items) == 0 {
		return nil, errs.NewValidationError("items", "at least one line item is required")
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	txn := &Transaction{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		MachineID:      machineID,
		Type:           TypeSale,
		Status:         StatusPending,
		Currency:       currency,
		Amount:         decimal.Zero,
		VATAmount:      decimal.Zero,
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.Zero,
		RefundedAmount: decimal.Zero,
		CreatedAt:      timeProvider.Now(),
	}

	for i := range items {
		item := items[i]
		if err := item.validate(); err != nil {
			return nil, err
		}
		item.ID = uuid.New()
		item.TransactionID = txn.ID
		item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.DispenseStatus = DispensePending
		txn.Amount = txn.Amount.Add(item.LineTotal)
		txn.Items = append(txn.Items, item)
	}
	txn.TotalAmount = txn.Amount.Add(txn.VATAmount).Sub(txn.DiscountAmount)

	if txn.TotalAmount.IsNegative() {
		return nil, errs.NewValidationError("totalAmount", "must not be negative")
	}
	return txn, nil
}

// BeginProcessing moves the transaction into asynchronous payment capture
func (t *Transaction) BeginProcessing(method PaymentMethod, externalRef string) error {
	if t.Status != StatusPending {
		return errs.NewStateConflictError(t.ID.String(), string(t.Status), "process payment for")
	}
	t.PaymentMethod = method
	t.ExternalRef = externalRef
	t.Status = StatusProcessing
	return nil
}

// SettleCash settles a cash payment synchronously. Cash is captured at
// dispense time, so there is no external confirmation step.
func (t *Transaction) SettleCash(timeProvider tport.TimeProvider) error {
	if t.Status != StatusPending {
		return errs.NewStateConflictError(t.ID.String(), string(t.Status), "process payment for")
	}
	now := timeProvider.Now()
	t.PaymentMethod = MethodCash
	t.Status = StatusCompleted
	t.ProcessedAt = &now
	return nil
}

// MarkCompleted records successful payment settlement
func (t *Transaction) MarkCompleted(timeProvider tport.TimeProvider) error {
	if !CanTransition(t.Status, StatusCompleted) {
		return errs.NewStateConflictError(t.ID.String(), string(t.Status), "complete")
	}
	now := timeProvider.Now()
	t.Status = StatusCompleted
	t.ProcessedAt = &now
	return nil
}

// MarkFailed records failed payment settlement with a reason
func (t *Transaction) MarkFailed(timeProvider tport.TimeProvider, reason string) error {
	if !CanTransition(t.Status, StatusFailed) {
		return errs.NewStateConflictError(t.ID.String(), string(t.Status), "fail")
	}
	now := timeProvider.Now()
	t.Status = StatusFailed
	t.FailureReason = reason
	t.ProcessedAt = &now
	return nil
}

// Cancel is a compensating action on a non-terminal transaction. It does not
// reverse any provider-side capture; that is the refund flow.
func (t *Transaction) Cancel(timeProvider tport.TimeProvider, reason string) error {
	if !CanTransition(t.Status, StatusCancelled) {
		return errs.NewStateConflictError(t.ID.String(), string(t.Status), "cancel")
	}
	now := timeProvider.Now()
	t.Status = StatusCancelled
	t.CancelReason = reason
	t.CancelledAt = &now
	return nil
}

// ApplyDispenseFold sets the status derived from folding over all items.
// Fold edges are wider than the payment graph: a settled transaction can
// still degrade when the hardware fails to deliver.
func (t *Transaction) ApplyDispenseFold(target TransactionStatus, timeProvider tport.TimeProvider) error {
	if t.Status != StatusCompleted && t.Status != StatusProcessing {
		return errs.NewStateConflictError(t.ID.String(), string(t.Status), "apply dispense outcome to")
	}
	switch target {
	case StatusCompleted, StatusPartiallyRefunded:
		t.Status = target
	case StatusFailed:
		t.Status = StatusFailed
		t.FailureReason = "all items failed to dispense"
	default:
		return errs.NewValidationError("status", "unsupported dispense fold target "+string(target))
	}
	if t.ProcessedAt == nil {
		now := timeProvider.Now()
		t.ProcessedAt = &now
	}
	return nil
}

// ApplyRefundTotal sets the cumulative refunded amount and the matching
// status. The caller must pass a freshly recomputed sum of refund children,
// never an incremented counter.
func (t *Transaction) ApplyRefundTotal(refunded decimal.Decimal) error {
	if refunded.GreaterThan(t.TotalAmount) {
		return &errs.RefundError{
			TransactionID:   t.ID.String(),
			TotalAmount:     t.TotalAmount.String(),
			RequestedAmount: refunded.String(),
			RefundedAmount:  t.RefundedAmount.String(),
		}
	}
	t.RefundedAmount = refunded
	if refunded.Equal(t.TotalAmount) {
		t.Status = StatusRefunded
	} else if refunded.IsPositive() {
		t.Status = StatusPartiallyRefunded
	}
	return nil
}

// NewRefundTransaction creates a refund-type transaction linked to the original
func NewRefundTransaction(
	original *Transaction,
	amount decimal.Decimal,
	reason string,
	timeProvider tport.TimeProvider,
) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, errs.NewValidationError("amount", "refund amount must be positive")
	}
	originalID := original.ID
	return &Transaction{
		ID:                    uuid.New(),
		OrganizationID:        original.OrganizationID,
		MachineID:             original.MachineID,
		ContractID:            original.ContractID,
		Type:                  TypeRefund,
		Status:                StatusPending,
		PaymentMethod:         original.PaymentMethod,
		Amount:                amount,
		VATAmount:             decimal.Zero,
		DiscountAmount:        decimal.Zero,
		TotalAmount:           amount,
		RefundedAmount:        decimal.Zero,
		Currency:              original.Currency,
		OriginalTransactionID: &originalID,
		RefundReason:          reason,
		CreatedAt:             timeProvider.Now(),
	}, nil
}

// Family returns the reporting bucket for the transaction's payment method
func (m PaymentMethod) Family() PaymentFamily {
	switch m {
	case MethodCash:
		return FamilyCash
	case MethodUzcard, MethodHumo, MethodVisa, MethodMastercard:
		return FamilyCard
	case MethodPayme, MethodClick, MethodUzum:
		return FamilyWallet
	}
	return FamilyCash
}

// Method returns the payment method a provider settles through
func (p PaymentProvider) Method() PaymentMethod {
	switch p {
	case ProviderPayme:
		return MethodPayme
	case ProviderClick:
		return MethodClick
	case ProviderUzum:
		return MethodUzum
	}
	return PaymentMethod(p)
}

// IsValidProvider validates a provider name
func IsValidProvider(p string) bool {
	switch PaymentProvider(p) {
	case ProviderPayme, ProviderClick, ProviderUzum:
		return true
	}
	return false
}
