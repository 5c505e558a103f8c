package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
)

// CreateItemRequest is one requested line item
type CreateItemRequest struct {
	ProductID   uuid.UUID       `json:"productId" binding:"required"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
}

// CreateTransactionRequest is the body for recording a sale attempt
type CreateTransactionRequest struct {
	OrganizationID uuid.UUID           `json:"organizationId" binding:"required"`
	MachineID      uuid.UUID           `json:"machineId" binding:"required"`
	ContractID     *uuid.UUID          `json:"contractId,omitempty"`
	Currency       string              `json:"currency"`
	Items          []CreateItemRequest `json:"items" binding:"required"`
	Metadata       map[string]any      `json:"metadata,omitempty"`
}

// ProcessPaymentRequest is the body for initiating payment on a transaction.
// Amount is a decimal string; empty means the transaction total.
type ProcessPaymentRequest struct {
	Method      string `json:"method" binding:"required"`
	Amount      string `json:"amount"`
	ExternalRef string `json:"externalRef"`
}

// RecordDispenseRequest is the body for one machine-reported dispense outcome
type RecordDispenseRequest struct {
	ItemID   uuid.UUID `json:"itemId" binding:"required"`
	Outcome  string    `json:"outcome" binding:"required"`
	Quantity int       `json:"quantity"`
	Error    string    `json:"error"`
}

// CreateRefundRequest is the body for the first refund phase. Amount is a
// decimal string with at most two fractional digits.
type CreateRefundRequest struct {
	Amount string `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// CancelTransactionRequest is the body for cancelling a pending transaction
type CancelTransactionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// TransactionItemResponse is one line item in a transaction response
type TransactionItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"productId"`
	ProductName       string          `json:"productName"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	LineTotal         decimal.Decimal `json:"lineTotal"`
	DispenseStatus    string          `json:"dispenseStatus"`
	DispensedQuantity int             `json:"dispensedQuantity"`
	DispenseError     string          `json:"dispenseError,omitempty"`
	DispensedAt       *time.Time      `json:"dispensedAt,omitempty"`
}

// TransactionResponse is the API representation of a transaction
type TransactionResponse struct {
	ID                    uuid.UUID                 `json:"id"`
	OrganizationID        uuid.UUID                 `json:"organizationId"`
	MachineID             uuid.UUID                 `json:"machineId"`
	ContractID            *uuid.UUID                `json:"contractId,omitempty"`
	Type                  string                    `json:"type"`
	Status                string                    `json:"status"`
	PaymentMethod         string                    `json:"paymentMethod,omitempty"`
	Amount                decimal.Decimal           `json:"amount"`
	VATAmount             decimal.Decimal           `json:"vatAmount"`
	DiscountAmount        decimal.Decimal           `json:"discountAmount"`
	TotalAmount           decimal.Decimal           `json:"totalAmount"`
	Currency              string                    `json:"currency"`
	ExternalRef           string                    `json:"externalRef,omitempty"`
	OriginalTransactionID *uuid.UUID                `json:"originalTransactionId,omitempty"`
	RefundedAmount        decimal.Decimal           `json:"refundedAmount"`
	RefundReason          string                    `json:"refundReason,omitempty"`
	FailureReason         string                    `json:"failureReason,omitempty"`
	CancelReason          string                    `json:"cancelReason,omitempty"`
	Items                 []TransactionItemResponse `json:"items,omitempty"`
	CreatedAt             time.Time                 `json:"createdAt"`
	ProcessedAt           *time.Time                `json:"processedAt,omitempty"`
	CancelledAt           *time.Time                `json:"cancelledAt,omitempty"`
}

// ToTransactionResponse maps a transaction entity to its API representation
func ToTransactionResponse(txn *entity.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                    txn.ID,
		OrganizationID:        txn.OrganizationID,
		MachineID:             txn.MachineID,
		ContractID:            txn.ContractID,
		Type:                  string(txn.Type),
		Status:                string(txn.Status),
		PaymentMethod:         string(txn.PaymentMethod),
		Amount:                txn.Amount,
		VATAmount:             txn.VATAmount,
		DiscountAmount:        txn.DiscountAmount,
		TotalAmount:           txn.TotalAmount,
		Currency:              txn.Currency,
		ExternalRef:           txn.ExternalRef,
		OriginalTransactionID: txn.OriginalTransactionID,
		RefundedAmount:        txn.RefundedAmount,
		RefundReason:          txn.RefundReason,
		FailureReason:         txn.FailureReason,
		CancelReason:          txn.CancelReason,
		CreatedAt:             txn.CreatedAt,
		ProcessedAt:           txn.ProcessedAt,
		CancelledAt:           txn.CancelledAt,
	}
	for i := range txn.Items {
		item := &txn.Items[i]
		resp.Items = append(resp.Items, TransactionItemResponse{
			ID:                item.ID,
			ProductID:         item.ProductID,
			ProductName:       item.ProductName,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			LineTotal:         item.LineTotal,
			DispenseStatus:    string(item.DispenseStatus),
			DispensedQuantity: item.DispensedQuantity,
			DispenseError:     item.DispenseError,
			DispensedAt:       item.DispensedAt,
		})
	}
	return resp
}

// TransactionListResponse wraps a page of transactions
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
}
