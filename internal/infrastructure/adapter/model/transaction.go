package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Transaction represents the database model for transactions
type Transaction struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_txn_org_created"`
	MachineID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ContractID     *uuid.UUID `gorm:"type:uuid;index"`
	Type           string     `gorm:"not null;size:50;index"`
	Status         string     `gorm:"not null;size:50;index"`
	PaymentMethod  string     `gorm:"size:50"`

	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	VATAmount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Currency       string          `gorm:"not null;size:3"`

	ExternalRef string `gorm:"uniqueIndex:idx_txn_external_ref,where:external_ref <> '';size:255"`

	OriginalTransactionID *uuid.UUID      `gorm:"type:uuid;index"`
	RefundedAmount        decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	RefundReason          string          `gorm:"type:text"`

	FailureReason string `gorm:"type:text"`
	CancelReason  string `gorm:"type:text"`

	FiscalReceiptNumber string         `gorm:"size:100"`
	FiscalSign          string         `gorm:"size:255"`
	Metadata            datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt   time.Time `gorm:"not null;index:idx_txn_org_created"`
	ProcessedAt *time.Time
	CancelledAt *time.Time
	DeletedAt   *time.Time `gorm:"index"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionItem represents the database model for transaction line items
type TransactionItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName   string          `gorm:"size:255"`
	Quantity      int             `gorm:"not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(20,2);not null"`

	DispenseStatus    string `gorm:"not null;size:50"`
	DispensedQuantity int    `gorm:"not null;default:0"`
	DispenseError     string `gorm:"type:text"`
	DispensedAt       *time.Time
}

// TableName specifies the table name for TransactionItem
func (TransactionItem) TableName() string {
	return "transaction_items"
}
