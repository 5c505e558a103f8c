package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionDailySummary represents the derived per-day rollup table.
// Unique per (organization, date, machine-or-null); every rebuild replaces
// the row wholesale.
type TransactionDailySummary struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_summary_key"`
	Date           time.Time  `gorm:"not null;uniqueIndex:idx_summary_key"`
	MachineID      *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_summary_key"`

	SaleCount        int             `gorm:"not null"`
	SaleAmount       decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	RefundCount      int             `gorm:"not null"`
	RefundAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CollectionCount  int             `gorm:"not null"`
	CollectionAmount decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	ExpenseCount     int             `gorm:"not null"`
	ExpenseAmount    decimal.Decimal `gorm:"type:decimal(20,2);not null"`

	CashAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CardAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	WalletAmount decimal.Decimal `gorm:"type:decimal(20,2);not null"`

	TransactionCount int             `gorm:"not null"`
	NetAmount        decimal.Decimal `gorm:"type:decimal(20,2);not null"`

	HourlyStats datatypes.JSON `gorm:"type:jsonb"`
	TopProducts datatypes.JSON `gorm:"type:jsonb"`

	GeneratedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for TransactionDailySummary
func (TransactionDailySummary) TableName() string {
	return "transaction_daily_summaries"
}
