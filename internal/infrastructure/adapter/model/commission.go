package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Commission represents the database model for partner commissions
type Commission struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	ContractID     uuid.UUID `gorm:"type:uuid;not null;index:idx_commission_period"`
	PeriodStart    time.Time `gorm:"not null;index:idx_commission_period"`
	PeriodEnd      time.Time `gorm:"not null;index:idx_commission_period"`

	BaseAmount       decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	VATRate          decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	VATAmount        decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`

	Status             string         `gorm:"not null;size:50;index"`
	CalculationDetails datatypes.JSON `gorm:"type:jsonb"`
	CalculatedBy       uuid.UUID      `gorm:"type:uuid"`
	CalculatedAt       *time.Time
	PaidAt             *time.Time

	CreatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Commission
func (Commission) TableName() string {
	return "commissions"
}
