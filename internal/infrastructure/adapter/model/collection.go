package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionRecord represents the database model for cash collections
type CollectionRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	MachineID      uuid.UUID `gorm:"type:uuid;not null;index:idx_coll_machine_created"`
	CollectorID    uuid.UUID `gorm:"type:uuid;not null"`

	ActualCash  decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	ActualCoin  decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	ActualTotal decimal.Decimal `gorm:"type:decimal(20,2);not null"`

	ExpectedCash  *decimal.Decimal `gorm:"type:decimal(20,2)"`
	ExpectedCoin  *decimal.Decimal `gorm:"type:decimal(20,2)"`
	ExpectedTotal *decimal.Decimal `gorm:"type:decimal(20,2)"`

	CounterBefore *int64
	CounterAfter  *int64

	Difference        *decimal.Decimal `gorm:"type:decimal(20,2)"`
	DifferencePercent *decimal.Decimal `gorm:"type:decimal(10,2)"`

	Notes      string     `gorm:"type:text"`
	IsVerified bool       `gorm:"not null;default:false"`
	VerifiedBy *uuid.UUID `gorm:"type:uuid"`
	VerifiedAt *time.Time

	CreatedAt time.Time `gorm:"not null;index:idx_coll_machine_created"`
}

// TableName specifies the table name for CollectionRecord
func (CollectionRecord) TableName() string {
	return "collection_records"
}
