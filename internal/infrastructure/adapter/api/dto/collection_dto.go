package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
)

// CreateCollectionRequest is the body for recording a cash collection
type CreateCollectionRequest struct {
	OrganizationID uuid.UUID        `json:"organizationId" binding:"required"`
	MachineID      uuid.UUID        `json:"machineId" binding:"required"`
	CollectorID    uuid.UUID        `json:"collectorId" binding:"required"`
	ActualCash     decimal.Decimal  `json:"actualCash"`
	ActualCoin     decimal.Decimal  `json:"actualCoin"`
	ActualTotal    decimal.Decimal  `json:"actualTotal" binding:"required"`
	ExpectedCash   *decimal.Decimal `json:"expectedCash,omitempty"`
	ExpectedCoin   *decimal.Decimal `json:"expectedCoin,omitempty"`
	ExpectedTotal  *decimal.Decimal `json:"expectedTotal,omitempty"`
	CounterBefore  *int64           `json:"counterBefore,omitempty"`
	CounterAfter   *int64           `json:"counterAfter,omitempty"`
	Notes          string           `json:"notes"`
}

// VerifyCollectionRequest is the body for verifying a collection record
type VerifyCollectionRequest struct {
	Notes string `json:"notes"`
}

// CollectionResponse is the API representation of a collection record
type CollectionResponse struct {
	ID                uuid.UUID        `json:"id"`
	OrganizationID    uuid.UUID        `json:"organizationId"`
	MachineID         uuid.UUID        `json:"machineId"`
	CollectorID       uuid.UUID        `json:"collectorId"`
	ActualCash        decimal.Decimal  `json:"actualCash"`
	ActualCoin        decimal.Decimal  `json:"actualCoin"`
	ActualTotal       decimal.Decimal  `json:"actualTotal"`
	ExpectedCash      *decimal.Decimal `json:"expectedCash,omitempty"`
	ExpectedCoin      *decimal.Decimal `json:"expectedCoin,omitempty"`
	ExpectedTotal     *decimal.Decimal `json:"expectedTotal,omitempty"`
	CounterBefore     *int64           `json:"counterBefore,omitempty"`
	CounterAfter      *int64           `json:"counterAfter,omitempty"`
	Difference        *decimal.Decimal `json:"difference,omitempty"`
	DifferencePercent *decimal.Decimal `json:"differencePercent,omitempty"`
	HasDiscrepancy    bool             `json:"hasDiscrepancy"`
	Notes             string           `json:"notes,omitempty"`
	IsVerified        bool             `json:"isVerified"`
	VerifiedBy        *uuid.UUID       `json:"verifiedBy,omitempty"`
	VerifiedAt        *time.Time       `json:"verifiedAt,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// ToCollectionResponse maps a collection record entity to its API representation
func ToCollectionResponse(rec *entity.CollectionRecord) CollectionResponse {
	return CollectionResponse{
		ID:                rec.ID,
		OrganizationID:    rec.OrganizationID,
		MachineID:         rec.MachineID,
		CollectorID:       rec.CollectorID,
		ActualCash:        rec.ActualCash,
		ActualCoin:        rec.ActualCoin,
		ActualTotal:       rec.ActualTotal,
		ExpectedCash:      rec.ExpectedCash,
		ExpectedCoin:      rec.ExpectedCoin,
		ExpectedTotal:     rec.ExpectedTotal,
		CounterBefore:     rec.CounterBefore,
		CounterAfter:      rec.CounterAfter,
		Difference:        rec.Difference,
		DifferencePercent: rec.DifferencePercent,
		HasDiscrepancy:    rec.HasDiscrepancy(),
		Notes:             rec.Notes,
		IsVerified:        rec.IsVerified,
		VerifiedBy:        rec.VerifiedBy,
		VerifiedAt:        rec.VerifiedAt,
		CreatedAt:         rec.CreatedAt,
	}
}

// CollectionListResponse wraps a page of collection records
type CollectionListResponse struct {
	Collections []CollectionResponse `json:"collections"`
	Count       int                  `json:"count"`
}
