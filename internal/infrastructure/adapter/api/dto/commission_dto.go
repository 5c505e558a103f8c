package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
)

// CalculateCommissionRequest is the body for calculating a commission period
type CalculateCommissionRequest struct {
	OrganizationID uuid.UUID `json:"organizationId" binding:"required"`
	ContractID     uuid.UUID `json:"contractId" binding:"required"`
	PeriodStart    time.Time `json:"periodStart" binding:"required"`
	PeriodEnd      time.Time `json:"periodEnd" binding:"required"`
}

// CommissionResponse is the API representation of a commission
type CommissionResponse struct {
	ID                 uuid.UUID       `json:"id"`
	OrganizationID     uuid.UUID       `json:"organizationId"`
	ContractID         uuid.UUID       `json:"contractId"`
	PeriodStart        time.Time       `json:"periodStart"`
	PeriodEnd          time.Time       `json:"periodEnd"`
	BaseAmount         decimal.Decimal `json:"baseAmount"`
	CommissionRate     decimal.Decimal `json:"commissionRate"`
	CommissionAmount   decimal.Decimal `json:"commissionAmount"`
	VATRate            decimal.Decimal `json:"vatRate"`
	VATAmount          decimal.Decimal `json:"vatAmount"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	Status             string          `json:"status"`
	TransactionCount   int             `json:"transactionCount"`
	AverageTransaction decimal.Decimal `json:"averageTransaction"`
	CalculatedBy       uuid.UUID       `json:"calculatedBy"`
	CalculatedAt       *time.Time      `json:"calculatedAt,omitempty"`
	PaidAt             *time.Time      `json:"paidAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// ToCommissionResponse maps a commission entity to its API representation
func ToCommissionResponse(commission *entity.Commission) CommissionResponse {
	return CommissionResponse{
		ID:                 commission.ID,
		OrganizationID:     commission.OrganizationID,
		ContractID:         commission.ContractID,
		PeriodStart:        commission.PeriodStart,
		PeriodEnd:          commission.PeriodEnd,
		BaseAmount:         commission.BaseAmount,
		CommissionRate:     commission.CommissionRate,
		CommissionAmount:   commission.CommissionAmount,
		VATRate:            commission.VATRate,
		VATAmount:          commission.VATAmount,
		TotalAmount:        commission.TotalAmount,
		Status:             string(commission.Status),
		TransactionCount:   commission.CalculationDetails.TransactionCount,
		AverageTransaction: commission.CalculationDetails.AverageTransaction,
		CalculatedBy:       commission.CalculatedBy,
		CalculatedAt:       commission.CalculatedAt,
		PaidAt:             commission.PaidAt,
		CreatedAt:          commission.CreatedAt,
	}
}

// CommissionListResponse wraps a page of commissions
type CommissionListResponse struct {
	Commissions []CommissionResponse `json:"commissions"`
	Count       int                  `json:"count"`
}
