package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/vendtrack/vending-core/internal/domain/error"
	tport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// CommissionStatus defines lifecycle states for a commission record
type CommissionStatus string

// Commission statuses
const (
	CommissionPending    CommissionStatus = "pending"
	CommissionCalculated CommissionStatus = "calculated"
	CommissionPaid       CommissionStatus = "paid"
	CommissionCancelled  CommissionStatus = "cancelled"
)

// Commission is the revenue share owed to a contract partner for completed
// sales inside a period window.
type Commission struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ContractID     uuid.UUID
	PeriodStart    time.Time
	PeriodEnd      time.Time

	BaseAmount       decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	VATRate          decimal.Decimal
	VATAmount        decimal.Decimal
	TotalAmount      decimal.Decimal

	Status             CommissionStatus
	CalculationDetails CalculationDetails
	CalculatedBy       uuid.UUID
	CalculatedAt       *time.Time
	PaidAt             *time.Time

	CreatedAt time.Time
}

// CalculationDetails is an immutable snapshot taken at calculation time
type CalculationDetails struct {
	TransactionCount   int             `json:"transactionCount"`
	AverageTransaction decimal.Decimal `json:"averageTransaction"`
}

// CalculateCommission builds a calculated commission from the summed base of
// completed sales in the period. The commission amount is rate * base, VAT
// is applied on top of the commission.
func CalculateCommission(
	organizationID, contractID uuid.UUID,
	periodStart, periodEnd time.Time,
	baseAmount decimal.Decimal,
	transactionCount int,
	commissionRate, vatRate decimal.Decimal,
	calculatedBy uuid.UUID,
	timeProvider tport.TimeProvider,
) (*Commission, error) {
	if !periodEnd.After(periodStart) {
		return nil, errs.NewValidationError("period", "periodEnd must be after periodStart")
	}
	if transactionCount == 0 {
		return nil, errs.ErrEmptyCommissionBase
	}

	commissionAmount := baseAmount.Mul(commissionRate)
	vatAmount := commissionAmount.Mul(vatRate)
	now := timeProvider.Now()

	return &Commission{
		ID:               uuid.New(),
		OrganizationID:   organizationID,
		ContractID:       contractID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		BaseAmount:       baseAmount,
		CommissionRate:   commissionRate,
		CommissionAmount: commissionAmount,
		VATRate:          vatRate,
		VATAmount:        vatAmount,
		TotalAmount:      commissionAmount.Add(vatAmount),
		Status:           CommissionCalculated,
		CalculationDetails: CalculationDetails{
			TransactionCount:   transactionCount,
			AverageTransaction: baseAmount.Div(decimal.NewFromInt(int64(transactionCount))),
		},
		CalculatedBy: calculatedBy,
		CalculatedAt: &now,
		CreatedAt:    now,
	}, nil
}

// MarkPaid records settlement of a calculated commission
func (c *Commission) MarkPaid(timeProvider tport.TimeProvider) error {
	if c.Status != CommissionCalculated {
		return errs.NewStateConflictError(c.ID.String(), string(c.Status), "pay commission")
	}
	now := timeProvider.Now()
	c.Status = CommissionPaid
	c.PaidAt = &now
	return nil
}

// Cancel voids a commission that has not been paid
func (c *Commission) Cancel() error {
	switch c.Status {
	case CommissionPending, CommissionCalculated:
		c.Status = CommissionCancelled
		return nil
	}
	return errs.NewStateConflictError(c.ID.String(), string(c.Status), "cancel commission")
}
