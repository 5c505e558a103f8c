package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/vendtrack/vending-core/internal/domain/error"
	tport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// significantDiscrepancyPercent is the threshold above which a collection
// discrepancy is flagged for review
var significantDiscrepancyPercent = decimal.NewFromInt(5)

// CollectionRecord is one physical cash collection from a machine,
// reconciled against the machine's own counters when they are available.
// Difference fields are computed once at creation and never recomputed.
type CollectionRecord struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	MachineID      uuid.UUID
	CollectorID    uuid.UUID

	ActualCash  decimal.Decimal
	ActualCoin  decimal.Decimal
	ActualTotal decimal.Decimal

	ExpectedCash  *decimal.Decimal
	ExpectedCoin  *decimal.Decimal
	ExpectedTotal *decimal.Decimal

	CounterBefore *int64
	CounterAfter  *int64

	Difference        *decimal.Decimal
	DifferencePercent *decimal.Decimal

	Notes      string
	IsVerified bool
	VerifiedBy *uuid.UUID
	VerifiedAt *time.Time

	CreatedAt time.Time
}

// NewCollectionRecordInput carries the declared and machine-reported figures
type NewCollectionRecordInput struct {
	OrganizationID uuid.UUID
	MachineID      uuid.UUID
	CollectorID    uuid.UUID
	ActualCash     decimal.Decimal
	ActualCoin     decimal.Decimal
	ActualTotal    decimal.Decimal
	ExpectedCash   *decimal.Decimal
	ExpectedCoin   *decimal.Decimal
	ExpectedTotal  *decimal.Decimal
	CounterBefore  *int64
	CounterAfter   *int64
	Notes          string
}

// NewCollectionRecord builds a collection record, computing the discrepancy
// against machine-reported expectations when they are supplied.
func NewCollectionRecord(in NewCollectionRecordInput, timeProvider tport.TimeProvider) (*CollectionRecord, error) {
	if in.MachineID == uuid.Nil {
		return nil, errs.NewValidationError("machineId", "must not be empty")
	}
	if in.CollectorID == uuid.Nil {
		return nil, errs.NewValidationError("collectorId", "must not be empty")
	}
	if in.ActualTotal.IsNegative() || in.ActualCash.IsNegative() || in.ActualCoin.IsNegative() {
		return nil, errs.NewValidationError("actualTotal", "must not be negative")
	}

	rec := &CollectionRecord{
		ID:             uuid.New(),
		OrganizationID: in.OrganizationID,
		MachineID:      in.MachineID,
		CollectorID:    in.CollectorID,
		ActualCash:     in.ActualCash,
		ActualCoin:     in.ActualCoin,
		ActualTotal:    in.ActualTotal,
		ExpectedCash:   in.ExpectedCash,
		ExpectedCoin:   in.ExpectedCoin,
		ExpectedTotal:  in.ExpectedTotal,
		CounterBefore:  in.CounterBefore,
		CounterAfter:   in.CounterAfter,
		Notes:          in.Notes,
		CreatedAt:      timeProvider.Now(),
	}

	if in.ExpectedTotal != nil {
		diff := in.ActualTotal.Sub(*in.ExpectedTotal)
		rec.Difference = &diff
		if !in.ExpectedTotal.IsZero() {
			pct := diff.Div(*in.ExpectedTotal).Mul(decimal.NewFromInt(100)).Round(2)
			rec.DifferencePercent = &pct
		}
	}
	return rec, nil
}

// HasDiscrepancy reports whether the declared total differs from the
// machine-reported expectation at all
func (c *CollectionRecord) HasDiscrepancy() bool {
	return c.Difference != nil && !c.Difference.IsZero()
}

// IsSignificantDiscrepancy reports whether the discrepancy exceeds the
// review threshold of 5 percent in either direction
func (c *CollectionRecord) IsSignificantDiscrepancy() bool {
	return c.DifferencePercent != nil &&
		c.DifferencePercent.Abs().GreaterThan(significantDiscrepancyPercent)
}

// Verify marks the record as checked by a second actor. Verification is
// one-way and must be performed by someone other than the collector.
func (c *CollectionRecord) Verify(verifierID uuid.UUID, notes string, timeProvider tport.TimeProvider) error {
	if c.IsVerified {
		return errs.ErrAlreadyVerified
	}
	if verifierID == uuid.Nil {
		return errs.NewValidationError("verifierId", "must not be empty")
	}
	if verifierID == c.CollectorID {
		return errs.NewValidationError("verifierId", "collector cannot verify their own collection")
	}

	now := timeProvider.Now()
	c.IsVerified = true
	c.VerifiedBy = &verifierID
	c.VerifiedAt = &now
	if notes != "" {
		if c.Notes != "" {
			c.Notes = strings.TrimRight(c.Notes, "\n") + "\n" + notes
		} else {
			c.Notes = notes
		}
	}
	return nil
}
