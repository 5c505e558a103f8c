package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionDailySummary is a fully derived per-day rollup, unique per
// (organization, date, machine-or-nil). Every rebuild overwrites all derived
// fields from the current transaction set; it is never merged incrementally.
type TransactionDailySummary struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	MachineID      *uuid.UUID
	Date           time.Time

	SaleCount       int
	SaleAmount      decimal.Decimal
	RefundCount     int
	RefundAmount    decimal.Decimal
	CollectionCount int
	CollectionAmount decimal.Decimal
	ExpenseCount    int
	ExpenseAmount   decimal.Decimal

	CashAmount   decimal.Decimal
	CardAmount   decimal.Decimal
	WalletAmount decimal.Decimal

	TransactionCount int
	NetAmount        decimal.Decimal

	HourlyStats []HourlyStat
	TopProducts []ProductStat

	GeneratedAt time.Time
}

// HourlyStat is one slot of the 24-hour count/revenue histogram
type HourlyStat struct {
	Hour    int             `json:"hour"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ProductStat is one entry of the top-products-by-revenue ranking
type ProductStat struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// DayWindow returns the half-open calendar-day window [start, end) that a
// summary covers, in the given location.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
