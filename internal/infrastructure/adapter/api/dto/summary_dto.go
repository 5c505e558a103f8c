package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
)

// RebuildSummaryRequest is the body for triggering a summary rebuild
type RebuildSummaryRequest struct {
	OrganizationID uuid.UUID  `json:"organizationId" binding:"required"`
	Date           string     `json:"date" binding:"required"` // YYYY-MM-DD
	MachineID      *uuid.UUID `json:"machineId,omitempty"`
}

// HourlyStatResponse is one slot of the hourly histogram
type HourlyStatResponse struct {
	Hour    int             `json:"hour"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ProductStatResponse is one entry of the top-products ranking
type ProductStatResponse struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// SummaryResponse is the API representation of a daily summary
type SummaryResponse struct {
	ID               uuid.UUID             `json:"id"`
	OrganizationID   uuid.UUID             `json:"organizationId"`
	MachineID        *uuid.UUID            `json:"machineId,omitempty"`
	Date             string                `json:"date"`
	SaleCount        int                   `json:"saleCount"`
	SaleAmount       decimal.Decimal       `json:"saleAmount"`
	RefundCount      int                   `json:"refundCount"`
	RefundAmount     decimal.Decimal       `json:"refundAmount"`
	CollectionCount  int                   `json:"collectionCount"`
	CollectionAmount decimal.Decimal       `json:"collectionAmount"`
	ExpenseCount     int                   `json:"expenseCount"`
	ExpenseAmount    decimal.Decimal       `json:"expenseAmount"`
	CashAmount       decimal.Decimal       `json:"cashAmount"`
	CardAmount       decimal.Decimal       `json:"cardAmount"`
	WalletAmount     decimal.Decimal       `json:"walletAmount"`
	TransactionCount int                   `json:"transactionCount"`
	NetAmount        decimal.Decimal       `json:"netAmount"`
	HourlyStats      []HourlyStatResponse  `json:"hourlyStats"`
	TopProducts      []ProductStatResponse `json:"topProducts"`
	GeneratedAt      time.Time             `json:"generatedAt"`
}

// ToSummaryResponse maps a daily summary entity to its API representation
func ToSummaryResponse(summary *entity.TransactionDailySummary) SummaryResponse {
	resp := SummaryResponse{
		ID:               summary.ID,
		OrganizationID:   summary.OrganizationID,
		MachineID:        summary.MachineID,
		Date:             summary.Date.Format("2006-01-02"),
		SaleCount:        summary.SaleCount,
		SaleAmount:       summary.SaleAmount,
		RefundCount:      summary.RefundCount,
		RefundAmount:     summary.RefundAmount,
		CollectionCount:  summary.CollectionCount,
		CollectionAmount: summary.CollectionAmount,
		ExpenseCount:     summary.ExpenseCount,
		ExpenseAmount:    summary.ExpenseAmount,
		CashAmount:       summary.CashAmount,
		CardAmount:       summary.CardAmount,
		WalletAmount:     summary.WalletAmount,
		TransactionCount: summary.TransactionCount,
		NetAmount:        summary.NetAmount,
		GeneratedAt:      summary.GeneratedAt,
	}
	for _, h := range summary.HourlyStats {
		resp.HourlyStats = append(resp.HourlyStats, HourlyStatResponse(h))
	}
	for _, p := range summary.TopProducts {
		resp.TopProducts = append(resp.TopProducts, ProductStatResponse(p))
	}
	return resp
}
