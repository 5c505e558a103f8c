package summary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
)

// topProductCount caps the products-by-revenue ranking
const topProductCount = 5

// Service rebuilds per-day financial rollups from ledger data. Every
// rebuild recomputes the whole row from the current transaction set and
// overwrites all derived fields, so reruns converge instead of drifting.
type Service struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	location     *time.Location
}

// NewService creates a new summary service. loc fixes the calendar-day
// boundary; nil means UTC.
func NewService(
	uow persistence.UnitOfWork,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
		location:     loc,
	}
}

// RebuildDailySummary recomputes the summary row for (organization, date,
// machine-or-nil) from scratch and upserts it.
func (s *Service) RebuildDailySummary(ctx context.Context, organizationID uuid.UUID, date time.Time, machineID *uuid.UUID) (*entity.TransactionDailySummary, error) {
	start, end := entity.DayWindow(date, s.location)

	filter := persistence.TransactionFilter{
		OrganizationID: organizationID,
		MachineID:      machineID,
		From:           &start,
		To:             &end,
		WithItems:      true,
	}

	var result *entity.TransactionDailySummary
	err := s.inTx(ctx, func(txCtx context.Context) error {
		txns, err := s.uow.GetTransactionRepository(txCtx).List(txCtx, filter)
		if err != nil {
			return err
		}

		sum := s.compute(organizationID, machineID, start, txns)
		if err := s.uow.GetSummaryRepository(txCtx).Upsert(txCtx, sum); err != nil {
			return err
		}
		result = sum
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Daily summary rebuilt", map[string]any{
		"organization_id":   organizationID.String(),
		"date":              start.Format("2006-01-02"),
		"transaction_count": result.TransactionCount,
		"net_amount":        result.NetAmount.String(),
	})
	return result, nil
}

// RebuildRange rebuilds one summary per day in [from, to]. A single bad day
// is logged and skipped rather than aborting the whole run.
func (s *Service) RebuildRange(ctx context.Context, organizationID uuid.UUID, from, to time.Time, machineID *uuid.UUID) (int, error) {
	if to.Before(from) {
		return 0, fmt.Errorf("invalid range: %s after %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	rebuilt := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if _, err := s.RebuildDailySummary(ctx, organizationID, day, machineID); err != nil {
			s.logger.Warn("Skipping day in summary rebuild", map[string]any{
				"date":  day.Format("2006-01-02"),
				"error": err.Error(),
			})
			continue
		}
		rebuilt++
	}
	return rebuilt, nil
}

// GetDailySummary retrieves an existing summary row
func (s *Service) GetDailySummary(ctx context.Context, organizationID uuid.UUID, date time.Time, machineID *uuid.UUID) (*entity.TransactionDailySummary, error) {
	start, _ := entity.DayWindow(date, s.location)
	return s.uow.GetSummaryRepository(ctx).Get(ctx, organizationID, start, machineID)
}

// compute derives every summary field from the day's transaction set
func (s *Service) compute(
	organizationID uuid.UUID,
	machineID *uuid.UUID,
	day time.Time,
	txns []entity.Transaction,
) *entity.TransactionDailySummary {
	sum := &entity.TransactionDailySummary{
		ID:               uuid.New(),
		OrganizationID:   organizationID,
		MachineID:        machineID,
		Date:             day,
		SaleAmount:       decimal.Zero,
		RefundAmount:     decimal.Zero,
		CollectionAmount: decimal.Zero,
		ExpenseAmount:    decimal.Zero,
		CashAmount:       decimal.Zero,
		CardAmount:       decimal.Zero,
		WalletAmount:     decimal.Zero,
		NetAmount:        decimal.Zero,
		GeneratedAt:      s.timeProvider.Now(),
	}

	hourly := make([]entity.HourlyStat, 24)
	for h := range hourly {
		hourly[h] = entity.HourlyStat{Hour: h, Revenue: decimal.Zero}
	}
	products := map[uuid.UUID]*entity.ProductStat{}

	for i := range txns {
		txn := &txns[i]
		if txn.DeletedAt != nil {
			continue
		}
		sum.TransactionCount++

		switch txn.Type {
		case entity.TypeSale:
			if !saleCounts(txn.Status) {
				continue
			}
			sum.SaleCount++
			sum.SaleAmount = sum.SaleAmount.Add(txn.TotalAmount)
			sum.NetAmount = sum.NetAmount.Add(txn.TotalAmount)

			switch txn.PaymentMethod.Family() {
			case entity.FamilyCash:
				sum.CashAmount = sum.CashAmount.Add(txn.TotalAmount)
			case entity.FamilyCard:
				sum.CardAmount = sum.CardAmount.Add(txn.TotalAmount)
			case entity.FamilyWallet:
				sum.WalletAmount = sum.WalletAmount.Add(txn.TotalAmount)
			}

			hour := txn.CreatedAt.In(s.location).Hour()
			hourly[hour].Count++
			hourly[hour].Revenue = hourly[hour].Revenue.Add(txn.TotalAmount)

			if txn.Status == entity.StatusCompleted {
				for j := range txn.Items {
					item := &txn.Items[j]
					stat, ok := products[item.ProductID]
					if !ok {
						stat = &entity.ProductStat{
							ProductID:   item.ProductID,
							ProductName: item.ProductName,
							Revenue:     decimal.Zero,
						}
						products[item.ProductID] = stat
					}
					stat.Quantity += item.Quantity
					stat.Revenue = stat.Revenue.Add(item.LineTotal)
				}
			}

		case entity.TypeRefund:
			if txn.Status != entity.StatusCompleted {
				continue
			}
			sum.RefundCount++
			sum.RefundAmount = sum.RefundAmount.Add(txn.TotalAmount)
			sum.NetAmount = sum.NetAmount.Sub(txn.TotalAmount)

		case entity.TypeCollection:
			sum.CollectionCount++
			sum.CollectionAmount = sum.CollectionAmount.Add(txn.TotalAmount)

		case entity.TypeExpense:
			sum.ExpenseCount++
			sum.ExpenseAmount = sum.ExpenseAmount.Add(txn.TotalAmount)
			sum.NetAmount = sum.NetAmount.Sub(txn.TotalAmount)
		}
	}

	sum.HourlyStats = hourly
	sum.TopProducts = rankProducts(products)
	return sum
}

// saleCounts reports whether a sale status contributes revenue
func saleCounts(status entity.TransactionStatus) bool {
	switch status {
	case entity.StatusCompleted, entity.StatusRefunded, entity.StatusPartiallyRefunded:
		return true
	}
	return false
}

// rankProducts orders products by revenue descending and keeps the top N.
// Ties break on product id for deterministic reruns.
func rankProducts(products map[uuid.UUID]*entity.ProductStat) []entity.ProductStat {
	ranked := make([]entity.ProductStat, 0, len(products))
	for _, stat := range products {
		ranked = append(ranked, *stat)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Revenue.Equal(ranked[j].Revenue) {
			return ranked[i].Revenue.GreaterThan(ranked[j].Revenue)
		}
		return ranked[i].ProductID.String() < ranked[j].ProductID.String()
	})
	if len(ranked) > topProductCount {
		ranked = ranked[:topProductCount]
	}
	return ranked
}

func (s *Service) inTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(txCtx); err != nil {
		if rbErr := s.uow.Rollback(txCtx); rbErr != nil {
			s.logger.Error("Rollback failed", map[string]any{"error": rbErr.Error()})
		}
		return err
	}
	return s.uow.Commit(txCtx)
}
