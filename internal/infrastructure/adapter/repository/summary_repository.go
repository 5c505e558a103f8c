package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/model"
)

// SummaryRepository implements persistence.SummaryRepository using GORM
type SummaryRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewSummaryRepository creates a new SummaryRepository instance
func NewSummaryRepository(db *gorm.DB, logger coreport.Logger) *SummaryRepository {
	return &SummaryRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func marshalStats(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func (r *SummaryRepository) entityToModel(summary *entity.TransactionDailySummary) model.TransactionDailySummary {
	return model.TransactionDailySummary{
		ID:               summary.ID,
		OrganizationID:   summary.OrganizationID,
		MachineID:        summary.MachineID,
		Date:             summary.Date,
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
		HourlyStats:      marshalStats(summary.HourlyStats),
		TopProducts:      marshalStats(summary.TopProducts),
		GeneratedAt:      summary.GeneratedAt,
	}
}

func (r *SummaryRepository) modelToEntity(m *model.TransactionDailySummary) *entity.TransactionDailySummary {
	summary := &entity.TransactionDailySummary{
		ID:               m.ID,
		OrganizationID:   m.OrganizationID,
		MachineID:        m.MachineID,
		Date:             m.Date,
		SaleCount:        m.SaleCount,
		SaleAmount:       m.SaleAmount,
		RefundCount:      m.RefundCount,
		RefundAmount:     m.RefundAmount,
		CollectionCount:  m.CollectionCount,
		CollectionAmount: m.CollectionAmount,
		ExpenseCount:     m.ExpenseCount,
		ExpenseAmount:    m.ExpenseAmount,
		CashAmount:       m.CashAmount,
		CardAmount:       m.CardAmount,
		WalletAmount:     m.WalletAmount,
		TransactionCount: m.TransactionCount,
		NetAmount:        m.NetAmount,
		GeneratedAt:      m.GeneratedAt,
	}
	if len(m.HourlyStats) > 0 {
		_ = json.Unmarshal(m.HourlyStats, &summary.HourlyStats)
	}
	if len(m.TopProducts) > 0 {
		_ = json.Unmarshal(m.TopProducts, &summary.TopProducts)
	}
	return summary
}

func (r *SummaryRepository) keyQuery(ctx context.Context, organizationID uuid.UUID, date time.Time, machineID *uuid.UUID) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.TransactionDailySummary{}).
		Where("organization_id = ?", organizationID).
		Where("date = ?", date)
	if machineID != nil {
		return query.Where("machine_id = ?", *machineID)
	}
	return query.Where("machine_id IS NULL")
}

// Upsert finds-or-creates the row for (organization, date, machine-or-null)
// and overwrites every derived field. Rebuilds are full replacements, never
// merges.
func (r *SummaryRepository) Upsert(ctx context.Context, summary *entity.TransactionDailySummary) error {
	r.logger.Debug("Upserting daily summary", map[string]any{
		"organization_id": summary.OrganizationID,
		"date":            summary.Date.Format("2006-01-02"),
	})

	summaryModel := r.entityToModel(summary)

	var existing model.TransactionDailySummary
	result := r.keyQuery(ctx, summary.OrganizationID, summary.Date, summary.MachineID).First(&existing)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			r.logger.Error("Failed to look up daily summary", map[string]any{
				"organization_id": summary.OrganizationID,
				"error":           result.Error.Error(),
			})
			return r.errorClassifier.Translate(result.Error)
		}

		if summaryModel.ID == uuid.Nil {
			summaryModel.ID = uuid.New()
		}
		if createResult := r.db.WithContext(ctx).Create(&summaryModel); createResult.Error != nil {
			r.logger.Error("Failed to create daily summary", map[string]any{
				"organization_id": summary.OrganizationID,
				"error":           createResult.Error.Error(),
			})
			return r.errorClassifier.Translate(createResult.Error)
		}
		summary.ID = summaryModel.ID
		return nil
	}

	updateResult := r.db.WithContext(ctx).Model(&model.TransactionDailySummary{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"sale_count":        summaryModel.SaleCount,
			"sale_amount":       summaryModel.SaleAmount,
			"refund_count":      summaryModel.RefundCount,
			"refund_amount":     summaryModel.RefundAmount,
			"collection_count":  summaryModel.CollectionCount,
			"collection_amount": summaryModel.CollectionAmount,
			"expense_count":     summaryModel.ExpenseCount,
			"expense_amount":    summaryModel.ExpenseAmount,
			"cash_amount":       summaryModel.CashAmount,
			"card_amount":       summaryModel.CardAmount,
			"wallet_amount":     summaryModel.WalletAmount,
			"transaction_count": summaryModel.TransactionCount,
			"net_amount":        summaryModel.NetAmount,
			"hourly_stats":      summaryModel.HourlyStats,
			"top_products":      summaryModel.TopProducts,
			"generated_at":      summaryModel.GeneratedAt,
		})
	if updateResult.Error != nil {
		r.logger.Error("Failed to update daily summary", map[string]any{
			"organization_id": summary.OrganizationID,
			"error":           updateResult.Error.Error(),
		})
		return r.errorClassifier.Translate(updateResult.Error)
	}

	summary.ID = existing.ID
	return nil
}

// Get retrieves the summary row for the key
func (r *SummaryRepository) Get(ctx context.Context, organizationID uuid.UUID, date time.Time, machineID *uuid.UUID) (*entity.TransactionDailySummary, error) {
	var summaryModel model.TransactionDailySummary

	result := r.keyQuery(ctx, organizationID, date, machineID).First(&summaryModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		r.logger.Error("Failed to get daily summary", map[string]any{
			"organization_id": organizationID,
			"error":           result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	return r.modelToEntity(&summaryModel), nil
}
