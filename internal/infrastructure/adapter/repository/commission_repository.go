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

// CommissionRepository implements persistence.CommissionRepository using GORM
type CommissionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewCommissionRepository creates a new CommissionRepository instance
func NewCommissionRepository(db *gorm.DB, logger coreport.Logger) *CommissionRepository {
	return &CommissionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *CommissionRepository) entityToModel(commission *entity.Commission) model.Commission {
	var details datatypes.JSON
	if raw, err := json.Marshal(commission.CalculationDetails); err == nil {
		details = raw
	}
	return model.Commission{
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
		CalculationDetails: details,
		CalculatedBy:       commission.CalculatedBy,
		CalculatedAt:       commission.CalculatedAt,
		PaidAt:             commission.PaidAt,
		CreatedAt:          commission.CreatedAt,
	}
}

func (r *CommissionRepository) modelToEntity(m *model.Commission) *entity.Commission {
	commission := &entity.Commission{
		ID:               m.ID,
		OrganizationID:   m.OrganizationID,
		ContractID:       m.ContractID,
		PeriodStart:      m.PeriodStart,
		PeriodEnd:        m.PeriodEnd,
		BaseAmount:       m.BaseAmount,
		CommissionRate:   m.CommissionRate,
		CommissionAmount: m.CommissionAmount,
		VATRate:          m.VATRate,
		VATAmount:        m.VATAmount,
		TotalAmount:      m.TotalAmount,
		Status:           entity.CommissionStatus(m.Status),
		CalculatedBy:     m.CalculatedBy,
		CalculatedAt:     m.CalculatedAt,
		PaidAt:           m.PaidAt,
		CreatedAt:        m.CreatedAt,
	}
	if len(m.CalculationDetails) > 0 {
		_ = json.Unmarshal(m.CalculationDetails, &commission.CalculationDetails)
	}
	return commission
}

// Create saves a new commission record
func (r *CommissionRepository) Create(ctx context.Context, commission *entity.Commission) error {
	r.logger.Debug("Creating commission", map[string]any{
		"commission_id": commission.ID,
		"contract_id":   commission.ContractID,
	})

	commissionModel := r.entityToModel(commission)

	result := r.db.WithContext(ctx).Create(&commissionModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			return errs.ErrDuplicateCommission
		}
		r.logger.Error("Failed to create commission", map[string]any{
			"commission_id": commission.ID,
			"error":         result.Error.Error(),
		})
		return r.errorClassifier.Translate(result.Error)
	}

	r.logger.Info("Commission created", map[string]any{
		"commission_id": commission.ID,
		"contract_id":   commission.ContractID,
		"total_amount":  commission.TotalAmount.String(),
	})
	return nil
}

// Update persists status fields of an existing commission
func (r *CommissionRepository) Update(ctx context.Context, commission *entity.Commission) error {
	commissionModel := r.entityToModel(commission)

	result := r.db.WithContext(ctx).Model(&model.Commission{}).
		Where("id = ?", commission.ID).
		Updates(map[string]interface{}{
			"status":  commissionModel.Status,
			"paid_at": commissionModel.PaidAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update commission", map[string]any{
			"commission_id": commission.ID,
			"error":         result.Error.Error(),
		})
		return r.errorClassifier.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrCommissionNotFound
	}
	return nil
}

// GetByID retrieves a commission by id
func (r *CommissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Commission, error) {
	var commissionModel model.Commission

	result := r.db.WithContext(ctx).First(&commissionModel, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCommissionNotFound
		}
		r.logger.Error("Failed to get commission", map[string]any{
			"commission_id": id,
			"error":         result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	return r.modelToEntity(&commissionModel), nil
}

// ExistsForPeriod reports whether a non-cancelled commission already covers
// the contract and period window
func (r *CommissionRepository) ExistsForPeriod(ctx context.Context, contractID uuid.UUID, periodStart, periodEnd time.Time) (bool, error) {
	var count int64

	result := r.db.WithContext(ctx).Model(&model.Commission{}).
		Where("contract_id = ?", contractID).
		Where("period_start = ?", periodStart).
		Where("period_end = ?", periodEnd).
		Where("status <> ?", string(entity.CommissionCancelled)).
		Count(&count)
	if result.Error != nil {
		r.logger.Error("Failed to check commission period", map[string]any{
			"contract_id": contractID,
			"error":       result.Error.Error(),
		})
		return false, r.errorClassifier.Translate(result.Error)
	}

	return count > 0, nil
}

// ListByOrganization returns commissions for an organization, newest first
func (r *CommissionRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]entity.Commission, error) {
	query := r.db.WithContext(ctx).Model(&model.Commission{}).
		Where("organization_id = ?", organizationID)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []model.Commission
	result := query.Order("period_start DESC").Find(&models)
	if result.Error != nil {
		r.logger.Error("Failed to list commissions", map[string]any{
			"organization_id": organizationID,
			"error":           result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	commissions := make([]entity.Commission, 0, len(models))
	for i := range models {
		commissions = append(commissions, *r.modelToEntity(&models[i]))
	}
	return commissions, nil
}
