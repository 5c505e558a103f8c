package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/model"
)

// CollectionRepository implements persistence.CollectionRepository using GORM
type CollectionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewCollectionRepository creates a new CollectionRepository instance
func NewCollectionRepository(db *gorm.DB, logger coreport.Logger) *CollectionRepository {
	return &CollectionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *CollectionRepository) entityToModel(record *entity.CollectionRecord) model.CollectionRecord {
	return model.CollectionRecord{
		ID:                record.ID,
		OrganizationID:    record.OrganizationID,
		MachineID:         record.MachineID,
		CollectorID:       record.CollectorID,
		ActualCash:        record.ActualCash,
		ActualCoin:        record.ActualCoin,
		ActualTotal:       record.ActualTotal,
		ExpectedCash:      record.ExpectedCash,
		ExpectedCoin:      record.ExpectedCoin,
		ExpectedTotal:     record.ExpectedTotal,
		CounterBefore:     record.CounterBefore,
		CounterAfter:      record.CounterAfter,
		Difference:        record.Difference,
		DifferencePercent: record.DifferencePercent,
		Notes:             record.Notes,
		IsVerified:        record.IsVerified,
		VerifiedBy:        record.VerifiedBy,
		VerifiedAt:        record.VerifiedAt,
		CreatedAt:         record.CreatedAt,
	}
}

func (r *CollectionRepository) modelToEntity(m *model.CollectionRecord) *entity.CollectionRecord {
	return &entity.CollectionRecord{
		ID:                m.ID,
		OrganizationID:    m.OrganizationID,
		MachineID:         m.MachineID,
		CollectorID:       m.CollectorID,
		ActualCash:        m.ActualCash,
		ActualCoin:        m.ActualCoin,
		ActualTotal:       m.ActualTotal,
		ExpectedCash:      m.ExpectedCash,
		ExpectedCoin:      m.ExpectedCoin,
		ExpectedTotal:     m.ExpectedTotal,
		CounterBefore:     m.CounterBefore,
		CounterAfter:      m.CounterAfter,
		Difference:        m.Difference,
		DifferencePercent: m.DifferencePercent,
		Notes:             m.Notes,
		IsVerified:        m.IsVerified,
		VerifiedBy:        m.VerifiedBy,
		VerifiedAt:        m.VerifiedAt,
		CreatedAt:         m.CreatedAt,
	}
}

// Create saves a new collection record
func (r *CollectionRepository) Create(ctx context.Context, record *entity.CollectionRecord) error {
	r.logger.Debug("Creating collection record", map[string]any{
		"collection_id": record.ID,
		"machine_id":    record.MachineID,
	})

	recordModel := r.entityToModel(record)

	result := r.db.WithContext(ctx).Create(&recordModel)
	if result.Error != nil {
		r.logger.Error("Failed to create collection record", map[string]any{
			"collection_id": record.ID,
			"error":         result.Error.Error(),
		})
		return r.errorClassifier.Translate(result.Error)
	}

	r.logger.Info("Collection record created", map[string]any{
		"collection_id": record.ID,
		"machine_id":    record.MachineID,
		"actual_total":  record.ActualTotal.String(),
	})
	return nil
}

// Update persists verification fields of an existing record
func (r *CollectionRepository) Update(ctx context.Context, record *entity.CollectionRecord) error {
	recordModel := r.entityToModel(record)

	result := r.db.WithContext(ctx).Model(&model.CollectionRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"notes":       recordModel.Notes,
			"is_verified": recordModel.IsVerified,
			"verified_by": recordModel.VerifiedBy,
			"verified_at": recordModel.VerifiedAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update collection record", map[string]any{
			"collection_id": record.ID,
			"error":         result.Error.Error(),
		})
		return r.errorClassifier.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrCollectionNotFound
	}
	return nil
}

// GetByID retrieves a collection record by id
func (r *CollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CollectionRecord, error) {
	var recordModel model.CollectionRecord

	result := r.db.WithContext(ctx).First(&recordModel, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCollectionNotFound
		}
		r.logger.Error("Failed to get collection record", map[string]any{
			"collection_id": id,
			"error":         result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	return r.modelToEntity(&recordModel), nil
}

// List returns collection records matching the filter, newest first
func (r *CollectionRepository) List(ctx context.Context, filter persistence.CollectionFilter) ([]entity.CollectionRecord, error) {
	query := r.db.WithContext(ctx).Model(&model.CollectionRecord{}).
		Where("organization_id = ?", filter.OrganizationID)

	if filter.MachineID != nil {
		query = query.Where("machine_id = ?", *filter.MachineID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if filter.OnlyUnverified {
		query = query.Where("is_verified = ?", false)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var models []model.CollectionRecord
	result := query.Order("created_at DESC").Find(&models)
	if result.Error != nil {
		r.logger.Error("Failed to list collection records", map[string]any{
			"organization_id": filter.OrganizationID,
			"error":           result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	records := make([]entity.CollectionRecord, 0, len(models))
	for i := range models {
		records = append(records, *r.modelToEntity(&models[i]))
	}
	return records, nil
}
