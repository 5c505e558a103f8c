package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/model"
)

// TransactionRepository implements persistence.TransactionRepository using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func metadataToJSON(metadata map[string]any) datatypes.JSON {
	if len(metadata) == 0 {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	return raw
}

func jsonToMetadata(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil
	}
	return metadata
}

// entityToModel converts a transaction entity to a database model
func (r *TransactionRepository) entityToModel(transaction *entity.Transaction) model.Transaction {
	m := model.Transaction{
		ID:                    transaction.ID,
		OrganizationID:        transaction.OrganizationID,
		MachineID:             transaction.MachineID,
		ContractID:            transaction.ContractID,
		Type:                  string(transaction.Type),
		Status:                string(transaction.Status),
		PaymentMethod:         string(transaction.PaymentMethod),
		Amount:                transaction.Amount,
		VATAmount:             transaction.VATAmount,
		DiscountAmount:        transaction.DiscountAmount,
		TotalAmount:           transaction.TotalAmount,
		Currency:              transaction.Currency,
		ExternalRef:           transaction.ExternalRef,
		OriginalTransactionID: transaction.OriginalTransactionID,
		RefundedAmount:        transaction.RefundedAmount,
		RefundReason:          transaction.RefundReason,
		FailureReason:         transaction.FailureReason,
		CancelReason:          transaction.CancelReason,
		FiscalReceiptNumber:   transaction.FiscalReceiptNumber,
		FiscalSign:            transaction.FiscalSign,
		Metadata:              metadataToJSON(transaction.Metadata),
		CreatedAt:             transaction.CreatedAt,
		ProcessedAt:           transaction.ProcessedAt,
		CancelledAt:           transaction.CancelledAt,
		DeletedAt:             transaction.DeletedAt,
	}
	for i := range transaction.Items {
		m.Items = append(m.Items, r.itemToModel(&transaction.Items[i]))
	}
	return m
}

func (r *TransactionRepository) itemToModel(item *entity.TransactionItem) model.TransactionItem {
	return model.TransactionItem{
		ID:                item.ID,
		TransactionID:     item.TransactionID,
		ProductID:         item.ProductID,
		ProductName:       item.ProductName,
		Quantity:          item.Quantity,
		UnitPrice:         item.UnitPrice,
		LineTotal:         item.LineTotal,
		DispenseStatus:    string(item.DispenseStatus),
		DispensedQuantity: item.DispensedQuantity,
		DispenseError:     item.DispenseError,
		DispensedAt:       item.DispensedAt,
	}
}

// modelToEntity converts a database model to a transaction entity
func (r *TransactionRepository) modelToEntity(m *model.Transaction) *entity.Transaction {
	transaction := &entity.Transaction{
		ID:                    m.ID,
		OrganizationID:        m.OrganizationID,
		MachineID:             m.MachineID,
		ContractID:            m.ContractID,
		Type:                  entity.TransactionType(m.Type),
		Status:                entity.TransactionStatus(m.Status),
		PaymentMethod:         entity.PaymentMethod(m.PaymentMethod),
		Amount:                m.Amount,
		VATAmount:             m.VATAmount,
		DiscountAmount:        m.DiscountAmount,
		TotalAmount:           m.TotalAmount,
		Currency:              m.Currency,
		ExternalRef:           m.ExternalRef,
		OriginalTransactionID: m.OriginalTransactionID,
		RefundedAmount:        m.RefundedAmount,
		RefundReason:          m.RefundReason,
		FailureReason:         m.FailureReason,
		CancelReason:          m.CancelReason,
		FiscalReceiptNumber:   m.FiscalReceiptNumber,
		FiscalSign:            m.FiscalSign,
		Metadata:              jsonToMetadata(m.Metadata),
		CreatedAt:             m.CreatedAt,
		ProcessedAt:           m.ProcessedAt,
		CancelledAt:           m.CancelledAt,
		DeletedAt:             m.DeletedAt,
	}
	for i := range m.Items {
		transaction.Items = append(transaction.Items, r.itemToEntity(&m.Items[i]))
	}
	return transaction
}

func (r *TransactionRepository) itemToEntity(m *model.TransactionItem) entity.TransactionItem {
	return entity.TransactionItem{
		ID:                m.ID,
		TransactionID:     m.TransactionID,
		ProductID:         m.ProductID,
		ProductName:       m.ProductName,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		LineTotal:         m.LineTotal,
		DispenseStatus:    entity.DispenseStatus(m.DispenseStatus),
		DispensedQuantity: m.DispensedQuantity,
		DispenseError:     m.DispenseError,
		DispensedAt:       m.DispensedAt,
	}
}

// Create saves a new transaction together with its line items
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	r.logger.Debug("Creating transaction", map[string]any{
		"transaction_id": transaction.ID,
		"machine_id":     transaction.MachineID,
		"type":           transaction.Type,
	})

	transactionModel := r.entityToModel(transaction)

	result := r.db.WithContext(ctx).Create(&transactionModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Duplicate transaction detected", map[string]any{
				"transaction_id": transaction.ID,
				"external_ref":   transaction.ExternalRef,
			})
			return fmt.Errorf("%w: transaction already exists", errs.ErrStateConflict)
		}

		r.logger.Error("Failed to create transaction", map[string]any{
			"transaction_id": transaction.ID,
			"error":          result.Error.Error(),
		})
		return r.errorClassifier.Translate(result.Error)
	}

	r.logger.Info("Transaction created", map[string]any{
		"transaction_id": transaction.ID,
		"machine_id":     transaction.MachineID,
		"total_amount":   transaction.TotalAmount.String(),
	})
	return nil
}

// Update persists the mutable lifecycle fields of an existing transaction
func (r *TransactionRepository) Update(ctx context.Context, transaction *entity.Transaction) error {
	r.logger.Debug("Updating transaction", map[string]any{
		"transaction_id": transaction.ID,
		"status":         transaction.Status,
	})

	transactionModel := r.entityToModel(transaction)

	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", transaction.ID).
		Updates(map[string]interface{}{
			"status":                transactionModel.Status,
			"payment_method":        transactionModel.PaymentMethod,
			"external_ref":          transactionModel.ExternalRef,
			"refunded_amount":       transactionModel.RefundedAmount,
			"refund_reason":         transactionModel.RefundReason,
			"failure_reason":        transactionModel.FailureReason,
			"cancel_reason":         transactionModel.CancelReason,
			"fiscal_receipt_number": transactionModel.FiscalReceiptNumber,
			"fiscal_sign":           transactionModel.FiscalSign,
			"metadata":              transactionModel.Metadata,
			"processed_at":          transactionModel.ProcessedAt,
			"cancelled_at":          transactionModel.CancelledAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update transaction", map[string]any{
			"transaction_id": transaction.ID,
			"error":          result.Error.Error(),
		})
		return r.errorClassifier.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrTransactionNotFound
	}
	return nil
}

// UpdateItem persists the dispense fields of a single line item
func (r *TransactionRepository) UpdateItem(ctx context.Context, item *entity.TransactionItem) error {
	itemModel := r.itemToModel(item)

	result := r.db.WithContext(ctx).Model(&model.TransactionItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"dispense_status":    itemModel.DispenseStatus,
			"dispensed_quantity": itemModel.DispensedQuantity,
			"dispense_error":     itemModel.DispenseError,
			"dispensed_at":       itemModel.DispensedAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update transaction item", map[string]any{
			"item_id": item.ID,
			"error":   result.Error.Error(),
		})
		return r.errorClassifier.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrItemNotFound
	}
	return nil
}

// GetByID retrieves a transaction with its items by internal id
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	var transactionModel model.Transaction

	result := r.db.WithContext(ctx).Preload("Items").First(&transactionModel, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		r.logger.Error("Failed to get transaction", map[string]any{
			"transaction_id": id,
			"error":          result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	return r.modelToEntity(&transactionModel), nil
}

// GetByExternalRef retrieves a transaction by the provider-issued reference
func (r *TransactionRepository) GetByExternalRef(ctx context.Context, externalRef string) (*entity.Transaction, error) {
	if externalRef == "" {
		return nil, errs.ErrTransactionNotFound
	}

	var transactionModel model.Transaction

	result := r.db.WithContext(ctx).Preload("Items").
		First(&transactionModel, "external_ref = ?", externalRef)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		r.logger.Error("Failed to get transaction by external ref", map[string]any{
			"external_ref": externalRef,
			"error":        result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	return r.modelToEntity(&transactionModel), nil
}

// GetItem retrieves a single line item by id
func (r *TransactionRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*entity.TransactionItem, error) {
	var itemModel model.TransactionItem

	result := r.db.WithContext(ctx).First(&itemModel, "id = ?", itemID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrItemNotFound
		}
		r.logger.Error("Failed to get transaction item", map[string]any{
			"item_id": itemID,
			"error":   result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	item := r.itemToEntity(&itemModel)
	return &item, nil
}

// SumRefunds returns the committed refund total against a transaction.
// Failed and cancelled refunds do not count against the refundable balance.
func (r *TransactionRepository) SumRefunds(ctx context.Context, originalTransactionID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select("SUM(total_amount)").
		Where("original_transaction_id = ?", originalTransactionID).
		Where("type = ?", string(entity.TypeRefund)).
		Where("status NOT IN ?", []string{
			string(entity.StatusFailed),
			string(entity.StatusCancelled),
		}).
		Scan(&sum)
	if result.Error != nil {
		r.logger.Error("Failed to sum refunds", map[string]any{
			"transaction_id": originalTransactionID,
			"error":          result.Error.Error(),
		})
		return decimal.Zero, r.errorClassifier.Translate(result.Error)
	}

	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// List returns transactions matching the filter ordered by creation time
func (r *TransactionRepository) List(ctx context.Context, filter persistence.TransactionFilter) ([]entity.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("organization_id = ?", filter.OrganizationID)

	if filter.MachineID != nil {
		query = query.Where("machine_id = ?", *filter.MachineID)
	}
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		query = query.Where("type IN ?", types)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if filter.WithItems {
		query = query.Preload("Items")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var models []model.Transaction
	result := query.Order("created_at ASC").Find(&models)
	if result.Error != nil {
		r.logger.Error("Failed to list transactions", map[string]any{
			"organization_id": filter.OrganizationID,
			"error":           result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	transactions := make([]entity.Transaction, 0, len(models))
	for i := range models {
		transactions = append(transactions, *r.modelToEntity(&models[i]))
	}
	return transactions, nil
}

// FindStaleProcessing returns ids of transactions stuck in processing since
// before the cutoff
func (r *TransactionRepository) FindStaleProcessing(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("status = ?", string(entity.StatusProcessing)).
		Where("created_at < ?", before).
		Where("deleted_at IS NULL").
		Order("created_at ASC").
		Pluck("id", &ids)
	if result.Error != nil {
		r.logger.Error("Failed to find stale processing transactions", map[string]any{
			"cutoff": before,
			"error":  result.Error.Error(),
		})
		return nil, r.errorClassifier.Translate(result.Error)
	}

	return ids, nil
}

// SoftDelete marks a transaction as administratively removed
func (r *TransactionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Update("deleted_at", time.Now().UTC())

	if result.Error != nil {
		r.logger.Error("Failed to soft delete transaction", map[string]any{
			"transaction_id": id,
			"error":          result.Error.Error(),
		})
		return r.errorClassifier.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrTransactionNotFound
	}

	r.logger.Info("Transaction soft deleted", map[string]any{"transaction_id": id})
	return nil
}
