package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// CreateItemInput is one requested line item
type CreateItemInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CreateTransactionRequest carries the input for recording a sale attempt
type CreateTransactionRequest struct {
	OrganizationID uuid.UUID
	MachineID      uuid.UUID
	ContractID     *uuid.UUID
	Currency       string
	Items          []CreateItemInput
	Metadata       map[string]any
	Actor          uuid.UUID
}

// CreateTransaction records a sale attempt as a pending transaction with its
// line items. No payment has occurred yet.
func (s *Service) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*entity.Transaction, error) {
	if err := s.validator.ValidateActor(req.Actor); err != nil {
		return nil, err
	}

	items := make([]entity.TransactionItem, 0, len(req.Items))
	for _, in := range req.Items {
		items = append(items, entity.TransactionItem{
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
		})
	}

	txn, err := entity.NewSaleTransaction(req.OrganizationID, req.MachineID, items, req.Currency, s.timeProvider)
	if err != nil {
		return nil, err
	}
	txn.ContractID = req.ContractID
	txn.Metadata = req.Metadata

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.uow.GetTransactionRepository(txCtx).Create(txCtx, txn); err != nil {
			return err
		}
		return s.emitTransition(txCtx, coreport.EventTransactionCreated, txn.ID,
			"", txn.Status, req.Actor, map[string]any{
				"machine_id":   txn.MachineID.String(),
				"total_amount": txn.TotalAmount.String(),
				"item_count":   len(txn.Items),
			})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transaction created", map[string]any{
		"transaction_id": txn.ID.String(),
		"machine_id":     txn.MachineID.String(),
		"total_amount":   txn.TotalAmount.String(),
		"item_count":     len(txn.Items),
	})
	return txn, nil
}
