package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
)

// TransactionFilter narrows transaction queries
type TransactionFilter struct {
	OrganizationID uuid.UUID
	MachineID      *uuid.UUID
	ContractID     *uuid.UUID
	Types          []entity.TransactionType
	Statuses       []entity.TransactionStatus
	// From/To bound CreatedAt as a half-open window [From, To)
	From *time.Time
	To   *time.Time

	WithItems bool
	Limit     int
	Offset    int
}

// TransactionRepository defines essential methods to interact with
// transaction and line-item data
type TransactionRepository interface {
	// Create saves a new transaction together with its items
	//
	// Possible errors:
	// - ErrValidation: If transaction data violates a constraint
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, transaction *entity.Transaction) error

	// Update persists status, payment and refund fields of an existing transaction
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the transaction doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, transaction *entity.Transaction) error

	// UpdateItem persists the dispense fields of a single line item
	//
	// Possible errors:
	// - ErrItemNotFound: If the item doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	UpdateItem(ctx context.Context, item *entity.TransactionItem) error

	// GetByID retrieves a transaction with its items by internal id
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the transaction doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)

	// GetByExternalRef retrieves a transaction by the provider-issued
	// reference. This is the only join key webhooks know.
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no transaction carries the reference
	// - ErrDatabaseConnection: If database connection fails
	GetByExternalRef(ctx context.Context, externalRef string) (*entity.Transaction, error)

	// GetItem retrieves a single line item by id
	//
	// Possible errors:
	// - ErrItemNotFound: If the item doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetItem(ctx context.Context, itemID uuid.UUID) (*entity.TransactionItem, error)

	// SumRefunds returns the committed sum of refund-type children of the
	// given transaction. Used to recompute cumulative refunded amounts from
	// current state rather than trusting an incremented counter.
	SumRefunds(ctx context.Context, originalTransactionID uuid.UUID) (decimal.Decimal, error)

	// List returns transactions matching the filter
	List(ctx context.Context, filter TransactionFilter) ([]entity.Transaction, error)

	// FindStaleProcessing returns ids of transactions stuck in processing
	// since before the given cutoff
	FindStaleProcessing(ctx context.Context, before time.Time) ([]uuid.UUID, error)

	// SoftDelete marks a terminal-state transaction as administratively
	// removed without physically deleting it
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the transaction doesn't exist
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
