package persistence

import (
	"context"
)

// UnitOfWork defines an interface for coordinating operations across
// multiple repositories inside one database transaction
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// GetTransactionRepository returns a transaction repository bound to the current transaction
	GetTransactionRepository(ctx context.Context) TransactionRepository

	// GetCollectionRepository returns a collection repository bound to the current transaction
	GetCollectionRepository(ctx context.Context) CollectionRepository

	// GetSummaryRepository returns a summary repository bound to the current transaction
	GetSummaryRepository(ctx context.Context) SummaryRepository

	// GetCommissionRepository returns a commission repository bound to the current transaction
	GetCommissionRepository(ctx context.Context) CommissionRepository

	// GetOutboxRepository returns an outbox repository bound to the current transaction
	GetOutboxRepository(ctx context.Context) OutboxRepository
}
