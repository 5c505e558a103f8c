package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendtrack/vending-core/internal/domain/entity"
)

// CollectionFilter narrows collection record queries
type CollectionFilter struct {
	OrganizationID uuid.UUID
	MachineID      *uuid.UUID
	From           *time.Time
	To             *time.Time
	OnlyUnverified bool
	Limit          int
	Offset         int
}

// CollectionRepository defines methods to interact with cash collection records
type CollectionRepository interface {
	// Create saves a new collection record
	Create(ctx context.Context, record *entity.CollectionRecord) error

	// Update persists verification fields of an existing record
	//
	// Possible errors:
	// - ErrCollectionNotFound: If the record doesn't exist
	Update(ctx context.Context, record *entity.CollectionRecord) error

	// GetByID retrieves a collection record by id
	//
	// Possible errors:
	// - ErrCollectionNotFound: If the record doesn't exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CollectionRecord, error)

	// List returns collection records matching the filter
	List(ctx context.Context, filter CollectionFilter) ([]entity.CollectionRecord, error)
}
