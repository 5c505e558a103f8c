package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendtrack/vending-core/internal/domain/entity"
)

// CommissionRepository defines methods to interact with commission records
type CommissionRepository interface {
	// Create saves a new commission record
	Create(ctx context.Context, commission *entity.Commission) error

	// Update persists status fields of an existing commission
	//
	// Possible errors:
	// - ErrCommissionNotFound: If the commission doesn't exist
	Update(ctx context.Context, commission *entity.Commission) error

	// GetByID retrieves a commission by id
	//
	// Possible errors:
	// - ErrCommissionNotFound: If the commission doesn't exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Commission, error)

	// ExistsForPeriod reports whether a non-cancelled commission already
	// covers the contract and period window. Guards against double
	// calculation.
	ExistsForPeriod(ctx context.Context, contractID uuid.UUID, periodStart, periodEnd time.Time) (bool, error)

	// ListByOrganization returns commissions for an organization
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]entity.Commission, error)
}
