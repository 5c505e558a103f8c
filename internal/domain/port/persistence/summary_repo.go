package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendtrack/vending-core/internal/domain/entity"
)

// SummaryRepository defines methods to interact with daily summary rows
type SummaryRepository interface {
	// Upsert finds-or-creates the unique row for (organization, date,
	// machine-or-nil) and overwrites every derived field. It never merges
	// with a prior computation.
	Upsert(ctx context.Context, summary *entity.TransactionDailySummary) error

	// Get retrieves the summary row for the key, if present
	//
	// Possible errors:
	// - ErrNotFound: If no summary exists for the key
	Get(ctx context.Context, organizationID uuid.UUID, date time.Time, machineID *uuid.UUID) (*entity.TransactionDailySummary, error)
}
