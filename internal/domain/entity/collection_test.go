package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/vendtrack/vending-core/internal/domain/error"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestNewCollectionRecord(t *testing.T) {
	fixedTime := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	clock := &stubClock{now: fixedTime}

	base := NewCollectionRecordInput{
		OrganizationID: uuid.New(),
		MachineID:      uuid.New(),
		CollectorID:    uuid.New(),
		ActualCash:     dec("400000"),
		ActualCoin:     dec("110000"),
		ActualTotal:    dec("510000"),
	}

	t.Run("Small discrepancy below threshold", func(t *testing.T) {
		in := base
		in.ExpectedTotal = decPtr("500000")

		rec, err := NewCollectionRecord(in, clock)
		require.NoError(t, err)

		require.NotNil(t, rec.Difference)
		assert.True(t, rec.Difference.Equal(dec("10000")))
		require.NotNil(t, rec.DifferencePercent)
		assert.True(t, rec.DifferencePercent.Equal(dec("2")), "got %s", rec.DifferencePercent)

		assert.True(t, rec.HasDiscrepancy())
		assert.False(t, rec.IsSignificantDiscrepancy())
		assert.Equal(t, fixedTime, rec.CreatedAt)
	})

	t.Run("Shortfall above threshold", func(t *testing.T) {
		in := base
		in.ActualCash = dec("300000")
		in.ActualCoin = dec("100000")
		in.ActualTotal = dec("400000")
		in.ExpectedTotal = decPtr("500000")

		rec, err := NewCollectionRecord(in, clock)
		require.NoError(t, err)

		assert.True(t, rec.Difference.Equal(dec("-100000")))
		assert.True(t, rec.DifferencePercent.Equal(dec("-20")), "got %s", rec.DifferencePercent)
		assert.True(t, rec.HasDiscrepancy())
		assert.True(t, rec.IsSignificantDiscrepancy())
	})

	t.Run("Exact match", func(t *testing.T) {
		in := base
		in.ExpectedTotal = decPtr("510000")

		rec, err := NewCollectionRecord(in, clock)
		require.NoError(t, err)

		assert.True(t, rec.Difference.IsZero())
		assert.False(t, rec.HasDiscrepancy())
		assert.False(t, rec.IsSignificantDiscrepancy())
	})

	t.Run("No machine expectation", func(t *testing.T) {
		rec, err := NewCollectionRecord(base, clock)
		require.NoError(t, err)

		assert.Nil(t, rec.Difference)
		assert.Nil(t, rec.DifferencePercent)
		assert.False(t, rec.HasDiscrepancy())
	})

	t.Run("Zero expected total skips the percentage", func(t *testing.T) {
		in := base
		in.ExpectedTotal = decPtr("0")

		rec, err := NewCollectionRecord(in, clock)
		require.NoError(t, err)

		require.NotNil(t, rec.Difference)
		assert.True(t, rec.Difference.Equal(dec("510000")))
		assert.Nil(t, rec.DifferencePercent)
		assert.False(t, rec.IsSignificantDiscrepancy())
	})

	t.Run("Missing machine id", func(t *testing.T) {
		in := base
		in.MachineID = uuid.Nil
		_, err := NewCollectionRecord(in, clock)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("Missing collector id", func(t *testing.T) {
		in := base
		in.CollectorID = uuid.Nil
		_, err := NewCollectionRecord(in, clock)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("Negative declared total", func(t *testing.T) {
		in := base
		in.ActualTotal = dec("-1")
		_, err := NewCollectionRecord(in, clock)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestVerifyCollection(t *testing.T) {
	fixedTime := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	clock := &stubClock{now: fixedTime}

	newRecord := func(t *testing.T) *CollectionRecord {
		rec, err := NewCollectionRecord(NewCollectionRecordInput{
			OrganizationID: uuid.New(),
			MachineID:      uuid.New(),
			CollectorID:    uuid.New(),
			ActualCash:     dec("100000"),
			ActualTotal:    dec("100000"),
			Notes:          "evening round",
		}, clock)
		require.NoError(t, err)
		return rec
	}

	t.Run("Second actor verifies", func(t *testing.T) {
		rec := newRecord(t)
		verifier := uuid.New()

		require.NoError(t, rec.Verify(verifier, "counted twice", clock))

		assert.True(t, rec.IsVerified)
		require.NotNil(t, rec.VerifiedBy)
		assert.Equal(t, verifier, *rec.VerifiedBy)
		require.NotNil(t, rec.VerifiedAt)
		assert.Equal(t, fixedTime, *rec.VerifiedAt)
		assert.Equal(t, "evening round\ncounted twice", rec.Notes)
	})

	t.Run("Verification notes without prior notes", func(t *testing.T) {
		rec := newRecord(t)
		rec.Notes = ""
		require.NoError(t, rec.Verify(uuid.New(), "ok", clock))
		assert.Equal(t, "ok", rec.Notes)
	})

	t.Run("Collector cannot verify their own collection", func(t *testing.T) {
		rec := newRecord(t)
		err := rec.Verify(rec.CollectorID, "", clock)

		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.False(t, rec.IsVerified)
	})

	t.Run("Double verification", func(t *testing.T) {
		rec := newRecord(t)
		require.NoError(t, rec.Verify(uuid.New(), "", clock))

		err := rec.Verify(uuid.New(), "", clock)
		assert.ErrorIs(t, err, errs.ErrAlreadyVerified)
	})

	t.Run("Empty verifier id", func(t *testing.T) {
		rec := newRecord(t)
		err := rec.Verify(uuid.Nil, "", clock)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}
