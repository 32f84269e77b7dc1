package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/payflow-reconciler/internal/adapters/postgres"
	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

func TestLedgerRepository_Lifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	profiles := postgres.NewRecurringProfileRepository(db)
	ledger := postgres.NewLedgerRepository(db)

	profile := newProfile(true)
	require.NoError(t, profiles.Create(ctx, profile))

	older := time.Date(2004, 5, 21, 16, 47, 0, 0, time.UTC)
	newer := time.Date(2004, 5, 27, 13, 19, 0, 0, time.UTC)

	olderID, err := ledger.Create(ctx, &domain.CreateLedgerEntryParams{
		ReceiveDate:        older,
		RecurringPaymentID: profile.ID,
		TrxnID:             "VWYA06156256",
		Amount:             decimal.RequireFromString("1.00"),
		IsTest:             true,
	})
	require.NoError(t, err)
	newerID, err := ledger.Create(ctx, &domain.CreateLedgerEntryParams{
		ReceiveDate:        newer,
		RecurringPaymentID: profile.ID,
		TrxnID:             "VWYA06156269",
		Amount:             decimal.RequireFromString("1.00"),
		IsTest:             true,
	})
	require.NoError(t, err)

	entries, err := ledger.Query(ctx, profile.ID, true)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newerID, entries[0].ID, "most recent first")
	assert.Equal(t, domain.LedgerStatusPending, entries[0].Status)

	live, err := ledger.Query(ctx, profile.ID, false)
	require.NoError(t, err)
	assert.Empty(t, live)

	require.NoError(t, ledger.MarkCompleted(ctx, &domain.CompleteLedgerEntryParams{
		TrxnDate: older,
		EntryID:  olderID,
		TrxnID:   "VWYA06156256",
		Amount:   decimal.RequireFromString("1.00"),
	}))
	// idempotent
	require.NoError(t, ledger.MarkCompleted(ctx, &domain.CompleteLedgerEntryParams{
		TrxnDate: older,
		EntryID:  olderID,
		TrxnID:   "VWYA06156256",
		Amount:   decimal.RequireFromString("1.00"),
	}))

	require.NoError(t, ledger.MarkFailed(ctx, &domain.FailLedgerEntryParams{
		CancelDate:   newer,
		EntryID:      newerID,
		CancelReason: "settlement failed",
	}))

	entries, err = ledger.Query(ctx, profile.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.LedgerStatusFailed, entries[0].Status)
	assert.Equal(t, "settlement failed", entries[0].CancelReason)
	assert.Equal(t, "VWYA06156269", entries[0].TrxnID)
	require.NotNil(t, entries[0].CancelDate)
	assert.Equal(t, domain.LedgerStatusCompleted, entries[1].Status)
}

func TestLedgerRepository_MissingEntry(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	ledger := postgres.NewLedgerRepository(db)
	missing := "6f1c2a44-5d3e-4c1b-9a2b-0f2f3e4d5c6b"

	err := ledger.MarkCompleted(ctx, &domain.CompleteLedgerEntryParams{EntryID: missing, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrLedgerEntryNotFound)

	err = ledger.MarkFailed(ctx, &domain.FailLedgerEntryParams{EntryID: missing})
	assert.ErrorIs(t, err, domain.ErrLedgerEntryNotFound)
}
