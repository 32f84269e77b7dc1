package ports

import (
	"context"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

// LocalLedger stores the local record of each recurring installment.
// The reconciler is its only writer of gateway-driven transitions, but
// entries may also be created by unrelated flows.
type LocalLedger interface {
	// Query returns entries for a recurring profile, most recent first
	Query(ctx context.Context, recurringPaymentID string, isTest bool) ([]*domain.LedgerEntry, error)

	// Create inserts a Pending entry and returns its id
	Create(ctx context.Context, params *domain.CreateLedgerEntryParams) (string, error)

	MarkCompleted(ctx context.Context, params *domain.CompleteLedgerEntryParams) error
	MarkFailed(ctx context.Context, params *domain.FailLedgerEntryParams) error
}
