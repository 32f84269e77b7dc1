package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

// RecurringProfileStore persists local recurring profiles
type RecurringProfileStore interface {
	// Create inserts a profile. ID is assigned when empty.
	Create(ctx context.Context, profile *domain.RecurringProfile) error

	// Get returns domain.ErrProfileNotFound when no such profile exists
	Get(ctx context.Context, id string) (*domain.RecurringProfile, error)

	// List returns profiles with a processor id, filtered by test flag and
	// optionally by processor ids
	List(ctx context.Context, filter domain.ProfileFilter) ([]*domain.RecurringProfile, error)

	// SetProcessorID stores the gateway PROFILEID and the computed schedule,
	// activating the profile
	SetProcessorID(ctx context.Context, id, processorID string, schedule *domain.RecurringSchedule) error

	UpdateAmount(ctx context.Context, id string, amount decimal.Decimal, currency string) error
	MarkCancelled(ctx context.Context, id string, at time.Time) error
}
