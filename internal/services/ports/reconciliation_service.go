package ports

import (
	"context"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

// ReconciliationService imports recurring payments reported by the gateway
type ReconciliationService interface {
	// ImportLatestRecurPayments reconciles all profiles, or only those whose
	// processor id is listed
	ImportLatestRecurPayments(ctx context.Context, processorIDs []string, scope domain.HistoryScope) (*domain.ImportSummary, error)

	GetRecurPaymentHistory(ctx context.Context, processorID string, scope domain.HistoryScope) (*domain.PaymentHistory, error)
}
