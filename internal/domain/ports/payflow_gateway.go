package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

// CardDetails is passed straight through to the gateway and never stored.
type CardDetails struct {
	Number   string
	CVV2     string
	CardType string
	ExpMonth int
	ExpYear  int
}

// BillingInfo is the cardholder's billing contact
type BillingInfo struct {
	FirstName string
	LastName  string
	Street    string
	City      string
	State     string
	Zip       string
	Country   string
}

// SaleRequest represents a one-off card sale
type SaleRequest struct {
	Card           CardDetails
	Billing        BillingInfo
	Amount         decimal.Decimal
	Currency       string
	Email          string
	IPAddress      string
	AccountingCode string
	InvoiceID      string
	Description    string
}

// RecurringSaleRequest charges the first installment and creates a profile
type RecurringSaleRequest struct {
	SaleRequest
	Schedule *domain.RecurringSchedule
}

// PayflowGateway is the set of gateway operations the services use.
// Every method returns a classified *errors.GatewayError for a non-zero RESULT.
type PayflowGateway interface {
	Sale(ctx context.Context, req *SaleRequest) (*domain.GatewayResult, error)
	CreateRecurring(ctx context.Context, req *RecurringSaleRequest) (*domain.GatewayResult, error)
	Refund(ctx context.Context, origID string, amount decimal.Decimal) (*domain.GatewayResult, error)
	CancelRecurring(ctx context.Context, processorID string) (*domain.GatewayResult, error)
	ModifyRecurringAmount(ctx context.Context, processorID string, amount decimal.Decimal) (*domain.GatewayResult, error)
	UpdateRecurringBilling(ctx context.Context, processorID string, card CardDetails, billing BillingInfo) (*domain.GatewayResult, error)
	RecurringHistory(ctx context.Context, processorID string, scope domain.HistoryScope) (*domain.PaymentHistory, error)
}
