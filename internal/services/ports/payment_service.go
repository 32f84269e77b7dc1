package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	domainports "github.com/kevin07696/payflow-reconciler/internal/domain/ports"
)

// PaymentStatus is the caller-facing result of a money-moving call
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusPending   PaymentStatus = "Pending"
)

// SubmitPaymentRequest is a card payment, optionally the first of a series.
// Installments: 0 = until cancelled, 1 = single payment, n = n payments.
type SubmitPaymentRequest struct {
	Sale              domainports.SaleRequest
	Installments      int
	FrequencyUnit     domain.FrequencyUnit
	FrequencyInterval int

	// ProfileID links a recurring payment to an existing local profile.
	// When empty a profile is created.
	ProfileID string
}

// IsRecurring reports whether the request sets up a gateway profile
func (r *SubmitPaymentRequest) IsRecurring() bool {
	return domain.IsRecurringInstallments(r.Installments)
}

// PaymentResponse describes a submitted payment
type PaymentResponse struct {
	Status      PaymentStatus
	TrxnID      string
	ProfileID   string // local recurring profile, recurring payments only
	ProcessorID string // gateway PROFILEID, recurring payments only
	Schedule    *domain.RecurringSchedule
	RespMsg     string
}

// RefundRequest refunds (part of) a settled transaction
type RefundRequest struct {
	TrxnID string
	Amount decimal.Decimal
}

// RefundResponse describes a completed refund
type RefundResponse struct {
	Status       PaymentStatus
	RefundTrxnID string
	RespMsg      string
}

// CancelRecurringRequest stops a recurring profile
type CancelRecurringRequest struct {
	ProfileID string

	// NotifyProcessor defaults to true; false cancels locally only
	NotifyProcessor *bool
}

// ShouldNotify resolves the NotifyProcessor default
func (r *CancelRecurringRequest) ShouldNotify() bool {
	return r.NotifyProcessor == nil || *r.NotifyProcessor
}

// ChangeAmountRequest changes the installment amount of a profile
type ChangeAmountRequest struct {
	ProfileID string
	Amount    decimal.Decimal
	Currency  string
}

// UpdateBillingRequest replaces the card and billing address of a profile
type UpdateBillingRequest struct {
	ProfileID string
	Card      domainports.CardDetails
	Billing   domainports.BillingInfo
}

// PaymentService is the set of payment operations on the gateway
type PaymentService interface {
	SubmitPayment(ctx context.Context, req *SubmitPaymentRequest) (*PaymentResponse, error)
	SubmitRefund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)
	CancelRecurring(ctx context.Context, req *CancelRecurringRequest) error
	ChangeRecurringAmount(ctx context.Context, req *ChangeAmountRequest) error
	UpdateRecurringBillingInfo(ctx context.Context, req *UpdateBillingRequest) error
	CheckConfig(ctx context.Context) error
}
