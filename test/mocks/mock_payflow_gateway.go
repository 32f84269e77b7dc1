package mocks

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
)

// MockPayflowGateway is a mock implementation of PayflowGateway for testing
type MockPayflowGateway struct {
	mu sync.Mutex

	// Responses to return
	saleResponse      *domain.GatewayResult
	saleError         error
	recurringResponse *domain.GatewayResult
	recurringError    error
	refundResponse    *domain.GatewayResult
	refundError       error
	cancelResponse    *domain.GatewayResult
	cancelError       error
	modifyResponse    *domain.GatewayResult
	modifyError       error
	billingResponse   *domain.GatewayResult
	billingError      error
	histories         map[string]*domain.PaymentHistory
	historyErrors     map[string]error

	// Call tracking
	SaleCalls      int
	RecurringCalls int
	RefundCalls    int
	CancelCalls    int
	ModifyCalls    int
	BillingCalls   int
	HistoryCalls   int

	// Last request received
	LastSaleReq      *ports.SaleRequest
	LastRecurringReq *ports.RecurringSaleRequest
	LastRefundOrigID string
	LastRefundAmount string
	LastCancelID     string
	LastModifyID     string
	LastModifyAmount string
	LastBillingID    string
	LastBilling      ports.BillingInfo
	LastHistoryScope domain.HistoryScope
}

// NewMockPayflowGateway creates a new mock gateway
func NewMockPayflowGateway() *MockPayflowGateway {
	return &MockPayflowGateway{
		histories:     map[string]*domain.PaymentHistory{},
		historyErrors: map[string]error{},
	}
}

// SetSaleResponse sets the response to return from Sale
func (m *MockPayflowGateway) SetSaleResponse(result *domain.GatewayResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saleResponse = result
	m.saleError = err
}

// SetRecurringResponse sets the response to return from CreateRecurring
func (m *MockPayflowGateway) SetRecurringResponse(result *domain.GatewayResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recurringResponse = result
	m.recurringError = err
}

// SetRefundResponse sets the response to return from Refund
func (m *MockPayflowGateway) SetRefundResponse(result *domain.GatewayResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundResponse = result
	m.refundError = err
}

// SetCancelResponse sets the response to return from CancelRecurring
func (m *MockPayflowGateway) SetCancelResponse(result *domain.GatewayResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelResponse = result
	m.cancelError = err
}

// SetModifyResponse sets the response to return from ModifyRecurringAmount
func (m *MockPayflowGateway) SetModifyResponse(result *domain.GatewayResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modifyResponse = result
	m.modifyError = err
}

// SetBillingResponse sets the response to return from UpdateRecurringBilling
func (m *MockPayflowGateway) SetBillingResponse(result *domain.GatewayResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.billingResponse = result
	m.billingError = err
}

// SetHistory sets the history returned for one processor profile
func (m *MockPayflowGateway) SetHistory(processorID string, history *domain.PaymentHistory, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[processorID] = history
	m.historyErrors[processorID] = err
}

// Sale implements PayflowGateway.Sale
func (m *MockPayflowGateway) Sale(ctx context.Context, req *ports.SaleRequest) (*domain.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaleCalls++
	m.LastSaleReq = req
	return m.saleResponse, m.saleError
}

// CreateRecurring implements PayflowGateway.CreateRecurring
func (m *MockPayflowGateway) CreateRecurring(ctx context.Context, req *ports.RecurringSaleRequest) (*domain.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecurringCalls++
	m.LastRecurringReq = req
	return m.recurringResponse, m.recurringError
}

// Refund implements PayflowGateway.Refund
func (m *MockPayflowGateway) Refund(ctx context.Context, origID string, amount decimal.Decimal) (*domain.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundCalls++
	m.LastRefundOrigID = origID
	m.LastRefundAmount = amount.StringFixed(2)
	return m.refundResponse, m.refundError
}

// CancelRecurring implements PayflowGateway.CancelRecurring
func (m *MockPayflowGateway) CancelRecurring(ctx context.Context, processorID string) (*domain.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls++
	m.LastCancelID = processorID
	return m.cancelResponse, m.cancelError
}

// ModifyRecurringAmount implements PayflowGateway.ModifyRecurringAmount
func (m *MockPayflowGateway) ModifyRecurringAmount(ctx context.Context, processorID string, amount decimal.Decimal) (*domain.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ModifyCalls++
	m.LastModifyID = processorID
	m.LastModifyAmount = amount.StringFixed(2)
	return m.modifyResponse, m.modifyError
}

// UpdateRecurringBilling implements PayflowGateway.UpdateRecurringBilling
func (m *MockPayflowGateway) UpdateRecurringBilling(ctx context.Context, processorID string, card ports.CardDetails, billing ports.BillingInfo) (*domain.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BillingCalls++
	m.LastBillingID = processorID
	m.LastBilling = billing
	return m.billingResponse, m.billingError
}

// RecurringHistory implements PayflowGateway.RecurringHistory
func (m *MockPayflowGateway) RecurringHistory(ctx context.Context, processorID string, scope domain.HistoryScope) (*domain.PaymentHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HistoryCalls++
	m.LastHistoryScope = scope
	if err := m.historyErrors[processorID]; err != nil {
		return nil, err
	}
	if h, ok := m.histories[processorID]; ok {
		return h, nil
	}
	return &domain.PaymentHistory{ProfileID: processorID}, nil
}
