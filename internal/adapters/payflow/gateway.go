package payflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
)

// Submitter posts an encoded payload and returns the raw response body
type Submitter interface {
	Submit(ctx context.Context, endpoint, payload string) (string, error)
}

// GatewayConfig contains configuration for the gateway adapter
type GatewayConfig struct {
	// SettlePendingInTestMode reads "settlement pending" as Completed on test accounts
	SettlePendingInTestMode bool
	// DefaultHistoryScope is used when an inquiry does not name one
	DefaultHistoryScope domain.HistoryScope
}

// DefaultGatewayConfig returns default configuration for the gateway adapter
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		DefaultHistoryScope: domain.HistoryScopeAll,
	}
}

// Gateway implements ports.PayflowGateway over the NVP protocol
type Gateway struct {
	transport   Submitter
	credentials ports.CredentialProvider
	config      GatewayConfig
	logger      ports.Logger
}

var _ ports.PayflowGateway = (*Gateway)(nil)

// NewGateway creates a new gateway adapter
func NewGateway(transport Submitter, credentials ports.CredentialProvider, config GatewayConfig, logger ports.Logger) *Gateway {
	if config.DefaultHistoryScope == "" {
		config.DefaultHistoryScope = domain.HistoryScopeAll
	}
	return &Gateway{
		transport:   transport,
		credentials: credentials,
		config:      config,
		logger:      logger,
	}
}

// Sale charges a card once
func (g *Gateway) Sale(ctx context.Context, req *ports.SaleRequest) (*domain.GatewayResult, error) {
	record, _, err := g.execute(ctx, SaleTransaction{Sale: req})
	if err != nil {
		return nil, err
	}
	return toGatewayResult(record), nil
}

// CreateRecurring charges the first installment and creates the profile.
// The result carries PROFILEID.
func (g *Gateway) CreateRecurring(ctx context.Context, req *ports.RecurringSaleRequest) (*domain.GatewayResult, error) {
	if req.Schedule == nil {
		return nil, fmt.Errorf("recurring sale has no schedule")
	}
	record, _, err := g.execute(ctx, RecurringAdd{Sale: req})
	if err != nil {
		return nil, err
	}
	return toGatewayResult(record), nil
}

// Refund credits amount back against origID
func (g *Gateway) Refund(ctx context.Context, origID string, amount decimal.Decimal) (*domain.GatewayResult, error) {
	record, _, err := g.execute(ctx, Refund{OrigID: origID, Amount: amount})
	if err != nil {
		return nil, err
	}
	return toGatewayResult(record), nil
}

// CancelRecurring deactivates the profile at the gateway
func (g *Gateway) CancelRecurring(ctx context.Context, processorID string) (*domain.GatewayResult, error) {
	record, _, err := g.execute(ctx, RecurringCancel{ProcessorID: processorID})
	if err != nil {
		return nil, err
	}
	return toGatewayResult(record), nil
}

// ModifyRecurringAmount changes the amount charged on future installments
func (g *Gateway) ModifyRecurringAmount(ctx context.Context, processorID string, amount decimal.Decimal) (*domain.GatewayResult, error) {
	record, _, err := g.execute(ctx, RecurringModifyAmount{ProcessorID: processorID, Amount: amount})
	if err != nil {
		return nil, err
	}
	return toGatewayResult(record), nil
}

// UpdateRecurringBilling replaces the card on file for a profile
func (g *Gateway) UpdateRecurringBilling(ctx context.Context, processorID string, card ports.CardDetails, billing ports.BillingInfo) (*domain.GatewayResult, error) {
	record, _, err := g.execute(ctx, RecurringModifyBilling{ProcessorID: processorID, Card: card, Billing: billing})
	if err != nil {
		return nil, err
	}
	return toGatewayResult(record), nil
}

// RecurringHistory fetches and decodes the payment history of a profile
func (g *Gateway) RecurringHistory(ctx context.Context, processorID string, scope domain.HistoryScope) (*domain.PaymentHistory, error) {
	if scope == "" {
		scope = g.config.DefaultHistoryScope
	}
	record, creds, err := g.execute(ctx, Inquiry{ProcessorID: processorID, Scope: scope})
	if err != nil {
		return nil, err
	}

	history := ParseHistory(record, HistoryOptions{
		SettlePendingInTestMode: g.config.SettlePendingInTestMode,
		IsTest:                  creds.IsTest,
	})
	if history.ProfileID == "" {
		history.ProfileID = processorID
	}
	for _, a := range history.Anomalies {
		g.logger.Warn("Skipping unreadable history record",
			ports.String("processor_id", processorID),
			ports.String("index", a.Index),
			ports.String("trxn_id", a.TrxnID),
			ports.String("reason", a.Message),
		)
	}
	return history, nil
}

func (g *Gateway) execute(ctx context.Context, req Request) (Record, *domain.GatewayCredentials, error) {
	creds, err := g.credentials.Credentials(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load gateway credentials: %w", err)
	}

	start := time.Now()
	g.logger.Debug("Submitting gateway request",
		ports.String("operation", req.Operation()),
		ports.Bool("test_mode", creds.IsTest),
	)

	body, err := g.transport.Submit(ctx, creds.URL, BuildPayload(creds, req))
	if err != nil {
		g.logger.Error("Gateway request failed",
			ports.String("operation", req.Operation()),
			ports.Err(err),
		)
		return nil, nil, err
	}

	record, err := Decode(body)
	if err != nil {
		g.logger.Error("Gateway response has no RESULT",
			ports.String("operation", req.Operation()),
			ports.Int("body_length", len(body)),
		)
		return nil, nil, err
	}

	if err := Interpret(req.Operation(), record, g.logger); err != nil {
		return nil, nil, err
	}

	g.logger.Info("Gateway request succeeded",
		ports.String("operation", req.Operation()),
		ports.String("pnref", record["PNREF"]),
		ports.Strings("fields", record.Keys()),
		ports.Duration("elapsed", time.Since(start)),
	)
	return record, creds, nil
}

func toGatewayResult(record Record) *domain.GatewayResult {
	result, _ := record.Result()
	return &domain.GatewayResult{
		Raw:        record,
		PNRef:      record["PNREF"],
		TrxPNRef:   record["TRXPNREF"],
		ProfileID:  record["PROFILEID"],
		RespMsg:    record["RESPMSG"],
		ResultCode: result,
	}
}
