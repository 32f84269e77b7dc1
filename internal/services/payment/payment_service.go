package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
	serviceports "github.com/kevin07696/payflow-reconciler/internal/services/ports"
	pkgerrors "github.com/kevin07696/payflow-reconciler/pkg/errors"
	"github.com/kevin07696/payflow-reconciler/pkg/observability"
	"github.com/kevin07696/payflow-reconciler/pkg/timeutil"
)

const defaultCurrency = "USD"

// Service implements serviceports.PaymentService
type Service struct {
	gateway     ports.PayflowGateway
	profiles    ports.RecurringProfileStore
	credentials ports.CredentialProvider
	logger      ports.Logger
	clock       timeutil.Clock
}

// NewService creates a new payment service
func NewService(
	gateway ports.PayflowGateway,
	profiles ports.RecurringProfileStore,
	credentials ports.CredentialProvider,
	logger ports.Logger,
) *Service {
	return &Service{
		gateway:     gateway,
		profiles:    profiles,
		credentials: credentials,
		logger:      logger,
		clock:       timeutil.Now,
	}
}

var _ serviceports.PaymentService = (*Service)(nil)

// SubmitPayment charges a card. A zero amount completes without reaching
// the gateway. Recurring payments also create the gateway profile and
// store its PROFILEID locally.
func (s *Service) SubmitPayment(ctx context.Context, req *serviceports.SubmitPaymentRequest) (resp *serviceports.PaymentResponse, err error) {
	start := time.Now()
	operation := "sale"
	if req.IsRecurring() {
		operation = "recurring_sale"
	}
	defer func() { s.record(operation, start, err) }()

	if req.Sale.Amount.IsNegative() {
		return nil, pkgerrors.NewValidationError("amount", "must not be negative")
	}
	if req.Sale.Currency == "" {
		defaulted := *req
		defaulted.Sale.Currency = defaultCurrency
		req = &defaulted
	}

	if req.Sale.Amount.IsZero() {
		s.logger.Info("Zero amount payment completed without gateway call")
		return &serviceports.PaymentResponse{Status: serviceports.PaymentStatusCompleted}, nil
	}

	if !req.IsRecurring() {
		result, err := s.gateway.Sale(ctx, &req.Sale)
		if err != nil {
			return nil, fmt.Errorf("sale: %w", err)
		}
		observability.RecordPaymentAmount(operation, req.Sale.Currency, req.Sale.Amount.InexactFloat64())
		return &serviceports.PaymentResponse{
			Status:  serviceports.PaymentStatusCompleted,
			TrxnID:  result.TrxnID(),
			RespMsg: result.RespMsg,
		}, nil
	}

	return s.submitRecurring(ctx, req)
}

func (s *Service) submitRecurring(ctx context.Context, req *serviceports.SubmitPaymentRequest) (*serviceports.PaymentResponse, error) {
	schedule, err := domain.TranslateSchedule(req.FrequencyInterval, req.FrequencyUnit, req.Installments, s.clock())
	if err != nil {
		return nil, err
	}

	creds, err := s.credentials.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gateway credentials: %w", err)
	}

	profile, err := s.loadOrNewProfile(ctx, req, creds.IsTest)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.CreateRecurring(ctx, &ports.RecurringSaleRequest{
		SaleRequest: req.Sale,
		Schedule:    schedule,
	})
	if err != nil {
		return nil, fmt.Errorf("recurring sale: %w", err)
	}

	// A new local profile is only stored once the gateway accepted the signup.
	if profile.ID == "" {
		if err := s.profiles.Create(ctx, profile); err != nil {
			s.logger.Error("Recurring profile created at gateway but not stored locally",
				ports.String("processor_id", result.ProfileID),
				ports.Err(err),
			)
			return nil, fmt.Errorf("create recurring profile for %s: %w", result.ProfileID, err)
		}
	}

	if err := s.profiles.SetProcessorID(ctx, profile.ID, result.ProfileID, schedule); err != nil {
		// The gateway profile exists; surface the id so it can be linked by hand.
		s.logger.Error("Recurring profile created but not stored locally",
			ports.String("profile_id", profile.ID),
			ports.String("processor_id", result.ProfileID),
			ports.Err(err),
		)
		return nil, fmt.Errorf("store processor id %s: %w", result.ProfileID, err)
	}

	observability.RecordPaymentAmount("recurring_sale", req.Sale.Currency, req.Sale.Amount.InexactFloat64())
	s.logger.Info("Recurring payment created",
		ports.String("profile_id", profile.ID),
		ports.String("processor_id", result.ProfileID),
		ports.String("pay_period", string(schedule.PayPeriod)),
		ports.Int("term", schedule.Term),
	)

	return &serviceports.PaymentResponse{
		Status:      serviceports.PaymentStatusCompleted,
		TrxnID:      result.TrxnID(),
		ProfileID:   profile.ID,
		ProcessorID: result.ProfileID,
		Schedule:    schedule,
		RespMsg:     result.RespMsg,
	}, nil
}

// loadOrNewProfile returns the stored profile named by the request, or an
// unsaved one (empty ID) describing a new signup.
func (s *Service) loadOrNewProfile(ctx context.Context, req *serviceports.SubmitPaymentRequest, isTest bool) (*domain.RecurringProfile, error) {
	if req.ProfileID != "" {
		profile, err := s.profiles.Get(ctx, req.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("load recurring profile: %w", err)
		}
		return profile, nil
	}

	return &domain.RecurringProfile{
		Amount:            req.Sale.Amount,
		Currency:          req.Sale.Currency,
		FrequencyUnit:     req.FrequencyUnit,
		FrequencyInterval: req.FrequencyInterval,
		StartDate:         timeutil.StartOfDay(s.clock()),
		Status:            domain.ProfileStatusPending,
		IsTest:            isTest,
	}, nil
}

// SubmitRefund refunds amount of a settled transaction
func (s *Service) SubmitRefund(ctx context.Context, req *serviceports.RefundRequest) (resp *serviceports.RefundResponse, err error) {
	start := time.Now()
	defer func() { s.record("refund", start, err) }()

	if strings.TrimSpace(req.TrxnID) == "" {
		return nil, pkgerrors.NewValidationError("trxn_id", "is required")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.NewValidationError("amount", "must be greater than zero")
	}

	result, err := s.gateway.Refund(ctx, req.TrxnID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("refund %s: %w", req.TrxnID, err)
	}

	return &serviceports.RefundResponse{
		Status:       serviceports.PaymentStatusCompleted,
		RefundTrxnID: result.PNRef,
		RespMsg:      result.RespMsg,
	}, nil
}

// CancelRecurring stops a profile, at the gateway unless told otherwise
func (s *Service) CancelRecurring(ctx context.Context, req *serviceports.CancelRecurringRequest) (err error) {
	start := time.Now()
	defer func() { s.record("cancel_recurring", start, err) }()

	profile, err := s.loadProfile(ctx, req.ProfileID)
	if err != nil {
		return err
	}

	if req.ShouldNotify() {
		if !profile.HasProcessorID() {
			return pkgerrors.NewValidationError("processor_id", "profile has no processor id")
		}
		if _, err := s.gateway.CancelRecurring(ctx, profile.ProcessorID); err != nil {
			return fmt.Errorf("cancel recurring %s: %w", profile.ProcessorID, err)
		}
	}

	if err := s.profiles.MarkCancelled(ctx, profile.ID, s.clock()); err != nil {
		return fmt.Errorf("mark profile cancelled: %w", err)
	}

	s.logger.Info("Recurring profile cancelled",
		ports.String("profile_id", profile.ID),
		ports.String("processor_id", profile.ProcessorID),
		ports.Bool("notified_processor", req.ShouldNotify()),
	)
	return nil
}

// ChangeRecurringAmount sets a new installment amount
func (s *Service) ChangeRecurringAmount(ctx context.Context, req *serviceports.ChangeAmountRequest) (err error) {
	start := time.Now()
	defer func() { s.record("change_amount", start, err) }()

	if !req.Amount.IsPositive() {
		return pkgerrors.NewValidationError("amount", "must be greater than zero")
	}

	profile, err := s.loadProfile(ctx, req.ProfileID)
	if err != nil {
		return err
	}

	currency := req.Currency
	if currency == "" {
		currency = profile.Currency
	}
	if profile.SameAmount(req.Amount, currency) {
		return pkgerrors.NewValidationError("amount", "Amount is the same as before!")
	}
	if !profile.HasProcessorID() {
		return pkgerrors.NewValidationError("processor_id", "profile has no processor id")
	}

	if _, err := s.gateway.ModifyRecurringAmount(ctx, profile.ProcessorID, req.Amount); err != nil {
		return fmt.Errorf("modify recurring amount %s: %w", profile.ProcessorID, err)
	}

	if err := s.profiles.UpdateAmount(ctx, profile.ID, req.Amount, currency); err != nil {
		return fmt.Errorf("update profile amount: %w", err)
	}

	s.logger.Info("Recurring amount changed",
		ports.String("profile_id", profile.ID),
		ports.String("from", profile.Amount.StringFixed(2)),
		ports.String("to", req.Amount.StringFixed(2)),
	)
	return nil
}

// UpdateRecurringBillingInfo replaces the card and billing address on the
// gateway profile. Nothing is stored locally.
func (s *Service) UpdateRecurringBillingInfo(ctx context.Context, req *serviceports.UpdateBillingRequest) (err error) {
	start := time.Now()
	defer func() { s.record("update_billing", start, err) }()

	if req.Card.Number == "" {
		return pkgerrors.NewValidationError("card_number", "is required")
	}

	profile, err := s.loadProfile(ctx, req.ProfileID)
	if err != nil {
		return err
	}
	if !profile.HasProcessorID() {
		return pkgerrors.NewValidationError("processor_id", "profile has no processor id")
	}

	if _, err := s.gateway.UpdateRecurringBilling(ctx, profile.ProcessorID, req.Card, req.Billing); err != nil {
		return fmt.Errorf("update recurring billing %s: %w", profile.ProcessorID, err)
	}
	return nil
}

// CheckConfig reports missing gateway settings
func (s *Service) CheckConfig(ctx context.Context) error {
	creds, err := s.credentials.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("load gateway credentials: %w", err)
	}

	var missing []string
	if creds.VendorID == "" {
		missing = append(missing, "vendor")
	}
	if creds.URL == "" {
		missing = append(missing, "url")
	}
	if len(missing) > 0 {
		return pkgerrors.NewValidationError("config", "missing "+strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) loadProfile(ctx context.Context, id string) (*domain.RecurringProfile, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("profile_id", "is required")
	}
	profile, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load recurring profile: %w", err)
	}
	return profile, nil
}

func (s *Service) record(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = pkgerrors.Kind(err)
	}
	observability.RecordPaymentOperation(operation, outcome, time.Since(start).Seconds())
}
