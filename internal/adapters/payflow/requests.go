package payflow

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
	"github.com/kevin07696/payflow-reconciler/pkg/timeutil"
)

const (
	trxTypeSale      = "S"
	trxTypeRecurring = "R"
	trxTypeCredit    = "C"
	tenderCard       = "C"

	actionAdd     = "A"
	actionModify  = "M"
	actionCancel  = "C"
	actionInquiry = "I"

	recurringProfileName = "RegularContribution"
)

// Request is one gateway request. The variants in this file are the only
// implementations.
type Request interface {
	// Operation names the request for logs and metrics
	Operation() string
	fields(isTest bool) []Field
}

// SaleTransaction is a one-off card sale
type SaleTransaction struct {
	Sale *ports.SaleRequest
}

// RecurringAdd charges the first installment and creates a profile
type RecurringAdd struct {
	Sale *ports.RecurringSaleRequest
}

// RecurringModifyAmount changes the amount of an existing profile
type RecurringModifyAmount struct {
	ProcessorID string
	Amount      decimal.Decimal
}

// RecurringModifyBilling replaces the card and billing address of a profile
type RecurringModifyBilling struct {
	ProcessorID string
	Card        ports.CardDetails
	Billing     ports.BillingInfo
}

// RecurringCancel deactivates a profile
type RecurringCancel struct {
	ProcessorID string
}

// Refund credits back a settled transaction
type Refund struct {
	OrigID string
	Amount decimal.Decimal
}

// Inquiry fetches a profile's payment history
type Inquiry struct {
	ProcessorID string
	Scope       domain.HistoryScope
}

func (SaleTransaction) Operation() string        { return "sale" }
func (RecurringAdd) Operation() string           { return "recurring_add" }
func (RecurringModifyAmount) Operation() string  { return "recurring_modify" }
func (RecurringModifyBilling) Operation() string { return "recurring_modify_billing" }
func (RecurringCancel) Operation() string        { return "recurring_cancel" }
func (Refund) Operation() string                 { return "refund" }
func (Inquiry) Operation() string                { return "recurring_inquiry" }

// BuildPayload encodes req behind the authentication fields
func BuildPayload(creds *domain.GatewayCredentials, req Request) string {
	fields := []Field{
		{Key: "USER", Value: creds.User()},
		{Key: "VENDOR", Value: creds.VendorID},
		{Key: "PARTNER", Value: creds.PartnerID},
		{Key: "PWD", Value: creds.Password},
	}
	return Encode(append(fields, req.fields(creds.IsTest)...))
}

// Amounts are sent as machine money with two decimals
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func mode(isTest bool) string {
	if isTest {
		return "test"
	}
	return "live"
}

func (r SaleTransaction) fields(isTest bool) []Field {
	return append([]Field{
		{Key: "TENDER", Value: tenderCard},
		{Key: "TRXTYPE", Value: trxTypeSale},
	}, saleFields(r.Sale, isTest)...)
}

func (r RecurringAdd) fields(isTest bool) []Field {
	fields := []Field{
		{Key: "TENDER", Value: tenderCard},
		{Key: "TRXTYPE", Value: trxTypeRecurring},
	}
	fields = append(fields, saleFields(&r.Sale.SaleRequest, isTest)...)
	fields = append(fields,
		Field{Key: "OPTIONALTRX", Value: trxTypeSale},
		Field{Key: "OPTIONALTRXAMT", Value: money(r.Sale.Amount)},
		Field{Key: "ACTION", Value: actionAdd},
		Field{Key: "PROFILENAME", Value: recurringProfileName},
	)
	schedule := r.Sale.Schedule
	if schedule.Bounded() {
		fields = append(fields, Field{Key: "TERM", Value: strconv.Itoa(schedule.Term)})
	}
	return append(fields,
		Field{Key: "START", Value: schedule.StartField()},
		Field{Key: "PAYPERIOD", Value: string(schedule.PayPeriod)},
	)
}

func saleFields(s *ports.SaleRequest, isTest bool) []Field {
	return []Field{
		{Key: "ACCT", Value: s.Card.Number},
		{Key: "CVV2", Value: s.Card.CVV2},
		{Key: "EXPDATE", Value: timeutil.FormatCardExpiry(s.Card.ExpMonth, s.Card.ExpYear)},
		{Key: "ACCTTYPE", Value: s.Card.CardType},
		{Key: "AMT", Value: money(s.Amount)},
		{Key: "CURRENCY", Value: s.Currency},
		{Key: "FIRSTNAME", Value: s.Billing.FirstName},
		{Key: "LASTNAME", Value: s.Billing.LastName},
		{Key: "STREET", Value: s.Billing.Street},
		{Key: "CITY", Value: s.Billing.City},
		{Key: "STATE", Value: s.Billing.State},
		{Key: "ZIP", Value: s.Billing.Zip},
		{Key: "COUNTRY", Value: s.Billing.Country},
		{Key: "EMAIL", Value: s.Email},
		{Key: "CUSTIP", Value: s.IPAddress},
		{Key: "COMMENT1", Value: s.AccountingCode},
		{Key: "COMMENT2", Value: mode(isTest)},
		{Key: "INVNUM", Value: s.InvoiceID},
		{Key: "ORDERDESC", Value: s.Description},
		{Key: "VERBOSITY", Value: "MEDIUM"},
		{Key: "BILLTOCOUNTRY", Value: s.Billing.Country},
	}
}

func (r RecurringModifyAmount) fields(bool) []Field {
	return []Field{
		{Key: "TRXTYPE", Value: trxTypeRecurring},
		{Key: "TENDER", Value: tenderCard},
		{Key: "ACTION", Value: actionModify},
		{Key: "ORIGPROFILEID", Value: r.ProcessorID},
		{Key: "AMT", Value: money(r.Amount)},
	}
}

func (r RecurringModifyBilling) fields(bool) []Field {
	return []Field{
		{Key: "TRXTYPE", Value: trxTypeRecurring},
		{Key: "TENDER", Value: tenderCard},
		{Key: "ACTION", Value: actionModify},
		{Key: "ORIGPROFILEID", Value: r.ProcessorID},
		{Key: "ACCT", Value: r.Card.Number},
		{Key: "CVV2", Value: r.Card.CVV2},
		{Key: "EXPDATE", Value: timeutil.FormatCardExpiry(r.Card.ExpMonth, r.Card.ExpYear)},
		{Key: "BILLTOFIRSTNAME", Value: r.Billing.FirstName},
		{Key: "BILLTOLASTNAME", Value: r.Billing.LastName},
		{Key: "BILLTOSTREET", Value: r.Billing.Street},
		{Key: "BILLTOCITY", Value: r.Billing.City},
		{Key: "BILLTOSTATE", Value: r.Billing.State},
		{Key: "BILLTOZIP", Value: r.Billing.Zip},
		{Key: "BILLTOCOUNTRY", Value: r.Billing.Country},
	}
}

func (r RecurringCancel) fields(bool) []Field {
	return []Field{
		{Key: "TRXTYPE", Value: trxTypeRecurring},
		{Key: "ACTION", Value: actionCancel},
		{Key: "ORIGPROFILEID", Value: r.ProcessorID},
	}
}

func (r Refund) fields(bool) []Field {
	return []Field{
		{Key: "TRXTYPE", Value: trxTypeCredit},
		{Key: "TENDER", Value: tenderCard},
		{Key: "ORIGID", Value: r.OrigID},
		{Key: "AMT", Value: money(r.Amount)},
	}
}

func (r Inquiry) fields(bool) []Field {
	scope := r.Scope
	if scope == "" {
		scope = domain.HistoryScopeAll
	}
	return []Field{
		{Key: "TRXTYPE", Value: trxTypeRecurring},
		{Key: "ACTION", Value: actionInquiry},
		{Key: "ORIGPROFILEID", Value: r.ProcessorID},
		{Key: "PAYMENTHISTORY", Value: string(scope)},
	}
}
