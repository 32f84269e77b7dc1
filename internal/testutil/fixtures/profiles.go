package fixtures

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

// RecurringProfileBuilder provides a fluent API for building test profiles.
type RecurringProfileBuilder struct {
	profile *domain.RecurringProfile
}

// NewRecurringProfile starts from an active monthly $25.00 test profile
// without a gateway id.
func NewRecurringProfile() *RecurringProfileBuilder {
	return &RecurringProfileBuilder{
		profile: &domain.RecurringProfile{
			Amount:            decimal.RequireFromString("25.00"),
			Currency:          "USD",
			FrequencyUnit:     domain.FrequencyUnitMonth,
			FrequencyInterval: 1,
			StartDate:         Date(2024, time.January, 15),
			Status:            domain.ProfileStatusPending,
			IsTest:            true,
		},
	}
}

func (b *RecurringProfileBuilder) WithID(id string) *RecurringProfileBuilder {
	b.profile.ID = id
	return b
}

// WithProcessorID sets the gateway PROFILEID and activates the profile
func (b *RecurringProfileBuilder) WithProcessorID(processorID string) *RecurringProfileBuilder {
	b.profile.ProcessorID = processorID
	b.profile.Status = domain.ProfileStatusActive
	return b
}

func (b *RecurringProfileBuilder) WithAmount(amount string) *RecurringProfileBuilder {
	b.profile.Amount = decimal.RequireFromString(amount)
	return b
}

func (b *RecurringProfileBuilder) WithFrequency(interval int, unit domain.FrequencyUnit) *RecurringProfileBuilder {
	b.profile.FrequencyInterval = interval
	b.profile.FrequencyUnit = unit
	return b
}

func (b *RecurringProfileBuilder) WithTerm(count int) *RecurringProfileBuilder {
	b.profile.TermCount = count
	return b
}

func (b *RecurringProfileBuilder) Live() *RecurringProfileBuilder {
	b.profile.IsTest = false
	return b
}

func (b *RecurringProfileBuilder) Cancelled(at time.Time) *RecurringProfileBuilder {
	b.profile.Status = domain.ProfileStatusCancelled
	b.profile.CancelledAt = TimePtr(at)
	return b
}

// Build returns a copy so one builder can seed several profiles
func (b *RecurringProfileBuilder) Build() *domain.RecurringProfile {
	p := *b.profile
	return &p
}

// LedgerEntryBuilder provides a fluent API for building test ledger entries.
type LedgerEntryBuilder struct {
	entry *domain.LedgerEntry
}

// NewLedgerEntry starts from a Pending $1.00 test installment
func NewLedgerEntry(recurringPaymentID string) *LedgerEntryBuilder {
	return &LedgerEntryBuilder{
		entry: &domain.LedgerEntry{
			RecurringPaymentID: recurringPaymentID,
			Amount:             decimal.RequireFromString("1.00"),
			Status:             domain.LedgerStatusPending,
			ReceiveDate:        Date(2004, time.May, 21),
			IsTest:             true,
		},
	}
}

func (b *LedgerEntryBuilder) WithID(id string) *LedgerEntryBuilder {
	b.entry.ID = id
	return b
}

func (b *LedgerEntryBuilder) WithTrxnID(trxnID string) *LedgerEntryBuilder {
	b.entry.TrxnID = trxnID
	return b
}

func (b *LedgerEntryBuilder) WithStatus(status domain.LedgerStatus) *LedgerEntryBuilder {
	b.entry.Status = status
	return b
}

func (b *LedgerEntryBuilder) WithReceiveDate(t time.Time) *LedgerEntryBuilder {
	b.entry.ReceiveDate = t
	return b
}

func (b *LedgerEntryBuilder) Completed() *LedgerEntryBuilder {
	b.entry.Status = domain.LedgerStatusCompleted
	return b
}

func (b *LedgerEntryBuilder) Build() *domain.LedgerEntry {
	e := *b.entry
	return &e
}

// CreateParams converts the entry into ledger insert params
func (b *LedgerEntryBuilder) CreateParams() *domain.CreateLedgerEntryParams {
	return &domain.CreateLedgerEntryParams{
		ReceiveDate:        b.entry.ReceiveDate,
		RecurringPaymentID: b.entry.RecurringPaymentID,
		TrxnID:             b.entry.TrxnID,
		Amount:             b.entry.Amount,
		IsTest:             b.entry.IsTest,
	}
}
