package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProfileStatus represents the local state of a recurring profile
type ProfileStatus string

const (
	ProfileStatusPending   ProfileStatus = "pending"
	ProfileStatusActive    ProfileStatus = "active"
	ProfileStatusCancelled ProfileStatus = "cancelled"
)

// FrequencyUnit defines the time unit for billing intervals
type FrequencyUnit string

const (
	FrequencyUnitDay   FrequencyUnit = "day"
	FrequencyUnitWeek  FrequencyUnit = "week"
	FrequencyUnitMonth FrequencyUnit = "month"
	FrequencyUnitYear  FrequencyUnit = "year"
)

// RecurringProfile is the local record of a gateway-side recurring billing profile.
// ProcessorID is empty until the first recurring sale succeeds.
type RecurringProfile struct {
	StartDate         time.Time       `json:"start_date"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	EndDate           *time.Time      `json:"end_date"`
	CancelledAt       *time.Time      `json:"cancelled_at"`
	ID                string          `json:"id"`
	ProcessorID       string          `json:"processor_id"`
	FrequencyUnit     FrequencyUnit   `json:"frequency_unit"`
	Currency          string          `json:"currency"`
	Status            ProfileStatus   `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	FrequencyInterval int             `json:"frequency_interval"`
	TermCount         int             `json:"term_count"` // 0 = unbounded
	IsTest            bool            `json:"is_test"`
}

// IsCancelled returns true if the profile has been cancelled
func (p *RecurringProfile) IsCancelled() bool {
	return p.Status == ProfileStatusCancelled || p.CancelledAt != nil
}

// HasProcessorID reports whether the gateway has assigned a PROFILEID yet.
func (p *RecurringProfile) HasProcessorID() bool {
	return p.ProcessorID != ""
}

// IsUnbounded returns true when the profile runs until cancelled
func (p *RecurringProfile) IsUnbounded() bool {
	return p.TermCount == 0
}

// SameAmount reports whether amount and currency equal the stored ones.
// Currency comparison is case-insensitive.
func (p *RecurringProfile) SameAmount(amount decimal.Decimal, currency string) bool {
	return p.Amount.Equal(amount) && strings.EqualFold(p.Currency, currency)
}

// GetIntervalDescription returns a human-readable interval description
func (p *RecurringProfile) GetIntervalDescription() string {
	if p.FrequencyInterval == 1 {
		return string(p.FrequencyUnit)
	}
	return strconv.Itoa(p.FrequencyInterval) + " " + string(p.FrequencyUnit) + "s"
}

// ProfileFilter narrows RecurringProfileStore.List.
type ProfileFilter struct {
	IsTest       bool
	ProcessorIDs []string // empty = all profiles with a processor id
}
