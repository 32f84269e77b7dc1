package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerStatus is the local state of a single recurring installment
type LedgerStatus string

const (
	LedgerStatusPending   LedgerStatus = "Pending"
	LedgerStatusCompleted LedgerStatus = "Completed"
	LedgerStatusFailed    LedgerStatus = "Failed"
	LedgerStatusCancelled LedgerStatus = "Cancelled"
)

// LedgerEntry is one local payment record linked to a recurring profile.
type LedgerEntry struct {
	ReceiveDate        time.Time       `json:"receive_date"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	CancelDate         *time.Time      `json:"cancel_date"`
	ID                 string          `json:"id"`
	RecurringPaymentID string          `json:"recurring_payment_id"`
	TrxnID             string          `json:"trxn_id"`
	Status             LedgerStatus    `json:"status"`
	CancelReason       string          `json:"cancel_reason"`
	Amount             decimal.Decimal `json:"amount"`
	IsTest             bool            `json:"is_test"`
}

// IsCompleted returns true once the installment has settled
func (e *LedgerEntry) IsCompleted() bool {
	return e.Status == LedgerStatusCompleted
}

// Matches reports whether the stored transaction id contains the remote one.
// Containment rather than equality tolerates ids that other flows stored with
// extra prefixes or suffixes. Short remote ids can produce false positives.
func (e *LedgerEntry) Matches(remoteTrxnID string) bool {
	if remoteTrxnID == "" {
		return false
	}
	return strings.Contains(e.TrxnID, remoteTrxnID)
}

// CreateLedgerEntryParams creates a Pending installment
type CreateLedgerEntryParams struct {
	ReceiveDate        time.Time
	RecurringPaymentID string
	TrxnID             string
	Amount             decimal.Decimal
	IsTest             bool
}

// CompleteLedgerEntryParams settles an installment
type CompleteLedgerEntryParams struct {
	TrxnDate time.Time
	EntryID  string
	TrxnID   string
	Amount   decimal.Decimal
}

// FailLedgerEntryParams records a failed installment. The entry keeps its
// trxn_id.
type FailLedgerEntryParams struct {
	CancelDate   time.Time
	EntryID      string
	CancelReason string
}
