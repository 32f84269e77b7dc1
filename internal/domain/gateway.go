package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GatewayCredentials authenticates every gateway request and says where to send it.
type GatewayCredentials struct {
	VendorID  string
	UserID    string
	Subject   string // overrides UserID when set
	PartnerID string
	Password  string
	URL       string
	IsTest    bool
}

// User returns the USER value: Subject, else UserID, else the vendor id.
// Accounts without a separate user log in with the vendor name.
func (c *GatewayCredentials) User() string {
	if c.Subject != "" {
		return c.Subject
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.VendorID
}

// HistoryScope selects how much history an inquiry returns (PAYMENTHISTORY).
type HistoryScope string

const (
	HistoryScopeAll      HistoryScope = "Y"
	HistoryScopeNew      HistoryScope = "N"
	HistoryScopeOptional HistoryScope = "O"
)

// Valid returns true for the three scopes the gateway accepts
func (s HistoryScope) Valid() bool {
	switch s {
	case HistoryScopeAll, HistoryScopeNew, HistoryScopeOptional:
		return true
	}
	return false
}

// HistoryStatus is the local interpretation of a remote transaction state
type HistoryStatus string

const (
	HistoryStatusCompleted HistoryStatus = "Completed"
	HistoryStatusPending   HistoryStatus = "Pending"
	HistoryStatusFailed    HistoryStatus = "Failed"
)

// PaymentHistoryRecord is one installment reported by a profile inquiry.
type PaymentHistoryRecord struct {
	TrxnTimestamp        time.Time       `json:"trxn_date"`
	Index                string          `json:"id"`
	TrxnID               string          `json:"trxn_id"`
	TenderCode           string          `json:"payment_method"`
	ResultCode           string          `json:"result"`
	TransactionStateCode string          `json:"transaction_state"`
	MappedStatus         HistoryStatus   `json:"status"`
	StatusDescription    string          `json:"status_description"`
	Amount               decimal.Decimal `json:"amount"`
}

// GatewayResult is the decoded response of a successful money-moving call.
type GatewayResult struct {
	Raw        map[string]string
	PNRef      string
	TrxPNRef   string
	ProfileID  string
	RespMsg    string
	ResultCode int
}

// TrxnID joins PNREF and TRXPNREF, which is how recurring sales are referenced.
func (r *GatewayResult) TrxnID() string {
	return r.PNRef + r.TrxPNRef
}

// PaymentHistory is a decoded profile inquiry. Records keep gateway order;
// records that could not be interpreted are reported as anomalies instead.
type PaymentHistory struct {
	ProfileID string
	Records   []*PaymentHistoryRecord
	Anomalies []Anomaly
}
