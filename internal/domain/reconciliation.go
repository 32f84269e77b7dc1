package domain

import "time"

// RecordDetail is what happened to one remote history record.
type RecordDetail struct {
	TrxnDate    time.Time `json:"date"`
	EntryID     string    `json:"entry_id"`
	TrxnID      string    `json:"trxn_id"`
	Description string    `json:"description"`
	Created     bool      `json:"created,omitempty"`
	Existing    bool      `json:"existing,omitempty"`
	Completed   bool      `json:"completed,omitempty"`
	AlreadyDone bool      `json:"already_completed,omitempty"`
	Failed      bool      `json:"failed,omitempty"`
	Pending     bool      `json:"pending,omitempty"`
}

// Anomaly is a per-record problem that did not stop the pass.
type Anomaly struct {
	Index   string `json:"index"`
	TrxnID  string `json:"trxn_id"`
	Message string `json:"message"`
}

// ReconciliationOutcome summarises one pass over one recurring profile.
type ReconciliationOutcome struct {
	ProfileID   string          `json:"profile_id"`
	ProcessorID string          `json:"processor_id"`
	Error       string          `json:"error,omitempty"` // history fetch failed; nothing was applied
	Created     []string        `json:"created"`
	Matched     []string        `json:"matched"`
	Completed   []string        `json:"completed"`
	Failed      []string        `json:"failed"`
	Pending     []string        `json:"pending"`
	Details     []*RecordDetail `json:"details"`
	Anomalies   []Anomaly       `json:"anomalies,omitempty"`
}

// NewReconciliationOutcome returns an empty outcome for the profile
func NewReconciliationOutcome(profile *RecurringProfile) *ReconciliationOutcome {
	return &ReconciliationOutcome{
		ProfileID:   profile.ID,
		ProcessorID: profile.ProcessorID,
		Created:     []string{},
		Matched:     []string{},
		Completed:   []string{},
		Failed:      []string{},
		Pending:     []string{},
		Details:     []*RecordDetail{},
	}
}

// Clean reports whether the pass finished without anomalies or errors
func (o *ReconciliationOutcome) Clean() bool {
	return o.Error == "" && len(o.Anomalies) == 0
}

// ImportSummary aggregates outcomes for an import run.
type ImportSummary struct {
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Outcomes   []*ReconciliationOutcome `json:"outcomes"`
}

// Clean reports whether every profile reconciled cleanly
func (s *ImportSummary) Clean() bool {
	for _, o := range s.Outcomes {
		if !o.Clean() {
			return false
		}
	}
	return true
}

// CreatedCount totals newly created ledger entries
func (s *ImportSummary) CreatedCount() int {
	n := 0
	for _, o := range s.Outcomes {
		n += len(o.Created)
	}
	return n
}
