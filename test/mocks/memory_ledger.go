package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

// MemoryLedger is an in-memory LocalLedger for service tests.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]*domain.LedgerEntry
	seq     int

	CreateCalls   int
	CompleteCalls int
	FailCalls     int

	// Fail the next matching call when set
	QueryErr    error
	CreateErr   error
	CompleteErr error
}

// NewMemoryLedger creates an empty ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: map[string]*domain.LedgerEntry{}}
}

// Seed inserts an entry as-is. ID and CreatedAt are filled when empty.
func (m *MemoryLedger) Seed(entry *domain.LedgerEntry) *domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("entry-%d", m.seq)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Unix(int64(m.seq), 0).UTC()
	}
	m.entries[entry.ID] = entry
	return entry
}

// Get returns a copy of the entry, or nil
func (m *MemoryLedger) Get(id string) *domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil
	}
	c := *e
	return &c
}

// Len returns the number of stored entries
func (m *MemoryLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Query returns copies ordered by receive date, newest first
func (m *MemoryLedger) Query(ctx context.Context, recurringPaymentID string, isTest bool) ([]*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	var out []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.RecurringPaymentID == recurringPaymentID && e.IsTest == isTest {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceiveDate.Equal(out[j].ReceiveDate) {
			return out[i].ReceiveDate.After(out[j].ReceiveDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Create inserts a Pending entry
func (m *MemoryLedger) Create(ctx context.Context, params *domain.CreateLedgerEntryParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return "", m.CreateErr
	}

	m.seq++
	id := fmt.Sprintf("entry-%d", m.seq)
	m.entries[id] = &domain.LedgerEntry{
		ID:                 id,
		RecurringPaymentID: params.RecurringPaymentID,
		TrxnID:             params.TrxnID,
		Amount:             params.Amount,
		ReceiveDate:        params.ReceiveDate,
		Status:             domain.LedgerStatusPending,
		IsTest:             params.IsTest,
		CreatedAt:          time.Unix(int64(m.seq), 0).UTC(),
	}
	return id, nil
}

// MarkCompleted settles an entry; completing a Completed entry is a no-op
func (m *MemoryLedger) MarkCompleted(ctx context.Context, params *domain.CompleteLedgerEntryParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls++
	if m.CompleteErr != nil {
		return m.CompleteErr
	}

	e, ok := m.entries[params.EntryID]
	if !ok {
		return domain.ErrLedgerEntryNotFound
	}
	if e.IsCompleted() {
		return nil
	}
	e.Status = domain.LedgerStatusCompleted
	e.ReceiveDate = params.TrxnDate
	e.TrxnID = params.TrxnID
	e.Amount = params.Amount
	return nil
}

// MarkFailed records a failure with its reason
func (m *MemoryLedger) MarkFailed(ctx context.Context, params *domain.FailLedgerEntryParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailCalls++

	e, ok := m.entries[params.EntryID]
	if !ok {
		return domain.ErrLedgerEntryNotFound
	}
	if e.IsCompleted() {
		return errors.New("cannot fail a completed entry")
	}
	at := params.CancelDate
	e.Status = domain.LedgerStatusFailed
	e.CancelDate = &at
	e.CancelReason = params.CancelReason
	return nil
}
