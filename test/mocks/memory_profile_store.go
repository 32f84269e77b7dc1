package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

// MemoryProfileStore is an in-memory RecurringProfileStore for service tests.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*domain.RecurringProfile

	ListErr error
}

// NewMemoryProfileStore creates an empty store
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: map[string]*domain.RecurringProfile{}}
}

// Create stores a copy of the profile, assigning an ID when empty
func (s *MemoryProfileStore) Create(ctx context.Context, profile *domain.RecurringProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.Status == "" {
		profile.Status = domain.ProfileStatusPending
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	c := *profile
	s.profiles[profile.ID] = &c
	return nil
}

// Get returns a copy of the profile
func (s *MemoryProfileStore) Get(ctx context.Context, id string) (*domain.RecurringProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

// List returns profiles with a processor id matching the filter, ordered by ID
func (s *MemoryProfileStore) List(ctx context.Context, filter domain.ProfileFilter) ([]*domain.RecurringProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	wanted := make(map[string]bool, len(filter.ProcessorIDs))
	for _, id := range filter.ProcessorIDs {
		wanted[id] = true
	}

	var out []*domain.RecurringProfile
	for _, p := range s.profiles {
		if !p.HasProcessorID() || p.IsTest != filter.IsTest {
			continue
		}
		if len(wanted) > 0 && !wanted[p.ProcessorID] {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetProcessorID activates the profile with its gateway id and schedule
func (s *MemoryProfileStore) SetProcessorID(ctx context.Context, id, processorID string, schedule *domain.RecurringSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.ProcessorID = processorID
	p.Status = domain.ProfileStatusActive
	if schedule != nil {
		p.StartDate = schedule.Start
		p.EndDate = schedule.End
		p.TermCount = schedule.Term
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateAmount stores a new installment amount
func (s *MemoryProfileStore) UpdateAmount(ctx context.Context, id string, amount decimal.Decimal, currency string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.Amount = amount
	p.Currency = currency
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCancelled cancels the profile locally
func (s *MemoryProfileStore) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.Status = domain.ProfileStatusCancelled
	p.CancelledAt = &at
	p.UpdatedAt = at
	return nil
}

// Len returns the number of stored profiles
func (s *MemoryProfileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}
