package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/repository"
)

// LeadRepository keeps leads in process memory. Used for local runs and tests.
type LeadRepository struct {
	mu    sync.RWMutex
	leads map[domain.LeadID]domain.Lead
	clock func() time.Time
}

// NewLeadRepository creates an empty repository
func NewLeadRepository() *LeadRepository {
	return &LeadRepository{
		leads: make(map[domain.LeadID]domain.Lead),
		clock: time.Now,
	}
}

// WithClock replaces the timestamp source
func (r *LeadRepository) WithClock(clock func() time.Time) *LeadRepository {
	r.clock = clock
	return r
}

func (r *LeadRepository) Get(_ context.Context, id domain.LeadID) (domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return copyLead(l), nil
}

func (r *LeadRepository) FindByIDs(_ context.Context, ids []domain.LeadID) ([]domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Lead, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.leads[id]; ok {
			out = append(out, copyLead(l))
		}
	}
	return out, nil
}

func (r *LeadRepository) FindByRegistryID(_ context.Context, registryID string) (domain.Lead, bool, error) {
	if registryID == "" {
		return domain.Lead{}, false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.leads {
		if l.RegistryID == registryID {
			return copyLead(l), true, nil
		}
	}
	return domain.Lead{}, false, nil
}

func (r *LeadRepository) Create(_ context.Context, lead *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if _, exists := r.leads[lead.ID]; exists {
		return repository.ErrDuplicate
	}
	if r.registryTaken(lead.RegistryID, lead.ID) {
		return repository.ErrDuplicate
	}

	now := r.clock().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	r.leads[lead.ID] = copyLead(*lead)
	return nil
}

func (r *LeadRepository) Save(_ context.Context, lead *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[lead.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.registryTaken(lead.RegistryID, lead.ID) {
		return repository.ErrDuplicate
	}

	lead.UpdatedAt = r.clock().UTC()
	r.leads[lead.ID] = copyLead(*lead)
	return nil
}

func (r *LeadRepository) ListIDs(_ context.Context, filter repository.ScoringFilter) ([]domain.LeadID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		if filter.Matches(l) {
			matched = append(matched, l)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	ids := make([]domain.LeadID, 0, len(matched))
	for _, l := range matched {
		ids = append(ids, l.ID)
	}
	return ids, nil
}

func (r *LeadRepository) Stats(_ context.Context, topN int) (domain.ScoreStats, error) {
	r.mu.RLock()
	all := make([]domain.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		all = append(all, l)
	}
	r.mu.RUnlock()

	return repository.ComputeStats(all, topN), nil
}

func (r *LeadRepository) registryTaken(registryID string, self domain.LeadID) bool {
	if registryID == "" {
		return false
	}
	for id, l := range r.leads {
		if id != self && l.RegistryID == registryID {
			return true
		}
	}
	return false
}

// copyLead detaches pointer fields so stored leads cannot be mutated from outside
func copyLead(l domain.Lead) domain.Lead {
	if l.AnnualRevenue != nil {
		v := *l.AnnualRevenue
		l.AnnualRevenue = &v
	}
	if l.RegistryUpdatedAt != nil {
		v := *l.RegistryUpdatedAt
		l.RegistryUpdatedAt = &v
	}
	if l.ScoreBreakdown != nil {
		b := *l.ScoreBreakdown
		if b.Company != nil {
			c := *b.Company
			b.Company = &c
		}
		l.ScoreBreakdown = &b
	}
	return l
}

var _ repository.LeadRepository = (*LeadRepository)(nil)
