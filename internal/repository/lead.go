package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/honeycarbs/leadscore/internal/domain"
)

var (
	// ErrNotFound is returned when a lead does not exist
	ErrNotFound = errors.New("lead not found")
	// ErrDuplicate is returned when another lead already holds the registry identifier
	ErrDuplicate = errors.New("lead with registry identifier already exists")
)

// ScoringFilter selects leads for batch scoring. By default only leads that
// were never scored or sit at the baseline score are returned.
type ScoringFilter struct {
	IncludeScored bool
}

// Matches reports whether a lead falls inside the filter
func (f ScoringFilter) Matches(l domain.Lead) bool {
	return f.IncludeScored || l.Score <= domain.MinPossibleScore
}

// LeadRepository defines storage operations for leads and their score summary
type LeadRepository interface {
	// Get loads one lead, ErrNotFound when missing
	Get(ctx context.Context, id domain.LeadID) (domain.Lead, error)

	// FindByIDs loads the leads that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []domain.LeadID) ([]domain.Lead, error)

	// FindByRegistryID returns the lead holding a registry identifier
	FindByRegistryID(ctx context.Context, registryID string) (domain.Lead, bool, error)

	// Create inserts a new lead, assigning ID and timestamps when unset.
	// Registry identifiers are unique: ErrDuplicate when already taken.
	Create(ctx context.Context, lead *domain.Lead) error

	// Save updates an existing lead and bumps UpdatedAt
	Save(ctx context.Context, lead *domain.Lead) error

	// ListIDs returns ids of leads matching filter, newest first
	ListIDs(ctx context.Context, filter ScoringFilter) ([]domain.LeadID, error)

	// Stats aggregates scores and returns up to topN leads scoring 10 or more
	Stats(ctx context.Context, topN int) (domain.ScoreStats, error)
}

// TopLeadThreshold is the minimum score for the top-leads listing
const TopLeadThreshold = 10

// NewDistribution returns the histogram with every possible total preset to zero
func NewDistribution() map[string]int {
	dist := make(map[string]int, domain.MaxPossibleScore-domain.MinPossibleScore+1)
	for s := domain.MinPossibleScore; s <= domain.MaxPossibleScore; s++ {
		dist[strconv.Itoa(s)] = 0
	}
	return dist
}

// ComputeStats aggregates stats in memory; backends without server-side
// aggregation share it
func ComputeStats(leads []domain.Lead, topN int) domain.ScoreStats {
	stats := domain.ScoreStats{
		TotalLeads:   len(leads),
		Distribution: NewDistribution(),
		TopLeads:     []domain.TopLead{},
	}

	var sum, n int
	top := make([]domain.Lead, 0)
	for _, l := range leads {
		if l.Score > domain.MinPossibleScore {
			stats.ScoredLeads++
		}
		if l.Score <= 0 {
			continue
		}
		n++
		sum += l.Score
		if stats.MinScore == nil || l.Score < *stats.MinScore {
			v := l.Score
			stats.MinScore = &v
		}
		if stats.MaxScore == nil || l.Score > *stats.MaxScore {
			v := l.Score
			stats.MaxScore = &v
		}
		key := strconv.Itoa(l.Score)
		if _, ok := stats.Distribution[key]; ok {
			stats.Distribution[key]++
		}
		if l.Score >= TopLeadThreshold {
			top = append(top, l)
		}
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		stats.AverageScore = &avg
	}

	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Score != top[j].Score {
			return top[i].Score > top[j].Score
		}
		return top[i].CreatedAt.After(top[j].CreatedAt)
	})
	if topN >= 0 && len(top) > topN {
		top = top[:topN]
	}
	for _, l := range top {
		stats.TopLeads = append(stats.TopLeads, TopLeadOf(l))
	}
	return stats
}

// TopLeadOf builds the compact top-lead view
func TopLeadOf(l domain.Lead) domain.TopLead {
	return domain.TopLead{
		ID:       l.ID,
		Name:     l.FullName(),
		Company:  l.Company,
		Score:    l.Score,
		Industry: l.Industry,
	}
}
