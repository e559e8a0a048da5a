package lead

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/enrichment"
	"github.com/honeycarbs/leadscore/internal/domain/registry"
	"github.com/honeycarbs/leadscore/internal/domain/scoring"
	"github.com/honeycarbs/leadscore/internal/repository"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

const (
	// DefaultBatchSize is the number of leads loaded per score-all batch
	DefaultBatchSize = 50
	// TopLeadsLimit caps the top-leads listing in stats
	TopLeadsLimit = 10
	// DefaultSearchLimit bounds registry name searches
	DefaultSearchLimit = 10
)

var (
	// ErrInvalidInput marks requests rejected before any work is done
	ErrInvalidInput = errors.New("invalid input")
	// ErrCompanyNotFound is returned when the registry has no such company
	ErrCompanyNotFound = enrichment.ErrNotFound
	// ErrDuplicate is returned when creating a lead for an identifier that is already taken
	ErrDuplicate = enrichment.ErrDuplicate
)

// Service is the consumer-facing scoring API used by the REST handlers,
// MCP tools and CLI
type Service struct {
	repo     repository.LeadRepository
	registry registry.Registry
	scorer   scoring.Service
	enricher *enrichment.Service
	clock    func() time.Time
	log      *logging.Logger
}

// NewService wires the facade
func NewService(
	repo repository.LeadRepository,
	reg registry.Registry,
	scorer scoring.Service,
	enricher *enrichment.Service,
	logger *logging.Logger,
) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lead.Service: repository is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("lead.Service: registry is required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("lead.Service: scorer is required")
	}
	if enricher == nil {
		return nil, fmt.Errorf("lead.Service: enricher is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		repo:     repo,
		registry: reg,
		scorer:   scorer,
		enricher: enricher,
		clock:    time.Now,
		log:      logger.Named("lead"),
	}, nil
}

// WithClock sets a custom clock
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// ScoreResult pairs a lead with the breakdown it was just given
type ScoreResult struct {
	LeadID    domain.LeadID         `json:"lead_id"`
	LeadName  string                `json:"lead_name"`
	Company   string                `json:"company"`
	Breakdown domain.ScoreBreakdown `json:"score_breakdown"`
}

func newScoreResult(l domain.Lead, b domain.ScoreBreakdown) ScoreResult {
	return ScoreResult{LeadID: l.ID, LeadName: l.FullName(), Company: l.Company, Breakdown: b}
}

// ScoreByID scores and persists one lead. A non-empty identifier is
// validated up front and used instead of one extracted from the lead.
func (s *Service) ScoreByID(ctx context.Context, id domain.LeadID, identifier string) (ScoreResult, error) {
	if identifier != "" {
		normalized, err := registry.NormalizeIdentifier(identifier)
		if err != nil {
			return ScoreResult{}, err
		}
		identifier = normalized
	}

	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return ScoreResult{}, err
	}

	b, err := s.scorer.ScoreAndUpdate(ctx, &l, identifier)
	if err != nil {
		return ScoreResult{}, err
	}
	return newScoreResult(l, b), nil
}

// CurrentScore is the stored score summary of a lead
type CurrentScore struct {
	LeadID            domain.LeadID          `json:"lead_id"`
	LeadName          string                 `json:"lead_name"`
	Company           string                 `json:"company"`
	Score             int                    `json:"current_score"`
	Breakdown         *domain.ScoreBreakdown `json:"score_breakdown"`
	RegistryID        string                 `json:"cvr_number"`
	RegistryUpdatedAt *time.Time             `json:"cvr_last_updated"`
}

// GetScore returns the last persisted score without rescoring
func (s *Service) GetScore(ctx context.Context, id domain.LeadID) (CurrentScore, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return CurrentScore{}, err
	}
	return CurrentScore{
		LeadID:            l.ID,
		LeadName:          l.FullName(),
		Company:           l.Company,
		Score:             l.Score,
		Breakdown:         l.ScoreBreakdown,
		RegistryID:        l.RegistryID,
		RegistryUpdatedAt: l.RegistryUpdatedAt,
	}, nil
}

// BulkScoreByIDs scores the existing leads among ids in input order.
// Unknown ids are skipped; per-lead failures yield a baseline breakdown.
func (s *Service) BulkScoreByIDs(ctx context.Context, ids []domain.LeadID) ([]ScoreResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no lead ids provided", ErrInvalidInput)
	}

	leads, err := s.loadOrdered(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return nil, fmt.Errorf("%w: no valid leads found", repository.ErrNotFound)
	}

	breakdowns := s.scorer.BulkScore(ctx, leads)
	results := make([]ScoreResult, 0, len(leads))
	for i, l := range leads {
		results = append(results, newScoreResult(*l, breakdowns[i]))
	}
	s.log.Info("bulk scored leads", "requested", len(ids), "scored", len(results))
	return results, nil
}

// ScoreAllOptions controls a score-all run
type ScoreAllOptions struct {
	// Force rescoring of leads that already score above baseline
	Force bool
	// BatchSize defaults to DefaultBatchSize
	BatchSize int
	// DryRun computes scores without persisting them
	DryRun bool
	// Progress, when set, is called after each batch
	Progress func(BatchProgress)
}

// BatchProgress reports one finished score-all batch
type BatchProgress struct {
	Batch   int `json:"batch"`
	Batches int `json:"batches"`
	Size    int `json:"size"`
	Done    int `json:"done"`
	Total   int `json:"total"`
}

// ScoreAllResult summarizes a score-all run
type ScoreAllResult struct {
	Candidates   int            `json:"candidates"`
	ScoredCount  int            `json:"scored_count"`
	Batches      int            `json:"batches"`
	DryRun       bool           `json:"dry_run"`
	Grades       map[string]int `json:"grades"`
	AverageScore float64        `json:"avg_score"`
	Message      string         `json:"message"`
}

// ScoreAll scores every lead at or below baseline (all leads with Force),
// sequentially in batches. Candidate ids are collected before the first
// batch so leads whose score changes mid-run are neither skipped nor revisited.
func (s *Service) ScoreAll(ctx context.Context, opts ScoreAllOptions) (ScoreAllResult, error) {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	ids, err := s.repo.ListIDs(ctx, repository.ScoringFilter{IncludeScored: opts.Force})
	if err != nil {
		return ScoreAllResult{}, fmt.Errorf("list leads to score: %w", err)
	}

	res := ScoreAllResult{
		Candidates: len(ids),
		DryRun:     opts.DryRun,
		Grades:     map[string]int{},
	}
	if len(ids) == 0 {
		res.Message = "No leads need scoring"
		return res, nil
	}

	batches := (len(ids) + size - 1) / size
	sum := 0
	for start := 0; start < len(ids); start += size {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(start+size, len(ids))

		leads, err := s.loadOrdered(ctx, ids[start:end])
		if err != nil {
			return res, fmt.Errorf("load batch %d: %w", res.Batches+1, err)
		}

		var breakdowns []domain.ScoreBreakdown
		if opts.DryRun {
			breakdowns = make([]domain.ScoreBreakdown, 0, len(leads))
			for _, l := range leads {
				breakdowns = append(breakdowns, s.scorer.Score(ctx, *l, ""))
			}
		} else {
			breakdowns = s.scorer.BulkScore(ctx, leads)
		}

		for _, b := range breakdowns {
			res.Grades[b.ScoreGrade]++
			sum += b.TotalScore
		}
		res.ScoredCount += len(breakdowns)
		res.Batches++

		s.log.Info("scored batch", "batch", res.Batches, "batches", batches, "size", len(breakdowns), "dry_run", opts.DryRun)
		if opts.Progress != nil {
			opts.Progress(BatchProgress{
				Batch:   res.Batches,
				Batches: batches,
				Size:    len(breakdowns),
				Done:    end,
				Total:   len(ids),
			})
		}
	}

	if res.ScoredCount > 0 {
		res.AverageScore = float64(sum) / float64(res.ScoredCount)
	}
	res.Message = fmt.Sprintf("Successfully scored %d leads", res.ScoredCount)
	if opts.DryRun {
		res.Message = fmt.Sprintf("Dry run: would score %d leads", res.ScoredCount)
	}
	return res, nil
}

// RegistryData is the registry record attached to a lead
type RegistryData struct {
	LeadID     domain.LeadID        `json:"lead_id"`
	RegistryID string               `json:"cvr_number"`
	Company    domain.CompanyRecord `json:"cvr_data"`
}

// RegistryData fetches fresh registry data for the lead's stored identifier
func (s *Service) RegistryData(ctx context.Context, id domain.LeadID) (RegistryData, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return RegistryData{}, err
	}
	if l.RegistryID == "" {
		return RegistryData{}, fmt.Errorf("%w: no registry identifier associated with this lead", ErrInvalidInput)
	}

	company, err := s.Lookup(ctx, l.RegistryID)
	if err != nil {
		return RegistryData{}, err
	}
	return RegistryData{LeadID: l.ID, RegistryID: l.RegistryID, Company: company}, nil
}

// RegistryUpdate is the outcome of attaching an identifier to a lead
type RegistryUpdate struct {
	RegistryData
	UpdatedFields []string `json:"updated_fields"`
}

// AttachRegistryID sets the lead's identifier and backfills empty employees,
// industry, website and phone from the registry. Nothing is written when the
// registry has no such company.
func (s *Service) AttachRegistryID(ctx context.Context, id domain.LeadID, identifier string) (RegistryUpdate, error) {
	if identifier == "" {
		return RegistryUpdate{}, fmt.Errorf("%w: registry identifier is required", ErrInvalidInput)
	}
	normalized, err := registry.NormalizeIdentifier(identifier)
	if err != nil {
		return RegistryUpdate{}, err
	}

	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return RegistryUpdate{}, err
	}

	company, err := s.Lookup(ctx, normalized)
	if err != nil {
		return RegistryUpdate{}, err
	}

	updated := make([]string, 0, 4)
	if l.Employees == 0 && company.Employees > 0 {
		l.Employees = company.Employees
		updated = append(updated, "employees")
	}
	if l.Industry == "" && company.IndustryText != "" {
		l.Industry = company.IndustryText
		updated = append(updated, "industry")
	}
	if l.Website == "" && company.Website != "" {
		l.Website = company.Website
		updated = append(updated, "website")
	}
	if l.Phone == "" && company.Phone != "" {
		l.Phone = company.Phone
		updated = append(updated, "phone")
	}
	now := s.clock().UTC()
	l.RegistryID = normalized
	l.RegistryUpdatedAt = &now

	if err := s.repo.Save(ctx, &l); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return RegistryUpdate{}, fmt.Errorf("%w: %s", ErrDuplicate, normalized)
		}
		return RegistryUpdate{}, fmt.Errorf("save lead registry data: %w", err)
	}

	s.log.Info("registry identifier attached", "lead_id", l.ID, "identifier", normalized, "updated_fields", updated)
	return RegistryUpdate{
		RegistryData:  RegistryData{LeadID: l.ID, RegistryID: normalized, Company: company},
		UpdatedFields: updated,
	}, nil
}

// PopulateByID fills the lead's empty fields from the registry. identifier
// falls back to the identifier already stored on the lead.
func (s *Service) PopulateByID(ctx context.Context, id domain.LeadID, identifier string) (domain.Lead, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if identifier == "" {
		identifier = l.RegistryID
	}
	if identifier == "" {
		return domain.Lead{}, fmt.Errorf("%w: registry identifier is required", ErrInvalidInput)
	}

	ok, err := s.enricher.Populate(ctx, &l, identifier)
	if err != nil {
		return domain.Lead{}, err
	}
	if !ok {
		return domain.Lead{}, fmt.Errorf("%w: %s", ErrCompanyNotFound, identifier)
	}
	return l, nil
}

// CreateRequest describes a lead to create from registry data
type CreateRequest struct {
	Identifier string           `json:"cvr_number"`
	Owner      string           `json:"assigned_to,omitempty"`
	Creator    string           `json:"created_by,omitempty"`
	Overrides  domain.LeadPatch `json:"extra_fields"`
}

// CreateFromRegistry creates and scores a lead for a registry identifier
func (s *Service) CreateFromRegistry(ctx context.Context, req CreateRequest) (*domain.Lead, error) {
	if req.Identifier == "" {
		return nil, fmt.Errorf("%w: registry identifier is required", ErrInvalidInput)
	}
	normalized, err := registry.NormalizeIdentifier(req.Identifier)
	if err != nil {
		return nil, err
	}

	existing, found, err := s.repo.FindByRegistryID(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("check existing lead: %w", err)
	}
	if found {
		return nil, fmt.Errorf("%w: %s (ID: %s)", ErrDuplicate, normalized, existing.ID)
	}

	return s.enricher.CreateFromRegistry(ctx, normalized, req.Owner, req.Creator, req.Overrides)
}

// Lookup resolves one registry identifier
func (s *Service) Lookup(ctx context.Context, identifier string) (domain.CompanyRecord, error) {
	if identifier == "" {
		return domain.CompanyRecord{}, fmt.Errorf("%w: registry identifier is required", ErrInvalidInput)
	}
	normalized, err := registry.NormalizeIdentifier(identifier)
	if err != nil {
		return domain.CompanyRecord{}, err
	}

	company, found, err := s.registry.Lookup(ctx, normalized)
	if err != nil {
		s.log.Error("registry lookup failed", "identifier", normalized, "err", err)
		return domain.CompanyRecord{}, err
	}
	if !found {
		return domain.CompanyRecord{}, fmt.Errorf("%w: %s", ErrCompanyNotFound, normalized)
	}
	return company, nil
}

// Search finds registry companies by name
func (s *Service) Search(ctx context.Context, name string, limit int) ([]domain.CompanyRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: search name is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return s.registry.Search(ctx, name, limit)
}

// ScoringInfo describes the point scale
type ScoringInfo struct {
	MinScore      int `json:"min_score"`
	MaxScore      int `json:"max_score"`
	PointsPerHit  int `json:"points_per_match"`
	PointsPerMiss int `json:"points_per_miss"`
}

// ICPConfig is the active profile plus its point scale
type ICPConfig struct {
	scoring.Criteria
	Scoring ScoringInfo `json:"scoring_info"`
}

// Criteria returns the active ICP configuration
func (s *Service) Criteria() ICPConfig {
	return ICPConfig{
		Criteria: s.scorer.Criteria(),
		Scoring: ScoringInfo{
			MinScore:      domain.MinPossibleScore,
			MaxScore:      domain.MaxPossibleScore,
			PointsPerHit:  domain.MatchPoints,
			PointsPerMiss: domain.MissPoints,
		},
	}
}

// Stats aggregates scores across all leads
func (s *Service) Stats(ctx context.Context) (domain.ScoreStats, error) {
	return s.repo.Stats(ctx, TopLeadsLimit)
}

// ScoredLeads returns leads scoring at least minScore, best first
func (s *Service) ScoredLeads(ctx context.Context, minScore int) ([]domain.Lead, error) {
	ids, err := s.repo.ListIDs(ctx, repository.ScoringFilter{IncludeScored: true})
	if err != nil {
		return nil, err
	}
	leads, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if l.Score >= minScore && l.Score > 0 {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// loadOrdered loads ids and returns the found leads in input order
func (s *Service) loadOrdered(ctx context.Context, ids []domain.LeadID) ([]*domain.Lead, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}
	byID := make(map[domain.LeadID]*domain.Lead, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	out := make([]*domain.Lead, 0, len(found))
	seen := make(map[domain.LeadID]bool, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, l)
		}
	}
	return out, nil
}
