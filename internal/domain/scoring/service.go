package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/registry"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

// Repository persists scored leads
type Repository interface {
	Save(ctx context.Context, lead *domain.Lead) error
}

type Service interface {
	// Score evaluates a lead without side effects besides one registry read.
	// identifier may be empty, in which case it is extracted from the lead.
	Score(ctx context.Context, lead domain.Lead, identifier string) domain.ScoreBreakdown

	// ScoreAndUpdate scores the lead, writes the result and backfills empty
	// company fields from registry evidence, then persists it
	ScoreAndUpdate(ctx context.Context, lead *domain.Lead, identifier string) (domain.ScoreBreakdown, error)

	// BulkScore runs ScoreAndUpdate on each lead in order. A lead that fails
	// gets a baseline breakdown so the result always matches the input length.
	BulkScore(ctx context.Context, leads []*domain.Lead) []domain.ScoreBreakdown

	// Criteria returns a copy of the active profile
	Criteria() Criteria
}

// Option configures Service
type Option func(*config)

type config struct {
	registry registry.Registry
	repo     Repository
	criteria Criteria
	clock    func() time.Time
	logger   *logging.Logger
}

// WithRegistry sets the company registry used for enrichment
func WithRegistry(r registry.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithRepository sets the repository
func WithRepository(repo Repository) Option {
	return func(c *config) {
		c.repo = repo
	}
}

// WithCriteria overrides the ICP; unset fields keep their defaults
func WithCriteria(criteria Criteria) Option {
	return func(c *config) {
		c.criteria = criteria
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// NewService builds Service from options
func NewService(opts ...Option) (Service, error) {
	cfg := &config{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.repo == nil {
		return nil, fmt.Errorf("scoring.Service: repository is required")
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}

	return &service{
		registry: cfg.registry,
		repo:     cfg.repo,
		criteria: cfg.criteria.WithDefaults().clone(),
		clock:    cfg.clock,
		log:      cfg.logger.Named("scoring"),
	}, nil
}

// NewServiceWithDeps creates a Service with direct dependencies (Wire-compatible)
func NewServiceWithDeps(repo Repository, reg registry.Registry, criteria Criteria, logger *logging.Logger) (Service, error) {
	return NewService(
		WithRepository(repo),
		WithRegistry(reg),
		WithCriteria(criteria),
		WithLogger(logger),
	)
}

type service struct {
	registry registry.Registry
	repo     Repository
	criteria Criteria
	clock    func() time.Time
	log      *logging.Logger
}

func (s *service) Criteria() Criteria {
	return s.criteria.clone()
}

func (s *service) Score(ctx context.Context, lead domain.Lead, identifier string) domain.ScoreBreakdown {
	log := s.log.With("lead_id", lead.ID, "company", lead.Company)

	company := s.lookup(ctx, lead, identifier, log)
	attrs := resolve(lead, company)

	m := domain.Matches{
		CompanySize: s.criteria.SizeMatches(attrs.employees),
		Industry:    s.criteria.IndustryMatches(attrs.industry),
		Seniority:   s.criteria.LevelMatches(attrs.title),
		Location:    s.criteria.CityMatches(attrs.city),
	}
	b := domain.NewScoreBreakdown(m, company, s.clock().UTC())

	log.Debug("lead scored",
		"total", b.TotalScore,
		"grade", b.ScoreGrade,
		"size_match", m.CompanySize,
		"industry_match", m.Industry,
		"seniority_match", m.Seniority,
		"location_match", m.Location,
		"enriched", company != nil,
	)
	return b
}

// lookup resolves registry evidence; every failure degrades to no evidence
func (s *service) lookup(ctx context.Context, lead domain.Lead, identifier string, log *logging.Logger) *domain.CompanyRecord {
	if s.registry == nil {
		return nil
	}
	id := identifier
	if id == "" {
		extracted, ok := registry.ExtractIdentifier(lead)
		if !ok {
			return nil
		}
		id = extracted
	}

	normalized, err := registry.NormalizeIdentifier(id)
	if err != nil {
		log.Warn("skipping registry lookup for invalid identifier", "identifier", id, "err", err)
		return nil
	}

	company, found, err := s.registry.Lookup(ctx, normalized)
	switch {
	case errors.Is(err, registry.ErrInvalidIdentifier):
		log.Warn("skipping registry lookup for invalid identifier", "identifier", id, "err", err)
		return nil
	case err != nil:
		log.Warn("registry lookup failed, scoring without registry data", "identifier", id, "err", err)
		return nil
	case !found:
		log.Info("no registry record for identifier", "identifier", id)
		return nil
	}
	return &company
}

func (s *service) ScoreAndUpdate(ctx context.Context, lead *domain.Lead, identifier string) (domain.ScoreBreakdown, error) {
	if lead == nil {
		return domain.ScoreBreakdown{}, fmt.Errorf("scoring: lead is nil")
	}

	b := s.Score(ctx, *lead, identifier)
	lead.Score = b.TotalScore
	lead.ScoreBreakdown = &b

	if c := b.Company; c != nil {
		if lead.Employees == 0 {
			lead.Employees = c.Employees
		}
		lead.Industry = preferString(lead.Industry, c.IndustryText)
		lead.Website = preferString(lead.Website, c.Website)
		lead.Phone = preferString(lead.Phone, c.Phone)
	}

	if err := s.repo.Save(ctx, lead); err != nil {
		return b, fmt.Errorf("save scored lead %s: %w", lead.ID, err)
	}
	s.log.Info("lead score updated", "lead_id", lead.ID, "score", b.TotalScore, "grade", b.ScoreGrade)
	return b, nil
}

func (s *service) BulkScore(ctx context.Context, leads []*domain.Lead) []domain.ScoreBreakdown {
	out := make([]domain.ScoreBreakdown, 0, len(leads))
	for i, lead := range leads {
		b, err := s.ScoreAndUpdate(ctx, lead, "")
		if err != nil {
			s.log.Error("failed to score lead", "index", i, "err", err)
			b = domain.BaselineBreakdown(s.clock().UTC())
		}
		out = append(out, b)
	}
	return out
}
