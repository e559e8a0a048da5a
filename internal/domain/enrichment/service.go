package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/registry"
	"github.com/honeycarbs/leadscore/internal/domain/scoring"
	"github.com/honeycarbs/leadscore/internal/repository"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

var (
	// ErrNotFound is returned when the registry has no company for an identifier
	ErrNotFound = errors.New("company not found in registry")
	// ErrDuplicate is returned when a lead already holds the identifier
	ErrDuplicate = errors.New("lead with this registry identifier already exists")
)

// Repository persists enriched and newly created leads
type Repository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Save(ctx context.Context, lead *domain.Lead) error
}

// Service fills leads from registry data
type Service struct {
	registry registry.Registry
	repo     Repository
	scorer   scoring.Service
	clock    func() time.Time
	log      *logging.Logger
}

// NewService creates an enrichment service
func NewService(reg registry.Registry, repo Repository, scorer scoring.Service, logger *logging.Logger) (*Service, error) {
	if reg == nil {
		return nil, fmt.Errorf("enrichment.Service: registry is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("enrichment.Service: repository is required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("enrichment.Service: scorer is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		registry: reg,
		repo:     repo,
		scorer:   scorer,
		clock:    time.Now,
		log:      logger.Named("enrichment"),
	}, nil
}

// WithClock sets a custom clock
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Populate fills the lead's empty fields from the registry record for
// identifier and stamps the identifier. It returns false without touching the
// lead when the registry has no such company.
func (s *Service) Populate(ctx context.Context, lead *domain.Lead, identifier string) (bool, error) {
	if lead == nil {
		return false, fmt.Errorf("enrichment: lead is nil")
	}
	log := s.log.With("lead_id", lead.ID, "identifier", identifier)

	id, err := registry.NormalizeIdentifier(identifier)
	if err != nil {
		return false, err
	}

	company, found, err := s.registry.Lookup(ctx, id)
	if err != nil {
		log.Error("registry lookup failed", "err", err)
		return false, err
	}
	if !found {
		log.Warn("no registry data for identifier")
		return false, nil
	}

	updated := *lead
	fillEmpty(&updated, company)
	now := s.clock().UTC()
	updated.RegistryID = id
	updated.RegistryUpdatedAt = &now

	if err := s.repo.Save(ctx, &updated); err != nil {
		log.Error("failed to save populated lead", "err", err)
		if errors.Is(err, repository.ErrDuplicate) {
			return false, fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		return false, fmt.Errorf("save populated lead: %w", err)
	}

	*lead = updated
	log.Info("lead populated from registry", "company", company.Name)
	return true, nil
}

// CreateFromRegistry builds a lead from the registry record, applies
// overrides, persists it and scores it once
func (s *Service) CreateFromRegistry(ctx context.Context, identifier, owner, creator string, overrides domain.LeadPatch) (*domain.Lead, error) {
	log := s.log.With("identifier", identifier)

	id, err := registry.NormalizeIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	company, found, err := s.registry.Lookup(ctx, id)
	if err != nil {
		log.Error("registry lookup failed", "err", err)
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	now := s.clock().UTC()
	lead := &domain.Lead{
		Company:           company.Name,
		Industry:          company.IndustryText,
		Employees:         company.Employees,
		AnnualRevenue:     company.AnnualRevenue,
		Street:            company.Address,
		City:              company.City,
		PostalCode:        company.PostalCode,
		Phone:             company.Phone,
		Website:           company.Website,
		RegistryID:        id,
		RegistryUpdatedAt: &now,
		AssignedTo:        owner,
		CreatedBy:         creator,
		Source:            domain.LeadSourceCVRLookup,
		Status:            domain.LeadStatusNew,
	}
	overrides.Apply(lead)

	if err := s.repo.Create(ctx, lead); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		return nil, fmt.Errorf("create lead from registry: %w", err)
	}

	b, err := s.scorer.ScoreAndUpdate(ctx, lead, id)
	if err != nil {
		// the lead exists; a failed score write leaves it at its unscored state
		log.Error("failed to score created lead", "lead_id", lead.ID, "err", err)
	}

	log.Info("lead created from registry", "lead_id", lead.ID, "company", lead.Company, "score", b.TotalScore)
	return lead, nil
}

func fillEmpty(l *domain.Lead, c domain.CompanyRecord) {
	setIfEmpty := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	setIfEmpty(&l.Company, c.Name)
	setIfEmpty(&l.Industry, c.IndustryText)
	setIfEmpty(&l.Street, c.Address)
	setIfEmpty(&l.City, c.City)
	setIfEmpty(&l.PostalCode, c.PostalCode)
	setIfEmpty(&l.Phone, c.Phone)
	setIfEmpty(&l.Website, c.Website)
	if l.Employees == 0 && c.Employees > 0 {
		l.Employees = c.Employees
	}
	if l.AnnualRevenue == nil && c.AnnualRevenue != nil {
		v := *c.AnnualRevenue
		l.AnnualRevenue = &v
	}
}
