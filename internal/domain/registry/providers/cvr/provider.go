package cvr

import (
	"context"
	"errors"
	"fmt"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/registry"
	"github.com/honeycarbs/leadscore/pkg/cvr"
)

// lookupClient describes the subset of the CVR client used by the provider.
type lookupClient interface {
	Lookup(ctx context.Context, number string) (cvr.Company, bool, error)
	SearchByName(ctx context.Context, name string, limit int) ([]cvr.Company, error)
}

// Provider implements registry.Registry using the CVR API
type Provider struct {
	client lookupClient
}

// NewProvider builds a CVR registry provider
func NewProvider(client lookupClient) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("cvr provider: client is required")
	}
	return &Provider{client: client}, nil
}

// Name returns provider identifier
func (p *Provider) Name() string {
	return "cvr"
}

// Lookup queries the CVR API and returns a normalized company record
func (p *Provider) Lookup(ctx context.Context, identifier string) (domain.CompanyRecord, bool, error) {
	if p == nil || p.client == nil {
		return domain.CompanyRecord{}, false, fmt.Errorf("cvr provider: client is nil")
	}

	company, found, err := p.client.Lookup(ctx, identifier)
	if err != nil {
		return domain.CompanyRecord{}, false, translate(err)
	}
	if !found {
		return domain.CompanyRecord{}, false, nil
	}
	return toRecord(company), true, nil
}

// Search queries CVR by company name
func (p *Provider) Search(ctx context.Context, name string, limit int) ([]domain.CompanyRecord, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("cvr provider: client is nil")
	}

	companies, err := p.client.SearchByName(ctx, name, limit)
	if err != nil {
		return nil, translate(err)
	}

	out := make([]domain.CompanyRecord, 0, len(companies))
	for _, c := range companies {
		out = append(out, toRecord(c))
	}
	return out, nil
}

var _ registry.Registry = (*Provider)(nil)

func translate(err error) error {
	if errors.Is(err, cvr.ErrInvalidNumber) {
		return fmt.Errorf("%w: %v", registry.ErrInvalidIdentifier, err)
	}
	var apiErr *cvr.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
	}
	return err
}

func toRecord(c cvr.Company) domain.CompanyRecord {
	return domain.CompanyRecord{
		RegistryID:      c.CVRNumber,
		Name:            c.Name,
		IndustryCode:    c.IndustryCode,
		IndustryText:    c.IndustryText,
		Employees:       c.Employees,
		AnnualRevenue:   c.AnnualRevenue,
		Address:         c.Address,
		City:            c.City,
		PostalCode:      c.PostalCode,
		Phone:           c.Phone,
		Email:           c.Email,
		Website:         c.Website,
		Status:          c.Status,
		EstablishedDate: c.EstablishedDate,
		LegalForm:       c.LegalForm,
		FetchedAt:       c.FetchedAt,
	}
}
