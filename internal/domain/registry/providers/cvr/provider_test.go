package cvr

import (
	"context"
	"errors"
	"testing"

	"github.com/honeycarbs/leadscore/internal/domain/registry"
	"github.com/honeycarbs/leadscore/pkg/cvr"
)

type stubClient struct {
	company cvr.Company
	found   bool
	err     error
	search  []cvr.Company
}

func (s stubClient) Lookup(context.Context, string) (cvr.Company, bool, error) {
	return s.company, s.found, s.err
}

func (s stubClient) SearchByName(context.Context, string, int) ([]cvr.Company, error) {
	return s.search, s.err
}

func TestProviderLookupMapsCompany(t *testing.T) {
	rev := 1000.0
	p, err := NewProvider(stubClient{
		company: cvr.Company{CVRNumber: "12345678", Name: "Acme ApS", Employees: 42, AnnualRevenue: &rev, City: "Aarhus"},
		found:   true,
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	rec, found, err := p.Lookup(context.Background(), "12345678")
	if err != nil || !found {
		t.Fatalf("Lookup: found=%v err=%v", found, err)
	}
	if rec.RegistryID != "12345678" || rec.Name != "Acme ApS" || rec.Employees != 42 || rec.City != "Aarhus" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.AnnualRevenue == nil || *rec.AnnualRevenue != 1000 {
		t.Fatalf("AnnualRevenue = %v", rec.AnnualRevenue)
	}
}

func TestProviderTranslatesErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "invalid", err: cvr.ErrInvalidNumber, want: registry.ErrInvalidIdentifier},
		{name: "api", err: &cvr.APIError{StatusCode: 503, Message: "down"}, want: registry.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := NewProvider(stubClient{err: tc.err})
			if _, _, err := p.Lookup(context.Background(), "x"); !errors.Is(err, tc.want) {
				t.Fatalf("Lookup err = %v, want %v", err, tc.want)
			}
			if _, err := p.Search(context.Background(), "x", 5); !errors.Is(err, tc.want) {
				t.Fatalf("Search err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewProviderRequiresClient(t *testing.T) {
	if _, err := NewProvider(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}
