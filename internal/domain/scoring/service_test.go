package scoring

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/registry"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type fakeRegistry struct {
	records map[string]domain.CompanyRecord
	errs    map[string]error
	calls   []string
}

func (f *fakeRegistry) Name() string { return "fake" }

func (f *fakeRegistry) Lookup(_ context.Context, id string) (domain.CompanyRecord, bool, error) {
	f.calls = append(f.calls, id)
	if err, ok := f.errs[id]; ok {
		return domain.CompanyRecord{}, false, err
	}
	rec, ok := f.records[id]
	return rec, ok, nil
}

func (f *fakeRegistry) Search(context.Context, string, int) ([]domain.CompanyRecord, error) {
	return nil, nil
}

type fakeRepo struct {
	saved []domain.Lead
	fail  map[uuid.UUID]bool
}

func (f *fakeRepo) Save(_ context.Context, l *domain.Lead) error {
	if f.fail[l.ID] {
		return errors.New("disk full")
	}
	f.saved = append(f.saved, *l)
	return nil
}

func exampleCriteria() Criteria {
	return Criteria{
		MinEmployees:     200,
		TargetIndustries: []string{"Retail"},
		TargetCities:     []string{"Copenhagen"},
		TargetLevels:     []string{"VP"},
	}
}

func newTestService(t *testing.T, reg registry.Registry, repo Repository, criteria Criteria) Service {
	t.Helper()
	svc, err := NewService(
		WithRegistry(reg),
		WithRepository(repo),
		WithCriteria(criteria),
		WithClock(func() time.Time { return fixedNow }),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestScoreExamples(t *testing.T) {
	svc := newTestService(t, nil, &fakeRepo{}, exampleCriteria())

	cases := []struct {
		name      string
		lead      domain.Lead
		wantTotal int
		wantGrade string
		wantSubs  [4]int
	}{
		{
			name:      "all match",
			lead:      domain.Lead{Title: "VP of Sales", City: "Copenhagen", Industry: "Retail", Employees: 250},
			wantTotal: 12, wantGrade: "A+", wantSubs: [4]int{3, 3, 3, 3},
		},
		{
			name:      "no match",
			lead:      domain.Lead{Title: "Sales Representative", City: "London", Industry: "Manufacturing", Employees: 150},
			wantTotal: 4, wantGrade: "F", wantSubs: [4]int{1, 1, 1, 1},
		},
		{
			name:      "boundary employees inclusive",
			lead:      domain.Lead{Employees: 200},
			wantTotal: 6, wantGrade: "F", wantSubs: [4]int{3, 1, 1, 1},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := svc.Score(context.Background(), tc.lead, "")
			subs := [4]int{b.CompanySizeScore, b.IndustryScore, b.SeniorityScore, b.LocationScore}
			if subs != tc.wantSubs {
				t.Errorf("sub-scores = %v, want %v", subs, tc.wantSubs)
			}
			if b.TotalScore != tc.wantTotal || b.ScoreGrade != tc.wantGrade {
				t.Errorf("total/grade = %d/%s, want %d/%s", b.TotalScore, b.ScoreGrade, tc.wantTotal, tc.wantGrade)
			}
			if b.TotalScore != domain.MinPossibleScore+2*b.MatchCount() {
				t.Errorf("total %d inconsistent with %d matches", b.TotalScore, b.MatchCount())
			}
		})
	}
}

func TestScoreIndustryCaseInsensitive(t *testing.T) {
	svc := newTestService(t, nil, &fakeRepo{}, Criteria{TargetIndustries: []string{"saas"}})
	b := svc.Score(context.Background(), domain.Lead{Industry: "B2B SaaS Software"}, "")
	if !b.IndustryMatch || b.IndustryScore != domain.MatchPoints {
		t.Fatalf("industry match = %v/%d, want true/3", b.IndustryMatch, b.IndustryScore)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	reg := &fakeRegistry{records: map[string]domain.CompanyRecord{
		"12345678": {RegistryID: "12345678", Employees: 500, City: "København K"},
	}}
	svc := newTestService(t, reg, &fakeRepo{}, Criteria{})
	lead := domain.Lead{Company: "Acme 12345678", Title: "Head of Sales"}

	first := svc.Score(context.Background(), lead, "")
	second := svc.Score(context.Background(), lead, "")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("breakdowns differ:\n%+v\n%+v", first, second)
	}
}

func TestScoreRegistryTakesPrecedence(t *testing.T) {
	reg := &fakeRegistry{records: map[string]domain.CompanyRecord{
		"87654321": {RegistryID: "87654321", Employees: 300, IndustryText: "Detailhandel Retail", City: "Aarhus"},
	}}
	svc := newTestService(t, reg, &fakeRepo{}, Criteria{})
	lead := domain.Lead{Employees: 10, Industry: "Consulting", City: "Odense", Title: "Intern"}

	b := svc.Score(context.Background(), lead, "8765 4321")
	if !b.CompanySizeMatch || !b.IndustryMatch || !b.LocationMatch || b.SeniorityMatch {
		t.Fatalf("unexpected matches: %+v", b)
	}
	if b.Company == nil || b.Company.RegistryID != "87654321" {
		t.Fatalf("missing registry evidence: %+v", b.Company)
	}
}

func TestScoreEmptyRegistryFieldsFallBackToLead(t *testing.T) {
	reg := &fakeRegistry{records: map[string]domain.CompanyRecord{
		"11223344": {RegistryID: "11223344", Name: "Shell ApS"},
	}}
	svc := newTestService(t, reg, &fakeRepo{}, Criteria{})
	lead := domain.Lead{Employees: 400, Industry: "Software", City: "Copenhagen", Title: "CTO"}

	b := svc.Score(context.Background(), lead, "11223344")
	if b.TotalScore != domain.MaxPossibleScore {
		t.Fatalf("total = %d, want 12", b.TotalScore)
	}
}

func TestScoreDegradesOnRegistryErrors(t *testing.T) {
	reg := &fakeRegistry{errs: map[string]error{
		"12345678": fmt.Errorf("%w: timeout", registry.ErrUnavailable),
		"1234":     fmt.Errorf("%w: short", registry.ErrInvalidIdentifier),
	}}
	svc := newTestService(t, reg, &fakeRepo{}, Criteria{})
	lead := domain.Lead{Employees: 250, City: "Aarhus"}

	for _, id := range []string{"12345678", "1234"} {
		b := svc.Score(context.Background(), lead, id)
		if b.Company != nil || b.TotalScore != 8 {
			t.Fatalf("id %s: total=%d company=%v, want 8 without evidence", id, b.TotalScore, b.Company)
		}
	}
}

func TestScoreExtractsIdentifier(t *testing.T) {
	reg := &fakeRegistry{}
	svc := newTestService(t, reg, &fakeRepo{}, Criteria{})

	svc.Score(context.Background(), domain.Lead{Company: "Acme", Description: "CVR 42718033"}, "")
	svc.Score(context.Background(), domain.Lead{Company: "No number"}, "")

	if !reflect.DeepEqual(reg.calls, []string{"42718033"}) {
		t.Fatalf("lookups = %v", reg.calls)
	}
}

func TestScoreAndUpdateBackfillsEmptyFields(t *testing.T) {
	reg := &fakeRegistry{records: map[string]domain.CompanyRecord{
		"12345678": {RegistryID: "12345678", Employees: 250, IndustryText: "Retail", Website: "acme.dk", Phone: "11111111"},
	}}
	repo := &fakeRepo{}
	svc := newTestService(t, reg, repo, Criteria{})
	lead := &domain.Lead{ID: uuid.New(), Phone: "22222222"}

	b, err := svc.ScoreAndUpdate(context.Background(), lead, "12345678")
	if err != nil {
		t.Fatalf("ScoreAndUpdate: %v", err)
	}
	if lead.Score != b.TotalScore || lead.ScoreBreakdown == nil {
		t.Fatalf("score not written: %+v", lead)
	}
	if lead.Employees != 250 || lead.Industry != "Retail" || lead.Website != "acme.dk" {
		t.Errorf("backfill missing: %+v", lead)
	}
	if lead.Phone != "22222222" {
		t.Errorf("phone overwritten: %q", lead.Phone)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("saves = %d, want 1", len(repo.saved))
	}
}

func TestBulkScoreIsolatesFailures(t *testing.T) {
	reg := &fakeRegistry{
		records: map[string]domain.CompanyRecord{},
		errs:    map[string]error{"33333333": fmt.Errorf("%w: 503", registry.ErrUnavailable)},
	}
	repo := &fakeRepo{fail: map[uuid.UUID]bool{}}
	svc := newTestService(t, reg, repo, exampleCriteria())

	leads := make([]*domain.Lead, 5)
	for i := range leads {
		leads[i] = &domain.Lead{
			ID:        uuid.New(),
			Company:   fmt.Sprintf("Co %d%d%d%d%d%d%d%d", i+1, i+1, i+1, i+1, i+1, i+1, i+1, i+1),
			Title:     "VP Sales",
			Employees: 250,
		}
	}
	repo.fail[leads[4].ID] = true

	results := svc.BulkScore(context.Background(), leads)
	if len(results) != 5 {
		t.Fatalf("results = %d, want 5", len(results))
	}
	if results[2].TotalScore != 8 || results[2].Company != nil {
		t.Errorf("lead #3 should fall back to lead attributes, got %+v", results[2])
	}
	if results[4].TotalScore != domain.MinPossibleScore || results[4].MatchCount() != 0 {
		t.Errorf("failed lead should get baseline, got %+v", results[4])
	}
	if len(repo.saved) != 4 {
		t.Errorf("saved = %d, want 4", len(repo.saved))
	}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	if _, err := NewService(); err == nil {
		t.Fatal("expected error without repository")
	}
}

func TestLoadCriteriaMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icp.yaml")
	body := "min_employees: 50\ntarget_cities:\n  - Odense\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCriteria(path)
	if err != nil {
		t.Fatalf("LoadCriteria: %v", err)
	}
	if c.MinEmployees != 50 || !reflect.DeepEqual(c.TargetCities, []string{"Odense"}) {
		t.Fatalf("overrides lost: %+v", c)
	}
	if !reflect.DeepEqual(c.TargetIndustries, DefaultTargetIndustries) || len(c.TargetLevels) != len(DefaultTargetLevels) {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestCriteriaReturnsCopy(t *testing.T) {
	svc := newTestService(t, nil, &fakeRepo{}, Criteria{})
	c := svc.Criteria()
	c.TargetCities[0] = "Nowhere"
	if svc.Criteria().TargetCities[0] != "Copenhagen" {
		t.Fatal("Criteria leaked internal slice")
	}
}
