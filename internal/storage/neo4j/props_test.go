package neo4j

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/honeycarbs/leadscore/internal/domain"
)

func TestLeadPropsOmitEmptyRegistryID(t *testing.T) {
	props, err := leadProps(domain.Lead{ID: uuid.New()})
	if err != nil {
		t.Fatal(err)
	}
	if props["registryId"] != nil || props["annualRevenue"] != nil || props["scoreBreakdown"] != nil {
		t.Fatalf("optional props should be nil: %v", props)
	}
}

func TestLeadFromPropsDecodesDriverValues(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	now := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)
	b := domain.NewScoreBreakdown(domain.Matches{CompanySize: true, Location: true}, nil, now)
	rev := 10.5

	props, err := leadProps(domain.Lead{
		ID:                id,
		FirstName:         "Ida",
		Company:           "Acme",
		Employees:         250,
		AnnualRevenue:     &rev,
		Score:             b.TotalScore,
		ScoreBreakdown:    &b,
		RegistryID:        "12345678",
		RegistryUpdatedAt: &now,
		CreatedAt:         created,
		UpdatedAt:         created,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, ok := leadFromProps(props)
	if !ok {
		t.Fatal("leadFromProps rejected props")
	}
	if got.ID != id || got.Employees != 250 || got.Score != 8 || got.RegistryID != "12345678" {
		t.Fatalf("lead = %+v", got)
	}
	if got.AnnualRevenue == nil || *got.AnnualRevenue != 10.5 {
		t.Fatalf("revenue = %v", got.AnnualRevenue)
	}
	if got.ScoreBreakdown == nil || got.ScoreBreakdown.ScoreGrade != b.ScoreGrade || !got.ScoreBreakdown.LocationMatch {
		t.Fatalf("breakdown = %+v", got.ScoreBreakdown)
	}
	if got.RegistryUpdatedAt == nil || !got.RegistryUpdatedAt.Equal(now) || !got.CreatedAt.Equal(created) {
		t.Fatalf("timestamps = %v/%v", got.RegistryUpdatedAt, got.CreatedAt)
	}
}

func TestLeadFromPropsRejectsBadID(t *testing.T) {
	if _, ok := leadFromProps(map[string]any{"id": "nope"}); ok {
		t.Fatal("expected rejection")
	}
}
