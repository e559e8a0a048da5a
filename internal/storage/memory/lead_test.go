package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/repository"
)

func steppingClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestCreateEnforcesRegistryUniqueness(t *testing.T) {
	repo := NewLeadRepository()
	ctx := context.Background()

	first := &domain.Lead{Company: "Acme", RegistryID: "12345678"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.CreatedAt.IsZero() || first.ID.String() == "" {
		t.Fatalf("id/timestamps not assigned: %+v", first)
	}

	err := repo.Create(ctx, &domain.Lead{Company: "Acme again", RegistryID: "12345678"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	// leads without an identifier never collide
	for i := 0; i < 2; i++ {
		if err := repo.Create(ctx, &domain.Lead{Company: "Anon"}); err != nil {
			t.Fatalf("Create anon: %v", err)
		}
	}

	got, found, err := repo.FindByRegistryID(ctx, "12345678")
	if err != nil || !found || got.ID != first.ID {
		t.Fatalf("FindByRegistryID = %+v, %v, %v", got, found, err)
	}
}

func TestSaveUnknownLead(t *testing.T) {
	repo := NewLeadRepository()
	if err := repo.Save(context.Background(), &domain.Lead{}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetReturnsDetachedCopy(t *testing.T) {
	repo := NewLeadRepository()
	ctx := context.Background()
	lead := &domain.Lead{Company: "Acme", ScoreBreakdown: &domain.ScoreBreakdown{TotalScore: 8}}
	if err := repo.Create(ctx, lead); err != nil {
		t.Fatal(err)
	}
	lead.ScoreBreakdown.TotalScore = 12

	got, err := repo.Get(ctx, lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ScoreBreakdown.TotalScore != 8 {
		t.Fatalf("stored breakdown mutated: %d", got.ScoreBreakdown.TotalScore)
	}
}

func TestListIDsFiltersScoredLeads(t *testing.T) {
	repo := NewLeadRepository().WithClock(steppingClock())
	ctx := context.Background()

	unscored := &domain.Lead{Company: "A"}
	baseline := &domain.Lead{Company: "B", Score: 4}
	scored := &domain.Lead{Company: "C", Score: 10}
	for _, l := range []*domain.Lead{unscored, baseline, scored} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := repo.ListIDs(ctx, repository.ScoringFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != baseline.ID || ids[1] != unscored.ID {
		t.Fatalf("ids = %v, want [baseline unscored]", ids)
	}

	all, _ := repo.ListIDs(ctx, repository.ScoringFilter{IncludeScored: true})
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
}

func TestStats(t *testing.T) {
	repo := NewLeadRepository().WithClock(steppingClock())
	ctx := context.Background()
	for _, l := range []domain.Lead{
		{FirstName: "Ann", LastName: "Lee", Company: "A", Score: 12},
		{FirstName: "Bo", Company: "B", Score: 10},
		{Company: "C", Score: 6},
		{Company: "D", Score: 4},
		{Company: "E"},
	} {
		l := l
		if err := repo.Create(ctx, &l); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := repo.Stats(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalLeads != 5 || stats.ScoredLeads != 3 {
		t.Fatalf("totals = %d/%d, want 5/3", stats.TotalLeads, stats.ScoredLeads)
	}
	if stats.AverageScore == nil || *stats.AverageScore != 8 {
		t.Fatalf("avg = %v, want 8", stats.AverageScore)
	}
	if *stats.MinScore != 4 || *stats.MaxScore != 12 {
		t.Fatalf("min/max = %d/%d", *stats.MinScore, *stats.MaxScore)
	}
	if len(stats.Distribution) != 9 || stats.Distribution["12"] != 1 || stats.Distribution["5"] != 0 {
		t.Fatalf("distribution = %v", stats.Distribution)
	}
	if len(stats.TopLeads) != 2 || stats.TopLeads[0].Name != "Ann Lee" || stats.TopLeads[1].Score != 10 {
		t.Fatalf("top leads = %+v", stats.TopLeads)
	}
}
