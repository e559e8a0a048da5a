package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/repository"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestLeadRepositoryRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewLeadRepository(db)
	ctx := context.Background()

	rid := fmt.Sprintf("9%07d", rand.IntN(10_000_000))
	lead := &domain.Lead{FirstName: "Mette", LastName: "Holm", Company: "Holm ApS", City: "Aarhus", RegistryID: rid}
	if err := repo.Create(ctx, lead); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM leads WHERE id = $1`, lead.ID)
	})

	b := domain.NewScoreBreakdown(domain.Matches{CompanySize: true, Location: true}, nil, time.Now().UTC())
	lead.Score = b.TotalScore
	lead.ScoreBreakdown = &b
	if err := repo.Save(ctx, lead); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, lead.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Score != 8 || got.ScoreBreakdown == nil || !got.ScoreBreakdown.LocationMatch {
		t.Fatalf("unexpected stored score: %+v", got)
	}

	found, ok, err := repo.FindByRegistryID(ctx, rid)
	if err != nil || !ok || found.ID != lead.ID {
		t.Fatalf("FindByRegistryID = %v, %v, %v", found.ID, ok, err)
	}

	dup := &domain.Lead{FirstName: "Other", Company: "Holm ApS", RegistryID: rid}
	if err := repo.Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	stats, err := repo.Stats(ctx, 5)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalLeads < 1 || stats.Distribution["8"] < 1 {
		t.Fatalf("stats missing stored lead: %+v", stats)
	}
}

func TestLeadRepositoryGetMissing(t *testing.T) {
	repo := NewLeadRepository(testDB(t))
	_, err := repo.Get(context.Background(), [16]byte{1})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
