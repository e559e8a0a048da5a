package neo4j

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
	pkgneo4j "github.com/honeycarbs/leadscore/pkg/neo4j"
)

func TestLeadRepositoryIntegration(t *testing.T) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set; skipping integration test")
	}

	client, err := pkgneo4j.NewClient(pkgneo4j.Config{
		URI:      uri,
		Username: os.Getenv("NEO4J_USERNAME"),
		Password: os.Getenv("NEO4J_PASSWORD"),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer client.Close(ctx)

	repo := NewLeadRepository(client)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	rid := fmt.Sprintf("9%07d", rand.IntN(10_000_000))
	lead := &domain.Lead{FirstName: "Integration", Company: "Graph ApS", RegistryID: rid, Industry: "Software"}
	if err := repo.Create(ctx, lead); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &domain.Lead{Company: "Graph ApS copy", RegistryID: rid}
	if err := repo.Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate create err = %v, want ErrDuplicate", err)
	}

	lead.Score = 10
	if err := repo.Save(ctx, lead); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := repo.FindByRegistryID(ctx, rid)
	if err != nil || !found || got.Score != 10 {
		t.Fatalf("FindByRegistryID = %+v, %v, %v", got, found, err)
	}

	sg, err := NewGraphRepository(client).CompanySubgraph(ctx, rid)
	if err != nil || len(sg.Leads) != 1 {
		t.Fatalf("CompanySubgraph = %+v, %v", sg, err)
	}
}
