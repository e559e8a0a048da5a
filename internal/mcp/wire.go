//go:build wireinject
// +build wireinject

package mcp

import (
	"context"

	"github.com/google/wire"

	"github.com/honeycarbs/leadscore/internal/config"
	"github.com/honeycarbs/leadscore/internal/domain/enrichment"
	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/internal/domain/scoring"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

// InitializeResources creates Resources with all resources wired up
func InitializeResources(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Resources, error) {
	wire.Build(
		// Infrastructure - registry
		provideRegistryCache,
		provideCVRClient,
		provideRegistry,

		// Repositories
		provideStorage,
		provideLeadRepository,
		provideScoringRepository,
		provideEnrichmentRepository,

		// Services
		provideCriteria,
		scoring.NewServiceWithDeps,
		enrichment.NewService,
		lead.NewService,

		// Tool resources
		provideSheetsClient,
		newResources,
	)

	return &Resources{}, nil
}
