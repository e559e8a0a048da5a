package mcp

import (
	"context"
	"fmt"

	"github.com/honeycarbs/leadscore/internal/cache"
	"github.com/honeycarbs/leadscore/internal/config"
	"github.com/honeycarbs/leadscore/internal/domain/enrichment"
	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/internal/domain/registry"
	cvrprovider "github.com/honeycarbs/leadscore/internal/domain/registry/providers/cvr"
	"github.com/honeycarbs/leadscore/internal/domain/scoring"
	"github.com/honeycarbs/leadscore/internal/mcp/tools"
	"github.com/honeycarbs/leadscore/internal/repository"
	"github.com/honeycarbs/leadscore/internal/storage/memory"
	neo4jstore "github.com/honeycarbs/leadscore/internal/storage/neo4j"
	"github.com/honeycarbs/leadscore/internal/storage/postgres"
	"github.com/honeycarbs/leadscore/pkg/cvr"
	"github.com/honeycarbs/leadscore/pkg/logging"
	n4j "github.com/honeycarbs/leadscore/pkg/neo4j"
	sheetsclient "github.com/honeycarbs/leadscore/pkg/sheets"
	"github.com/honeycarbs/leadscore/pkg/shutdown"
)

// registryCache is the CVR response cache plus its release hook
type registryCache struct {
	cvr.Cache
	closer shutdown.Stoppable
}

// storageBackend groups the repositories of the configured backend
type storageBackend struct {
	leads  repository.LeadRepository
	graph  repository.GraphRepository
	neo4j  *n4j.Client
	closer shutdown.Stoppable
}

// provideRegistryCache opens the configured CVR response cache
func provideRegistryCache(cfg config.Config, logger *logging.Logger) (registryCache, error) {
	if cfg.Cache.Backend == config.BackendSQLite {
		c, err := cache.OpenSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return registryCache{}, fmt.Errorf("open sqlite cache: %w", err)
		}
		logger.Info("SQLite registry cache opened", "path", cfg.Cache.SQLitePath)
		return registryCache{Cache: c, closer: c}, nil
	}
	return registryCache{Cache: cache.NewMemory()}, nil
}

// provideCVRClient builds the CVR API client on top of the cache
func provideCVRClient(cfg config.Config, c registryCache) (*cvr.Client, error) {
	return cvr.NewClient(cvr.Config{
		APIKey:   cfg.CVR.APIKey,
		BaseURL:  cfg.CVR.BaseURL,
		Timeout:  cfg.CVR.Timeout,
		Cache:    c.Cache,
		CacheTTL: cfg.CVR.CacheTTL,
	})
}

// provideRegistry adapts the CVR client to the registry port
func provideRegistry(client *cvr.Client) (registry.Registry, error) {
	return cvrprovider.NewProvider(client)
}

// provideStorage connects the configured lead storage backend
func provideStorage(ctx context.Context, cfg config.Config, logger *logging.Logger) (storageBackend, error) {
	switch cfg.Storage.Backend {
	case config.BackendNeo4j:
		client, err := n4j.NewClient(n4j.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			return storageBackend{}, err
		}
		leads := neo4jstore.NewLeadRepository(client)
		if err := leads.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return storageBackend{}, fmt.Errorf("ensure neo4j schema: %w", err)
		}
		logger.Info("Neo4j storage initialized", "uri", cfg.Neo4j.URI)
		return storageBackend{
			leads:  leads,
			graph:  neo4jstore.NewGraphRepository(client),
			neo4j:  client,
			closer: client,
		}, nil

	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return storageBackend{}, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return storageBackend{}, err
		}
		logger.Info("Postgres storage initialized")
		return storageBackend{leads: postgres.NewLeadRepository(db), closer: db}, nil

	default:
		logger.Warn("using in-memory lead storage; data is lost on restart")
		return storageBackend{leads: memory.NewLeadRepository()}, nil
	}
}

func provideLeadRepository(s storageBackend) repository.LeadRepository {
	return s.leads
}

func provideScoringRepository(repo repository.LeadRepository) scoring.Repository {
	return repo
}

func provideEnrichmentRepository(repo repository.LeadRepository) enrichment.Repository {
	return repo
}

// provideCriteria loads the ICP file (if any) and applies env overrides
func provideCriteria(cfg config.Config) (scoring.Criteria, error) {
	criteria := scoring.DefaultCriteria()
	if cfg.ICP.CriteriaFile != "" {
		loaded, err := scoring.LoadCriteria(cfg.ICP.CriteriaFile)
		if err != nil {
			return scoring.Criteria{}, err
		}
		criteria = loaded
	}
	if cfg.ICP.MinEmployees > 0 {
		criteria.MinEmployees = cfg.ICP.MinEmployees
	}
	if len(cfg.ICP.Industries) > 0 {
		criteria.TargetIndustries = cfg.ICP.Industries
	}
	if len(cfg.ICP.Cities) > 0 {
		criteria.TargetCities = cfg.ICP.Cities
	}
	if len(cfg.ICP.Levels) > 0 {
		criteria.TargetLevels = cfg.ICP.Levels
	}
	return criteria, nil
}

// provideSheetsClient returns nil when no credentials are configured
func provideSheetsClient(ctx context.Context, cfg config.Config, logger *logging.Logger) tools.SheetsClient {
	if cfg.Sheets.CredentialsPath == "" {
		logger.Info("Google Sheets export disabled (GOOGLE_SHEETS_CREDENTIALS_PATH not set)")
		return nil
	}
	client, err := sheetsclient.NewClient(ctx, sheetsclient.Config{CredentialsPath: cfg.Sheets.CredentialsPath})
	if err != nil {
		logger.Warn("failed to initialize Google Sheets client", "err", err)
		return nil
	}
	return newSheetsClientAdapter(client)
}

func newResources(
	leadService *lead.Service,
	cvrClient *cvr.Client,
	storage storageBackend,
	c registryCache,
	sheets tools.SheetsClient,
) *Resources {
	return &Resources{
		LeadService:  leadService,
		CVRClient:    cvrClient,
		Graph:        storage.graph,
		Neo4jClient:  storage.neo4j,
		SheetsClient: sheets,
		closers:      []shutdown.Stoppable{storage.closer, c.closer},
	}
}
