package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/internal/mcp/tools"
	"github.com/honeycarbs/leadscore/internal/repository"
	"github.com/honeycarbs/leadscore/pkg/cvr"
	"github.com/honeycarbs/leadscore/pkg/logging"
	n4j "github.com/honeycarbs/leadscore/pkg/neo4j"
	"github.com/honeycarbs/leadscore/pkg/shutdown"
)

type ToolRegistry struct {
	logger *logging.Logger
}

// Resources holds everything the tools, REST API and CLI run against
type Resources struct {
	LeadService  *lead.Service
	CVRClient    *cvr.Client
	Graph        repository.GraphRepository
	Neo4jClient  *n4j.Client
	SheetsClient tools.SheetsClient

	closers []shutdown.Stoppable
}

// Shutdown releases storage and cache handles
func (r *Resources) Shutdown(ctx context.Context) error {
	return shutdown.StopAll(ctx, r.closers...)
}

func NewToolRegistry(logger *logging.Logger) *ToolRegistry {
	return &ToolRegistry{logger: logger}
}

func (r *ToolRegistry) RegisterAll(server *sdkmcp.Server, res *Resources) error {
	if err := tools.RegisterLeadTools(server, res.LeadService, r.logger); err != nil {
		return err
	}

	if err := tools.RegisterRegistryTools(server, res.LeadService, r.logger); err != nil {
		return err
	}

	if err := tools.RegisterExportTools(server, res.SheetsClient, res.LeadService, r.logger); err != nil {
		return err
	}

	var runner tools.CypherRunner
	if res.Neo4jClient != nil {
		runner = res.Neo4jClient
	}
	if err := tools.RegisterGraphTool(server, res.Graph, runner, r.logger); err != nil {
		return err
	}

	return nil
}
