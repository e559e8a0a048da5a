package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

// RegistryService covers registry reads and score reporting
type RegistryService interface {
	Lookup(ctx context.Context, identifier string) (domain.CompanyRecord, error)
	Search(ctx context.Context, name string, limit int) ([]domain.CompanyRecord, error)
	Criteria() lead.ICPConfig
	Stats(ctx context.Context) (domain.ScoreStats, error)
}

// CVRLookupParams defines the arguments for cvr_lookup
type CVRLookupParams struct {
	CVRNumber string `json:"cvr_number" jsonschema:"8-digit CVR number, spaces and dashes are ignored"`
}

// CVRSearchParams defines the arguments for cvr_search
type CVRSearchParams struct {
	Name  string `json:"name" jsonschema:"Company name or fragment"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results, default 10"`
}

// EmptyParams is used by tools without arguments
type EmptyParams struct{}

type registryTools struct {
	svc    RegistryService
	logger *logging.Logger
}

// RegisterRegistryTools installs cvr_lookup, cvr_search, icp_config and score_stats
func RegisterRegistryTools(server *sdkmcp.Server, svc RegistryService, logger *logging.Logger) error {
	if svc == nil {
		return fmt.Errorf("registry tools: service is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	t := registryTools{svc: svc, logger: logger}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "cvr_lookup",
		Description: "Look up a Danish company in the CVR registry by CVR number",
	}, t.lookup)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "cvr_search",
		Description: "Search the CVR registry by company name",
	}, t.search)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "icp_config",
		Description: "Show the active Ideal Customer Profile criteria and point scale",
	}, t.icpConfig)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "score_stats",
		Description: "Aggregate ICP score statistics with histogram and top leads",
	}, t.stats)

	logger.Info("registry tools registered", "tools", []string{"cvr_lookup", "cvr_search", "icp_config", "score_stats"})
	return nil
}

func (t registryTools) lookup(ctx context.Context, req *sdkmcp.CallToolRequest, params *CVRLookupParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		return nil, nil, fmt.Errorf("%w: cvr_number is required", lead.ErrInvalidInput)
	}
	company, err := t.svc.Lookup(ctx, params.CVRNumber)
	if err != nil {
		t.logger.Warn("cvr_lookup failed", "cvr_number", params.CVRNumber, "err", err)
		return nil, nil, err
	}
	summary := fmt.Sprintf("[cvr_lookup] %s (%s), %d employees, %s", company.Name, company.RegistryID, company.Employees, company.City)
	return jsonResult(summary, company), company, nil
}

func (t registryTools) search(ctx context.Context, req *sdkmcp.CallToolRequest, params *CVRSearchParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		return nil, nil, fmt.Errorf("%w: name is required", lead.ErrInvalidInput)
	}
	results, err := t.svc.Search(ctx, params.Name, params.Limit)
	if err != nil {
		t.logger.Warn("cvr_search failed", "name", params.Name, "err", err)
		return nil, nil, err
	}
	if results == nil {
		results = []domain.CompanyRecord{}
	}
	out := map[string]any{"results": results, "count": len(results)}
	return jsonResult(fmt.Sprintf("[cvr_search] %d compan(ies) matching %q", len(results), params.Name), out), out, nil
}

func (t registryTools) icpConfig(ctx context.Context, req *sdkmcp.CallToolRequest, _ *EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	cfg := t.svc.Criteria()
	return jsonResult("[icp_config] Active ICP criteria", cfg), cfg, nil
}

func (t registryTools) stats(ctx context.Context, req *sdkmcp.CallToolRequest, _ *EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	stats, err := t.svc.Stats(ctx)
	if err != nil {
		t.logger.Error("score_stats failed", "err", err)
		return nil, nil, err
	}
	summary := fmt.Sprintf("[score_stats] %d lead(s), %d scored above baseline", stats.TotalLeads, stats.ScoredLeads)
	return jsonResult(summary, stats), stats, nil
}
