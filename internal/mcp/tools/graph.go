package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/internal/domain/registry"
	"github.com/honeycarbs/leadscore/internal/repository"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

const defaultGraphLimit = 20

// CypherRunner executes read-only Cypher
type CypherRunner interface {
	QueryRead(ctx context.Context, query string, params map[string]any) ([]string, []*neo4j.Record, error)
}

// GraphToolParams defines the arguments for the graph_tool tool
type GraphToolParams struct {
	Cypher    string         `json:"cypher,omitempty" jsonschema:"Read-only Cypher query to run"`
	LeadID    string         `json:"lead_id,omitempty" jsonschema:"Show leads related to this lead"`
	CVRNumber string         `json:"cvr_number,omitempty" jsonschema:"Show a company and its leads"`
	Limit     int            `json:"limit,omitempty" jsonschema:"Maximum rows, default 20"`
	Params    map[string]any `json:"params,omitempty" jsonschema:"Parameters for the Cypher query"`
}

type graphToolHandler struct {
	graph  repository.GraphRepository
	runner CypherRunner
	logger *logging.Logger
}

// writeClause rejects queries that would modify the graph
var writeClause = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|LOAD\s+CSV|FOREACH)\b|CALL\s+dbms\.|CALL\s+apoc\.`)

// RegisterGraphTool installs graph_tool. Either dependency may be nil, which
// disables the matching modes.
func RegisterGraphTool(server *sdkmcp.Server, graph repository.GraphRepository, runner CypherRunner, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	handler := graphToolHandler{graph: graph, runner: runner, logger: logger}
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "graph_tool",
		Description: "Inspect the lead/company graph: related leads, company subgraphs, industry scores or read-only Cypher",
	}, handler.handle)
	return nil
}

func (h *graphToolHandler) handle(ctx context.Context, req *sdkmcp.CallToolRequest, params *GraphToolParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		params = &GraphToolParams{}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultGraphLimit
	}

	switch {
	case params.Cypher != "":
		return h.cypher(ctx, params.Cypher, params.Params)
	case h.graph == nil:
		return textResult("graph_tool unavailable: graph storage not configured"), nil, fmt.Errorf("graph storage not configured")
	case params.LeadID != "":
		id, err := parseLeadID(params.LeadID)
		if err != nil {
			return nil, nil, err
		}
		related, err := h.graph.FindRelatedLeads(ctx, id, limit)
		if err != nil {
			return nil, nil, fmt.Errorf("find related leads: %w", err)
		}
		return jsonResult(fmt.Sprintf("[graph_tool] %d lead(s) related to %s", len(related), id), related), related, nil
	case params.CVRNumber != "":
		rid, err := registry.NormalizeIdentifier(params.CVRNumber)
		if err != nil {
			return nil, nil, err
		}
		sub, err := h.graph.CompanySubgraph(ctx, rid)
		if err != nil {
			return nil, nil, fmt.Errorf("company subgraph: %w", err)
		}
		return jsonResult(fmt.Sprintf("[graph_tool] %s has %d lead(s)", sub.Name, len(sub.Leads)), sub), sub, nil
	default:
		scores, err := h.graph.IndustryScores(ctx, limit)
		if err != nil {
			return nil, nil, fmt.Errorf("industry scores: %w", err)
		}
		return jsonResult(fmt.Sprintf("[graph_tool] Scores across %d industr(ies)", len(scores)), scores), scores, nil
	}
}

func (h *graphToolHandler) cypher(ctx context.Context, query string, params map[string]any) (*sdkmcp.CallToolResult, any, error) {
	if h.runner == nil {
		return textResult("graph_tool unavailable: Neo4j client not configured"), nil, fmt.Errorf("Neo4j client not configured")
	}
	if writeClause.MatchString(query) {
		return nil, nil, fmt.Errorf("%w: graph_tool only runs read-only queries", lead.ErrInvalidInput)
	}

	h.logger.Debug("graph_tool cypher", "query", query)
	keys, records, err := h.runner.QueryRead(ctx, query, params)
	if err != nil {
		return textResult(fmt.Sprintf("graph_tool error: %v", err)), nil, fmt.Errorf("query execution failed: %w", err)
	}
	return textResult(formatRecords(records, keys)), nil, nil
}

func formatRecords(records []*neo4j.Record, keys []string) string {
	if len(records) == 0 {
		return "Query executed successfully but returned no rows"
	}

	var sb strings.Builder
	sb.WriteString("Results:\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	for i, record := range records {
		fmt.Fprintf(&sb, "Row %d:\n", i+1)
		for _, key := range keys {
			val, ok := record.Get(key)
			if !ok {
				fmt.Fprintf(&sb, "  %s: <not found>\n", key)
				continue
			}
			fmt.Fprintf(&sb, "  %s: %s\n", key, formatValue(val))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatValue(val any) string {
	if val == nil {
		return "null"
	}

	switch v := val.(type) {
	case neo4j.Node:
		propsJSON, _ := json.Marshal(v.Props)
		return fmt.Sprintf("Node%v %s", v.Labels, propsJSON)
	case neo4j.Relationship:
		propsJSON, _ := json.Marshal(v.Props)
		return fmt.Sprintf("Relationship[%s] %s", v.Type, propsJSON)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, formatValue(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case string:
		return fmt.Sprintf("%q", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%.2f", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
