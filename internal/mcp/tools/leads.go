package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

// LeadService is the scoring facade used by the lead tools
type LeadService interface {
	ScoreByID(ctx context.Context, id domain.LeadID, identifier string) (lead.ScoreResult, error)
	GetScore(ctx context.Context, id domain.LeadID) (lead.CurrentScore, error)
	BulkScoreByIDs(ctx context.Context, ids []domain.LeadID) ([]lead.ScoreResult, error)
	ScoreAll(ctx context.Context, opts lead.ScoreAllOptions) (lead.ScoreAllResult, error)
	RegistryData(ctx context.Context, id domain.LeadID) (lead.RegistryData, error)
	AttachRegistryID(ctx context.Context, id domain.LeadID, identifier string) (lead.RegistryUpdate, error)
	PopulateByID(ctx context.Context, id domain.LeadID, identifier string) (domain.Lead, error)
	CreateFromRegistry(ctx context.Context, req lead.CreateRequest) (*domain.Lead, error)
}

// LeadScoreParams defines the arguments for lead_score
type LeadScoreParams struct {
	LeadID    string `json:"lead_id" jsonschema:"Lead UUID"`
	CVRNumber string `json:"cvr_number,omitempty" jsonschema:"Optional 8-digit CVR number used instead of one found on the lead"`
}

// LeadParams identifies a single lead
type LeadParams struct {
	LeadID string `json:"lead_id" jsonschema:"Lead UUID"`
}

// BulkScoreParams defines the arguments for lead_bulk_score
type BulkScoreParams struct {
	LeadIDs []string `json:"lead_ids" jsonschema:"Lead UUIDs to score in order"`
}

// ScoreAllParams defines the arguments for lead_score_all
type ScoreAllParams struct {
	Force     bool `json:"force,omitempty" jsonschema:"Rescore leads that already score above the baseline"`
	BatchSize int  `json:"batch_size,omitempty" jsonschema:"Leads per batch, default 50"`
	DryRun    bool `json:"dry_run,omitempty" jsonschema:"Compute scores without saving them"`
}

// LeadCVRParams pairs a lead with a CVR number
type LeadCVRParams struct {
	LeadID    string `json:"lead_id" jsonschema:"Lead UUID"`
	CVRNumber string `json:"cvr_number,omitempty" jsonschema:"8-digit CVR number"`
}

// CreateFromCVRParams defines the arguments for lead_create_from_cvr
type CreateFromCVRParams struct {
	CVRNumber   string           `json:"cvr_number" jsonschema:"8-digit CVR number of the company"`
	AssignedTo  string           `json:"assigned_to,omitempty" jsonschema:"Owner of the new lead"`
	CreatedBy   string           `json:"created_by,omitempty" jsonschema:"Creator of the new lead"`
	ExtraFields domain.LeadPatch `json:"extra_fields,omitempty" jsonschema:"Lead fields overriding registry data"`
}

type leadTools struct {
	svc    LeadService
	logger *logging.Logger
}

// RegisterLeadTools installs the scoring and enrichment tools
func RegisterLeadTools(server *sdkmcp.Server, svc LeadService, logger *logging.Logger) error {
	if svc == nil {
		return fmt.Errorf("lead tools: service is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	t := leadTools{svc: svc, logger: logger}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "lead_score",
		Description: "Score a lead against the ICP, enriching it from the CVR registry, and save the result",
	}, t.score)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "lead_score_get",
		Description: "Return the stored ICP score and breakdown of a lead",
	}, t.getScore)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "lead_bulk_score",
		Description: "Score several leads sequentially; failed leads get the baseline score",
	}, t.bulkScore)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "lead_score_all",
		Description: "Score every unscored lead (or all leads with force) in batches",
	}, t.scoreAll)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "lead_cvr_get",
		Description: "Fetch fresh CVR registry data for the CVR number stored on a lead",
	}, t.registryData)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "lead_cvr_update",
		Description: "Attach a CVR number to a lead and backfill empty company fields",
	}, t.attachRegistryID)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "lead_populate",
		Description: "Fill a lead's empty fields from the CVR registry",
	}, t.populate)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "lead_create_from_cvr",
		Description: "Create and score a new lead from a CVR registry record",
	}, t.createFromRegistry)

	logger.Info("lead tools registered", "tools", []string{
		"lead_score", "lead_score_get", "lead_bulk_score", "lead_score_all",
		"lead_cvr_get", "lead_cvr_update", "lead_populate", "lead_create_from_cvr",
	})
	return nil
}

func (t leadTools) score(ctx context.Context, req *sdkmcp.CallToolRequest, params *LeadScoreParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		return nil, nil, fmt.Errorf("lead_score requires lead_id")
	}
	id, err := parseLeadID(params.LeadID)
	if err != nil {
		return nil, nil, err
	}
	res, err := t.svc.ScoreByID(ctx, id, params.CVRNumber)
	if err != nil {
		t.logger.Error("lead_score failed", "lead_id", params.LeadID, "err", err)
		return nil, nil, err
	}
	summary := fmt.Sprintf("[lead_score] %s (%s): %d/%d, grade %s",
		res.LeadName, res.Company, res.Breakdown.TotalScore, res.Breakdown.MaxPossibleScore, res.Breakdown.ScoreGrade)
	return jsonResult(summary, res), res, nil
}

func (t leadTools) getScore(ctx context.Context, req *sdkmcp.CallToolRequest, params *LeadParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		return nil, nil, fmt.Errorf("lead_score_get requires lead_id")
	}
	id, err := parseLeadID(params.LeadID)
	if err != nil {
		return nil, nil, err
	}
	res, err := t.svc.GetScore(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(fmt.Sprintf("[lead_score_get] %s: current score %d", res.LeadName, res.Score), res), res, nil
}

func (t leadTools) bulkScore(ctx context.Context, req *sdkmcp.CallToolRequest, params *BulkScoreParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil || len(params.LeadIDs) == 0 {
		return nil, nil, fmt.Errorf("%w: no lead ids provided", lead.ErrInvalidInput)
	}
	ids := make([]domain.LeadID, 0, len(params.LeadIDs))
	for _, raw := range params.LeadIDs {
		id, err := parseLeadID(raw)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
	}

	results, err := t.svc.BulkScoreByIDs(ctx, ids)
	if err != nil {
		t.logger.Error("lead_bulk_score failed", "requested", len(ids), "err", err)
		return nil, nil, err
	}
	out := map[string]any{"results": results, "total_scored": len(results)}
	return jsonResult(fmt.Sprintf("[lead_bulk_score] Scored %d of %d lead(s)", len(results), len(ids)), out), out, nil
}

func (t leadTools) scoreAll(ctx context.Context, req *sdkmcp.CallToolRequest, params *ScoreAllParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		params = &ScoreAllParams{}
	}
	res, err := t.svc.ScoreAll(ctx, lead.ScoreAllOptions{
		Force:     params.Force,
		BatchSize: params.BatchSize,
		DryRun:    params.DryRun,
		Progress: func(p lead.BatchProgress) {
			t.logger.Debug("lead_score_all progress", "batch", p.Batch, "batches", p.Batches, "done", p.Done, "total", p.Total)
		},
	})
	if err != nil {
		t.logger.Error("lead_score_all failed", "err", err)
		return nil, nil, err
	}
	return jsonResult("[lead_score_all] "+res.Message, res), res, nil
}

func (t leadTools) registryData(ctx context.Context, req *sdkmcp.CallToolRequest, params *LeadParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		return nil, nil, fmt.Errorf("lead_cvr_get requires lead_id")
	}
	id, err := parseLeadID(params.LeadID)
	if err != nil {
		return nil, nil, err
	}
	res, err := t.svc.RegistryData(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(fmt.Sprintf("[lead_cvr_get] CVR %s: %s", res.RegistryID, res.Company.Name), res), res, nil
}

func (t leadTools) attachRegistryID(ctx context.Context, req *sdkmcp.CallToolRequest, params *LeadCVRParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		return nil, nil, fmt.Errorf("lead_cvr_update requires lead_id and cvr_number")
	}
	id, err := parseLeadID(params.LeadID)
	if err != nil {
		return nil, nil, err
	}
	res, err := t.svc.AttachRegistryID(ctx, id, params.CVRNumber)
	if err != nil {
		return nil, nil, err
	}
	summary := fmt.Sprintf("[lead_cvr_update] CVR %s attached, updated fields: %v", res.RegistryID, res.UpdatedFields)
	return jsonResult(summary, res), res, nil
}

func (t leadTools) populate(ctx context.Context, req *sdkmcp.CallToolRequest, params *LeadCVRParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		return nil, nil, fmt.Errorf("lead_populate requires lead_id")
	}
	id, err := parseLeadID(params.LeadID)
	if err != nil {
		return nil, nil, err
	}
	l, err := t.svc.PopulateByID(ctx, id, params.CVRNumber)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult("[lead_populate] Lead populated with registry data", l), l, nil
}

func (t leadTools) createFromRegistry(ctx context.Context, req *sdkmcp.CallToolRequest, params *CreateFromCVRParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil {
		return nil, nil, fmt.Errorf("lead_create_from_cvr requires cvr_number")
	}
	l, err := t.svc.CreateFromRegistry(ctx, lead.CreateRequest{
		Identifier: params.CVRNumber,
		Owner:      params.AssignedTo,
		Creator:    params.CreatedBy,
		Overrides:  params.ExtraFields,
	})
	if err != nil {
		t.logger.Warn("lead_create_from_cvr failed", "cvr_number", params.CVRNumber, "err", err)
		return nil, nil, err
	}
	summary := fmt.Sprintf("[lead_create_from_cvr] Created lead %s for %s (score %d)", l.ID, l.Company, l.Score)
	return jsonResult(summary, l), l, nil
}

func parseLeadID(raw string) (domain.LeadID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid lead id %q", lead.ErrInvalidInput, raw)
	}
	return id, nil
}
