package tools

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

// SheetsClient writes rows into a spreadsheet
type SheetsClient interface {
	Export(ctx context.Context, export SheetExport) (SheetsExportResult, error)
}

// ScoredLeadSource lists leads at or above a score
type ScoredLeadSource interface {
	ScoredLeads(ctx context.Context, minScore int) ([]domain.Lead, error)
}

// SheetTarget locates the destination range
type SheetTarget struct {
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"Google Sheets document ID"`
	Tab           string `json:"tab,omitempty" jsonschema:"Tab name, default Sheet1"`
	Range         string `json:"range,omitempty" jsonschema:"Optional A1 range override"`
}

// SheetRow is one exported lead
type SheetRow struct {
	Name      string
	Company   string
	Title     string
	Email     string
	City      string
	Industry  string
	Employees int
	CVRNumber string
	Score     int
	Grade     string
	ScoredAt  string
}

// SheetHeader labels the SheetRow columns
var SheetHeader = []string{"Name", "Company", "Title", "Email", "City", "Industry", "Employees", "CVR", "ICP Score", "Grade", "Scored At"}

// Values returns the row in SheetHeader order
func (r SheetRow) Values() []any {
	return []any{r.Name, r.Company, r.Title, r.Email, r.City, r.Industry, r.Employees, r.CVRNumber, r.Score, r.Grade, r.ScoredAt}
}

// SheetExport is a resolved export request
type SheetExport struct {
	Sheet    SheetTarget
	Rows     []SheetRow
	Upsert   bool
	ClearTab bool
}

// SheetsExportParams defines the arguments for the sheets_export tool
type SheetsExportParams struct {
	MinScore int         `json:"min_score,omitempty" jsonschema:"Only export leads scoring at least this much, default 10"`
	Upsert   bool        `json:"upsert,omitempty" jsonschema:"Overwrite from row 2 (true) or append (false)"`
	ClearTab bool        `json:"clear_tab,omitempty" jsonschema:"Clear the tab below the header before writing"`
	Sheet    SheetTarget `json:"sheet" jsonschema:"Destination sheet information"`
}

// SheetsExportResult describes the summary returned after export
type SheetsExportResult struct {
	SpreadsheetID string    `json:"spreadsheet_id"`
	Tab           string    `json:"tab,omitempty"`
	WrittenRows   int       `json:"written_rows"`
	Mode          string    `json:"mode"`
	CompletedAt   time.Time `json:"completed_at"`
	Message       string    `json:"message,omitempty"`
}

const defaultExportMinScore = 10

type sheetsExportTool struct {
	client SheetsClient
	leads  ScoredLeadSource
	logger *logging.Logger
}

// RegisterExportTools installs sheets_export
func RegisterExportTools(server *sdkmcp.Server, client SheetsClient, leads ScoredLeadSource, logger *logging.Logger) error {
	if leads == nil {
		return fmt.Errorf("export tools: lead source is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	handler := sheetsExportTool{client: client, leads: leads, logger: logger}
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sheets_export",
		Description: "Export high-scoring leads with their ICP scores to Google Sheets",
	}, handler.handle)
	return nil
}

func (t sheetsExportTool) handle(ctx context.Context, req *sdkmcp.CallToolRequest, params *SheetsExportParams) (*sdkmcp.CallToolResult, any, error) {
	if params == nil || params.Sheet.SpreadsheetID == "" {
		return nil, nil, fmt.Errorf("%w: sheet.spreadsheet_id is required", lead.ErrInvalidInput)
	}
	if t.client == nil {
		return textResult("sheets_export unavailable: GOOGLE_SHEETS_CREDENTIALS_PATH not set"), nil, fmt.Errorf("sheets client not configured")
	}
	minScore := params.MinScore
	if minScore <= 0 {
		minScore = defaultExportMinScore
	}

	leads, err := t.leads.ScoredLeads(ctx, minScore)
	if err != nil {
		return nil, nil, fmt.Errorf("load scored leads: %w", err)
	}

	rows := make([]SheetRow, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, RowFromLead(l))
	}

	result, err := t.client.Export(ctx, SheetExport{
		Sheet:    params.Sheet,
		Rows:     rows,
		Upsert:   params.Upsert,
		ClearTab: params.ClearTab,
	})
	if err != nil {
		t.logger.Error("sheets_export failed", "spreadsheet_id", params.Sheet.SpreadsheetID, "err", err)
		return nil, nil, err
	}

	t.logger.Info("sheets_export completed", "spreadsheet_id", result.SpreadsheetID, "rows", result.WrittenRows, "min_score", minScore)
	return textResult("[sheets_export] " + result.Message), result, nil
}

// RowFromLead flattens a lead into a sheet row
func RowFromLead(l domain.Lead) SheetRow {
	row := SheetRow{
		Name:      l.FullName(),
		Company:   l.Company,
		Title:     l.Title,
		Email:     l.Email,
		City:      l.City,
		Industry:  l.Industry,
		Employees: l.Employees,
		CVRNumber: l.RegistryID,
		Score:     l.Score,
	}
	if b := l.ScoreBreakdown; b != nil {
		row.Grade = b.ScoreGrade
		row.ScoredAt = b.ScoredAt.UTC().Format(time.RFC3339)
	} else {
		row.Grade = domain.ScoreGrade(l.Score)
	}
	return row
}
