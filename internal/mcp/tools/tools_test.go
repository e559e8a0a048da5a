package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/enrichment"
	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/internal/domain/scoring"
	"github.com/honeycarbs/leadscore/internal/storage/memory"
)

type stubRegistry struct {
	records map[string]domain.CompanyRecord
}

func (s stubRegistry) Name() string { return "stub" }

func (s stubRegistry) Lookup(_ context.Context, id string) (domain.CompanyRecord, bool, error) {
	rec, ok := s.records[id]
	return rec, ok, nil
}

func (s stubRegistry) Search(context.Context, string, int) ([]domain.CompanyRecord, error) {
	return nil, nil
}

type stubRunner struct {
	queries []string
}

func (r *stubRunner) QueryRead(_ context.Context, query string, _ map[string]any) ([]string, []*neo4j.Record, error) {
	r.queries = append(r.queries, query)
	return nil, nil, nil
}

type stubSheets struct {
	exports []SheetExport
}

func (s *stubSheets) Export(_ context.Context, export SheetExport) (SheetsExportResult, error) {
	s.exports = append(s.exports, export)
	return SheetsExportResult{
		SpreadsheetID: export.Sheet.SpreadsheetID,
		WrittenRows:   len(export.Rows),
		Message:       "exported",
	}, nil
}

type harness struct {
	session *sdkmcp.ClientSession
	repo    *memory.LeadRepository
	runner  *stubRunner
	sheets  *stubSheets
}

func newHarness(t *testing.T) harness {
	t.Helper()
	ctx := context.Background()

	reg := stubRegistry{records: map[string]domain.CompanyRecord{
		"12345678": {RegistryID: "12345678", Name: "Fjord Retail A/S", IndustryText: "Retail", Employees: 900, City: "Aarhus"},
	}}
	repo := memory.NewLeadRepository()
	scorer, err := scoring.NewService(scoring.WithRegistry(reg), scoring.WithRepository(repo))
	if err != nil {
		t.Fatal(err)
	}
	enricher, err := enrichment.NewService(reg, repo, scorer, nil)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := lead.NewService(repo, reg, scorer, enricher, nil)
	if err != nil {
		t.Fatal(err)
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "leadscore-test", Version: "test"}, nil)
	runner := &stubRunner{}
	sheets := &stubSheets{}
	if err := RegisterLeadTools(server, svc, nil); err != nil {
		t.Fatal(err)
	}
	if err := RegisterRegistryTools(server, svc, nil); err != nil {
		t.Fatal(err)
	}
	if err := RegisterGraphTool(server, nil, runner, nil); err != nil {
		t.Fatal(err)
	}
	if err := RegisterExportTools(server, sheets, svc, nil); err != nil {
		t.Fatal(err)
	}

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = session.Close() })

	return harness{session: session, repo: repo, runner: runner, sheets: sheets}
}

func (h harness) call(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := h.session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return res
}

func resultText(res *sdkmcp.CallToolResult) string {
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestLeadScoreTool(t *testing.T) {
	h := newHarness(t)
	l := domain.Lead{FirstName: "Karen", LastName: "Berg", Company: "Fjord", Title: "Retail Director"}
	if err := h.repo.Create(context.Background(), &l); err != nil {
		t.Fatal(err)
	}

	res := h.call(t, "lead_score", map[string]any{"lead_id": l.ID.String(), "cvr_number": "12345678"})
	if res.IsError {
		t.Fatalf("lead_score error: %s", resultText(res))
	}
	if text := resultText(res); !strings.Contains(text, "12/12, grade A+") {
		t.Fatalf("unexpected text: %s", text)
	}

	res = h.call(t, "lead_score_get", map[string]any{"lead_id": l.ID.String()})
	if res.IsError || !strings.Contains(resultText(res), "current score 12") {
		t.Fatalf("lead_score_get: %s", resultText(res))
	}
}

func TestLeadToolsRejectBadInput(t *testing.T) {
	h := newHarness(t)

	for name, args := range map[string]map[string]any{
		"lead_score":      {"lead_id": "nope"},
		"lead_bulk_score": {"lead_ids": []string{}},
		"cvr_lookup":      {"cvr_number": "12"},
	} {
		res := h.call(t, name, args)
		if !res.IsError {
			t.Errorf("%s: expected tool error, got %s", name, resultText(res))
		}
	}
}

func TestCreateFromCVRAndStats(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "lead_create_from_cvr", map[string]any{
		"cvr_number":   "12345678",
		"extra_fields": map[string]any{"title": "CEO"},
	})
	if res.IsError {
		t.Fatalf("lead_create_from_cvr: %s", resultText(res))
	}

	res = h.call(t, "lead_create_from_cvr", map[string]any{"cvr_number": "12345678"})
	if !res.IsError {
		t.Fatalf("expected duplicate error, got %s", resultText(res))
	}

	res = h.call(t, "score_stats", map[string]any{})
	if res.IsError || !strings.Contains(resultText(res), "1 lead(s), 1 scored above baseline") {
		t.Fatalf("score_stats: %s", resultText(res))
	}
}

func TestICPConfigTool(t *testing.T) {
	h := newHarness(t)
	res := h.call(t, "icp_config", map[string]any{})
	text := resultText(res)
	if res.IsError || !strings.Contains(text, `"min_employees": 200`) || !strings.Contains(text, `"points_per_match": 3`) {
		t.Fatalf("icp_config: %s", text)
	}
}

func TestGraphTool(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "graph_tool", map[string]any{"cypher": "MATCH (l:Lead) DETACH DELETE l"})
	if !res.IsError {
		t.Fatalf("write query accepted: %s", resultText(res))
	}
	if len(h.runner.queries) != 0 {
		t.Fatalf("write query reached neo4j: %v", h.runner.queries)
	}

	res = h.call(t, "graph_tool", map[string]any{"cypher": "MATCH (l:Lead) RETURN l.id LIMIT 5"})
	if res.IsError || !strings.Contains(resultText(res), "returned no rows") {
		t.Fatalf("read query: %s", resultText(res))
	}

	res = h.call(t, "graph_tool", map[string]any{})
	if !res.IsError {
		t.Fatalf("expected error without graph storage, got %s", resultText(res))
	}
}

func TestSheetsExportTool(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, score := range []int{12, 10, 6} {
		b := domain.NewScoreBreakdown(domain.Matches{}, nil, time.Now())
		l := domain.Lead{Company: "Co", Score: score, ScoreBreakdown: &b}
		if err := h.repo.Create(ctx, &l); err != nil {
			t.Fatal(err)
		}
	}

	res := h.call(t, "sheets_export", map[string]any{"sheet": map[string]any{"spreadsheet_id": "sheet-1"}})
	if res.IsError {
		t.Fatalf("sheets_export: %s", resultText(res))
	}
	if len(h.sheets.exports) != 1 {
		t.Fatalf("exports = %d", len(h.sheets.exports))
	}
	rows := h.sheets.exports[0].Rows
	if len(rows) != 2 || rows[0].Score != 12 || rows[1].Score != 10 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestRowFromLead(t *testing.T) {
	at := time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)
	b := domain.NewScoreBreakdown(domain.Matches{CompanySize: true, Industry: true, Location: true}, nil, at)
	row := RowFromLead(domain.Lead{FirstName: "A", LastName: "B", Score: b.TotalScore, ScoreBreakdown: &b, RegistryID: "12345678"})

	if row.Name != "A B" || row.Grade != b.ScoreGrade || row.ScoredAt != "2026-05-04T08:30:00Z" || row.CVRNumber != "12345678" {
		t.Fatalf("row = %+v", row)
	}
	if got := len(row.Values()); got != len(SheetHeader) {
		t.Fatalf("values = %d columns, header = %d", got, len(SheetHeader))
	}
}
