package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultEndpoint = "http://localhost:8080/mcp/stream"
	// Novo Nordisk A/S, a stable public registry entry
	defaultCVR = "24256790"
)

func main() {
	ctx := context.Background()

	endpoint := envOr("MCP_ENDPOINT", defaultEndpoint)
	cvrNumber := envOr("TEST_CVR_NUMBER", defaultCVR)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "leadscore-test-client",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: endpoint,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = session.Close() }()

	log.Printf("Connected to server (session ID: %s)\n", session.ID())

	testListTools(ctx, session)
	testICPConfig(ctx, session)
	testLookup(ctx, session, cvrNumber)
	leadID := testCreateAndScore(ctx, session, cvrNumber)
	testStats(ctx, session)
	if leadID != "" {
		testGraphTool(ctx, session, leadID)
	}

	fmt.Println("\nAll tests completed")
}

func testListTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: list tools")
	res, err := session.ListTools(ctx, nil)
	if err != nil {
		log.Printf("list tools failed: %v", err)
		return
	}
	for _, tool := range res.Tools {
		fmt.Printf("  %s: %s\n", tool.Name, tool.Description)
	}
}

func testICPConfig(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: icp_config")
	if res, ok := call(ctx, session, "icp_config", map[string]any{}); ok {
		printResult(res)
	}
}

func testLookup(ctx context.Context, session *mcp.ClientSession, cvrNumber string) {
	fmt.Println("\nTEST: cvr_lookup")
	if res, ok := call(ctx, session, "cvr_lookup", map[string]any{"cvr_number": cvrNumber}); ok {
		printResult(res)
	}

	fmt.Println("\n  cvr_lookup with invalid number (expect error)")
	if res, ok := call(ctx, session, "cvr_lookup", map[string]any{"cvr_number": "123"}); ok {
		printResult(res)
	}
}

// testCreateAndScore returns the created lead id, or "" when creation failed
func testCreateAndScore(ctx context.Context, session *mcp.ClientSession, cvrNumber string) string {
	fmt.Println("\nTEST: lead_create_from_cvr")
	res, ok := call(ctx, session, "lead_create_from_cvr", map[string]any{
		"cvr_number":   cvrNumber,
		"created_by":   "test-client",
		"extra_fields": map[string]any{"first_name": "Test", "last_name": "Lead", "title": "Head of Procurement"},
	})
	if !ok {
		return ""
	}
	printResult(res)

	var created struct {
		ID string `json:"id"`
	}
	if raw, err := json.Marshal(res.StructuredContent); err == nil {
		_ = json.Unmarshal(raw, &created)
	}
	if created.ID == "" {
		log.Printf("lead_create_from_cvr returned no lead id (lead may already exist)")
		return ""
	}

	fmt.Println("\nTEST: lead_score")
	if res, ok := call(ctx, session, "lead_score", map[string]any{"lead_id": created.ID}); ok {
		printResult(res)
	}
	return created.ID
}

func testStats(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: score_stats")
	if res, ok := call(ctx, session, "score_stats", map[string]any{}); ok {
		printResult(res)
	}

	fmt.Println("\nTEST: lead_score_all (dry run)")
	if res, ok := call(ctx, session, "lead_score_all", map[string]any{"dry_run": true}); ok {
		printResult(res)
	}
}

func testGraphTool(ctx context.Context, session *mcp.ClientSession, leadID string) {
	fmt.Println("\nTEST: graph_tool")

	fmt.Println("\n  related leads")
	if res, ok := call(ctx, session, "graph_tool", map[string]any{"lead_id": leadID}); ok {
		printResult(res)
	}

	fmt.Println("\n  industry scores")
	if res, ok := call(ctx, session, "graph_tool", map[string]any{}); ok {
		printResult(res)
	}

	fmt.Println("\n  custom cypher")
	if res, ok := call(ctx, session, "graph_tool", map[string]any{
		"cypher": "MATCH (n) RETURN labels(n) as labels, count(n) as count ORDER BY count DESC LIMIT 10",
	}); ok {
		printResult(res)
	}
}

func call(ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, bool) {
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		log.Printf("%s failed: %v", name, err)
		return nil, false
	}
	if res.IsError {
		fmt.Printf("  %s returned a tool error:\n", name)
		printResult(res)
		return nil, false
	}
	return res, true
}

func printResult(res *mcp.CallToolResult) {
	for _, c := range res.Content {
		if txt, ok := c.(*mcp.TextContent); ok {
			fmt.Println(txt.Text)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
