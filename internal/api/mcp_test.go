package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forme-app/forme/internal/pipeline"
	"github.com/forme-app/forme/internal/profile"
	"github.com/forme-app/forme/internal/risk"
	"github.com/forme-app/forme/internal/storage"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	profiles := profile.NewManager(store)
	analyzer := pipeline.NewAnalyzer(risk.NewResolver(risk.Default()), profiles, store)

	return MCPDeps{
		Analyzer:   analyzer,
		Profiles:   profiles,
		Dictionary: risk.Default(),
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

// --- tests ---

func TestMCPTool_AnalyzeProduct(t *testing.T) {
	deps := newTestMCPDeps(t)
	if err := deps.Profiles.Save("u1", profile.Profile{
		CosmeticsSensitivities: []string{"fragrance", "sls"},
	}); err != nil {
		t.Fatalf("Save profile: %v", err)
	}

	handler := mcpAnalyzeProduct(deps)
	req := makeCallToolRequest("analyze_product", map[string]interface{}{
		"user_id":     "u1",
		"ingredients": "Water, Sodium Lauryl Sulfate, Glycerin, Fragrance",
		"category":    "cosmetics",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var res pipeline.Result
	if err := json.Unmarshal([]byte(toolText(t, result)), &res); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if res.Score.ForMeScore != 67 {
		t.Errorf("for_me_score = %d, want 67", res.Score.ForMeScore)
	}
}

func TestMCPTool_AnalyzeProduct_MissingArgs(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpAnalyzeProduct(deps)

	result, err := handler(context.Background(), makeCallToolRequest("analyze_product", map[string]interface{}{
		"user_id": "u1",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing ingredients")
	}
}

func TestMCPTool_ProfileRoundTrip(t *testing.T) {
	deps := newTestMCPDeps(t)

	update := mcpUpdateProfile(deps)
	result, err := update(context.Background(), makeCallToolRequest("update_profile", map[string]interface{}{
		"user_id": "u1",
		"profile": `{"food_strict_avoid":["Hazelnut"],"skin_type":"dry"}`,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	get := mcpGetProfile(deps)
	result, err = get(context.Background(), makeCallToolRequest("get_profile", map[string]interface{}{
		"user_id": "u1",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(toolText(t, result)), &p); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if len(p.FoodStrictAvoid) != 1 || p.FoodStrictAvoid[0] != "hazelnut" {
		t.Errorf("FoodStrictAvoid = %v, want normalized [hazelnut]", p.FoodStrictAvoid)
	}
}

func TestMCPTool_UpdateProfile_InvalidJSON(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpUpdateProfile(deps)

	result, err := handler(context.Background(), makeCallToolRequest("update_profile", map[string]interface{}{
		"user_id": "u1",
		"profile": `{not json`,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for invalid JSON")
	}
}

func TestMCPTool_ReportReaction(t *testing.T) {
	deps := newTestMCPDeps(t)

	report := mcpReportReaction(deps)
	result, err := report(context.Background(), makeCallToolRequest("report_reaction", map[string]interface{}{
		"user_id":    "u1",
		"ingredient": "Fragrance",
		"reaction":   "redness",
		"frequency":  "always",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	p, err := deps.Profiles.Get("u1")
	if err != nil {
		t.Fatalf("Get profile: %v", err)
	}
	if len(p.RepeatedNegativeReactions) != 1 {
		t.Fatalf("reactions = %v, want 1 entry", p.RepeatedNegativeReactions)
	}
	if p.RepeatedNegativeReactions[0].Ingredient != "fragrance" {
		t.Errorf("Ingredient = %q, want normalized %q", p.RepeatedNegativeReactions[0].Ingredient, "fragrance")
	}

	// A later analysis of the same ingredient carries the history penalty.
	res, err := deps.Analyzer.Analyze(context.Background(), pipeline.Request{
		UserID:       "u1",
		RawText:      "water, fragrance",
		CategoryHint: "cosmetics",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	found := false
	for _, issue := range res.Score.SensitivityIssues {
		if strings.Contains(issue, "repeated negative reactions") {
			found = true
		}
	}
	if !found {
		t.Errorf("sensitivity issues %v missing reaction-history entry", res.Score.SensitivityIssues)
	}
}

func TestMCPResource_Dictionary(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpResourceDictionary(deps)

	contents, err := handler(context.Background(), makeReadResourceRequest("forme://risk-dictionary"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}

	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var dict risk.Dictionary
	if err := json.Unmarshal([]byte(tc.Text), &dict); err != nil {
		t.Fatalf("decoding dictionary: %v", err)
	}
	if len(dict.Exact) == 0 {
		t.Error("dictionary has no exact entries")
	}
	if _, ok := dict.Exact["fragrance"]; !ok {
		t.Error("dictionary missing fragrance entry")
	}
}
