package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/forme-app/forme/internal/pipeline"
	"github.com/forme-app/forme/internal/profile"
	"github.com/forme-app/forme/internal/risk"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Analyzer   *pipeline.Analyzer
	Profiles   *profile.Manager
	Dictionary *risk.Dictionary
}

// NewMCPServer creates an MCP server with the analysis tools and resources
// registered, so assistants can score products against a user's profile.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"forme",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("forme — personal ingredient compatibility scoring for food, cosmetics, and household products."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("analyze_product",
			mcp.WithDescription("Score a product's ingredient list against the user's profile. Returns safety, sensitivity, match, and FOR ME scores with issues."),
			mcp.WithString("user_id", mcp.Description("User whose profile to score against"), mcp.Required()),
			mcp.WithString("ingredients", mcp.Description("Raw ingredient list as printed on the label"), mcp.Required()),
			mcp.WithString("category", mcp.Description("Optional category hint: food, cosmetics, or household")),
			mcp.WithString("product_name", mcp.Description("Optional product name for the analysis history")),
		),
		mcpAnalyzeProduct(deps),
	)

	s.AddTool(
		mcp.NewTool("get_profile",
			mcp.WithDescription("Read a user's preference profile."),
			mcp.WithString("user_id", mcp.Description("User to read"), mcp.Required()),
		),
		mcpGetProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("update_profile",
			mcp.WithDescription("Replace a user's preference profile. Lists are lowercased and deduplicated on save."),
			mcp.WithString("user_id", mcp.Description("User to update"), mcp.Required()),
			mcp.WithString("profile", mcp.Description("Profile object as JSON"), mcp.Required()),
		),
		mcpUpdateProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("report_reaction",
			mcp.WithDescription("Record a negative reaction to an ingredient in the user's history. Reactions with frequency \"always\" lower future sensitivity scores."),
			mcp.WithString("user_id", mcp.Description("User reporting the reaction"), mcp.Required()),
			mcp.WithString("ingredient", mcp.Description("Ingredient that caused the reaction"), mcp.Required()),
			mcp.WithString("reaction", mcp.Description("What happened (e.g. redness, bloating)")),
			mcp.WithString("frequency", mcp.Description("How often it happens: sometimes, often, or always")),
			mcp.WithString("severity", mcp.Description("mild, moderate, or severe")),
			mcp.WithString("domain", mcp.Description("Optional category the reaction is scoped to: food, cosmetics, or household")),
		),
		mcpReportReaction(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"forme://risk-dictionary",
			"Ingredient Risk Dictionary",
			mcp.WithResourceDescription("Built-in ingredient risk tags and synonym table as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceDictionary(deps),
	)

	return s
}

func mcpAnalyzeProduct(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}
		ingredients, err := req.RequireString("ingredients")
		if err != nil {
			return mcpError("ingredients is required"), nil
		}

		res, err := deps.Analyzer.Analyze(ctx, pipeline.Request{
			UserID:       userID,
			RawText:      ingredients,
			ProductName:  req.GetString("product_name", ""),
			CategoryHint: req.GetString("category", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		b, err := json.Marshal(res)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}

		p, err := deps.Profiles.Get(userID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get profile: %v", err)), nil
		}

		b, err := json.Marshal(p)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpUpdateProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}
		profileJSON, err := req.RequireString("profile")
		if err != nil {
			return mcpError("profile is required"), nil
		}

		var p profile.Profile
		if err := json.Unmarshal([]byte(profileJSON), &p); err != nil {
			return mcpError(fmt.Sprintf("invalid profile JSON: %v", err)), nil
		}

		if err := deps.Profiles.Save(userID, p); err != nil {
			return mcpError(fmt.Sprintf("failed to save profile: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Profile updated for %s", userID)), nil
	}
}

func mcpReportReaction(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}
		ingredient, err := req.RequireString("ingredient")
		if err != nil {
			return mcpError("ingredient is required"), nil
		}

		reaction := profile.Reaction{
			Ingredient: ingredient,
			Reaction:   req.GetString("reaction", ""),
			Frequency:  req.GetString("frequency", ""),
			Severity:   req.GetString("severity", ""),
			Domain:     req.GetString("domain", ""),
		}

		if err := deps.Profiles.AppendReaction(userID, reaction); err != nil {
			return mcpError(fmt.Sprintf("failed to record reaction: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Recorded reaction to %s for %s", ingredient, userID)), nil
	}
}

func mcpResourceDictionary(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dict := deps.Dictionary
		if dict == nil {
			dict = risk.Default()
		}

		b, err := json.Marshal(dict)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dictionary: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
