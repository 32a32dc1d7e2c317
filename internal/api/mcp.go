package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/goodfirst/goodfirst/internal/matching"
	"github.com/goodfirst/goodfirst/internal/skills"
	"github.com/goodfirst/goodfirst/internal/storage"
	"github.com/goodfirst/goodfirst/internal/view"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store       *storage.Store
	Profiles    *skills.Manager
	Taxonomy    skills.Taxonomy
	Recommender Recommender

	// MaxResults caps the max_results tool argument.
	MaxResults int

	// TopKSkills is how many keywords an assessment keeps.
	TopKSkills int
}

// NewMCPServer creates an MCP server with the goodfirst tools and
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.MaxResults <= 0 {
		deps.MaxResults = 10
	}
	if deps.TopKSkills <= 0 {
		deps.TopKSkills = skills.DefaultTopK
	}

	s := server.NewMCPServer(
		"goodfirst",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("goodfirst matches a developer's skill profile to open source issues worth picking up."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("recommend_issues",
			mcp.WithDescription("Rank open source issues against the stored skill profile, or against an explicit list of skills."),
			mcp.WithArray("skills", mcp.Description("Optional skill keywords to match instead of the stored profile")),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of recommendations (default 10)")),
		),
		mcpRecommendIssues(deps),
	)

	s.AddTool(
		mcp.NewTool("submit_quiz",
			mcp.WithDescription("Store quiz answers as a new skill assessment. Answers are option indexes per question, -1 to skip."),
			mcp.WithString("answers", mcp.Description("JSON array of option indexes, one per question"), mcp.Required()),
		),
		mcpSubmitQuiz(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"goodfirst://profile",
			"Skill Profile",
			mcp.WithResourceDescription("Current skill profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	return s
}

func mcpRecommendIssues(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		maxResults := req.GetInt("max_results", deps.MaxResults)
		if maxResults <= 0 {
			maxResults = deps.MaxResults
		}
		if maxResults > 50 {
			maxResults = 50
		}

		var matches []matching.Match
		var err error
		if terms := req.GetStringSlice("skills", nil); len(terms) > 0 {
			matches, _, err = deps.Recommender.GetRecommendationsFor(ctx, skills.FromTerms(terms), maxResults)
		} else {
			matches, _, err = deps.Recommender.GetRecommendations(ctx, maxResults)
		}
		if err != nil {
			return mcpError(fmt.Sprintf("recommendation failed: %v", err)), nil
		}

		b, err := json.Marshal(view.Render(matches))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSubmitQuiz(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		answersJSON, err := req.RequireString("answers")
		if err != nil {
			return mcpError("answers is required"), nil
		}

		var answers []int
		if err := json.Unmarshal([]byte(answersJSON), &answers); err != nil {
			return mcpError(fmt.Sprintf("invalid answers JSON: %v", err)), nil
		}
		if len(answers) == 0 || len(answers) > len(deps.Taxonomy.Questions) {
			return mcpError(fmt.Sprintf("expected 1-%d answers, got %d", len(deps.Taxonomy.Questions), len(answers))), nil
		}

		profile := deps.Taxonomy.Extract(skills.AnswersFromSelections(answers), deps.TopKSkills)
		if profile.Empty() {
			return mcpError("answers produced no skills"), nil
		}

		keywordsJSON, err := json.Marshal(profile.Keywords)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal keywords: %v", err)), nil
		}

		a := storage.Assessment{
			ID:           uuid.New().String(),
			Source:       storage.SourceQuiz,
			AnswersJSON:  answersJSON,
			KeywordsJSON: string(keywordsJSON),
			CreatedAt:    time.Now().UTC(),
		}
		if err := deps.Store.SaveAssessment(a); err != nil {
			return mcpError(fmt.Sprintf("failed to save assessment: %v", err)), nil
		}
		deps.Profiles.Invalidate()

		return mcpText(fmt.Sprintf("Stored assessment %s with skills: %s", a.ID, string(keywordsJSON))), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Profiles.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		b, err := json.Marshal(p.Keywords)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
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
