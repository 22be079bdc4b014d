package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vtyagi/avatar/internal/chat"
	"github.com/vtyagi/avatar/internal/profile"
)

// MCPDeps holds dependencies for the MCP server. Chat is optional; without it
// the ask tool reports that model access is unavailable.
type MCPDeps struct {
	Profiles *profile.Store
	Chat     *chat.Service
}

// NewMCPServer creates an MCP server exposing the portfolio as tools and
// resources, for agents that want to query the site owner's background
// without going through HTTP.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"avatar",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("avatar — portfolio knowledge base for the site owner's bio, projects, experience, and skills."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_projects",
			mcp.WithDescription("List all projects in the portfolio catalog, in order."),
		),
		mcpListProjects(deps),
	)

	s.AddTool(
		mcp.NewTool("project_details",
			mcp.WithDescription("Look up one project by a title fragment (case-insensitive substring)."),
			mcp.WithString("title", mcp.Description("Project title or fragment"), mcp.Required()),
		),
		mcpProjectDetails(deps),
	)

	s.AddTool(
		mcp.NewTool("profile_section",
			mcp.WithDescription("Return one profile section: bio, experience, education, skills, or achievements."),
			mcp.WithString("section", mcp.Description("Section name"), mcp.Required()),
		),
		mcpProfileSection(deps),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Ask the portfolio chat a free-form question; canned answers and model replies both apply."),
			mcp.WithString("message", mcp.Description("The question"), mcp.Required()),
			mcp.WithString("session", mcp.Description("Optional session id for conversational continuity")),
		),
		mcpAsk(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"portfolio://profile",
			"Owner Profile",
			mcp.WithResourceDescription("The owner's profile dataset as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"portfolio://projects",
			"Project Catalog",
			mcp.WithResourceDescription("All projects as JSON, in catalog order"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProjects(deps),
	)

	return s
}

func mcpListProjects(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		titles := deps.Profiles.ProjectTitles()
		b, err := json.Marshal(titles)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal titles: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpProjectDetails(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}

		p, ok := deps.Profiles.FindProject(title)
		if !ok {
			return mcpError(fmt.Sprintf("no project matching %q", title)), nil
		}

		b, err := json.Marshal(p)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal project: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpProfileSection(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		section, err := req.RequireString("section")
		if err != nil {
			return mcpError("section is required"), nil
		}

		p := deps.Profiles.Profile()
		var value any
		switch strings.ToLower(strings.TrimSpace(section)) {
		case "bio":
			value = p.Bio
		case "experience":
			value = p.Experience
		case "education":
			value = p.Education
		case "skills":
			value = p.Skills
		case "achievements":
			value = p.Achievements
		default:
			return mcpError(fmt.Sprintf("unknown section %q; expected bio, experience, education, skills, or achievements", section)), nil
		}

		b, err := json.Marshal(value)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal section: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Chat == nil {
			return mcpError("chat not available: no model configured"), nil
		}

		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		sessionID := req.GetString("session", "mcp")

		out, err := deps.Chat.Handle(ctx, sessionID, message)
		if err != nil {
			return mcpError(fmt.Sprintf("chat failed: %v", err)), nil
		}
		return mcpText(out.Reply), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Profiles.Profile())
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

func mcpResourceProjects(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Profiles.Projects())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal projects: %w", err)
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
