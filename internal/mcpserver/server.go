// Package mcpserver exposes definition and reference lookup as MCP tools.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"cnav/internal/version"
)

// New registers the tools of h on a fresh MCP server. Protocol plumbing
// lives here; lookups are delegated to h.
func New(h *Handler) *server.MCPServer {
	s := server.NewMCPServer(
		"cnav",
		version.Version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Macro-aware C symbol lookup. Lines and columns use base "+h.baseName()+"; columns count bytes."),
	)

	position := []mcp.ToolOption{
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path of the C source file"),
		),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("Line of the identifier"),
		),
		mcp.WithNumber("column",
			mcp.Required(),
			mcp.Description("Byte column of the identifier"),
		),
	}

	s.AddTool(mcp.NewTool("definition", append([]mcp.ToolOption{
		mcp.WithDescription("Find where the C identifier at a position is declared, following macros, struct members and block scopes."),
		mcp.WithReadOnlyHintAnnotation(true),
	}, position...)...), h.Definition)

	s.AddTool(mcp.NewTool("references", append([]mcp.ToolOption{
		mcp.WithDescription("List every occurrence in the file of the C symbol at a position."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithBoolean("include_declaration",
			mcp.Description("Include declaring occurrences (default true)"),
			mcp.DefaultBool(true),
		),
	}, position...)...), h.References)

	s.AddTool(mcp.NewTool("symbols",
		mcp.WithDescription("List the symbols declared in a C source file with their kinds and ranges."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path of the C source file"),
		),
	), h.Symbols)

	return s
}
