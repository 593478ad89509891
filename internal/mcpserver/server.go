// Package mcpserver exposes memory entries to agents over the Model Context
// Protocol on stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rcliao/memory-fabric/internal/app"
)

// Server adapts an App to MCP tool handlers.
type Server struct {
	app *app.App
}

// New returns a Server backed by a.
func New(a *app.App) *Server {
	return &Server{app: a}
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer(version string) *server.MCPServer {
	m := server.NewMCPServer("memfabric", version)

	m.AddTool(mcp.NewTool("validate_entry",
		mcp.WithDescription("Validates a memory entry without storing it and returns every violation found."),
		mcp.WithString("entry", mcp.Required(), mcp.Description("The entry as a JSON or YAML document")),
	), s.validateHandler)

	m.AddTool(mcp.NewTool("store_entry",
		mcp.WithDescription("Validates and stores a memory entry. An existing id becomes a new revision."),
		mcp.WithString("entry", mcp.Required(), mcp.Description("The entry as a JSON or YAML document")),
		mcp.WithBoolean("embed", mcp.Description("Compute an embedding when the entry has none")),
	), s.storeHandler)

	m.AddTool(mcp.NewTool("get_entry",
		mcp.WithDescription("Fetches an entry by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry UUID")),
		mcp.WithBoolean("history", mcp.Description("Return every revision, newest first")),
	), s.getHandler)

	m.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("Lists live entries, newest first."),
		mcp.WithString("project", mcp.Description("Project name")),
		mcp.WithString("branch", mcp.Description("Branch name")),
		mcp.WithString("type", mcp.Description("Entry type")),
		mcp.WithString("status", mcp.Description("draft, verified or archived")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.listHandler)

	m.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Searches entries by keyword, or by meaning when semantic is set."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithString("project", mcp.Description("Project name")),
		mcp.WithString("branch", mcp.Description("Branch name")),
		mcp.WithString("type", mcp.Description("Entry type")),
		mcp.WithBoolean("semantic", mcp.Description("Use the vector index instead of full-text search")),
		mcp.WithNumber("threshold", mcp.Description("Minimum similarity 0 to 1 (semantic only)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags every result must carry (semantic only)")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.searchHandler)

	m.AddTool(mcp.NewTool("build_context",
		mcp.WithDescription("Assembles the most relevant entries of a project within a token budget."),
		mcp.WithString("project", mcp.Description("Project name")),
		mcp.WithString("branch", mcp.Description("Current branch; its entries rank higher")),
		mcp.WithString("query", mcp.Description("What the context is for")),
		mcp.WithNumber("budget", mcp.Description("Max tokens (default 4000)")),
	), s.contextHandler)

	m.AddTool(mcp.NewTool("delete_entry",
		mcp.WithDescription("Deletes an entry. Soft by default; hard removes every revision."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry UUID")),
		mcp.WithBoolean("hard", mcp.Description("Delete permanently")),
	), s.deleteHandler)

	return m
}

// ServeStdio serves MCP on stdin and stdout until the client disconnects.
func (s *Server) ServeStdio(version string) error {
	s.app.Logger.Info("mcp server starting on stdio", "version", version)
	return server.ServeStdio(s.MCPServer(version))
}
