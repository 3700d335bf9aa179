// Package mcpserver exposes the debt-scoring pipeline as a Model
// Context Protocol server, so an editor or agent can ask for a ranked
// debt report the same way the CLI's score command does.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers the debtmap scoring tool.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with the score tool registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "debtmap",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the debtmap tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "debt_score",
		Description: describeScore(),
	}, handleScore)
}
