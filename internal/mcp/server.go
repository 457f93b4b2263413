package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/materials"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes highlighting and study material
// tools to agents.
type Server struct {
	users     *auth.Store
	materials *materials.Store
	index     *materials.Index // nil disables search_materials
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies. users and
// store may be nil, in which case only highlight_keywords is offered.
func NewServer(users *auth.Store, store *materials.Store, index *materials.Index) *Server {
	s := &Server{
		users:     users,
		materials: store,
		index:     index,
	}

	s.mcp = server.NewMCPServer(
		"studyaid",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(highlightKeywordsTool, s.handleHighlightKeywords)
	if s.users == nil || s.materials == nil {
		return
	}
	s.mcp.AddTool(listMaterialsTool, s.handleListMaterials)
	s.mcp.AddTool(getMaterialSegmentsTool, s.handleGetMaterialSegments)
	if s.index != nil {
		s.mcp.AddTool(searchMaterialsTool, s.handleSearchMaterials)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
