package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/highlight"
	"github.com/ziadkadry99/studyaid/internal/vectordb"
)

type segmentsResult struct {
	MaterialID string              `json:"materialId,omitempty"`
	Segments   []highlight.Segment `json:"segments"`
}

// handleHighlightKeywords runs the matcher over the given text.
func (s *Server) handleHighlightKeywords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Text     *string                  `json:"text"`
		Keywords []highlight.KeywordEntry `json:"keywords"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.Text == nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	segs := highlight.Match(*args.Text, args.Keywords)
	if segs == nil {
		segs = []highlight.Segment{}
	}
	return mcp.NewToolResultJSON(segmentsResult{Segments: segs})
}

// handleListMaterials lists the user's materials as text.
func (s *Server) handleListMaterials(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := s.requireUser(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	list, err := s.materials.List(ctx, user.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing materials failed: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s has no study materials yet.", user.Email)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d study material(s):\n", len(list))
	for _, m := range list {
		fmt.Fprintf(&sb, "\n- %s [%s]\n  Created: %s, keywords: %d\n",
			m.DisplayTitle(), m.ID, m.CreatedAt.Format("2006-01-02 15:04"), len(m.Keywords))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetMaterialSegments returns one material's highlighted segments.
func (s *Server) handleGetMaterialSegments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := s.requireUser(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	id, err := request.RequireString("material_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: material_id"), nil
	}

	m, err := s.materials.Get(ctx, id, user.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading material failed: %v", err)), nil
	}
	if m == nil {
		return mcp.NewToolResultError(fmt.Sprintf("No study material %q for %s.", id, user.Email)), nil
	}

	segs := m.Segments()
	if segs == nil {
		segs = []highlight.Segment{}
	}
	return mcp.NewToolResultJSON(segmentsResult{MaterialID: m.ID, Segments: segs})
}

// handleSearchMaterials performs semantic search over the user's materials.
func (s *Server) handleSearchMaterials(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := s.requireUser(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	results, err := s.index.Results(ctx, user.ID, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. Materials are indexed when they are created or analyzed."), nil
	}
	return mcp.NewToolResultText(vectordb.FormatResults(results)), nil
}

// requireUser resolves the "email" argument to a user, or returns the tool
// error to send back.
func (s *Server) requireUser(ctx context.Context, request mcp.CallToolRequest) (*auth.User, *mcp.CallToolResult) {
	email, err := request.RequireString("email")
	if err != nil {
		return nil, mcp.NewToolResultError("missing required parameter: email")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("looking up user failed: %v", err))
	}
	if user == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("No user with email %q. Sign in to the web app first.", email))
	}
	return user, nil
}
