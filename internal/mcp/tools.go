package mcp

import "github.com/mark3labs/mcp-go/mcp"

var keywordItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"keyword": map[string]any{"type": "string"},
		"detail":  map[string]any{"type": "string"},
	},
	"required": []string{"keyword"},
}

// highlightKeywordsTool defines the highlight_keywords MCP tool.
var highlightKeywordsTool = mcp.NewTool("highlight_keywords",
	mcp.WithDescription("Split text into plain and keyword segments. Keywords match case-insensitively at word boundaries; longer keywords win over shorter ones."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Text to segment"),
	),
	mcp.WithArray("keywords",
		mcp.Required(),
		mcp.Description("Keywords with their details"),
		mcp.Items(keywordItemSchema),
	),
)

// listMaterialsTool defines the list_materials MCP tool.
var listMaterialsTool = mcp.NewTool("list_materials",
	mcp.WithDescription("List a user's study materials, newest first."),
	mcp.WithString("email",
		mcp.Required(),
		mcp.Description("Email address the user signed in with"),
	),
)

// getMaterialSegmentsTool defines the get_material_segments MCP tool.
var getMaterialSegmentsTool = mcp.NewTool("get_material_segments",
	mcp.WithDescription("Get a study material's content split into plain and keyword segments using its stored keywords."),
	mcp.WithString("email",
		mcp.Required(),
		mcp.Description("Email address of the material's owner"),
	),
	mcp.WithString("material_id",
		mcp.Required(),
		mcp.Description("Study material id"),
	),
)

// searchMaterialsTool defines the search_materials MCP tool.
var searchMaterialsTool = mcp.NewTool("search_materials",
	mcp.WithDescription("Search a user's study materials and keyword details semantically."),
	mcp.WithString("email",
		mcp.Required(),
		mcp.Description("Email address of the materials' owner"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)
