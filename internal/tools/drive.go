package tools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/dealflow/pkg/models"
)

// SearchDrive is the Drive file-search tool.
type SearchDrive struct {
	searcher FileSearcher
}

// NewSearchDrive creates the tool over the given searcher.
func NewSearchDrive(searcher FileSearcher) *SearchDrive {
	return &SearchDrive{searcher: searcher}
}

// Name implements agent.Tool.
func (t *SearchDrive) Name() string { return "search_drive" }

// Description implements agent.Tool.
func (t *SearchDrive) Description() string {
	return "Search Google Drive for files matching a query"
}

// Schema implements agent.Tool.
func (t *SearchDrive) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query (filename or content keywords)"}
		},
		"required": ["query"]
	}`)
}

// Execute implements agent.Tool.
func (t *SearchDrive) Execute(ctx context.Context, input json.RawMessage) (models.ToolResult, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return models.ToolResult{}, err
	}

	files, err := t.searcher.SearchFiles(ctx, params.Query)
	if err != nil {
		return models.ToolResult{}, err
	}

	return models.ToolResult{
		Success: true,
		Result: map[string]any{
			"files": files,
			"count": len(files),
		},
	}, nil
}
