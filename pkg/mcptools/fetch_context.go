package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/draftpad/urlcontext/pkg/engine"
)

// NewFetchContextTool creates the context fetch tool. Resolutions go
// through cache, so repeated calls for the same URL reuse the stored
// outcome and concurrent calls collapse into one upstream request, the same
// guarantees the editor engine gives its own fetches.
func NewFetchContextTool(cache *engine.Cache) *Tool {
	return &Tool{
		Tool: mcp.Tool{
			Name:        "fetch_url_context",
			Description: "Resolve context metadata for a URL through the context service: title, type, token count, description and, for textual targets, the content itself. Outcomes are cached per URL for the lifetime of the server, including failures.",
			Annotations: &mcp.ToolAnnotations{Title: "Fetch URL context"},
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "The URL to resolve context for",
					},
				},
				"required": []string{"url"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*Result, error) {
			target, err := ReadString(args, "url", true)
			if err != nil {
				return ErrorResult("fetch_url_context", err.Error()), nil
			}
			entry := cache.Fetch(ctx, target)
			if entry.Failed() {
				return ErrorResult("fetch_url_context", entry.Err.Error()), nil
			}
			return JSONResult(entry.Context), nil
		},
	}
}
