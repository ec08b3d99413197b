package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/draftpad/urlcontext/pkg/pasteapi"
)

// NewStorePasteTool creates the paste upload tool backed by store.
func NewStorePasteTool(store *pasteapi.Client) *Tool {
	return &Tool{
		Tool: mcp.Tool{
			Name:        "store_paste",
			Description: "Upload content to the paste store and get back a retrieval URL. The content is served back with the given MIME type until the store's retention window runs out.",
			Annotations: &mcp.ToolAnnotations{Title: "Store paste"},
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{
						"type":        "string",
						"description": "The content to store",
					},
					"content_type": map[string]any{
						"type":        "string",
						"description": "MIME type served back on retrieval (default text/plain)",
					},
				},
				"required": []string{"content"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*Result, error) {
			content, err := ReadText(args, "content", true)
			if err != nil {
				return ErrorResult("store_paste", err.Error()), nil
			}
			if content == "" {
				return ErrorResult("store_paste", "content must not be empty"), nil
			}
			contentType := ReadStringDefault(args, "content_type", "text/plain; charset=utf-8")

			retrievalURL, err := store.Put(ctx, contentType, []byte(content))
			if err != nil {
				return ErrorResult("store_paste", err.Error()), nil
			}
			return JSONResult(map[string]any{
				"url":          retrievalURL,
				"content_type": contentType,
				"size":         len(content),
			}), nil
		},
	}
}
