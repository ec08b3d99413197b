package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/draftpad/urlcontext/pkg/linkscan"
)

// ExtractLinks is the link extraction tool definition.
var ExtractLinks = &Tool{
	Tool: mcp.Tool{
		Name:        "extract_links",
		Description: "Scan text for URLs. Returns every markdown-style and bare URL occurrence with its zero-based line and byte column span, grouped per URL in document order. Trailing punctuation is stripped from bare URLs.",
		Annotations: &mcp.ToolAnnotations{Title: "Extract links"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The text to scan for URLs",
				},
			},
			"required": []string{"text"},
		},
	},
	Execute: executeExtractLinks,
}

func executeExtractLinks(ctx context.Context, args map[string]any) (*Result, error) {
	text, err := ReadText(args, "text", true)
	if err != nil {
		return ErrorResult("extract_links", err.Error()), nil
	}

	ext := linkscan.Extract(text)
	occurrences := make([]map[string]any, 0, ext.Len())
	for _, occ := range ext.All() {
		occurrences = append(occurrences, map[string]any{
			"url":       occ.URL,
			"line":      occ.Line,
			"start_col": occ.Range.Start.Col,
			"end_col":   occ.Range.End.Col,
		})
	}
	urls := ext.URLs()
	if urls == nil {
		urls = []string{}
	}
	return JSONResult(map[string]any{
		"urls":        urls,
		"occurrences": occurrences,
	}), nil
}
