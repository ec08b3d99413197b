// Package mcptools exposes the link-context operations as MCP tools: scan
// text for URLs, resolve context metadata for a URL, and store a paste.
// Tools wrap an mcp.Tool definition with local execution logic so they can
// be served over any MCP transport or called in-process.
package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool wraps an MCP tool definition with its execution logic.
type Tool struct {
	mcp.Tool // Name, Description, InputSchema
	Execute  func(ctx context.Context, args map[string]any) (*Result, error)
}

// ToMCPTool returns the underlying mcp.Tool definition.
func (t *Tool) ToMCPTool() mcp.Tool {
	return t.Tool
}

// Result standardizes tool output: a status, renderable content blocks and
// structured details for machine consumption.
type Result struct {
	Status  ResultStatus   `json:"status"`
	Content []ContentBlock `json:"content,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ContentBlock is one renderable chunk of a result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ResultStatus indicates the outcome of tool execution.
type ResultStatus string

const (
	// ResultSuccess indicates the tool completed successfully.
	ResultSuccess ResultStatus = "success"
	// ResultError indicates the tool failed with an error.
	ResultError ResultStatus = "error"
)

// IsSuccess reports whether the result indicates success.
func (r *Result) IsSuccess() bool {
	return r.Status == ResultSuccess
}

// IsError reports whether the result indicates an error.
func (r *Result) IsError() bool {
	return r.Status == ResultError
}

// Text returns the first text content block, or the error message for error
// results.
func (r *Result) Text() string {
	if r.Status == ResultError && r.Error != "" {
		return r.Error
	}
	for _, block := range r.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text
		}
	}
	return ""
}

// ToCallToolResult converts the result to the MCP wire representation.
func (r *Result) ToCallToolResult() *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(r.Content))
	for _, block := range r.Content {
		content = append(content, &mcp.TextContent{Text: block.Text})
	}
	return &mcp.CallToolResult{
		Content: content,
		IsError: r.Status == ResultError,
	}
}
