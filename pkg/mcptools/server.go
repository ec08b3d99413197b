package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// NewServer builds an MCP server exposing every tool in reg.
func NewServer(version string, reg *Registry, log zerolog.Logger) *mcp.Server {
	log = log.With().Str("component", "mcp-server").Logger()
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "urlcontext",
		Version: version,
	}, nil)
	for _, tool := range reg.All() {
		addTool(server, tool, log.With().Str("tool", tool.Name).Logger())
	}
	return server
}

func addTool(server *mcp.Server, tool *Tool, log zerolog.Logger) {
	mcp.AddTool(server, &tool.Tool, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		result, err := tool.Execute(ctx, args)
		if err != nil {
			log.Err(err).Msg("Tool execution failed")
			return nil, nil, err
		}
		if result.IsError() {
			log.Debug().Str("error", result.Error).Msg("Tool returned an error result")
		}
		return result.ToCallToolResult(), nil, nil
	})
}

// RunStdio serves the MCP server over stdin/stdout until the client
// disconnects or ctx is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
