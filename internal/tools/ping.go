package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PingInput defines the input schema for the ping tool.
type PingInput struct {
	Echo string `json:"echo,omitempty" jsonschema:"Text to echo back"`
}

// NewPingHandler creates a ping tool handler. A connectivity check that
// echoes input, or replies "pong" with the size of aria's memory when the
// store is reachable.
func NewPingHandler(deps *Dependencies) mcp.ToolHandlerFor[PingInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PingInput) (*mcp.CallToolResult, any, error) {
		if deps != nil && deps.Logger != nil {
			deps.Logger.Debug("ping tool called", "echo", input.Echo)
		}

		if input.Echo != "" {
			return TextResult(input.Echo), nil, nil
		}
		if deps != nil && deps.Store != nil {
			if n, err := deps.Store.Count(ctx); err == nil {
				return TextResult(fmt.Sprintf("pong (%d facts on hand)", n)), nil, nil
			}
		}
		return TextResult("pong"), nil, nil
	}
}
