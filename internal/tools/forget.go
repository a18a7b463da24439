package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ForgetInput defines the input schema for the forget tool.
type ForgetInput struct {
	ID string `json:"id" jsonschema:"required,Record ID to delete"`
}

// NewForgetHandler creates the forget tool handler.
// Forgetting an unknown ID succeeds; the outcome is the same.
func NewForgetHandler(deps *Dependencies) mcp.ToolHandlerFor[ForgetInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ForgetInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ID == "" {
			return ErrorResult("Record ID is required", "Provide the id of the fact to forget"), nil, nil
		}

		if err := deps.Store.Delete(ctx, input.ID); err != nil {
			deps.Logger.Error("forget failed", "id", input.ID, "error", err)
			return ErrorResult("Failed to forget fact", "Knowledge store may be unavailable"), nil, nil
		}

		return TextResult("forgotten: " + input.ID), nil, nil
	}
}
