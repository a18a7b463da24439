package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

// RememberInput defines the input schema for the remember tool.
type RememberInput struct {
	Facts []FactInput `json:"facts" jsonschema:"required,Facts to learn"`
}

// FactInput defines a single fact to be learned.
type FactInput struct {
	Text       string  `json:"text" jsonschema:"required,The fact as a standalone sentence"`
	Category   string  `json:"category,omitempty" jsonschema:"Optional category tag"`
	Language   string  `json:"language,omitempty" jsonschema:"Optional ISO language tag"`
	Confidence float64 `json:"confidence,omitempty" jsonschema:"Confidence score 0-1"`
}

// RememberResult is the response from the remember tool. Facts matching
// stored knowledge strengthen it instead of duplicating it.
type RememberResult struct {
	Accepted int                   `json:"accepted"`
	Merged   int                   `json:"merged"`
	Rejected int                   `json:"rejected"`
	Failed   []models.FailureEntry `json:"failed,omitempty"`
}

// NewRememberHandler creates the remember tool handler. Facts run through
// the learning loop, so duplicates are merged rather than re-stored.
func NewRememberHandler(deps *Dependencies) mcp.ToolHandlerFor[RememberInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RememberInput) (
		*mcp.CallToolResult, any, error,
	) {
		if len(input.Facts) == 0 {
			return ErrorResult("At least one fact is required", "Provide facts array with text"), nil, nil
		}

		candidates := make([]models.LearningCandidate, 0, len(input.Facts))
		for _, f := range input.Facts {
			if f.Text == "" {
				return ErrorResult("Fact text is required", "Every fact must have non-empty text"), nil, nil
			}
			c := models.LearningCandidate{
				Text:     f.Text,
				Category: f.Category,
				Language: f.Language,
				Origin:   models.StrategyConversation,
			}
			if f.Confidence > 0 {
				conf := f.Confidence
				c.Confidence = &conf
			}
			candidates = append(candidates, c)
		}

		report, err := deps.Loop.Ingest(ctx, candidates)
		if err != nil {
			deps.Logger.Error("learning batch failed", "error", err)
			return ErrorResult("Failed to learn facts", "Knowledge store may be unavailable"), nil, nil
		}

		result := RememberResult{
			Accepted: report.Accepted,
			Merged:   report.Merged,
			Rejected: report.Rejected,
			Failed:   report.Failed,
		}
		out, err := json.Marshal(result)
		if err != nil {
			return ErrorResult("Failed to encode result", ""), nil, nil
		}
		return TextResult(string(out)), result, nil
	}
}
