package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/retrieval"
)

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query    string  `json:"query" jsonschema:"required,The search query text"`
	Limit    int     `json:"limit,omitempty" jsonschema:"Max results 1-100, default from config"`
	MinScore float64 `json:"min_score,omitempty" jsonschema:"Minimum similarity score 0-1"`
	Category string  `json:"category,omitempty" jsonschema:"Optional category filter"`
	Language string  `json:"language,omitempty" jsonschema:"Optional language filter"`
}

// SearchHit is one search result in the response.
type SearchHit struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Category   string  `json:"category,omitempty"`
	Language   string  `json:"language,omitempty"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence"`
}

// NewSearchHandler creates the search tool handler. Returns raw ranked
// matches without synthesis; use the answer tool for prose.
func NewSearchHandler(deps *Dependencies) mcp.ToolHandlerFor[SearchInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Query == "" {
			return ErrorResult("Query cannot be empty", "Provide a search query"), nil, nil
		}
		if input.Limit > 100 {
			return ErrorResult("Limit must be 1-100", "Reduce limit value"), nil, nil
		}

		var filters models.Filters
		if input.Category != "" {
			filters.Category = &input.Category
		}
		if input.Language != "" {
			filters.Language = &input.Language
		}

		results, err := deps.Retriever.Retrieve(ctx, retrieval.Query{
			Text:     input.Query,
			K:        input.Limit,
			MinScore: input.MinScore,
			Filters:  filters,
		})
		if err != nil {
			deps.Logger.Error("search failed", "error", err)
			return ErrorResult("Search failed", "Knowledge store may be unavailable"), nil, nil
		}

		hits := make([]SearchHit, 0, len(results))
		for _, res := range results {
			rec, err := deps.Store.Get(ctx, res.RecordID)
			if err != nil || rec == nil {
				continue
			}
			hits = append(hits, SearchHit{
				ID:         res.RecordID,
				Text:       rec.Text,
				Score:      res.Score,
				Category:   rec.Category,
				Language:   rec.Language,
				Source:     string(rec.Source),
				Confidence: rec.Confidence,
			})
		}

		out, err := json.Marshal(hits)
		if err != nil {
			return ErrorResult("Failed to encode results", ""), nil, nil
		}
		return TextResult(string(out)), hits, nil
	}
}
