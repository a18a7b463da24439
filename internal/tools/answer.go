package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

// AnswerInput defines the input schema for the answer tool.
type AnswerInput struct {
	Question string `json:"question" jsonschema:"required,The question to answer"`
	Category string `json:"category,omitempty" jsonschema:"Optional category filter"`
	Language string `json:"language,omitempty" jsonschema:"Optional language filter"`
}

// AnswerResult is the response from the answer tool.
type AnswerResult struct {
	Text       string   `json:"text"`
	Grounding  []string `json:"grounding,omitempty"`
	Tone       string   `json:"tone"`
	Ungrounded bool     `json:"ungrounded"`
}

// NewAnswerHandler creates the answer tool handler. When nothing relevant
// is stored the result says so explicitly instead of inventing an answer.
func NewAnswerHandler(deps *Dependencies) mcp.ToolHandlerFor[AnswerInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AnswerInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Question == "" {
			return ErrorResult("Question cannot be empty", "Provide a question"), nil, nil
		}

		var filters models.Filters
		if input.Category != "" {
			filters.Category = &input.Category
		}
		if input.Language != "" {
			filters.Language = &input.Language
		}

		env := deps.Orchestrator.Answer(ctx, deps.Session, input.Question, filters)

		result := AnswerResult{
			Text:       env.Text,
			Tone:       env.EmotionalTone,
			Ungrounded: env.Ungrounded,
		}
		for _, rec := range env.GroundingRecords {
			result.Grounding = append(result.Grounding, rec.Text)
		}

		out, err := json.Marshal(result)
		if err != nil {
			return ErrorResult("Failed to encode result", ""), nil, nil
		}
		return TextResult(string(out)), result, nil
	}
}

// FeedbackInput defines the input schema for the feedback tool.
type FeedbackInput struct {
	Positive bool   `json:"positive" jsonschema:"required,True when the last answer was helpful"`
	Exchange string `json:"exchange,omitempty" jsonschema:"The user message being confirmed; declarative facts in it are learned"`
}

// NewFeedbackHandler creates the feedback tool handler. Feedback shifts
// the session's emotional state, and a confirmed exchange is mined for
// facts worth keeping.
func NewFeedbackHandler(deps *Dependencies) mcp.ToolHandlerFor[FeedbackInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FeedbackInput) (
		*mcp.CallToolResult, any, error,
	) {
		deps.Session.RecordFeedback(input.Positive)

		if input.Positive && input.Exchange != "" {
			report, err := deps.Orchestrator.LearnFromExchange(ctx, deps.Session, input.Exchange)
			if err != nil {
				deps.Logger.Error("learning from exchange failed", "error", err)
			} else if report != nil {
				return TextResult("feedback recorded, exchange learned"), nil, nil
			}
		}
		return TextResult("feedback recorded"), nil, nil
	}
}
