package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	// Ping tool - connectivity check
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Check that aria is alive; replies pong with how many facts it holds",
	}, NewPingHandler(deps))

	// Remember tool - learn facts through the dedup loop
	mcp.AddTool(server, &mcp.Tool{
		Name:        "remember",
		Description: "Learn facts; duplicates strengthen existing knowledge instead of being re-stored",
	}, NewRememberHandler(deps))

	// Search tool - raw ranked matches
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Search stored knowledge by semantic similarity, returning ranked matches with scores",
	}, NewSearchHandler(deps))

	// Answer tool - grounded synthesis
	mcp.AddTool(server, &mcp.Tool{
		Name:        "answer",
		Description: "Answer a question grounded in stored knowledge; says so when nothing relevant is stored",
	}, NewAnswerHandler(deps))

	// Feedback tool - session emotional state
	mcp.AddTool(server, &mcp.Tool{
		Name:        "feedback",
		Description: "Rate the previous answer; feedback shapes the assistant's emotional tone",
	}, NewFeedbackHandler(deps))

	// Forget tool - delete by ID
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forget",
		Description: "Delete a stored fact by its record ID",
	}, NewForgetHandler(deps))
}
