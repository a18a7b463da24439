// Package tools provides MCP tool handlers and registration.
package tools

import (
	"log/slog"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/db"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/learning"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/rag"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/retrieval"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Store        *db.Store
	Retriever    *retrieval.Retriever
	Loop         *learning.Loop
	Orchestrator *rag.Orchestrator

	// Session carries the emotional state for the lifetime of the server
	// process; every MCP client call shares it.
	Session *rag.Session

	Logger *slog.Logger
}
