// Package models defines data structures for the ARIA knowledge core.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Source identifies the provenance of a knowledge record.
type Source string

const (
	// SourceManual marks facts entered directly by the user.
	SourceManual Source = "manual"

	// SourceWebSearch marks facts extracted from web search results.
	SourceWebSearch Source = "web_search"

	// SourceBulkImport marks facts loaded from curated bulk files.
	SourceBulkImport Source = "bulk_import"

	// SourceConversation marks facts learned from conversation turns.
	SourceConversation Source = "conversation"

	// SourceAutonomous marks facts the learning loop discovered on its own.
	SourceAutonomous Source = "autonomous"
)

// KnowledgeRecord is a unit of stored fact. The remote store is authoritative;
// components other than the store adapter hold at most a record ID.
type KnowledgeRecord struct {
	ID         surrealmodels.RecordID `json:"id"`
	Text       string                 `json:"text"`
	Embedding  []float32              `json:"embedding,omitempty"`
	Category   string                 `json:"category,omitempty"`
	Language   string                 `json:"language,omitempty"`
	Source     Source                 `json:"source,omitempty"`
	Confidence float64                `json:"confidence,omitempty"`
	CreatedAt  time.Time              `json:"created_at,omitempty"`
	UpdatedAt  time.Time              `json:"updated_at,omitempty"`
}

// SearchHit is a knowledge record scored against a query vector.
// Flat shape so SurrealDB result rows decode directly.
type SearchHit struct {
	ID         surrealmodels.RecordID `json:"id"`
	Text       string                 `json:"text"`
	Category   string                 `json:"category,omitempty"`
	Language   string                 `json:"language,omitempty"`
	Source     Source                 `json:"source,omitempty"`
	Confidence float64                `json:"confidence,omitempty"`
	CreatedAt  time.Time              `json:"created_at,omitempty"`
	UpdatedAt  time.Time              `json:"updated_at,omitempty"`
	Score      float64                `json:"score"`
}

// Filters restricts a similarity search before ranking.
// Nil fields are ignored.
type Filters struct {
	Category *string
	Language *string
}

// RetrievalResult is an ephemeral per-query result. It back-references a
// record by ID only; callers fetch the record through the store adapter.
type RetrievalResult struct {
	RecordID  string    `json:"record_id"`
	Score     float64   `json:"similarity_score"`
	Rank      int       `json:"rank"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
