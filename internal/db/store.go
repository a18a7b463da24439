package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/metrics"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

// Encoder produces embedding vectors for record text. The store re-embeds
// a record whenever its text changes.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// StoreOptions configures remote call policy for a Store.
type StoreOptions struct {
	// Timeout bounds each remote call. Zero means 15s.
	Timeout time.Duration

	// Attempts is the total try count for transient failures. Zero means 3.
	Attempts int

	// Metrics receives operation timings when non-nil.
	Metrics *metrics.Collector
}

// Store owns all reads and writes of knowledge records. Other components
// hold record IDs only and funnel mutations through here.
type Store struct {
	client   *Client
	enc      Encoder
	timeout  time.Duration
	attempts int
	metrics  *metrics.Collector
}

// NewStore creates a knowledge store adapter on an open client.
func NewStore(client *Client, enc Encoder, opts StoreOptions) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	return &Store{
		client:   client,
		enc:      enc,
		timeout:  opts.Timeout,
		attempts: opts.Attempts,
		metrics:  opts.Metrics,
	}
}

// InsertInput holds the fields for a new knowledge record.
type InsertInput struct {
	// ID is assigned when empty; passing an existing ID fails with ErrDuplicate.
	ID         string
	Text       string
	Embedding  []float32
	Category   string
	Language   string
	Source     models.Source
	Confidence float64
}

// Insert creates a new record and returns its ID.
// Semantic dedup is the caller's job; only identical IDs are rejected here.
func (s *Store) Insert(ctx context.Context, in InsertInput) (string, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	sql := `
		CREATE type::record("knowledge", $id) CONTENT {
			text: $text,
			embedding: $embedding,
			category: $category,
			language: $language,
			source: $source,
			confidence: $confidence
		} RETURN AFTER
	`
	vars := map[string]any{
		"id":         id,
		"text":       in.Text,
		"embedding":  in.Embedding,
		"category":   in.Category,
		"language":   in.Language,
		"source":     string(in.Source),
		"confidence": in.Confidence,
	}

	err := s.run(ctx, metrics.OpDBQuery, func(ctx context.Context) error {
		_, err := surrealdb.Query[[]models.KnowledgeRecord](ctx, s.client.db, sql, vars)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// normalizeID accepts both bare IDs and full "knowledge:<id>" references.
func normalizeID(id string) string {
	return strings.TrimPrefix(id, "knowledge:")
}

// Get retrieves a record by ID. Returns (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id string) (*models.KnowledgeRecord, error) {
	id = normalizeID(id)
	var rec *models.KnowledgeRecord

	err := s.run(ctx, metrics.OpDBQuery, func(ctx context.Context) error {
		results, err := surrealdb.Query[[]models.KnowledgeRecord](ctx, s.client.db, `
			SELECT * FROM type::record("knowledge", $id)
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
			rec = &(*results)[0].Result[0]
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return rec, nil
}

// UpdateFields names the mutable record fields. Nil fields are left unchanged.
type UpdateFields struct {
	Text       *string
	Category   *string
	Language   *string
	Confidence *float64
}

// Update mutates a record, re-embedding when the text changed.
// Fails with ErrNotFound for an absent ID.
func (s *Store) Update(ctx context.Context, id string, fields UpdateFields) (*models.KnowledgeRecord, error) {
	id = normalizeID(id)
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	sets := "updated_at = time::now()"
	vars := map[string]any{"id": id}

	if fields.Text != nil && *fields.Text != existing.Text {
		embedding, err := s.enc.Encode(ctx, *fields.Text)
		if err != nil {
			return nil, fmt.Errorf("re-embed: %w", err)
		}
		sets += ", text = $text, embedding = $embedding"
		vars["text"] = *fields.Text
		vars["embedding"] = embedding
	}
	if fields.Category != nil {
		sets += ", category = $category"
		vars["category"] = *fields.Category
	}
	if fields.Language != nil {
		sets += ", language = $language"
		vars["language"] = *fields.Language
	}
	if fields.Confidence != nil {
		sets += ", confidence = math::max(math::min($confidence, 1.0), 0.0)"
		vars["confidence"] = *fields.Confidence
	}

	sql := fmt.Sprintf(`UPDATE type::record("knowledge", $id) SET %s RETURN AFTER`, sets)

	var rec *models.KnowledgeRecord
	err = s.run(ctx, metrics.OpDBQuery, func(ctx context.Context) error {
		results, err := surrealdb.Query[[]models.KnowledgeRecord](ctx, s.client.db, sql, vars)
		if err != nil {
			return err
		}
		if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
			return ErrNotFound
		}
		rec = &(*results)[0].Result[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	return rec, nil
}

// SimilaritySearch returns at most k records ordered by descending cosine
// similarity to the query vector. Filters apply before ranking. An empty
// result is valid, not an error.
func (s *Store) SimilaritySearch(ctx context.Context, vector []float32, k int, filters models.Filters) ([]models.SearchHit, error) {
	if k <= 0 {
		return []models.SearchHit{}, nil
	}

	filterClause := ""
	vars := map[string]any{
		"emb": vector,
		"k":   k,
	}
	if filters.Category != nil {
		filterClause += " AND category = $category"
		vars["category"] = *filters.Category
	}
	if filters.Language != nil {
		filterClause += " AND language = $language"
		vars["language"] = *filters.Language
	}

	// HNSW KNN with ef=40; k must be a literal in the operator
	sql := fmt.Sprintf(`
		SELECT id, text, category, language, source, confidence, created_at, updated_at,
			vector::similarity::cosine(embedding, $emb) AS score
		FROM knowledge
		WHERE embedding <|%d,40|> $emb %s
		ORDER BY score DESC
		LIMIT $k
	`, k, filterClause)

	var hits []models.SearchHit
	err := s.run(ctx, metrics.OpDBSearch, func(ctx context.Context) error {
		results, err := surrealdb.Query[[]models.SearchHit](ctx, s.client.db, sql, vars)
		if err != nil {
			return err
		}
		if results != nil && len(*results) > 0 {
			hits = (*results)[0].Result
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}
	return hits, nil
}

// Delete removes a record by ID. Deleting an absent ID is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	id = normalizeID(id)
	err := s.run(ctx, metrics.OpDBQuery, func(ctx context.Context) error {
		_, err := surrealdb.Query[[]models.KnowledgeRecord](ctx, s.client.db, `
			DELETE type::record("knowledge", $id) RETURN BEFORE
		`, map[string]any{"id": id})
		return err
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.run(ctx, metrics.OpDBQuery, func(ctx context.Context) error {
		results, err := surrealdb.Query[[]struct {
			Count int `json:"count"`
		}](ctx, s.client.db, `SELECT count() AS count FROM knowledge GROUP ALL`, nil)
		if err != nil {
			return err
		}
		if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
			count = (*results)[0].Result[0].Count
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}

// BoostConfidence raises a record's confidence by boost, capped at 1.0, and
// refreshes updated_at. Used by the learning loop when a candidate
// corroborates an existing fact.
func (s *Store) BoostConfidence(ctx context.Context, id string, boost float64) (*models.KnowledgeRecord, error) {
	id = normalizeID(id)
	var rec *models.KnowledgeRecord
	err := s.run(ctx, metrics.OpDBQuery, func(ctx context.Context) error {
		results, err := surrealdb.Query[[]models.KnowledgeRecord](ctx, s.client.db, `
			UPDATE type::record("knowledge", $id) SET
				confidence = math::min(confidence + $boost, 1.0),
				updated_at = time::now()
			RETURN AFTER
		`, map[string]any{"id": id, "boost": boost})
		if err != nil {
			return err
		}
		if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
			return ErrNotFound
		}
		rec = &(*results)[0].Result[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boost confidence: %w", err)
	}
	return rec, nil
}

// DecayedRecord reports a record affected by a confidence decay run.
type DecayedRecord struct {
	ID            surrealmodels.RecordID `json:"id"`
	Text          string                 `json:"text"`
	OldConfidence float64                `json:"old_confidence"`
	NewConfidence float64                `json:"new_confidence"`
}

// ApplyDecay reduces confidence for records not updated within staleDays.
// Floor at 0.1 prevents complete decay. With dryRun the preview is returned
// without applying.
func (s *Store) ApplyDecay(ctx context.Context, staleDays int, dryRun bool) ([]DecayedRecord, error) {
	const decayFactor = 0.9

	selectSQL := fmt.Sprintf(`
		SELECT
			id,
			text,
			confidence AS old_confidence,
			math::max(confidence * %f, 0.1) AS new_confidence
		FROM knowledge
		WHERE updated_at < time::now() - duration::from::days($stale_days)
			AND confidence > 0.1
	`, decayFactor)

	vars := map[string]any{"stale_days": staleDays}

	var decayed []DecayedRecord
	err := s.run(ctx, metrics.OpDBQuery, func(ctx context.Context) error {
		results, err := surrealdb.Query[[]DecayedRecord](ctx, s.client.db, selectSQL, vars)
		if err != nil {
			return err
		}
		if results != nil && len(*results) > 0 {
			decayed = (*results)[0].Result
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decay select: %w", err)
	}

	if dryRun || len(decayed) == 0 {
		return decayed, nil
	}

	updateSQL := fmt.Sprintf(`
		UPDATE knowledge SET
			confidence = math::max(confidence * %f, 0.1)
		WHERE updated_at < time::now() - duration::from::days($stale_days)
			AND confidence > 0.1
	`, decayFactor)

	err = s.run(ctx, metrics.OpDBQuery, func(ctx context.Context) error {
		_, err := surrealdb.Query[any](ctx, s.client.db, updateSQL, vars)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("apply decay: %w", err)
	}
	return decayed, nil
}

// run executes a store call with a per-call timeout and retries transient
// failures with exponential backoff. Permanent errors surface immediately.
func (s *Store) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordTiming(op, time.Since(start))
		}
	}()

	delay := 200 * time.Millisecond
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err = fn(opCtx)
		cancel()

		if err == nil {
			return nil
		}
		err = wrapQueryError(err)
		if !errors.Is(err, ErrStore) || attempt == s.attempts {
			return err
		}

		slog.Warn("transient store error, retrying", "op", op, "attempt", attempt, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrStore, ctx.Err())
		}
		delay *= 2
	}
	return err
}
