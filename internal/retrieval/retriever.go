// Package retrieval ranks stored knowledge against a query embedding.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/embedding"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/metrics"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

// Searcher is the slice of the store adapter the retriever needs.
type Searcher interface {
	SimilaritySearch(ctx context.Context, vector []float32, k int, filters models.Filters) ([]models.SearchHit, error)
}

// Options tunes retrieval behaviour.
type Options struct {
	// K is the default result count when a query asks for zero.
	K int

	// MinScore drops hits scoring below it. Range [0,1].
	MinScore float64

	// OverfetchFactor widens the store query so post-filtering can still
	// fill k results. Minimum 1.
	OverfetchFactor int

	Metrics *metrics.Collector
}

// Retriever turns a natural-language query into ranked record references.
type Retriever struct {
	store   Searcher
	encoder embedding.Encoder
	opts    Options
}

// New wires a retriever. Zero option fields fall back to k=5, minScore=0.3,
// overfetch=3.
func New(store Searcher, encoder embedding.Encoder, opts Options) *Retriever {
	if opts.K <= 0 {
		opts.K = 5
	}
	if opts.MinScore <= 0 {
		opts.MinScore = 0.3
	}
	if opts.OverfetchFactor < 1 {
		opts.OverfetchFactor = 3
	}
	return &Retriever{store: store, encoder: encoder, opts: opts}
}

// Query is one retrieval request. Zero K and MinScore take the retriever
// defaults.
type Query struct {
	Text     string
	K        int
	MinScore float64
	Filters  models.Filters
}

// Retrieve encodes the query, over-fetches candidates from the store,
// drops low-score hits and returns at most k results ordered by score
// descending. Ties break on recency, then confidence. An empty result
// is a valid outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]models.RetrievalResult, error) {
	start := time.Now()
	defer func() {
		if r.opts.Metrics != nil {
			r.opts.Metrics.RecordTiming(metrics.OpRetrieve, time.Since(start))
		}
	}()

	k := q.K
	if k <= 0 {
		k = r.opts.K
	}
	minScore := q.MinScore
	if minScore <= 0 {
		minScore = r.opts.MinScore
	}

	vector, err := r.encoder.Encode(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	hits, err := r.store.SimilaritySearch(ctx, vector, k*r.opts.OverfetchFactor, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge: %w", err)
	}

	filtered := hits[:0]
	for _, h := range hits {
		if h.Score >= minScore {
			filtered = append(filtered, h)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		if !filtered[i].UpdatedAt.Equal(filtered[j].UpdatedAt) {
			return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
		}
		return filtered[i].Confidence > filtered[j].Confidence
	})

	if len(filtered) > k {
		filtered = filtered[:k]
	}

	results := make([]models.RetrievalResult, len(filtered))
	for i, h := range filtered {
		results[i] = models.RetrievalResult{
			RecordID:  h.ID.String(),
			Score:     h.Score,
			Rank:      i + 1,
			UpdatedAt: h.UpdatedAt,
		}
	}

	slog.Debug("retrieved knowledge",
		"query_len", len(q.Text),
		"k", k,
		"min_score", minScore,
		"hits", len(hits),
		"returned", len(results))

	return results, nil
}
