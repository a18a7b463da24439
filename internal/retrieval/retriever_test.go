package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

type fakeSearcher struct {
	hits    []models.SearchHit
	err     error
	gotK    int
	gotVec  []float32
	gotFilt models.Filters
}

func (f *fakeSearcher) SimilaritySearch(_ context.Context, vector []float32, k int, filters models.Filters) ([]models.SearchHit, error) {
	f.gotVec = vector
	f.gotK = k
	f.gotFilt = filters
	return f.hits, f.err
}

type fakeEncoder struct {
	vec []float32
	err error
}

func (f *fakeEncoder) Encode(context.Context, string) ([]float32, error) { return f.vec, f.err }
func (f *fakeEncoder) EncodeBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vec
	}
	return out, f.err
}
func (f *fakeEncoder) Model() string  { return "fake" }
func (f *fakeEncoder) Dimension() int { return len(f.vec) }

func hit(id string, score float64, updated time.Time, confidence float64) models.SearchHit {
	return models.SearchHit{
		ID:         surrealmodels.NewRecordID("knowledge", id),
		Text:       "fact " + id,
		Score:      score,
		UpdatedAt:  updated,
		Confidence: confidence,
	}
}

func TestRetrieveOrdersByScore(t *testing.T) {
	now := time.Now()
	store := &fakeSearcher{hits: []models.SearchHit{
		hit("b", 0.72, now, 0.5),
		hit("a", 0.91, now, 0.5),
		hit("c", 0.55, now, 0.5),
	}}
	r := New(store, &fakeEncoder{vec: []float32{1, 0}}, Options{K: 5, MinScore: 0.3, OverfetchFactor: 3})

	results, err := r.Retrieve(context.Background(), Query{Text: "anything"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "knowledge:a", results[0].RecordID)
	assert.Equal(t, "knowledge:b", results[1].RecordID)
	assert.Equal(t, "knowledge:c", results[2].RecordID)
	for i, res := range results {
		assert.Equal(t, i+1, res.Rank)
	}
}

func TestRetrieveTieBreaksOnRecencyThenConfidence(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	store := &fakeSearcher{hits: []models.SearchHit{
		hit("stale", 0.8, older, 0.9),
		hit("fresh", 0.8, newer, 0.4),
		hit("sure", 0.8, older, 0.95),
	}}
	r := New(store, &fakeEncoder{vec: []float32{1}}, Options{})

	results, err := r.Retrieve(context.Background(), Query{Text: "q"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "knowledge:fresh", results[0].RecordID)
	assert.Equal(t, "knowledge:sure", results[1].RecordID)
	assert.Equal(t, "knowledge:stale", results[2].RecordID)
}

func TestRetrieveFiltersByMinScore(t *testing.T) {
	now := time.Now()
	store := &fakeSearcher{hits: []models.SearchHit{
		hit("keep", 0.75, now, 0.5),
		hit("drop", 0.12, now, 0.5),
	}}
	r := New(store, &fakeEncoder{vec: []float32{1}}, Options{MinScore: 0.3})

	results, err := r.Retrieve(context.Background(), Query{Text: "q"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "knowledge:keep", results[0].RecordID)
}

func TestRetrieveOverfetchesAndTruncates(t *testing.T) {
	now := time.Now()
	var hits []models.SearchHit
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		hits = append(hits, hit(id, 0.9, now, 0.5))
	}
	store := &fakeSearcher{hits: hits}
	r := New(store, &fakeEncoder{vec: []float32{1}}, Options{OverfetchFactor: 3})

	results, err := r.Retrieve(context.Background(), Query{Text: "q", K: 2})
	require.NoError(t, err)

	assert.Equal(t, 6, store.gotK, "store query widened by overfetch factor")
	assert.Len(t, results, 2)
}

func TestRetrieveEmptyIsNotAnError(t *testing.T) {
	r := New(&fakeSearcher{hits: nil}, &fakeEncoder{vec: []float32{1}}, Options{})

	results, err := r.Retrieve(context.Background(), Query{Text: "unknown topic"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrievePropagatesEncodeError(t *testing.T) {
	wantErr := errors.New("provider down")
	r := New(&fakeSearcher{}, &fakeEncoder{err: wantErr}, Options{})

	_, err := r.Retrieve(context.Background(), Query{Text: "q"})
	assert.ErrorIs(t, err, wantErr)
}

func TestRetrievePassesFilters(t *testing.T) {
	store := &fakeSearcher{}
	r := New(store, &fakeEncoder{vec: []float32{1}}, Options{})
	cat := "science"

	_, err := r.Retrieve(context.Background(), Query{Text: "q", Filters: models.Filters{Category: &cat}})
	require.NoError(t, err)
	require.NotNil(t, store.gotFilt.Category)
	assert.Equal(t, "science", *store.gotFilt.Category)
}
