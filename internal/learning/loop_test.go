package learning

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/db"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

// memStore is a tiny in-memory stand-in for the SurrealDB adapter. Its
// similarity metric is exact-text match scored 1.0, prefix match 0.85.
type memStore struct {
	mu      sync.Mutex
	records map[string]*models.KnowledgeRecord
	inserts int
	boosts  int
	failOn  string
}

// vecFromText embeds the raw bytes of the text so the search fake can
// recover it and compare texts instead of vectors.
func vecFromText(text string) []float32 {
	vec := make([]float32, len(text))
	for i, b := range []byte(text) {
		vec[i] = float32(b)
	}
	return vec
}

func textFromVec(vec []float32) string {
	buf := make([]byte, len(vec))
	for i, f := range vec {
		buf[i] = byte(f)
	}
	return string(buf)
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*models.KnowledgeRecord{}}
}

func (m *memStore) Insert(_ context.Context, in db.InsertInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.Text == m.failOn {
		return "", db.ErrStore
	}
	id := in.ID
	if id == "" {
		id = in.Text
	}
	m.records[id] = &models.KnowledgeRecord{
		ID:         surrealmodels.NewRecordID("knowledge", id),
		Text:       in.Text,
		Source:     in.Source,
		Confidence: in.Confidence,
	}
	m.inserts++
	return id, nil
}

func (m *memStore) SimilaritySearch(_ context.Context, vector []float32, _ int, _ models.Filters) ([]models.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text := textFromVec(vector)
	var best *models.SearchHit
	for _, rec := range m.records {
		score := 0.0
		switch {
		case rec.Text == text:
			score = 1.0
		case strings.HasPrefix(text, rec.Text) || strings.HasPrefix(rec.Text, text):
			score = 0.85
		}
		if score > 0 && (best == nil || score > best.Score) {
			best = &models.SearchHit{ID: rec.ID, Text: rec.Text, Score: score, Confidence: rec.Confidence}
		}
	}
	if best == nil {
		return nil, nil
	}
	return []models.SearchHit{*best}, nil
}

func (m *memStore) BoostConfidence(_ context.Context, id string, boost float64) (*models.KnowledgeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.TrimPrefix(id, "knowledge:")
	rec, ok := m.records[key]
	if !ok {
		return nil, db.ErrNotFound
	}
	rec.Confidence = min(1.0, rec.Confidence+boost)
	m.boosts++
	return rec, nil
}

var _ Storer = (*memStore)(nil)

type textEncoder struct {
	failOn string

	mu          sync.Mutex
	singleCalls int
	batchCalls  int
}

func (e *textEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.singleCalls++
	e.mu.Unlock()
	if text == e.failOn {
		return nil, errors.New("cannot encode")
	}
	return vecFromText(text), nil
}

func (e *textEncoder) EncodeBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if t == e.failOn {
			return nil, errors.New("cannot encode")
		}
		out[i] = vecFromText(t)
	}
	return out, nil
}

func (e *textEncoder) Model() string  { return "text" }
func (e *textEncoder) Dimension() int { return 0 }

func candidates(texts ...string) []models.LearningCandidate {
	out := make([]models.LearningCandidate, len(texts))
	for i, t := range texts {
		out[i] = models.LearningCandidate{Text: t, Origin: models.StrategyBulkFile}
	}
	return out
}

func TestIngestEmptyBatch(t *testing.T) {
	store := newMemStore()
	loop := New(store, &textEncoder{}, Options{})

	report, err := loop.Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Total())
}

func TestIngestAcceptsNovelFacts(t *testing.T) {
	store := newMemStore()
	loop := New(store, &textEncoder{}, Options{Concurrency: 1})

	report, err := loop.Ingest(context.Background(), candidates(
		"water boils at 100C at sea level",
		"the moon orbits the earth",
	))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Accepted)
	assert.Zero(t, report.Merged)
	assert.Zero(t, report.Rejected)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 2, store.inserts)
}

func TestIngestMergesExactDuplicate(t *testing.T) {
	store := newMemStore()
	enc := &textEncoder{}
	loop := New(store, enc, Options{Concurrency: 1, ConfidenceBoost: 0.1})

	_, err := loop.Ingest(context.Background(), candidates("paris is the capital of france"))
	require.NoError(t, err)

	report, err := loop.Ingest(context.Background(), candidates("paris is the capital of france"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Merged)
	assert.Zero(t, report.Accepted)
	assert.Equal(t, 1, store.inserts, "no second record created")
	assert.Equal(t, 1, store.boosts)

	rec := store.records["paris is the capital of france"]
	assert.InDelta(t, 0.8, rec.Confidence, 1e-9, "0.7 initial + 0.1 boost")
}

func TestIngestRejectsNearDuplicate(t *testing.T) {
	store := newMemStore()
	enc := &textEncoder{}
	loop := New(store, enc, Options{Concurrency: 1})

	_, err := loop.Ingest(context.Background(), candidates("go compiles fast"))
	require.NoError(t, err)

	report, err := loop.Ingest(context.Background(), candidates("go compiles fast, very fast"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Rejected)
	assert.Zero(t, report.Accepted)
	assert.Zero(t, store.boosts)
	assert.Equal(t, 1, store.inserts)
}

func TestIngestDuplicateWithinOneBatch(t *testing.T) {
	store := newMemStore()
	enc := &textEncoder{}
	loop := New(store, enc, Options{Concurrency: 4})

	report, err := loop.Ingest(context.Background(), candidates(
		"the sky is blue",
		"the sky is blue",
	))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 1, report.Merged)
	assert.Equal(t, 1, store.inserts)
}

func TestIngestEncodesInChunks(t *testing.T) {
	store := newMemStore()
	enc := &textEncoder{}
	loop := New(store, enc, Options{Concurrency: 2})

	report, err := loop.Ingest(context.Background(), candidates(
		"alpha one", "beta two", "gamma three", "delta four",
	))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Accepted)
	assert.Equal(t, 2, enc.batchCalls, "one EncodeBatch call per worker chunk")
	assert.Zero(t, enc.singleCalls, "no per-candidate fallback on a clean batch")
}

func TestIngestPartialFailure(t *testing.T) {
	store := newMemStore()
	enc := &textEncoder{failOn: "unencodable"}
	loop := New(store, enc, Options{Concurrency: 1})

	report, err := loop.Ingest(context.Background(), candidates(
		"fact one",
		"unencodable",
		"fact two",
	))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Accepted)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 1, report.Failed[0].Index)
	assert.Equal(t, "unencodable", report.Failed[0].Text)
	assert.Equal(t, 3, report.Total())
	assert.Equal(t, 1, enc.batchCalls)
	assert.Equal(t, 3, enc.singleCalls, "failed chunk retried candidate by candidate")
}

func TestIngestStoreFailureDoesNotAbortBatch(t *testing.T) {
	store := newMemStore()
	store.failOn = "poison"
	enc := &textEncoder{}
	loop := New(store, enc, Options{Concurrency: 1})

	report, err := loop.Ingest(context.Background(), candidates("poison", "fine"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Accepted)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Err, "inserting candidate")
}

func TestIngestReportsProgress(t *testing.T) {
	store := newMemStore()
	enc := &textEncoder{}

	var mu sync.Mutex
	var calls []int
	loop := New(store, enc, Options{
		Concurrency: 1,
		Progress: func(done, total int) {
			mu.Lock()
			calls = append(calls, done)
			assert.Equal(t, 3, total)
			mu.Unlock()
		},
	})

	_, err := loop.Ingest(context.Background(), candidates("a1", "b2", "c3"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, calls)
	assert.Equal(t, 3, calls[len(calls)-1])
}
