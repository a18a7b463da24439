package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/emotion"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/retrieval"
)

type fakeRetriever struct {
	results []models.RetrievalResult
	err     error
}

func (f *fakeRetriever) Retrieve(context.Context, retrieval.Query) ([]models.RetrievalResult, error) {
	return f.results, f.err
}

type fakeGetter struct {
	records map[string]*models.KnowledgeRecord
}

func (f *fakeGetter) Get(_ context.Context, id string) (*models.KnowledgeRecord, error) {
	return f.records[id], nil
}

type fakeGenerator struct {
	answer  string
	err     error
	gotTone string
}

func (f *fakeGenerator) SynthesizeAnswer(_ context.Context, _, _, tone string) (string, error) {
	f.gotTone = tone
	return f.answer, f.err
}

func record(id, text string) *models.KnowledgeRecord {
	return &models.KnowledgeRecord{
		ID:   surrealmodels.NewRecordID("knowledge", id),
		Text: text,
	}
}

func grounded(ids ...string) []models.RetrievalResult {
	out := make([]models.RetrievalResult, len(ids))
	for i, id := range ids {
		out[i] = models.RetrievalResult{RecordID: "knowledge:" + id, Score: 0.9, Rank: i + 1}
	}
	return out
}

func newTestSession() *Session {
	return NewSession(0.2, 0.002)
}

func TestAnswerGrounded(t *testing.T) {
	retr := &fakeRetriever{results: grounded("a", "b")}
	store := &fakeGetter{records: map[string]*models.KnowledgeRecord{
		"knowledge:a": record("a", "the sun is a star"),
		"knowledge:b": record("b", "the sun is 4.6 billion years old"),
	}}
	gen := &fakeGenerator{answer: "The sun is a 4.6 billion year old star."}
	o := New(retr, store, gen, nil)

	env := o.Answer(context.Background(), newTestSession(), "what is the sun?", models.Filters{})

	require.NotNil(t, env)
	assert.False(t, env.Ungrounded)
	assert.Equal(t, "The sun is a 4.6 billion year old star.", env.Text)
	require.Len(t, env.GroundingRecords, 2)
	assert.Equal(t, "the sun is a star", env.GroundingRecords[0].Text)
	assert.NotEmpty(t, env.EmotionalTone)
	assert.Empty(t, env.Note)
}

func TestAnswerNoMatchesIsUngrounded(t *testing.T) {
	o := New(&fakeRetriever{}, &fakeGetter{}, &fakeGenerator{}, nil)
	session := newTestSession()

	env := o.Answer(context.Background(), session, "unknown topic", models.Filters{})

	require.NotNil(t, env)
	assert.True(t, env.Ungrounded)
	assert.NotEmpty(t, env.Text)
	assert.Empty(t, env.GroundingRecords)

	// an unanswerable question registers as novelty
	state := session.Emotion.CurrentState()
	assert.Greater(t, state.Intensities[emotion.Curiosity], 0.2)
}

func TestAnswerRetrievalFailureDegrades(t *testing.T) {
	o := New(&fakeRetriever{err: errors.New("store down")}, &fakeGetter{}, nil, nil)

	env := o.Answer(context.Background(), newTestSession(), "q", models.Filters{})

	require.NotNil(t, env)
	assert.True(t, env.Ungrounded)
	assert.Equal(t, "knowledge retrieval unavailable", env.Note)
}

func TestAnswerExtractiveWithoutModel(t *testing.T) {
	retr := &fakeRetriever{results: grounded("a")}
	store := &fakeGetter{records: map[string]*models.KnowledgeRecord{
		"knowledge:a": record("a", "water is wet"),
	}}
	o := New(retr, store, nil, nil)

	env := o.Answer(context.Background(), newTestSession(), "is water wet?", models.Filters{})

	assert.False(t, env.Ungrounded)
	assert.Contains(t, env.Text, "water is wet")
}

func TestAnswerSynthesisFailureFallsBackToExtractive(t *testing.T) {
	retr := &fakeRetriever{results: grounded("a")}
	store := &fakeGetter{records: map[string]*models.KnowledgeRecord{
		"knowledge:a": record("a", "water is wet"),
	}}
	o := New(retr, store, &fakeGenerator{err: errors.New("llm timeout")}, nil)

	env := o.Answer(context.Background(), newTestSession(), "is water wet?", models.Filters{})

	assert.False(t, env.Ungrounded)
	assert.Contains(t, env.Text, "water is wet")
	assert.Equal(t, "answer synthesis unavailable", env.Note)
}

func TestAnswerPassesToneToGenerator(t *testing.T) {
	retr := &fakeRetriever{results: grounded("a")}
	store := &fakeGetter{records: map[string]*models.KnowledgeRecord{
		"knowledge:a": record("a", "fact"),
	}}
	gen := &fakeGenerator{answer: "ok"}
	o := New(retr, store, gen, nil)

	session := newTestSession()
	require.NoError(t, session.Emotion.Observe(emotion.SignalNovelty))

	env := o.Answer(context.Background(), session, "q", models.Filters{})

	assert.Equal(t, "curious", gen.gotTone)
	assert.Equal(t, "curious", env.EmotionalTone)
}

func TestAnswerSkipsVanishedRecords(t *testing.T) {
	retr := &fakeRetriever{results: grounded("a", "gone")}
	store := &fakeGetter{records: map[string]*models.KnowledgeRecord{
		"knowledge:a": record("a", "still here"),
	}}
	o := New(retr, store, nil, nil)

	env := o.Answer(context.Background(), newTestSession(), "q", models.Filters{})

	assert.False(t, env.Ungrounded)
	require.Len(t, env.GroundingRecords, 1)
	assert.Equal(t, "still here", env.GroundingRecords[0].Text)
}

func TestRecordFeedbackShiftsEmotion(t *testing.T) {
	session := newTestSession()

	session.RecordFeedback(true)
	state := session.Emotion.CurrentState()
	assert.Greater(t, state.Intensities[emotion.Joy], 0.2)

	session.RecordFeedback(false)
	session.RecordFeedback(false)
	state = session.Emotion.CurrentState()
	assert.Greater(t, state.Intensities[emotion.Frustration], 0.2)
}

type fakeLearner struct {
	got    []models.LearningCandidate
	report *models.Report
	err    error
}

func (f *fakeLearner) Ingest(_ context.Context, candidates []models.LearningCandidate) (*models.Report, error) {
	f.got = append(f.got, candidates...)
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func TestLearnFromExchange(t *testing.T) {
	learner := &fakeLearner{report: &models.Report{Accepted: 1}}
	o := New(&fakeRetriever{}, &fakeGetter{}, nil, learner)

	report, err := o.LearnFromExchange(context.Background(), newTestSession(),
		"I moved to Lisbon last spring. What is the weather like there?")
	require.NoError(t, err)

	require.NotNil(t, report)
	assert.Equal(t, 1, report.Accepted)
	require.Len(t, learner.got, 1, "the question must not become a candidate")
	assert.Equal(t, "I moved to Lisbon last spring.", learner.got[0].Text)
	assert.Equal(t, models.StrategyConversation, learner.got[0].Origin)
}

func TestLearnFromExchangeNoFacts(t *testing.T) {
	learner := &fakeLearner{}
	o := New(&fakeRetriever{}, &fakeGetter{}, nil, learner)

	report, err := o.LearnFromExchange(context.Background(), newTestSession(), "why?")
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Empty(t, learner.got)
}

func TestLearnFromExchangeWithoutLearner(t *testing.T) {
	o := New(&fakeRetriever{}, &fakeGetter{}, nil, nil)

	report, err := o.LearnFromExchange(context.Background(), newTestSession(),
		"my cat is named Miso and she is orange.")
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestLearnFromExchangeLearnerFailure(t *testing.T) {
	learner := &fakeLearner{err: errors.New("store down")}
	o := New(&fakeRetriever{}, &fakeGetter{}, nil, learner)

	_, err := o.LearnFromExchange(context.Background(), newTestSession(),
		"my cat is named Miso and she is orange.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "learning from exchange")
}
