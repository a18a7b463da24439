// Package rag composes retrieval, emotion and answer synthesis into the
// assistant's question-answering surface.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/emotion"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/parser"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/retrieval"
)

// Retriever is the slice of the retrieval package the orchestrator needs.
type Retriever interface {
	Retrieve(ctx context.Context, q retrieval.Query) ([]models.RetrievalResult, error)
}

// Getter fetches full records for grounding references.
type Getter interface {
	Get(ctx context.Context, id string) (*models.KnowledgeRecord, error)
}

// Generator synthesizes a prose answer from retrieved knowledge.
type Generator interface {
	SynthesizeAnswer(ctx context.Context, query, knowledge, tone string) (string, error)
}

// Learner feeds confirmed conversational knowledge back into the store.
type Learner interface {
	Ingest(ctx context.Context, candidates []models.LearningCandidate) (*models.Report, error)
}

// Session binds a conversation to its emotional state.
type Session struct {
	ID      string
	Emotion *emotion.Tracker
}

// NewSession starts a fresh session with a baseline emotional state.
func NewSession(baseline, decayRate float64) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Emotion: emotion.NewTracker(baseline, decayRate),
	}
}

// RecordFeedback feeds user feedback on a previous answer into the
// session's emotional state.
func (s *Session) RecordFeedback(positive bool) {
	sig := emotion.SignalPositiveFeedback
	if !positive {
		sig = emotion.SignalNegativeFeedback
	}
	if err := s.Emotion.Observe(sig); err != nil {
		slog.Warn("recording feedback signal", "error", err)
	}
}

// ResponseEnvelope is the orchestrator's answer to one question. It is
// always produced; failures downgrade the answer instead of erroring.
type ResponseEnvelope struct {
	Text             string                   `json:"text"`
	GroundingRecords []models.KnowledgeRecord `json:"grounding_records,omitempty"`
	EmotionalTone    string                   `json:"emotional_tone"`
	Ungrounded       bool                     `json:"ungrounded"`

	// Note carries a short operator-facing explanation when the answer
	// was degraded, e.g. "retrieval unavailable".
	Note string `json:"note,omitempty"`
}

// Orchestrator answers questions by fanning out retrieval and emotional
// state reads, then joining the results into a synthesized response.
type Orchestrator struct {
	retriever Retriever
	store     Getter
	model     Generator // nil disables synthesis
	learner   Learner   // nil disables conversational learning
}

// New wires an orchestrator. model may be nil; answers are then extractive.
// learner may be nil; confirmed exchanges are then not learned from.
func New(retriever Retriever, store Getter, model Generator, learner Learner) *Orchestrator {
	return &Orchestrator{retriever: retriever, store: store, model: model, learner: learner}
}

// LearnFromExchange extracts declarative facts from a confirmed user turn
// and runs them through the learning loop as conversation candidates.
// Returns nil without error when no learner is wired or the turn holds no
// facts.
func (o *Orchestrator) LearnFromExchange(ctx context.Context, session *Session, turn string) (*models.Report, error) {
	if o.learner == nil {
		return nil, nil
	}
	candidates := parser.ExtractFromConversation(turn)
	if len(candidates) == 0 {
		return nil, nil
	}
	report, err := o.learner.Ingest(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("learning from exchange: %w", err)
	}
	slog.Info("learned from exchange",
		"session", session.ID,
		"candidates", len(candidates),
		"accepted", report.Accepted,
		"merged", report.Merged)
	return report, nil
}

// Answer responds to a question within a session. It never returns an
// error: retrieval or generation failures produce an ungrounded envelope
// with an explanatory note so the conversation keeps flowing.
func (o *Orchestrator) Answer(ctx context.Context, session *Session, query string, filters models.Filters) *ResponseEnvelope {
	type retrievalOut struct {
		results []models.RetrievalResult
		err     error
	}
	retrCh := make(chan retrievalOut, 1)
	stateCh := make(chan emotion.State, 1)

	go func() {
		results, err := o.retriever.Retrieve(ctx, retrieval.Query{Text: query, Filters: filters})
		retrCh <- retrievalOut{results: results, err: err}
	}()
	go func() {
		stateCh <- session.Emotion.CurrentState()
	}()

	retr := <-retrCh
	state := <-stateCh
	tone := state.Tone()

	if retr.err != nil {
		slog.Error("retrieval failed, answering ungrounded", "session", session.ID, "error", retr.err)
		return o.ungrounded(session, tone, "knowledge retrieval unavailable")
	}
	if len(retr.results) == 0 {
		return o.ungrounded(session, tone, "no stored knowledge matched the question")
	}

	records := o.fetchGrounding(ctx, retr.results)
	if len(records) == 0 {
		return o.ungrounded(session, tone, "matched records could not be loaded")
	}

	text, note := o.compose(ctx, query, records, tone)
	return &ResponseEnvelope{
		Text:             text,
		GroundingRecords: records,
		EmotionalTone:    tone,
		Note:             note,
	}
}

// fetchGrounding resolves retrieval references to full records. A record
// deleted between search and fetch is skipped, not fatal.
func (o *Orchestrator) fetchGrounding(ctx context.Context, results []models.RetrievalResult) []models.KnowledgeRecord {
	records := make([]models.KnowledgeRecord, 0, len(results))
	for _, res := range results {
		rec, err := o.store.Get(ctx, res.RecordID)
		if err != nil {
			slog.Warn("loading grounding record", "record", res.RecordID, "error", err)
			continue
		}
		if rec == nil {
			continue
		}
		rec.Embedding = nil
		records = append(records, *rec)
	}
	return records
}

// compose synthesizes prose from the grounding records, falling back to an
// extractive answer when no model is configured or generation fails.
func (o *Orchestrator) compose(ctx context.Context, query string, records []models.KnowledgeRecord, tone string) (text, note string) {
	if o.model == nil {
		return extractive(records), ""
	}

	var sb strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, rec.Text)
	}

	answer, err := o.model.SynthesizeAnswer(ctx, query, sb.String(), tone)
	if err != nil {
		slog.Warn("answer synthesis failed, falling back to extractive", "error", err)
		return extractive(records), "answer synthesis unavailable"
	}
	return answer, ""
}

// ungrounded produces the honest-uncertainty envelope and registers the
// unknown topic as a novelty signal.
func (o *Orchestrator) ungrounded(session *Session, tone, note string) *ResponseEnvelope {
	if err := session.Emotion.Observe(emotion.SignalNovelty); err != nil {
		slog.Warn("recording novelty signal", "error", err)
	}
	return &ResponseEnvelope{
		Text:          "I don't have enough stored knowledge to answer that yet.",
		EmotionalTone: tone,
		Ungrounded:    true,
		Note:          note,
	}
}

// extractive lists the grounding facts verbatim, best match first.
func extractive(records []models.KnowledgeRecord) string {
	var sb strings.Builder
	sb.WriteString("Here is what I know:\n")
	for _, rec := range records {
		sb.WriteString("- ")
		sb.WriteString(rec.Text)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
