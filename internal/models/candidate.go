package models

// Strategy tags where a learning candidate was extracted from.
// One learning loop parameterized by strategy replaces separate
// per-origin learning implementations.
type Strategy string

const (
	// StrategyWebSearch extracts candidates from web search results.
	StrategyWebSearch Strategy = "web_search"

	// StrategyBulkFile extracts candidates from curated bulk files.
	StrategyBulkFile Strategy = "bulk_file"

	// StrategyConversation extracts candidates from conversation turns.
	StrategyConversation Strategy = "conversation"
)

// Source returns the provenance tag recorded on inserted facts.
func (s Strategy) Source() Source {
	switch s {
	case StrategyBulkFile:
		return SourceBulkImport
	case StrategyConversation:
		return SourceConversation
	default:
		return SourceWebSearch
	}
}

// DefaultConfidence is the initial trust given to a fact inserted from this
// strategy. Curated bulk imports are trusted more than unverified web facts.
func (s Strategy) DefaultConfidence() float64 {
	switch s {
	case StrategyBulkFile:
		return 0.7
	case StrategyConversation:
		return 0.6
	default:
		return 0.5
	}
}

// LearningCandidate is an ephemeral fact proposal. It either becomes a
// KnowledgeRecord or is discarded by the learning loop's dedup checks.
type LearningCandidate struct {
	Text     string   `yaml:"text" json:"text"`
	Category string   `yaml:"category,omitempty" json:"category,omitempty"`
	Language string   `yaml:"language,omitempty" json:"language,omitempty"`
	Origin   Strategy `yaml:"-" json:"origin,omitempty"`

	// Confidence overrides the strategy default when set.
	Confidence *float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

// InitialConfidence resolves the confidence for a fresh insert.
func (c LearningCandidate) InitialConfidence() float64 {
	if c.Confidence != nil {
		return *c.Confidence
	}
	return c.Origin.DefaultConfidence()
}

// FailureEntry reports a single candidate that could not be processed.
// One candidate failing never aborts the rest of the batch.
type FailureEntry struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Err   string `json:"error"`
}

// Report summarizes a learning batch.
type Report struct {
	Accepted int            `json:"accepted"`
	Rejected int            `json:"rejected"`
	Merged   int            `json:"merged"`
	Failed   []FailureEntry `json:"failed,omitempty"`
}

// Total returns the number of candidates the report accounts for.
func (r *Report) Total() int {
	return r.Accepted + r.Rejected + r.Merged + len(r.Failed)
}
