// Package parser extracts learning candidates from bulk fact files.
package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

// FactFile is the YAML shape of a curated bulk import.
type FactFile struct {
	// Category and Language apply to every fact that doesn't set its own.
	Category string `yaml:"category,omitempty"`
	Language string `yaml:"language,omitempty"`

	Facts []models.LearningCandidate `yaml:"facts"`
}

// ParseFactFile reads a bulk fact file and returns learning candidates
// tagged with the bulk-import strategy. YAML files (.yaml/.yml) carry
// structured facts with optional per-file defaults; any other extension is
// treated as plain text, one fact per line.
func ParseFactFile(path string) ([]models.LearningCandidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fact file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLFacts(data)
	default:
		return parseTextFacts(data), nil
	}
}

func parseYAMLFacts(data []byte) ([]models.LearningCandidate, error) {
	var file FactFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing fact file: %w", err)
	}

	out := make([]models.LearningCandidate, 0, len(file.Facts))
	for _, fact := range file.Facts {
		fact.Text = strings.TrimSpace(fact.Text)
		if fact.Text == "" {
			continue
		}
		if fact.Category == "" {
			fact.Category = file.Category
		}
		if fact.Language == "" {
			fact.Language = file.Language
		}
		fact.Origin = models.StrategyBulkFile
		out = append(out, fact)
	}
	return out, nil
}

// parseTextFacts reads one fact per line. Blank lines and #-comments are
// skipped.
func parseTextFacts(data []byte) []models.LearningCandidate {
	var out []models.LearningCandidate

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, models.LearningCandidate{
			Text:   line,
			Origin: models.StrategyBulkFile,
		})
	}
	return out
}

// ExtractFromConversation pulls candidate facts out of a conversation turn.
// A sentence qualifies when it is declarative and long enough to stand
// alone as a fact.
func ExtractFromConversation(turn string) []models.LearningCandidate {
	var out []models.LearningCandidate
	for _, sentence := range splitSentences(turn) {
		if !looksLikeFact(sentence) {
			continue
		}
		out = append(out, models.LearningCandidate{
			Text:   sentence,
			Origin: models.StrategyConversation,
		})
	}
	return out
}

const minFactWords = 4

func looksLikeFact(sentence string) bool {
	if strings.HasSuffix(sentence, "?") {
		return false
	}
	return len(strings.Fields(sentence)) >= minFactWords
}

func splitSentences(text string) []string {
	var out []string
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(sb.String()); s != "" {
				out = append(out, s)
			}
			sb.Reset()
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		out = append(out, s)
	}
	return out
}
