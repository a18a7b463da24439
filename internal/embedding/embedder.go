// Package embedding converts text into fixed-dimension vectors with
// multiple backend support.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/config"
)

// MaxInputBytes caps encoder input length. Longer inputs fail with
// ErrEncoding rather than silently truncating into degenerate vectors.
const MaxInputBytes = 8192

// ErrEncoding marks invalid encoder input or a provider failure that
// survived retries. Use errors.Is() to check.
var ErrEncoding = errors.New("encoding error")

// Encoder defines the interface for text embedding providers.
// Encoding is deterministic for identical input and provider model version.
type Encoder interface {
	// Encode generates an embedding vector for a single text.
	Encode(ctx context.Context, text string) ([]float32, error)

	// EncodeBatch generates embeddings for multiple texts.
	// More efficient than repeated Encode calls for bulk operations.
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	// Must match the HNSW index dimension in the SurrealDB schema.
	Dimension() int
}

// New creates an Encoder for the configured provider.
func New(ctx context.Context, cfg config.Config) (Encoder, error) {
	switch cfg.EmbedProvider {
	case config.ProviderOllama, config.ProviderOpenAI:
		return newLangchainEncoder(cfg)
	case config.ProviderBedrock:
		return newBedrockEncoder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbedProvider)
	}
}

// validateInput rejects empty and oversized input before any remote call.
func validateInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty input", ErrEncoding)
	}
	if len(text) > MaxInputBytes {
		return fmt.Errorf("%w: input %d bytes exceeds cap %d", ErrEncoding, len(text), MaxInputBytes)
	}
	return nil
}
