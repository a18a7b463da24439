// Package config loads and validates configuration for the ARIA knowledge core.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks a fatal startup-time configuration error.
// Invalid or missing configuration aborts startup entirely; it is never
// surfaced as a runtime error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Provider identifies an embedding or LLM backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderBedrock   Provider = "bedrock"
	ProviderAnthropic Provider = "anthropic"
	ProviderNone      Provider = "none"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Embedding
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`
	OllamaHost     string   `yaml:"ollama_host"`
	OpenAIAPIKey   string   `yaml:"openai_api_key"`
	AWSRegion      string   `yaml:"aws_region"`

	// Response generation (optional; the orchestrator degrades to extractive
	// answers when the provider is "none")
	LLMProvider     Provider `yaml:"llm_provider"`
	LLMModel        string   `yaml:"llm_model"`
	AnthropicAPIKey string   `yaml:"anthropic_api_key"`

	// Retrieval
	RetrieveK       int     `yaml:"retrieve_k"`
	MinScore        float64 `yaml:"min_score"`
	OverfetchFactor int     `yaml:"overfetch_factor"`

	// Learning loop
	MergeThreshold   float64 `yaml:"merge_threshold"`
	RejectThreshold  float64 `yaml:"reject_threshold"`
	ConfidenceBoost  float64 `yaml:"confidence_boost"`
	BatchConcurrency int     `yaml:"batch_concurrency"`

	// Emotion tracking
	EmotionDecayRate float64 `yaml:"emotion_decay_rate"`
	EmotionBaseline  float64 `yaml:"emotion_baseline"`

	// Remote call policy
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load layers configuration: defaults, then an optional YAML file
// (ARIA_CONFIG), then environment variables. Later layers win, and an
// explicit zero in the file or environment is kept as a zero.
func Load() (Config, error) {
	var cfg Config
	applyDefaults(&cfg)

	if path := os.Getenv("ARIA_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: read config file: %v", ErrInvalidConfig, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse config file %s: %v", ErrInvalidConfig, path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setStr(&cfg.SurrealDBURL, "SURREALDB_URL")
	setStr(&cfg.SurrealDBNamespace, "SURREALDB_NAMESPACE")
	setStr(&cfg.SurrealDBDatabase, "SURREALDB_DATABASE")
	setStr(&cfg.SurrealDBUser, "SURREALDB_USER")
	setStr(&cfg.SurrealDBPass, "SURREALDB_PASS")
	setStr(&cfg.SurrealDBAuthLevel, "SURREALDB_AUTH_LEVEL")

	if v := os.Getenv("ARIA_EMBED_PROVIDER"); v != "" {
		cfg.EmbedProvider = Provider(v)
	}
	setStr(&cfg.EmbedModel, "ARIA_EMBED_MODEL")
	setInt(&cfg.EmbedDimension, "ARIA_EMBED_DIMENSION")
	setStr(&cfg.OllamaHost, "OLLAMA_HOST")
	setStr(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setStr(&cfg.AWSRegion, "AWS_REGION")

	if v := os.Getenv("ARIA_LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = Provider(v)
	}
	setStr(&cfg.LLMModel, "ARIA_LLM_MODEL")
	setStr(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")

	setInt(&cfg.RetrieveK, "ARIA_RETRIEVE_K")
	setFloat(&cfg.MinScore, "ARIA_MIN_SCORE")
	setInt(&cfg.OverfetchFactor, "ARIA_OVERFETCH_FACTOR")

	setFloat(&cfg.MergeThreshold, "ARIA_MERGE_THRESHOLD")
	setFloat(&cfg.RejectThreshold, "ARIA_REJECT_THRESHOLD")
	setFloat(&cfg.ConfidenceBoost, "ARIA_CONFIDENCE_BOOST")
	setInt(&cfg.BatchConcurrency, "ARIA_BATCH_CONCURRENCY")

	setFloat(&cfg.EmotionDecayRate, "ARIA_EMOTION_DECAY_RATE")
	setFloat(&cfg.EmotionBaseline, "ARIA_EMOTION_BASELINE")

	if v := os.Getenv("ARIA_REMOTE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RemoteTimeout = d
		}
	}
	setInt(&cfg.RetryAttempts, "ARIA_RETRY_ATTEMPTS")

	setStr(&cfg.LogFile, "ARIA_LOG_FILE")
	cfg.LogLevel = parseLogLevel(os.Getenv("ARIA_LOG_LEVEL"))
}

func applyDefaults(cfg *Config) {
	def := func(s *string, v string) {
		if *s == "" {
			*s = v
		}
	}

	def(&cfg.SurrealDBURL, "ws://localhost:8000/rpc")
	def(&cfg.SurrealDBNamespace, "aria")
	def(&cfg.SurrealDBDatabase, "knowledge")
	def(&cfg.SurrealDBUser, "root")
	def(&cfg.SurrealDBPass, "root")
	def(&cfg.SurrealDBAuthLevel, "root")

	if cfg.EmbedProvider == "" {
		cfg.EmbedProvider = ProviderOllama
	}
	def(&cfg.EmbedModel, "all-minilm:l6-v2")
	if cfg.EmbedDimension == 0 {
		cfg.EmbedDimension = 384
	}
	def(&cfg.OllamaHost, "http://localhost:11434")
	def(&cfg.AWSRegion, "us-east-1")

	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderNone
	}
	def(&cfg.LLMModel, "llama3.2")

	if cfg.RetrieveK == 0 {
		cfg.RetrieveK = 5
	}
	if cfg.MinScore == 0 {
		cfg.MinScore = 0.3
	}
	if cfg.OverfetchFactor == 0 {
		cfg.OverfetchFactor = 3
	}

	if cfg.MergeThreshold == 0 {
		cfg.MergeThreshold = 0.92
	}
	if cfg.RejectThreshold == 0 {
		cfg.RejectThreshold = 0.8
	}
	if cfg.ConfidenceBoost == 0 {
		cfg.ConfidenceBoost = 0.1
	}
	if cfg.BatchConcurrency == 0 {
		cfg.BatchConcurrency = 4
	}

	if cfg.EmotionDecayRate == 0 {
		cfg.EmotionDecayRate = 0.002
	}
	if cfg.EmotionBaseline == 0 {
		cfg.EmotionBaseline = 0.2
	}

	if cfg.RemoteTimeout == 0 {
		cfg.RemoteTimeout = 15 * time.Second
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}

	def(&cfg.LogFile, "/tmp/aria.log")
}

// Validate checks the loaded configuration. Any error is fatal at startup.
func (c Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.SurrealDBURL == "" {
		return fail("surrealdb url is required")
	}
	if c.EmbedDimension <= 0 {
		return fail("embed dimension must be positive, got %d", c.EmbedDimension)
	}
	switch c.EmbedProvider {
	case ProviderOllama, ProviderBedrock:
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fail("openai embedding provider requires OPENAI_API_KEY")
		}
	default:
		return fail("unknown embedding provider %q", c.EmbedProvider)
	}
	switch c.LLMProvider {
	case ProviderNone, ProviderOllama:
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fail("openai llm provider requires OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fail("anthropic llm provider requires ANTHROPIC_API_KEY")
		}
	default:
		return fail("unknown llm provider %q", c.LLMProvider)
	}

	if c.MinScore < 0 || c.MinScore > 1 {
		return fail("min score must be in [0,1], got %g", c.MinScore)
	}
	if c.RejectThreshold < 0 || c.MergeThreshold > 1 || c.RejectThreshold > c.MergeThreshold {
		return fail("thresholds must satisfy 0 <= reject (%g) <= merge (%g) <= 1",
			c.RejectThreshold, c.MergeThreshold)
	}
	if c.ConfidenceBoost <= 0 || c.ConfidenceBoost > 1 {
		return fail("confidence boost must be in (0,1], got %g", c.ConfidenceBoost)
	}
	if c.RetrieveK <= 0 {
		return fail("retrieve k must be positive, got %d", c.RetrieveK)
	}
	if c.OverfetchFactor < 1 {
		return fail("overfetch factor must be >= 1, got %d", c.OverfetchFactor)
	}
	if c.BatchConcurrency < 1 {
		return fail("batch concurrency must be >= 1, got %d", c.BatchConcurrency)
	}
	if c.EmotionDecayRate <= 0 {
		return fail("emotion decay rate must be positive, got %g", c.EmotionDecayRate)
	}
	if c.EmotionBaseline < 0 || c.EmotionBaseline > 1 {
		return fail("emotion baseline must be in [0,1], got %g", c.EmotionBaseline)
	}
	if c.RemoteTimeout <= 0 {
		return fail("remote timeout must be positive")
	}
	if c.RetryAttempts < 1 {
		return fail("retry attempts must be >= 1, got %d", c.RetryAttempts)
	}

	return nil
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
