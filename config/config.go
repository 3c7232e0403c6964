// Package config holds the core's configuration: provider credentials,
// model identifiers, chunking parameters, search thresholds, ranking
// weights, and logging settings.
//
// Per the Design Notes (§9), configuration is an explicit, immutable value
// threaded through operations rather than a mutable process-global
// singleton: a Config is built once via New and never mutated afterward.
// Reconfiguration means building a new Config and swapping the reference
// the caller holds, not editing one in place.
package config

import (
	"log/slog"
	"os"
)

// ProviderCredentials holds the credential shape for one LLM/embedding
// provider, matching the env vars recognized in spec §6.
type ProviderCredentials struct {
	APIKey  string
	BaseURL string
}

// Credentials collects all provider credential shapes the gateway may need.
type Credentials struct {
	OpenAI      ProviderCredentials
	Anthropic   ProviderCredentials
	Google      ProviderCredentials
	Azure       ProviderCredentials
	Ollama      ProviderCredentials
	HuggingFace ProviderCredentials
	OpenRouter  ProviderCredentials
	Bedrock     BedrockCredentials
}

// BedrockCredentials holds the AWS Bedrock runtime credential shape, which
// is region/key-triple based rather than the single-API-key shape the other
// providers use.
type BedrockCredentials struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Task names callers use as keys in Providers, selecting a "provider/model"
// string per task.
const (
	TaskEmbedding          = "embedding"
	TaskSummarization      = "summarization"
	TaskKeywordExtraction  = "keyword_extraction"
	TaskMetadataGeneration = "metadata_generation"
)

// Config is the core's full, immutable configuration value.
type Config struct {
	Credentials Credentials

	// Providers maps a task name to a "provider/model" string, e.g.
	// "openai/text-embedding-3-small". DefaultProvider is used for any
	// task with no explicit override.
	DefaultProvider string
	Providers       map[string]string

	// Chunking defaults (spec §4.2): non-numeric/absent values coerce here.
	ChunkSize    int
	ChunkOverlap int

	// Search thresholds and ranking weights (spec §4.6).
	SimilarityThreshold      float64
	SemanticWeight           float64
	TextWeight               float64
	UsageFrequencyWeight     float64
	UsageRecencyWeight       float64
	UsageRecencyHalfLifeDays float64

	// Summarization thresholds (spec §4.3).
	SummaryMinContentLength int
	SummaryMaxLength        int

	// KeywordMax bounds extract_keywords's result length.
	KeywordMax int

	Logger *slog.Logger
}

// Option configures a Config during construction.
type Option func(*Config)

func WithCredentials(c Credentials) Option {
	return func(cfg *Config) { cfg.Credentials = c }
}

func WithDefaultProvider(providerModel string) Option {
	return func(cfg *Config) { cfg.DefaultProvider = providerModel }
}

func WithProviderForTask(task, providerModel string) Option {
	return func(cfg *Config) {
		if cfg.Providers == nil {
			cfg.Providers = make(map[string]string)
		}
		cfg.Providers[task] = providerModel
	}
}

func WithChunking(size, overlap int) Option {
	return func(cfg *Config) {
		cfg.ChunkSize = size
		cfg.ChunkOverlap = overlap
	}
}

func WithSearchWeights(similarityThreshold, semanticWeight, textWeight float64) Option {
	return func(cfg *Config) {
		cfg.SimilarityThreshold = similarityThreshold
		cfg.SemanticWeight = semanticWeight
		cfg.TextWeight = textWeight
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *Config) { cfg.Logger = l }
}

// DefaultChunkSize and DefaultChunkOverlap are the §4.2 fallback values used
// whenever a caller passes a non-numeric or absent chunk_size/overlap.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// New builds an immutable Config, applying options over built-in defaults,
// the way rag/system.go's NewRAGSystem defaults a zero-value RAGConfig.
func New(opts ...Option) *Config {
	cfg := &Config{
		ChunkSize:                DefaultChunkSize,
		ChunkOverlap:             DefaultChunkOverlap,
		SimilarityThreshold:      0.7,
		SemanticWeight:           0.7,
		TextWeight:               0.3,
		UsageFrequencyWeight:     0.7,
		UsageRecencyWeight:       0.3,
		UsageRecencyHalfLifeDays: 30,
		SummaryMinContentLength:  200,
		SummaryMaxLength:         500,
		KeywordMax:               10,
		Providers:                make(map[string]string),
		DefaultProvider:          "openai/gpt-3.5-turbo",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	return cfg
}

// FromEnv reads the provider credential environment variables recognized by
// spec §6, with in-process overrides (an already-populated field in base
// wins over the environment).
func FromEnv(base Credentials) Credentials {
	fill := func(c ProviderCredentials, envKey string) ProviderCredentials {
		if c.APIKey == "" {
			c.APIKey = os.Getenv(envKey)
		}
		return c
	}

	base.OpenAI = fill(base.OpenAI, "OPENAI_API_KEY")
	base.Anthropic = fill(base.Anthropic, "ANTHROPIC_API_KEY")
	base.Google = fill(base.Google, "GOOGLE_API_KEY")
	base.Azure = fill(base.Azure, "AZURE_OPENAI_API_KEY")
	base.HuggingFace = fill(base.HuggingFace, "HUGGINGFACE_API_KEY")
	base.OpenRouter = fill(base.OpenRouter, "OPENROUTER_API_KEY")

	if base.Ollama.BaseURL == "" {
		base.Ollama.BaseURL = os.Getenv("OLLAMA_ENDPOINT")
	}

	if base.Bedrock.Region == "" {
		base.Bedrock.Region = os.Getenv("AWS_REGION")
	}
	if base.Bedrock.AccessKeyID == "" {
		base.Bedrock.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if base.Bedrock.SecretAccessKey == "" {
		base.Bedrock.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}

	return base
}

// ProviderModel splits a "provider/model" string into its two parts. If no
// "/" is present, the whole string is treated as the provider with an empty
// model (the provider supplies its own default model).
func ProviderModel(providerModel string) (provider, model string) {
	for i := 0; i < len(providerModel); i++ {
		if providerModel[i] == '/' {
			return providerModel[:i], providerModel[i+1:]
		}
	}
	return providerModel, ""
}

// ResolveProvider returns the "provider/model" string for a task, falling
// back to DefaultProvider when no task-specific override is configured.
func (c *Config) ResolveProvider(task string) string {
	if pm, ok := c.Providers[task]; ok && pm != "" {
		return pm
	}
	return c.DefaultProvider
}
