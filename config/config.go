// Package config loads knowledgebase pipeline configuration from a YAML
// file (and environment overrides) using viper, and maps it onto the
// knowledgebase package's chunking and sectioning structs.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
)

// Common configuration errors.
var (
	ErrConfigNotFound = errors.New("config: configuration file not found")
	ErrInvalidConfig  = errors.New("config: invalid configuration")
)

// TokenizerConfig selects and configures a tokenizer backend.
type TokenizerConfig struct {
	Backend   string `mapstructure:"backend"` // "tiktoken" or "huggingface"
	Model     string `mapstructure:"model"`
	VocabPath string `mapstructure:"vocab_path"`
	MergePath string `mapstructure:"merges_path"`
}

// EmbeddingConfig selects and configures an embedding backend.
type EmbeddingConfig struct {
	Backend    string `mapstructure:"backend"` // "openai" or "ollama"
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions" validate:"min=1"`
}

// StoreConfig selects and configures a persistence backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // "bolt" or "postgres"
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
}

// ChunkingConfig mirrors knowledgebase.ChunkingConfig in a form viper can
// populate from file and environment values.
type ChunkingConfig struct {
	MaxTokensPerChunk int      `mapstructure:"max_tokens_per_chunk" validate:"min=1"`
	StopSignals       []string `mapstructure:"stop_signals"`
}

// ToKnowledgeBase converts ChunkingConfig to knowledgebase.ChunkingConfig.
func (c ChunkingConfig) ToKnowledgeBase() knowledgebase.ChunkingConfig {
	return knowledgebase.ChunkingConfig{
		MaxTokensPerChunk: c.MaxTokensPerChunk,
		StopSignals:       c.StopSignals,
	}
}

// SectioningConfig mirrors knowledgebase.SectioningConfig in a form viper
// can populate from file and environment values.
type SectioningConfig struct {
	MaxTokensPerSection      int      `mapstructure:"max_tokens_per_section"`
	LookaheadBufferSize      int      `mapstructure:"lookahead_buffer_size"`
	StdDevMultiplier         float64  `mapstructure:"std_dev_multiplier"`
	MinSimilarityThreshold   float64  `mapstructure:"min_similarity_threshold"`
	TokenStrictnessThreshold float64  `mapstructure:"token_strictness_threshold"`
	MinChunksPerSection      int      `mapstructure:"min_chunks_per_section"`
	MinTokensPerSection      int      `mapstructure:"min_tokens_per_section"`
	StopSignals              []string `mapstructure:"stop_signals"`
}

// ToKnowledgeBase converts SectioningConfig to knowledgebase.SectioningConfig.
// Clamping of out-of-range values happens inside the knowledgebase package
// itself, at Sectioner construction time.
func (c SectioningConfig) ToKnowledgeBase() knowledgebase.SectioningConfig {
	return knowledgebase.SectioningConfig{
		MaxTokensPerSection:      c.MaxTokensPerSection,
		LookaheadBufferSize:      c.LookaheadBufferSize,
		StdDevMultiplier:         c.StdDevMultiplier,
		MinSimilarityThreshold:   c.MinSimilarityThreshold,
		TokenStrictnessThreshold: c.TokenStrictnessThreshold,
		MinChunksPerSection:      c.MinChunksPerSection,
		MinTokensPerSection:      c.MinTokensPerSection,
		StopSignals:              c.StopSignals,
	}
}

// Config is the complete ingestion-side configuration: which tokenizer and
// embedder to use, where to persist results, and how to chunk and section.
type Config struct {
	Tokenizer  TokenizerConfig  `mapstructure:"tokenizer"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Store      StoreConfig      `mapstructure:"store"`
	Chunking   ChunkingConfig   `mapstructure:"chunking"`
	Sectioning SectioningConfig `mapstructure:"sectioning"`

	Concurrency int `mapstructure:"concurrency" validate:"min=1"`
}

// Validate fills in the tokenizer, embedding and store backends, the
// embedding dimensions, the concurrency and the per-chunk token budget with
// defaults when they are still zero, then rejects unknown backend names.
// Other fields are left as they are.
func (c *Config) Validate() error {
	if c.Tokenizer.Backend == "" {
		c.Tokenizer.Backend = "tiktoken"
	}
	if c.Embedding.Backend == "" {
		c.Embedding.Backend = "openai"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "bolt"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.Chunking.MaxTokensPerChunk == 0 {
		c.Chunking.MaxTokensPerChunk = 512
	}

	switch c.Tokenizer.Backend {
	case "tiktoken", "huggingface":
	default:
		return fmt.Errorf("%w: unknown tokenizer backend %q", ErrInvalidConfig, c.Tokenizer.Backend)
	}
	switch c.Embedding.Backend {
	case "openai", "ollama":
	default:
		return fmt.Errorf("%w: unknown embedding backend %q", ErrInvalidConfig, c.Embedding.Backend)
	}
	switch c.Store.Backend {
	case "bolt", "postgres":
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	return nil
}

// Load reads configuration from a "config.yaml" file in configPath,
// applying defaults and environment overrides, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
		}
		return nil, fmt.Errorf("config: read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tokenizer.backend", "tiktoken")
	v.SetDefault("tokenizer.model", "gpt-4")

	v.SetDefault("embedding.backend", "openai")
	v.SetDefault("embedding.dimensions", 1536)

	v.SetDefault("store.backend", "bolt")
	v.SetDefault("store.path", "./knowledgebase.db")

	v.SetDefault("chunking.max_tokens_per_chunk", 512)

	v.SetDefault("sectioning.max_tokens_per_section", 4000)
	v.SetDefault("sectioning.lookahead_buffer_size", 100)
	v.SetDefault("sectioning.std_dev_multiplier", 1.0)
	v.SetDefault("sectioning.min_similarity_threshold", 0.65)
	v.SetDefault("sectioning.token_strictness_threshold", 0.75)
	v.SetDefault("sectioning.min_chunks_per_section", 2)
	v.SetDefault("sectioning.min_tokens_per_section", 50)

	v.SetDefault("concurrency", 4)
}

// MustLoad loads configuration and panics on failure. Use only from main.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}
