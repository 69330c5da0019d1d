package config

import (
	"fmt"
	"log/slog"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub001/embedding"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub001/tokenizer"
)

// BuildTokenizer constructs the Tokenizer named by cfg.Tokenizer.Backend.
func BuildTokenizer(cfg *Config) (knowledgebase.Tokenizer, error) {
	switch cfg.Tokenizer.Backend {
	case "tiktoken":
		tok, err := tokenizer.NewTiktoken(cfg.Tokenizer.Model)
		if err != nil {
			return nil, fmt.Errorf("config: build tiktoken tokenizer: %w", err)
		}
		return tok, nil
	case "huggingface":
		tok, err := tokenizer.NewHuggingFace(cfg.Tokenizer.VocabPath, cfg.Tokenizer.MergePath)
		if err != nil {
			return nil, fmt.Errorf("config: build huggingface tokenizer: %w", err)
		}
		return tok, nil
	default:
		return nil, fmt.Errorf("%w: unknown tokenizer backend %q", ErrInvalidConfig, cfg.Tokenizer.Backend)
	}
}

// BuildEmbedder constructs the Embedder named by cfg.Embedding.Backend,
// wrapped in an in-memory cache so repeated text isn't re-embedded within a
// single run.
func BuildEmbedder(cfg *Config, logger *slog.Logger) (knowledgebase.Embedder, error) {
	var inner knowledgebase.Embedder

	switch cfg.Embedding.Backend {
	case "openai":
		inner = embedding.NewOpenAI(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger)
	case "ollama":
		inner = embedding.NewOllama(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger)
	default:
		return nil, fmt.Errorf("%w: unknown embedding backend %q", ErrInvalidConfig, cfg.Embedding.Backend)
	}

	return embedding.NewCachingEmbedder(inner, embedding.NewMemoryCache()), nil
}
