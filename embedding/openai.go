// Package embedding provides concrete Embedder implementations for the
// knowledgebase pipeline, plus a caching decorator.
package embedding

import (
	"context"
	"fmt"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI implements Embedder against OpenAI's embeddings endpoint.
type OpenAI struct {
	model      string
	dimensions int

	client *goopenai.Client
	logger *slog.Logger
}

// NewOpenAI constructs an OpenAI embedder for the given model. dimensions
// must match the model's native output size (or the requested
// dimensionality, for models that support truncation).
func NewOpenAI(apiKey, model string, dimensions int, logger *slog.Logger) OpenAI {
	return OpenAI{
		model:      model,
		dimensions: dimensions,
		client:     goopenai.NewClient(apiKey),
		logger:     logger.With(slog.String("module", "embedding.openai")),
	}
}

// Embed returns the embedding vector for text.
func (o OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	req := goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(o.model),
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embedding: openai request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding: openai returned no embeddings")
	}

	return resp.Data[0].Embedding, nil
}

// Dimensions returns the configured embedding width.
func (o OpenAI) Dimensions() int {
	return o.dimensions
}
