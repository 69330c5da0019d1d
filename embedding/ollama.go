package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// Ollama implements Embedder against a local or remote Ollama server's
// embeddings endpoint.
type Ollama struct {
	model      string
	dimensions int

	client *api.Client
	logger *slog.Logger
}

// NewOllama constructs an Ollama embedder. host must be a valid URL pointing
// at an Ollama server; a host that url.Parse rejects panics.
func NewOllama(host, model string, dimensions int, logger *slog.Logger) Ollama {
	u, err := url.Parse(host)
	if err != nil {
		panic(err)
	}

	return Ollama{
		model:      model,
		dimensions: dimensions,
		client:     api.NewClient(u, &http.Client{}),
		logger:     logger.With(slog.String("module", "embedding.ollama")),
	}
}

// Embed returns the embedding vector for text.
func (o Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  o.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: ollama request failed: %w", err)
	}

	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions returns the configured embedding width.
func (o Ollama) Dimensions() int {
	return o.dimensions
}
