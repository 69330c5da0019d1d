package knowledgebase

import "context"

// Tokenizer encodes, decodes, and counts tokens for a text span.
// Implementations must be pure and deterministic for a given instance, and
// safe for concurrent use since a single tokenizer is typically shared
// across pipelines.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(tokenIDs []int) (string, error)
	CountTokens(text string) (int, error)
}

// Embedder produces a fixed-length vector for a text span. Dimensions must
// be stable for the lifetime of the instance. Implementations must be safe
// for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
