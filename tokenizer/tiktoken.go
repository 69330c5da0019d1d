// Package tokenizer provides concrete Tokenizer implementations for the
// knowledgebase pipeline.
package tokenizer

import (
	"fmt"

	tiktoken "github.com/tiktoken-go/tokenizer"
)

// Tiktoken wraps a tiktoken-go codec, giving an OpenAI-model-accurate token
// count for English and code-heavy text.
type Tiktoken struct {
	codec tiktoken.Codec
}

// NewTiktoken constructs a Tiktoken tokenizer for the given model name (e.g.
// "gpt-4o", "text-embedding-3-small").
func NewTiktoken(model string) (*Tiktoken, error) {
	codec, err := tiktoken.ForModel(tiktoken.Model(model))
	if err != nil {
		return nil, fmt.Errorf("tokenizer: resolve codec for model %q: %w", model, err)
	}
	return &Tiktoken{codec: codec}, nil
}

// Encode returns the token IDs for text.
func (t *Tiktoken) Encode(text string) ([]int, error) {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: encode: %w", err)
	}
	result := make([]int, len(ids))
	for i, id := range ids {
		result[i] = int(id)
	}
	return result, nil
}

// Decode reconstructs text from token IDs.
func (t *Tiktoken) Decode(tokenIDs []int) (string, error) {
	ids := make([]uint, len(tokenIDs))
	for i, id := range tokenIDs {
		ids[i] = uint(id)
	}
	text, err := t.codec.Decode(ids)
	if err != nil {
		return "", fmt.Errorf("tokenizer: decode: %w", err)
	}
	return text, nil
}

// CountTokens returns len(Encode(text)) without building the []int copy of
// the token IDs.
func (t *Tiktoken) CountTokens(text string) (int, error) {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("tokenizer: count tokens: %w", err)
	}
	return len(ids), nil
}
