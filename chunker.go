package knowledgebase

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ChunkAssembler greedily combines segments from a SegmentSplitter into
// chunks bounded by a max-tokens budget, breaking early before any segment
// that begins with a configured stop signal.
type ChunkAssembler struct {
	splitter    *SegmentSplitter
	tokenizer   Tokenizer
	maxTokens   int
	stopSignals []string

	buffered *string
	done     bool
}

// NewChunkAssembler constructs a ChunkAssembler over splitter. maxTokens is
// the per-chunk token budget; stopSignals are prefix strings that force an
// early chunk boundary.
func NewChunkAssembler(splitter *SegmentSplitter, tokenizer Tokenizer, maxTokens int, stopSignals []string) *ChunkAssembler {
	return &ChunkAssembler{
		splitter:    splitter,
		tokenizer:   tokenizer,
		maxTokens:   maxTokens,
		stopSignals: append([]string(nil), stopSignals...),
	}
}

// Next returns the next chunk, or io.EOF once nothing remains.
func (c *ChunkAssembler) Next(ctx context.Context) (Chunk, error) {
	if c.done && c.buffered == nil {
		return Chunk{}, io.EOF
	}
	if err := checkCancelled(ctx); err != nil {
		return Chunk{}, err
	}

	var current string
	if c.buffered != nil {
		current = *c.buffered
		c.buffered = nil
	} else {
		seg, err := c.splitter.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.done = true
				return Chunk{}, io.EOF
			}
			return Chunk{}, err
		}
		current = seg
	}

	tokenCount, err := c.tokenizer.CountTokens(current)
	if err != nil {
		return Chunk{}, err
	}

	if tokenCount >= c.maxTokens {
		return Chunk{Content: current, TokenCount: tokenCount}, nil
	}

	for {
		if err := checkCancelled(ctx); err != nil {
			return Chunk{}, err
		}

		seg, err := c.splitter.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.done = true
				break
			}
			return Chunk{}, err
		}

		if hasAnyPrefix(seg, c.stopSignals) {
			c.buffered = &seg
			break
		}

		candidate := current + seg
		candidateTokens, err := c.tokenizer.CountTokens(candidate)
		if err != nil {
			return Chunk{}, err
		}

		if candidateTokens <= c.maxTokens {
			current = candidate
			tokenCount = candidateTokens
			continue
		}

		c.buffered = &seg
		break
	}

	return Chunk{Content: current, TokenCount: tokenCount}, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
