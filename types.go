// Package knowledgebase implements the streaming segmentation, chunking, and
// sectioning pipeline that turns a text stream into a lazy sequence of
// semantically coherent sections.
package knowledgebase

import "time"

// Chunk is a token-budgeted span of text produced by a ChunkAssembler and,
// once sectioning has run, carries an embedding and its position within the
// section that owns it.
type Chunk struct {
	Content    string
	TokenCount int
	Embedding  []float32
	ChunkIndex int
}

// Section is an ordered, non-empty sequence of chunks sharing a freshly
// generated identifier. Once yielded by a Sectioner, a Section belongs to
// the caller.
type Section struct {
	ID        string
	Chunks    []Chunk
	CreatedAt time.Time
}

// TokenCount returns the sum of token counts across every chunk in s.
func (s Section) TokenCount() int {
	sum := 0
	for _, c := range s.Chunks {
		sum += c.TokenCount
	}
	return sum
}
