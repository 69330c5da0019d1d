package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
)

// ChromemIndex provides nearest-neighbor search over chunk embeddings using
// an embedded chromem-go collection. It is additive to the core pipeline's
// named-contract-only scope: callers who want query-time retrieval plug
// chunks into this index as they are produced.
type ChromemIndex struct {
	coll *chromem.Collection
	topK int
}

// NewChromemIndex opens (or creates) a persistent chromem-go database at
// dbPath and prepares a chunk collection backed by embeddingFunc.
func NewChromemIndex(dbPath string, topK int, embeddingFunc chromem.EmbeddingFunc) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("store: create chromem db: %w", err)
	}

	coll, err := db.GetOrCreateCollection("chunks", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("store: create chunks collection: %w", err)
	}

	return &ChromemIndex{coll: coll, topK: topK}, nil
}

// IndexChunk adds a chunk to the index, tagging it with the section it
// belongs to and its position within that section.
func (c *ChromemIndex) IndexChunk(ctx context.Context, sectionID string, chunk knowledgebase.Chunk) error {
	doc := chromem.Document{
		ID:      uuid.New().String(),
		Content: chunk.Content,
		Metadata: map[string]string{
			"section_id":  sectionID,
			"chunk_index": fmt.Sprintf("%d", chunk.ChunkIndex),
		},
	}
	if len(chunk.Embedding) > 0 {
		doc.Embedding = chunk.Embedding
	}

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return c.coll.AddDocument(queryCtx, doc)
}

// QuerySimilar returns the section IDs of the topK chunks most similar to
// query.
func (c *ChromemIndex) QuerySimilar(ctx context.Context, query string) ([]string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	results, err := c.coll.Query(queryCtx, query, c.topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("store: query chunks: %w", err)
	}

	sectionIDs := make([]string, len(results))
	for i, r := range results {
		sectionIDs[i] = r.Metadata["section_id"]
	}
	return sectionIDs, nil
}
