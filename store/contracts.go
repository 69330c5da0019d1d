// Package store provides persistence contracts and implementations for
// sections and chunks produced by the knowledgebase pipeline. The pipeline
// itself is storage-agnostic; these adapters are where a caller plugs in a
// durable backend.
package store

import (
	"context"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
)

// FileStore tracks which source files have been ingested, independent of
// how their sections and chunks are stored.
type FileStore interface {
	// UpsertFile records that fileID has been ingested (or re-ingested).
	UpsertFile(ctx context.Context, fileID string) error
	// HasFile reports whether fileID has already been ingested.
	HasFile(ctx context.Context, fileID string) (bool, error)
	// DeleteFile removes fileID's ingestion record.
	DeleteFile(ctx context.Context, fileID string) error
}

// ChunkStore persists individual chunks, keyed by the section that owns
// them.
type ChunkStore interface {
	// InsertChunks stores every chunk belonging to sectionID, in order.
	InsertChunks(ctx context.Context, sectionID string, chunks []knowledgebase.Chunk) error
	// GetChunks retrieves every chunk belonging to sectionID, in order.
	GetChunks(ctx context.Context, sectionID string) ([]knowledgebase.Chunk, error)
	// DeleteChunks removes every chunk belonging to sectionID.
	DeleteChunks(ctx context.Context, sectionID string) error
}

// SectionStore persists sections for a given file.
type SectionStore interface {
	// InsertSections stores sections produced for fileID.
	InsertSections(ctx context.Context, fileID string, sections []knowledgebase.Section) error
	// GetSections retrieves every section stored for fileID.
	GetSections(ctx context.Context, fileID string) ([]knowledgebase.Section, error)
	// DeleteSections removes every section stored for fileID.
	DeleteSections(ctx context.Context, fileID string) error
}
