package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltStoreFileLifecycle(t *testing.T) {
	s := newTestBoltStore(t)
	ctx := context.Background()

	has, err := s.HasFile(ctx, "doc-1")
	if err != nil {
		t.Fatalf("HasFile: %v", err)
	}
	if has {
		t.Fatal("expected doc-1 to be absent before upsert")
	}

	if err := s.UpsertFile(ctx, "doc-1"); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	has, err = s.HasFile(ctx, "doc-1")
	if err != nil {
		t.Fatalf("HasFile: %v", err)
	}
	if !has {
		t.Fatal("expected doc-1 to be present after upsert")
	}

	if err := s.DeleteFile(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	has, err = s.HasFile(ctx, "doc-1")
	if err != nil {
		t.Fatalf("HasFile: %v", err)
	}
	if has {
		t.Fatal("expected doc-1 to be absent after delete")
	}
}

func TestBoltStoreKnownFileIDs(t *testing.T) {
	s := newTestBoltStore(t)
	ctx := context.Background()

	if err := s.UpsertFile(ctx, "doc-a"); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	if err := s.UpsertFile(ctx, "doc-b"); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}

	ids, err := s.KnownFileIDs(ctx)
	if err != nil {
		t.Fatalf("KnownFileIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
}

func TestBoltStoreDBAccessor(t *testing.T) {
	s := newTestBoltStore(t)
	if s.DB() == nil {
		t.Fatal("expected DB() to return a non-nil handle")
	}
}

func TestBoltStoreSectionsAndChunksRoundTrip(t *testing.T) {
	s := newTestBoltStore(t)
	ctx := context.Background()

	sections := []knowledgebase.Section{
		{
			ID:        "sec-1",
			CreatedAt: time.Now().Truncate(time.Second),
			Chunks: []knowledgebase.Chunk{
				{Content: "first chunk", TokenCount: 2, ChunkIndex: 0, Embedding: []float32{0.1, 0.2}},
				{Content: "second chunk", TokenCount: 2, ChunkIndex: 1, Embedding: []float32{0.3, 0.4}},
			},
		},
	}

	if err := s.InsertSections(ctx, "doc-1", sections); err != nil {
		t.Fatalf("InsertSections: %v", err)
	}

	got, err := s.GetSections(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetSections: %v", err)
	}
	if len(got) != 1 || len(got[0].Chunks) != 2 {
		t.Fatalf("got %#v, want one section with two chunks", got)
	}
	if got[0].Chunks[1].Content != "second chunk" {
		t.Errorf("got %q, want %q", got[0].Chunks[1].Content, "second chunk")
	}

	if err := s.InsertChunks(ctx, "sec-1", sections[0].Chunks); err != nil {
		t.Fatalf("InsertChunks: %v", err)
	}
	chunks, err := s.GetChunks(ctx, "sec-1")
	if err != nil {
		t.Fatalf("GetChunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}

	if err := s.DeleteSections(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteSections: %v", err)
	}
	got, err = s.GetSections(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetSections: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d sections after delete, want 0", len(got))
	}
}
