package store

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	bolt "go.etcd.io/bbolt"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
)

var (
	filesBucket    = []byte("files")
	sectionsBucket = []byte("sections")
	chunksBucket   = []byte("chunks")
)

// BoltStore implements FileStore, SectionStore, and ChunkStore on top of an
// embedded BoltDB database, serializing sections and chunks with sonic.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a BoltDB database at path and ensures its
// buckets exist.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{filesBucket, sectionsBucket, chunksBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close releases the underlying database file.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

// DB exposes the underlying BoltDB handle for callers that need buckets of
// their own, such as recording a content hash to skip re-ingestion.
func (b *BoltStore) DB() *bolt.DB {
	return b.db
}

// UpsertFile records that fileID has been ingested.
func (b *BoltStore) UpsertFile(_ context.Context, fileID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(filesBucket).Put([]byte(fileID), []byte{1})
	})
}

// HasFile reports whether fileID has an ingestion record.
func (b *BoltStore) HasFile(_ context.Context, fileID string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(filesBucket).Get([]byte(fileID)) != nil
		return nil
	})
	return found, err
}

// KnownFileIDs returns the IDs of every file with an ingestion record.
func (b *BoltStore) KnownFileIDs(_ context.Context) ([]string, error) {
	var ids []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(filesBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list known files: %w", err)
	}
	return ids, nil
}

// DeleteFile removes fileID's ingestion record.
func (b *BoltStore) DeleteFile(_ context.Context, fileID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(filesBucket).Delete([]byte(fileID))
	})
}

// InsertSections stores sections under fileID.
func (b *BoltStore) InsertSections(_ context.Context, fileID string, sections []knowledgebase.Section) error {
	encoded, err := sonic.Marshal(sections)
	if err != nil {
		return fmt.Errorf("store: marshal sections: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sectionsBucket).Put([]byte(fileID), encoded)
	})
}

// GetSections retrieves every section stored for fileID.
func (b *BoltStore) GetSections(_ context.Context, fileID string) ([]knowledgebase.Section, error) {
	var sections []knowledgebase.Section
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sectionsBucket).Get([]byte(fileID))
		if raw == nil {
			return nil
		}
		return sonic.Unmarshal(raw, &sections)
	})
	if err != nil {
		return nil, fmt.Errorf("store: get sections: %w", err)
	}
	return sections, nil
}

// DeleteSections removes every section stored for fileID.
func (b *BoltStore) DeleteSections(_ context.Context, fileID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sectionsBucket).Delete([]byte(fileID))
	})
}

// InsertChunks stores chunks under sectionID.
func (b *BoltStore) InsertChunks(_ context.Context, sectionID string, chunks []knowledgebase.Chunk) error {
	encoded, err := sonic.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("store: marshal chunks: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chunksBucket).Put([]byte(sectionID), encoded)
	})
}

// GetChunks retrieves every chunk stored for sectionID.
func (b *BoltStore) GetChunks(_ context.Context, sectionID string) ([]knowledgebase.Chunk, error) {
	var chunks []knowledgebase.Chunk
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(chunksBucket).Get([]byte(sectionID))
		if raw == nil {
			return nil
		}
		return sonic.Unmarshal(raw, &chunks)
	})
	if err != nil {
		return nil, fmt.Errorf("store: get chunks: %w", err)
	}
	return chunks, nil
}

// DeleteChunks removes every chunk stored for sectionID.
func (b *BoltStore) DeleteChunks(_ context.Context, sectionID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chunksBucket).Delete([]byte(sectionID))
	})
}
