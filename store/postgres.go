package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
)

// PostgresStore implements FileStore, SectionStore, and ChunkStore on top of
// PostgreSQL with the pgvector extension, giving chunk embeddings a durable
// home that also supports similarity search outside this package.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and ensures the schema exists for vectors
// of the given dimensionality.
func NewPostgresStore(ctx context.Context, dsn string, dimensions int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect to postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("store: enable vector extension: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS kb_files (
			file_id TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS kb_sections (
			id TEXT PRIMARY KEY,
			file_id TEXT NOT NULL REFERENCES kb_files(file_id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS kb_chunks (
			section_id TEXT NOT NULL REFERENCES kb_sections(id) ON DELETE CASCADE,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			token_count INTEGER NOT NULL,
			embedding vector(%d),
			PRIMARY KEY (section_id, chunk_index)
		);`, dimensions)
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// UpsertFile records that fileID has been ingested.
func (p *PostgresStore) UpsertFile(ctx context.Context, fileID string) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO kb_files (file_id) VALUES ($1) ON CONFLICT DO NOTHING`, fileID)
	if err != nil {
		return fmt.Errorf("store: upsert file: %w", err)
	}
	return nil
}

// HasFile reports whether fileID has an ingestion record.
func (p *PostgresStore) HasFile(ctx context.Context, fileID string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM kb_files WHERE file_id = $1)`, fileID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: check file: %w", err)
	}
	return exists, nil
}

// DeleteFile removes fileID and, via cascade, every section and chunk that
// belongs to it.
func (p *PostgresStore) DeleteFile(ctx context.Context, fileID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM kb_files WHERE file_id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("store: delete file: %w", err)
	}
	return nil
}

// InsertSections stores sections under fileID along with their chunks.
func (p *PostgresStore) InsertSections(ctx context.Context, fileID string, sections []knowledgebase.Section) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sec := range sections {
		if _, err := tx.Exec(ctx,
			`INSERT INTO kb_sections (id, file_id, created_at) VALUES ($1, $2, $3)`,
			sec.ID, fileID, sec.CreatedAt); err != nil {
			return fmt.Errorf("store: insert section: %w", err)
		}
		for _, c := range sec.Chunks {
			if _, err := tx.Exec(ctx,
				`INSERT INTO kb_chunks (section_id, chunk_index, content, token_count, embedding)
				 VALUES ($1, $2, $3, $4, $5)`,
				sec.ID, c.ChunkIndex, c.Content, c.TokenCount, pgvector.NewVector(c.Embedding)); err != nil {
				return fmt.Errorf("store: insert chunk: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// GetSections retrieves every section stored for fileID, with chunks
// ordered by index.
func (p *PostgresStore) GetSections(ctx context.Context, fileID string) ([]knowledgebase.Section, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, created_at FROM kb_sections WHERE file_id = $1 ORDER BY created_at`, fileID)
	if err != nil {
		return nil, fmt.Errorf("store: query sections: %w", err)
	}
	defer rows.Close()

	var sections []knowledgebase.Section
	for rows.Next() {
		var sec knowledgebase.Section
		if err := rows.Scan(&sec.ID, &sec.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan section: %w", err)
		}
		chunks, err := p.GetChunks(ctx, sec.ID)
		if err != nil {
			return nil, err
		}
		sec.Chunks = chunks
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

// DeleteSections removes every section (and chunk, via cascade) stored for
// fileID.
func (p *PostgresStore) DeleteSections(ctx context.Context, fileID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM kb_sections WHERE file_id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("store: delete sections: %w", err)
	}
	return nil
}

// InsertChunks stores chunks under sectionID. The section itself must
// already exist.
func (p *PostgresStore) InsertChunks(ctx context.Context, sectionID string, chunks []knowledgebase.Chunk) error {
	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(
			`INSERT INTO kb_chunks (section_id, chunk_index, content, token_count, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			sectionID, c.ChunkIndex, c.Content, c.TokenCount, pgvector.NewVector(c.Embedding))
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("store: insert chunk batch: %w", err)
		}
	}
	return nil
}

// GetChunks retrieves every chunk stored for sectionID, in index order.
func (p *PostgresStore) GetChunks(ctx context.Context, sectionID string) ([]knowledgebase.Chunk, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT chunk_index, content, token_count, embedding FROM kb_chunks
		 WHERE section_id = $1 ORDER BY chunk_index`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("store: query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []knowledgebase.Chunk
	for rows.Next() {
		var c knowledgebase.Chunk
		var vec pgvector.Vector
		if err := rows.Scan(&c.ChunkIndex, &c.Content, &c.TokenCount, &vec); err != nil {
			return nil, fmt.Errorf("store: scan chunk: %w", err)
		}
		c.Embedding = vec.Slice()
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteChunks removes every chunk stored for sectionID.
func (p *PostgresStore) DeleteChunks(ctx context.Context, sectionID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM kb_chunks WHERE section_id = $1`, sectionID)
	if err != nil {
		return fmt.Errorf("store: delete chunks: %w", err)
	}
	return nil
}
