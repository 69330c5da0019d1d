// Package ingest drives the knowledgebase pipeline over many files at once,
// bounding concurrency and persisting results through the store package.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub001/store"
)

// File is one unit of work for a Runner: a named source to section and
// persist.
type File struct {
	ID     string
	Source io.Reader
}

// Runner processes a batch of File values concurrently, bounded by
// ConcurrencyCount, running each through the knowledgebase pipeline and
// persisting the resulting sections.
type Runner struct {
	Tokenizer        knowledgebase.Tokenizer
	Embedder         knowledgebase.Embedder
	ChunkingConfig   knowledgebase.ChunkingConfig
	SectioningConfig knowledgebase.SectioningConfig
	Preset           knowledgebase.SplitterPreset

	Files store.FileStore
	Sects store.SectionStore

	ConcurrencyCount int
	Logger           *slog.Logger
}

// Run processes every file in files, up to ConcurrencyCount at a time.
// A failure in one file's pipeline cancels the remaining work and is
// returned to the caller; files already committed to the store remain
// committed.
func (r *Runner) Run(ctx context.Context, files []File) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("package", "ingest"), slog.String("function", "Run"))

	concurrency := r.ConcurrencyCount
	if concurrency < 1 {
		concurrency = 1
	}

	eg, egCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, concurrency)

	for _, file := range files {
		file := file
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := r.processFile(egCtx, file); err != nil {
				return fmt.Errorf("ingest: process file %q: %w", file.ID, err)
			}
			logger.Info("processed file", "fileId", file.ID)
			return nil
		})
	}

	return eg.Wait()
}

func (r *Runner) processFile(ctx context.Context, file File) error {
	sectioner, err := knowledgebase.NewSectioner(
		file.Source, file.ID, r.Tokenizer, r.Embedder,
		r.ChunkingConfig, r.SectioningConfig, r.Preset,
	)
	if err != nil {
		return fmt.Errorf("build sectioner: %w", err)
	}

	var sections []knowledgebase.Section
	for {
		sec, err := sectioner.Next(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read section: %w", err)
		}
		sections = append(sections, sec)
	}

	if err := r.Files.UpsertFile(ctx, file.ID); err != nil {
		return fmt.Errorf("upsert file record: %w", err)
	}
	if err := r.Sects.InsertSections(ctx, file.ID, sections); err != nil {
		return fmt.Errorf("insert sections: %w", err)
	}
	return nil
}
