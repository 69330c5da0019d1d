package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cespare/xxhash"
	bolt "go.etcd.io/bbolt"

	knowledgebase "github.com/AdamTovatt/easy-reasy-knowledge-base-sub001"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub001/config"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub001/ingest"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub001/store"
)

const (
	docPath    = "book.txt"
	configPath = "."
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		return
	}

	tok, err := config.BuildTokenizer(cfg)
	if err != nil {
		fmt.Printf("Error creating tokenizer: %v\n", err)
		return
	}

	embedder, err := config.BuildEmbedder(cfg, logger)
	if err != nil {
		fmt.Printf("Error creating embedder: %v\n", err)
		return
	}

	boltStore, err := store.NewBoltStore("kv.db")
	if err != nil {
		fmt.Printf("Error creating boltDB: %v\n", err)
		return
	}
	defer boltStore.Close()

	fileData, err := os.ReadFile(docPath)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		return
	}
	docContent := string(fileData)

	alreadyIngested, err := checkDocumentHash(boltStore, docContent)
	if err != nil {
		fmt.Printf("Error checking document hash: %v\n", err)
		return
	}

	if !alreadyIngested {
		fmt.Println("Document not yet ingested. Processing...")

		runner := &ingest.Runner{
			Tokenizer:        tok,
			Embedder:         embedder,
			ChunkingConfig:   cfg.Chunking.ToKnowledgeBase(),
			SectioningConfig: cfg.Sectioning.ToKnowledgeBase(),
			Preset:           knowledgebase.MarkdownPreset(),
			Files:            boltStore,
			Sects:            boltStore,
			ConcurrencyCount: cfg.Concurrency,
			Logger:           logger,
		}

		files := []ingest.File{{ID: "book", Source: strings.NewReader(docContent)}}
		if err := runner.Run(context.Background(), files); err != nil {
			fmt.Printf("Error ingesting document: %v\n", err)
			return
		}
		if err := saveDocumentHash(boltStore, docContent); err != nil {
			fmt.Printf("Error saving document hash: %v\n", err)
			return
		}
	}

	queryLoop(context.Background(), boltStore, embedder, logger)
}

func checkDocumentHash(s *store.BoltStore, docContent string) (bool, error) {
	var stored uint64
	err := s.DB().View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("hash"))
		if b == nil {
			return nil
		}
		hashBs := b.Get([]byte("book"))
		if len(hashBs) == 0 {
			return nil
		}
		stored = binary.BigEndian.Uint64(hashBs)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking document hash: %w", err)
	}
	return stored == xxhash.Sum64String(docContent), nil
}

func saveDocumentHash(s *store.BoltStore, docContent string) error {
	return s.DB().Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte("hash"))
		if err != nil {
			return err
		}
		hash := xxhash.Sum64String(docContent)
		return b.Put([]byte("book"), binary.BigEndian.AppendUint64(nil, hash))
	})
}

func queryLoop(ctx context.Context, s *store.BoltStore, embedder knowledgebase.Embedder, logger *slog.Logger) {
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("Ask a question (type 'exit' to quit):")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Printf("Error reading input: %v\n", err)
			return
		}
		line = strings.TrimSpace(line)
		if line == "exit" {
			return
		}

		queryVec, err := embedder.Embed(ctx, line)
		if err != nil {
			fmt.Printf("Error embedding query: %v\n", err)
			continue
		}

		sections, err := s.GetSections(ctx, "book")
		if err != nil {
			fmt.Printf("Error loading sections: %v\n", err)
			continue
		}

		best, err := mostSimilarSection(queryVec, sections)
		if err != nil {
			fmt.Printf("Error ranking sections: %v\n", err)
			continue
		}
		if best == nil {
			fmt.Println("No sections available yet.")
			continue
		}

		fmt.Println("\nMost relevant section:")
		for _, chunk := range best.Chunks {
			fmt.Println(chunk.Content)
		}
		fmt.Println()

		logger.Info("answered query", "query", line, "sectionId", best.ID)
	}
}

func mostSimilarSection(queryVec []float32, sections []knowledgebase.Section) (*knowledgebase.Section, error) {
	var best *knowledgebase.Section
	bestScore := -1.0

	for i := range sections {
		for _, chunk := range sections[i].Chunks {
			if len(chunk.Embedding) == 0 {
				continue
			}
			score, err := knowledgebase.Cosine(queryVec, chunk.Embedding)
			if err != nil {
				return nil, err
			}
			if score > bestScore {
				bestScore = score
				best = &sections[i]
			}
		}
	}

	return best, nil
}
