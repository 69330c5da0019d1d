package knowledgebase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func collectSections(t *testing.T, s *Sectioner) []Section {
	t.Helper()
	var sections []Section
	for {
		sec, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		sections = append(sections, sec)
	}
	return sections
}

func newTestSectioner(t *testing.T, input string, embedder Embedder, config SectioningConfig) *Sectioner {
	t.Helper()
	splitter := NewSegmentSplitter(strings.NewReader(input), []string{"\n\n"})
	chunker := NewChunkAssembler(splitter, wordTokenizer{}, 1, nil)
	s, err := NewSectionerFromAssembler(chunker, embedder, config, nil)
	if err != nil {
		t.Fatalf("NewSectionerFromAssembler: %v", err)
	}
	return s
}

func lenientConfig() SectioningConfig {
	c := DefaultSectioningConfig()
	c.MinChunksPerSection = 1
	c.MinTokensPerSection = 10
	c.LookaheadBufferSize = 10
	return c
}

func TestSectionerEmptyInput(t *testing.T) {
	s := newTestSectioner(t, "", newKeywordEmbedder("apple", "banana"), lenientConfig())
	sections := collectSections(t, s)
	if len(sections) != 0 {
		t.Fatalf("got %d sections for empty input, want 0", len(sections))
	}
}

func TestSectionerSingleSectionWhenTopicIsStable(t *testing.T) {
	input := strings.Repeat("apple\n\n", 5)
	input = strings.TrimSuffix(input, "\n\n")
	s := newTestSectioner(t, input, newKeywordEmbedder("apple", "banana"), lenientConfig())

	sections := collectSections(t, s)
	if len(sections) != 1 {
		t.Fatalf("got %d sections for a topically stable document, want 1", len(sections))
	}
	if len(sections[0].Chunks) != 5 {
		t.Errorf("got %d chunks in the section, want 5", len(sections[0].Chunks))
	}
}

func TestSectionerSplitsOnTopicShift(t *testing.T) {
	input := strings.Repeat("apple\n\n", 10) + strings.Repeat("banana\n\n", 10)
	input = strings.TrimSuffix(input, "\n\n")
	s := newTestSectioner(t, input, newKeywordEmbedder("apple", "banana"), lenientConfig())

	sections := collectSections(t, s)
	if len(sections) != 2 {
		t.Fatalf("got %d sections across a topic shift, want 2", len(sections))
	}
	for _, c := range sections[0].Chunks {
		if !strings.Contains(c.Content, "apple") {
			t.Errorf("first section contains a non-apple chunk: %q", c.Content)
		}
	}
	for _, c := range sections[1].Chunks {
		if !strings.Contains(c.Content, "banana") {
			t.Errorf("second section contains a non-banana chunk: %q", c.Content)
		}
	}
}

func TestSectionerRespectsMaxTokensPerSection(t *testing.T) {
	input := strings.Repeat("apple\n\n", 10)
	input = strings.TrimSuffix(input, "\n\n")
	config := lenientConfig()
	config.MaxTokensPerSection = 4

	s := newTestSectioner(t, input, newKeywordEmbedder("apple"), config)
	sections := collectSections(t, s)

	if len(sections) < 2 {
		t.Fatalf("got %d sections under a tight token budget, want at least 2", len(sections))
	}
	for _, sec := range sections {
		if sec.TokenCount() > config.MaxTokensPerSection {
			t.Errorf("section exceeds MaxTokensPerSection: %d tokens", sec.TokenCount())
		}
	}
}

func TestSectionerChunkIndicesAreContiguous(t *testing.T) {
	input := strings.Repeat("apple\n\n", 4)
	input = strings.TrimSuffix(input, "\n\n")
	s := newTestSectioner(t, input, newKeywordEmbedder("apple"), lenientConfig())

	sections := collectSections(t, s)
	for _, sec := range sections {
		for i, c := range sec.Chunks {
			if c.ChunkIndex != i {
				t.Errorf("chunk %d has ChunkIndex %d", i, c.ChunkIndex)
			}
		}
		if sec.ID == "" {
			t.Error("expected a non-empty section ID")
		}
		if sec.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
	}
}

func TestSectionerCancellationMidStream(t *testing.T) {
	data := []byte(strings.Repeat("apple\n\n", 200))
	reader := &slowReader{data: data, delay: 5 * time.Millisecond}

	splitter := NewSegmentSplitter(reader, []string{"\n\n"})
	chunker := NewChunkAssembler(splitter, wordTokenizer{}, 1, nil)
	config := lenientConfig()
	s, err := NewSectionerFromAssembler(chunker, newKeywordEmbedder("apple"), config, nil)
	if err != nil {
		t.Fatalf("NewSectionerFromAssembler: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var sawCancellation bool
	for {
		_, err := s.Next(ctx)
		if err != nil {
			if !errors.Is(err, ErrCancelled) {
				t.Fatalf("got %v, want ErrCancelled", err)
			}
			sawCancellation = true
			break
		}
	}
	if !sawCancellation {
		t.Fatal("expected the stream to be cancelled before completion")
	}
}
