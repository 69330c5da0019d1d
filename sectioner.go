package knowledgebase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

// embeddedChunk pairs a chunk with its embedding for the duration it spends
// in the look-ahead buffer or an open section.
type embeddedChunk struct {
	chunk     Chunk
	embedding []float32
}

// openSection accumulates chunks and a running centroid for the section
// currently being built.
type openSection struct {
	chunks   []embeddedChunk
	centroid []float32
	tokenSum int
}

func newOpenSection(first embeddedChunk) *openSection {
	return &openSection{
		chunks:   []embeddedChunk{first},
		centroid: append([]float32(nil), first.embedding...),
		tokenSum: first.chunk.TokenCount,
	}
}

func (o *openSection) append(ec embeddedChunk) error {
	if err := UpdateCentroidInPlace(o.centroid, ec.embedding, len(o.chunks)); err != nil {
		return err
	}
	o.chunks = append(o.chunks, ec)
	o.tokenSum += ec.chunk.TokenCount
	return nil
}

func (o *openSection) lastBeginsWithStopSignal(stopSignals []string) bool {
	if len(o.chunks) == 0 {
		return false
	}
	return hasAnyPrefix(o.chunks[len(o.chunks)-1].chunk.Content, stopSignals)
}

func (o *openSection) finalize() Section {
	chunks := make([]Chunk, len(o.chunks))
	for i, ec := range o.chunks {
		c := ec.chunk
		c.Embedding = ec.embedding
		c.ChunkIndex = i
		chunks[i] = c
	}
	return Section{ID: uuid.NewString(), Chunks: chunks, CreatedAt: time.Now()}
}

// Sectioner groups chunks into sections using a look-ahead buffer, a
// running centroid, cosine similarity, statistical split thresholds, and
// minimum-section guardrails. It owns the ChunkAssembler
// (and transitively the SegmentSplitter) beneath it.
type Sectioner struct {
	chunker  *ChunkAssembler
	embedder Embedder
	config   SectioningConfig
	logger   *slog.Logger

	lookahead  []embeddedChunk
	sourceDone bool
	primed     bool
	open       *openSection
	done       bool
}

// NewSectionerFromAssembler constructs a Sectioner directly from an already
// configured ChunkAssembler. Most callers should prefer the NewSectioner
// factory.
func NewSectionerFromAssembler(chunker *ChunkAssembler, embedder Embedder, config SectioningConfig, logger *slog.Logger) (*Sectioner, error) {
	if chunker == nil || embedder == nil {
		return nil, ErrNullArgument
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sectioner{
		chunker:  chunker,
		embedder: embedder,
		config:   config.clamp(),
		logger:   logger,
	}, nil
}

// Next returns the next section, or io.EOF once the source is exhausted.
func (s *Sectioner) Next(ctx context.Context) (Section, error) {
	if s.done {
		return Section{}, io.EOF
	}
	if err := checkCancelled(ctx); err != nil {
		return Section{}, err
	}

	if !s.primed {
		if err := s.prime(ctx); err != nil {
			return Section{}, err
		}
		s.primed = true
	}

	for {
		if err := checkCancelled(ctx); err != nil {
			return Section{}, err
		}

		if len(s.lookahead) == 0 {
			s.done = true
			if s.open != nil {
				sec := s.open.finalize()
				s.open = nil
				return sec, nil
			}
			return Section{}, io.EOF
		}

		candidate := s.lookahead[0]
		s.lookahead = s.lookahead[1:]

		if !s.sourceDone {
			next, err := s.nextEmbeddedChunk(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					s.sourceDone = true
				} else {
					return Section{}, err
				}
			} else {
				s.lookahead = append(s.lookahead, next)
			}
		}

		if s.open == nil {
			s.open = newOpenSection(candidate)
			continue
		}

		sim, err := Cosine(candidate.embedding, s.open.centroid)
		if err != nil {
			return Section{}, err
		}

		threshold, err := s.splitThreshold()
		if err != nil {
			return Section{}, err
		}

		budgetExceeded := s.open.tokenSum+candidate.chunk.TokenCount > s.config.MaxTokensPerSection
		shouldSplit := budgetExceeded
		if !shouldSplit && sim < threshold && s.minimumsSatisfied(candidate) {
			shouldSplit = true
		}

		if shouldSplit {
			sec := s.open.finalize()
			s.open = newOpenSection(candidate)
			s.logger.Debug("sectioner split", "sectionId", sec.ID, "similarity", sim, "threshold", threshold, "budgetExceeded", budgetExceeded)
			return sec, nil
		}

		if err := s.open.append(candidate); err != nil {
			return Section{}, err
		}
	}
}

func (s *Sectioner) prime(ctx context.Context) error {
	for i := 0; i < s.config.LookaheadBufferSize; i++ {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		ec, err := s.nextEmbeddedChunk(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.sourceDone = true
				return nil
			}
			return err
		}
		s.lookahead = append(s.lookahead, ec)
	}
	return nil
}

func (s *Sectioner) nextEmbeddedChunk(ctx context.Context) (embeddedChunk, error) {
	chunk, err := s.chunker.Next(ctx)
	if err != nil {
		return embeddedChunk{}, err
	}
	if chunk.TokenCount > s.chunker.maxTokens {
		s.logger.Debug("degenerate over-budget chunk", "tokenCount", chunk.TokenCount, "maxTokensPerChunk", s.chunker.maxTokens)
	}
	vec, err := s.embedder.Embed(ctx, chunk.Content)
	if err != nil {
		return embeddedChunk{}, &EmbeddingError{Err: err}
	}
	if len(vec) == 0 {
		return embeddedChunk{}, ErrNullArgument
	}
	return embeddedChunk{chunk: chunk, embedding: vec}, nil
}

// splitThreshold computes the similarity value below which the sectioner
// considers closing the open section.
func (s *Sectioner) splitThreshold() (float64, error) {
	samples := make([]float64, 0, len(s.lookahead)+len(s.open.chunks))
	for _, ec := range s.lookahead {
		sim, err := Cosine(ec.embedding, s.open.centroid)
		if err != nil {
			return 0, err
		}
		samples = append(samples, sim)
	}
	if len(samples) < 5 {
		for _, ec := range s.open.chunks {
			sim, err := Cosine(ec.embedding, s.open.centroid)
			if err != nil {
				return 0, err
			}
			samples = append(samples, sim)
		}
	}

	base := s.config.MinSimilarityThreshold
	if len(samples) >= 3 {
		mean := Mean(samples)
		stddev := StdDev(samples, false)
		statistical := mean - s.config.StdDevMultiplier*stddev
		base = math.Max(s.config.MinSimilarityThreshold, statistical)
	}

	threshold := base
	ratio := float64(s.open.tokenSum) / float64(s.config.MaxTokensPerSection)
	if ratio >= s.config.TokenStrictnessThreshold {
		excess := (ratio - s.config.TokenStrictnessThreshold) / (1 - s.config.TokenStrictnessThreshold)
		multiplier := 1 + 0.5*excess*excess
		threshold = base * multiplier
	}

	if threshold < s.config.MinSimilarityThreshold {
		threshold = s.config.MinSimilarityThreshold
	}
	if threshold > 0.95 {
		threshold = 0.95
	}
	return threshold, nil
}

// minimumsSatisfied guards a similarity-driven split behind the configured
// minimum chunk count and token count for the open section.
func (s *Sectioner) minimumsSatisfied(candidate embeddedChunk) bool {
	if len(s.open.chunks) < s.config.MinChunksPerSection {
		return false
	}
	if s.open.tokenSum < s.config.MinTokensPerSection {
		return false
	}

	// Stop-signal softening: a stop-signal candidate needs 1.5x the minimum tokens behind a short open section.
	if len(s.config.StopSignals) > 0 && len(s.open.chunks) <= 2 {
		candidateIsStop := hasAnyPrefix(candidate.chunk.Content, s.config.StopSignals)
		lastIsStop := s.open.lastBeginsWithStopSignal(s.config.StopSignals)
		if candidateIsStop && !lastIsStop {
			if float64(s.open.tokenSum) < 1.5*float64(s.config.MinTokensPerSection) {
				return false
			}
		}
	}

	return true
}
