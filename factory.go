package knowledgebase

import (
	"io"
	"log/slog"
)

// NewSectioner wires a character source through a SegmentSplitter and
// ChunkAssembler into a Sectioner, giving callers the whole pipeline behind
// a single iterator. fileID is used only for log correlation; it is never
// embedded in emitted Sections (chunks hold no back-references, and that
// rule extends to files too).
func NewSectioner(
	source io.Reader,
	fileID string,
	tokenizer Tokenizer,
	embedder Embedder,
	chunkingConfig ChunkingConfig,
	sectioningConfig SectioningConfig,
	preset SplitterPreset,
) (*Sectioner, error) {
	if source == nil || tokenizer == nil || embedder == nil {
		return nil, ErrNullArgument
	}
	if len(preset.Breaks) == 0 {
		return nil, &InvalidConfigError{Field: "preset.Breaks", Reason: "must contain at least one break string"}
	}

	chunkStopSignals := chunkingConfig.StopSignals
	if len(chunkStopSignals) == 0 {
		chunkStopSignals = preset.StopSignals
	}
	sectionStopSignals := sectioningConfig.StopSignals
	if len(sectionStopSignals) == 0 {
		sectionStopSignals = preset.StopSignals
	}
	sectioningConfig.StopSignals = sectionStopSignals

	splitter := NewSegmentSplitter(source, preset.Breaks)
	chunker := NewChunkAssembler(splitter, tokenizer, chunkingConfig.MaxTokensPerChunk, chunkStopSignals)

	logger := slog.Default().With(slog.String("fileId", fileID))
	return NewSectionerFromAssembler(chunker, embedder, sectioningConfig, logger)
}
