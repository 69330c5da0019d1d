package knowledgebase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func collectSegments(t *testing.T, s *SegmentSplitter) []string {
	t.Helper()
	var segments []string
	for {
		seg, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		segments = append(segments, seg)
	}
	return segments
}

func TestSegmentSplitterRoundTrip(t *testing.T) {
	input := "# Test Heading\n\nThis is paragraph one.\n\nThis two.\n\nThis three."
	preset := MarkdownPreset()
	splitter := NewSegmentSplitter(strings.NewReader(input), preset.Breaks)

	segments := collectSegments(t, splitter)
	if got := strings.Join(segments, ""); got != input {
		t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", got, input)
	}
}

func TestSegmentSplitterEmptyInput(t *testing.T) {
	splitter := NewSegmentSplitter(strings.NewReader(""), MarkdownPreset().Breaks)
	_, err := splitter.Next(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestSegmentSplitterLongestMatchWinsOnHeading(t *testing.T) {
	input := "Intro.\n\n## Subheading\n\nBody text."
	splitter := NewSegmentSplitter(strings.NewReader(input), MarkdownPreset().Breaks)

	segments := collectSegments(t, splitter)
	if len(segments) == 0 {
		t.Fatal("expected at least one segment")
	}
	if !strings.HasSuffix(segments[0], "\n\n## ") {
		t.Errorf("first segment = %q, want it to end with the longer heading break, not a bare blank line", segments[0])
	}
	if strings.Join(segments, "") != input {
		t.Fatalf("round trip mismatch: %q", strings.Join(segments, ""))
	}
}

func TestSegmentSplitterListMarkersStartFollowingSegment(t *testing.T) {
	input := "# Test List\n\n- First item\n- Second item\n- Third item"
	splitter := NewSegmentSplitter(strings.NewReader(input), MarkdownPreset().Breaks)

	segments := collectSegments(t, splitter)
	if strings.Join(segments, "") != input {
		t.Fatalf("round trip mismatch: %q", strings.Join(segments, ""))
	}

	var listSegments int
	for _, seg := range segments {
		if strings.HasPrefix(seg, "- ") {
			listSegments++
		}
	}
	if listSegments < 3 {
		t.Errorf("expected at least 3 segments starting with a list marker, got %d in %#v", listSegments, segments)
	}
}

func TestSegmentSplitterNoBreaksMatches(t *testing.T) {
	input := "just one long sentence with no configured breaks in it at all"
	splitter := NewSegmentSplitter(strings.NewReader(input), []string{"\n\n"})

	segments := collectSegments(t, splitter)
	if len(segments) != 1 || segments[0] != input {
		t.Fatalf("got %#v, want a single segment equal to the input", segments)
	}
}
