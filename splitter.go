package knowledgebase

import (
	"bufio"
	"context"
	"io"
	"sort"
)

// SegmentSplitter streams runes from a reader and emits segments delimited
// by the longest matching break string from a preference-ordered set,
// carrying unconsumed runes forward in an internal push-back buffer.
type SegmentSplitter struct {
	r       *bufio.Reader
	breaks  []string
	pending []rune
	eof     bool
}

// NewSegmentSplitter constructs a SegmentSplitter over r using breakStrings
// as the separator set. Break strings are sorted by descending length so
// the longest match always wins ties on shared prefixes.
func NewSegmentSplitter(r io.Reader, breakStrings []string) *SegmentSplitter {
	breaks := make([]string, 0, len(breakStrings))
	for _, b := range breakStrings {
		if b != "" {
			breaks = append(breaks, b)
		}
	}
	sort.Slice(breaks, func(i, j int) bool { return len(breaks[i]) > len(breaks[j]) })

	return &SegmentSplitter{
		r:      bufio.NewReader(r),
		breaks: breaks,
	}
}

// Next returns the next segment, or io.EOF once the stream and any
// remaining buffered content are exhausted.
func (s *SegmentSplitter) Next(ctx context.Context) (string, error) {
	if s.eof && len(s.pending) == 0 {
		return "", io.EOF
	}
	if err := checkCancelled(ctx); err != nil {
		return "", err
	}

	buf := append([]rune(nil), s.pending...)
	s.pending = s.pending[:0]

	bestLen := 0
	bestAt := 0
	if m := s.longestSuffixMatch(buf); m > 0 {
		bestLen = m
		bestAt = len(buf)
	}

	for {
		ch, _, err := s.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				s.eof = true
				if len(buf) == 0 {
					return "", io.EOF
				}
				if bestLen > 0 && bestAt < len(buf) {
					s.pending = append(s.pending, buf[bestAt:]...)
					return string(buf[:bestAt]), nil
				}
				return string(buf), nil
			}
			return "", &SourceIOError{Err: err}
		}
		if cerr := checkCancelled(ctx); cerr != nil {
			return "", cerr
		}

		buf = append(buf, ch)
		m := s.longestSuffixMatch(buf)

		if m > bestLen {
			bestLen = m
			bestAt = len(buf)
			continue
		}
		if bestLen == 0 {
			continue
		}
		if s.viableContinuation(buf, bestAt-bestLen) {
			continue
		}

		segment := string(buf[:bestAt])
		s.pending = append(s.pending, buf[bestAt:]...)
		return segment, nil
	}
}

// longestSuffixMatch returns the length of the longest break string that is
// an exact suffix of buf, or 0 if none match.
func (s *SegmentSplitter) longestSuffixMatch(buf []rune) int {
	for _, b := range s.breaks {
		rb := []rune(b)
		if len(rb) > len(buf) {
			continue
		}
		if runesEqual(buf[len(buf)-len(rb):], rb) {
			return len(rb)
		}
	}
	return 0
}

// viableContinuation reports whether the runes from matchStart (where the
// current best match begins) to the end of buf are a strict prefix of some
// longer break string, meaning more characters could still extend that
// match.
func (s *SegmentSplitter) viableContinuation(buf []rune, matchStart int) bool {
	tail := buf[matchStart:]
	for _, b := range s.breaks {
		rb := []rune(b)
		if len(rb) > len(tail) && runesEqual(tail, rb[:len(tail)]) {
			return true
		}
	}
	return false
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
