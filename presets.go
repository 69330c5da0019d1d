package knowledgebase

// SplitterPreset bundles a SegmentSplitter break-string list with the
// stop-signal list the ChunkAssembler should use alongside it.
type SplitterPreset struct {
	Breaks      []string
	StopSignals []string
}

// MarkdownPreset returns the break-string and stop-signal lists for
// Markdown documents.
//
// Heading breaks are written with a leading "\n\n" so a heading marker is
// swallowed into the end of the preceding segment, the way separators are
// retained by the segment that ends with them — this is what lets the
// longest-match rule actually bite (a blank line followed by "# " must
// out-match a blank line alone). List markers deliberately do NOT get a
// compound break: only the bare "\n" is used between list items, so a
// following list item's segment legitimately starts with its own marker and
// can be recognized as a stop signal.
func MarkdownPreset() SplitterPreset {
	return SplitterPreset{
		Breaks: []string{
			"\n\n###### ",
			"\n\n##### ",
			"\n\n#### ",
			"\n\n### ",
			"\n\n## ",
			"\n\n# ",
			"\n\n",
			"\n",
			". ",
			"! ",
			"? ",
		},
		StopSignals: []string{
			"# ", "## ", "### ", "#### ", "##### ", "###### ",
			"- ", "* ",
			"1. ", "2. ", "3. ", "4. ", "5. ", "6. ", "7. ", "8. ", "9. ",
		},
	}
}

// CustomPreset builds a preset from an explicit break-string list with no
// stop signals. Use WithStopSignals to attach some.
func CustomPreset(breaks []string) SplitterPreset {
	return SplitterPreset{Breaks: append([]string(nil), breaks...)}
}

// WithStopSignals returns a copy of p with its stop-signal list replaced.
func (p SplitterPreset) WithStopSignals(stopSignals []string) SplitterPreset {
	p.StopSignals = append([]string(nil), stopSignals...)
	return p
}
