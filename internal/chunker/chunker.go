package chunker

import (
	"fmt"
	"unicode"
)

// Defaults mirror the provider's comfortable input size for one section prompt.
const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 100
)

// separators are tried in priority order. Separators on the same level
// compete on position: the one closest to the size limit wins.
var separators = [][]string{
	{"\n\n"},
	{"\n"},
	{". ", "! ", "? "},
	{" "},
}

// Span is a half-open range of rune offsets into the source text.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in characters.
func (s Span) Len() int { return s.End - s.Start }

// Chunk is one piece of a document plus its position at split time.
type Chunk struct {
	Text    string
	Ordinal int // zero-based
	Total   int
}

// Label renders the one-based "part of" position used in prompts.
func (c Chunk) Label() string {
	return fmt.Sprintf("%d/%d", c.Ordinal+1, c.Total)
}

// Split breaks text into chunks of at most maxChunkSize characters. Adjacent
// chunks share up to overlap characters. Chunks are exact substrings of text.
func Split(text string, maxChunkSize, overlap int) []string {
	runes := []rune(text)
	spans := spans(runes, maxChunkSize, overlap)
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = string(runes[s.Start:s.End])
	}
	return out
}

// Spans returns the rune ranges Split would cut text into.
func Spans(text string, maxChunkSize, overlap int) []Span {
	return spans([]rune(text), maxChunkSize, overlap)
}

// Number attaches ordinal/total metadata to parts in order.
func Number(parts []string) []Chunk {
	out := make([]Chunk, len(parts))
	for i, p := range parts {
		out[i] = Chunk{Text: p, Ordinal: i, Total: len(parts)}
	}
	return out
}

func normalize(size, overlap int) (int, int) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return size, overlap
}

func spans(runes []rune, size, overlap int) []Span {
	size, overlap = normalize(size, overlap)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var out []Span
	start, prevEnd := 0, 0
	for {
		if n-start <= size {
			return append(out, Span{Start: start, End: n})
		}
		// Each chunk must end past the previous one so the loop always advances.
		end := findCut(runes, start, max(start, prevEnd), start+size, 0)
		out = append(out, Span{Start: start, End: end})
		prevEnd = end
		start = nextStart(runes, start, end, overlap)
	}
}

// findCut picks the chunk end in (lo, hi], preferring the highest-priority
// separator and, within a level, the position closest to hi. Falls back to a
// hard cut at hi when no separator fits.
func findCut(runes []rune, start, lo, hi, level int) int {
	if level == len(separators) {
		return hi
	}
	best := -1
	for _, sep := range separators[level] {
		if c := lastCut(runes, start, lo, hi, []rune(sep)); c > best {
			best = c
		}
	}
	if best > lo {
		return best
	}
	return findCut(runes, start, lo, hi, level+1)
}

// lastCut returns the largest c in (lo, hi] such that sep ends at c and begins
// at or after start, or -1.
func lastCut(runes []rune, start, lo, hi int, sep []rune) int {
	for c := hi; c > lo; c-- {
		i := c - len(sep)
		if i < start {
			break
		}
		if hasPrefixAt(runes, i, sep) {
			return c
		}
	}
	return -1
}

func hasPrefixAt(runes []rune, i int, sep []rune) bool {
	if i+len(sep) > len(runes) {
		return false
	}
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

// nextStart backs up at most overlap characters from end, then moves forward
// to the next word start so the shared context does not begin mid-word.
func nextStart(runes []rune, start, end, overlap int) int {
	if overlap == 0 {
		return end
	}
	s := max(end-overlap, start+1)
	for i := s; i < end; i++ {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return s
}
