package ingest

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 300
)

// separators are tried in order when looking for a place to cut
var separators = []string{"\n\n", "\n", " "}

// Splitter cuts text into overlapping chunks of at most ChunkSize runes
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func DefaultSplitter() Splitter {
	return Splitter{ChunkSize: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Split prefers to cut after a paragraph break, then a line break, then a
// space, as long as the cut falls in the second half of the window.
// Otherwise it cuts at exactly ChunkSize runes.
func (s Splitter) Split(text string) []string {
	runes := []rune(text)
	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := s.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	add := func(r []rune) {
		if chunk := strings.TrimSpace(string(r)); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			add(runes[start:])
			break
		}

		cut := end
		window := string(runes[start:end])
		for _, sep := range separators {
			i := strings.LastIndex(window, sep)
			if i < 0 {
				continue
			}
			// i is a byte offset into window
			at := len([]rune(window[:i])) + len([]rune(sep))
			if at > size/2 {
				cut = start + at
				break
			}
		}
		add(runes[start:cut])

		next := cut - overlap
		for next > start && next < cut && !unicode.IsSpace(runes[next-1]) {
			next++
		}
		if next <= start || next >= cut {
			next = cut
		}
		start = next
	}
	return chunks
}
