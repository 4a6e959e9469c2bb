// Package chunking splits large documents into bounded-size segments on
// paragraph boundaries so each segment fits within a model's usable context.
package chunking

import "strings"

// DefaultMaxSize is the segment size budget used when callers pass a
// non-positive max size.
const DefaultMaxSize = 8000

// Split breaks text into segments of at most maxSize bytes, packing whole
// paragraphs (blank-line delimited) greedily into each segment. Segments are
// trimmed of leading and trailing whitespace. A single paragraph longer than
// maxSize is kept intact as an oversized segment rather than split mid-text.
//
// Split is a pure function: the same input always yields the same segments,
// and every paragraph of the input appears in exactly one segment, in order.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if len(text) <= maxSize {
		return []string{strings.TrimSpace(text)}
	}

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		if segment := strings.TrimSpace(current.String()); segment != "" {
			chunks = append(chunks, segment)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		// The +2 accounts for the re-inserted paragraph separator.
		if current.Len()+len(para)+2 > maxSize {
			flush()
		}
		current.WriteString(para)
		current.WriteString("\n\n")
	}
	flush()

	return chunks
}
