// Package chunk splits normalized document text into bounded-size segments
// along paragraph boundaries, preserving order.
package chunk

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyInput is returned when the input has zero words. Upstream rejects
// short documents before the pipeline, so this is a defensive check.
var ErrEmptyInput = errors.New("chunk: empty input")

// Chunk is a contiguous slice of the document. Indices are contiguous and
// 0-based; concatenating chunks in index order reconstructs the input modulo
// boundary whitespace.
type Chunk struct {
	Index     int
	Text      string
	WordCount int
}

var paragraphSep = regexp.MustCompile(`\n\s*\n`)

// Split walks the text paragraph by paragraph (blank-line delimited) and
// accumulates paragraphs into chunks of at most maxWords words. A single
// paragraph larger than maxWords is emitted as its own oversized chunk
// rather than broken mid-sentence.
func Split(text string, maxWords int) ([]Chunk, error) {
	if maxWords <= 0 {
		maxWords = 3000
	}

	paragraphs := paragraphSep.Split(text, -1)

	var (
		chunks  []Chunk
		current []string
		words   int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(current, "\n\n")
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			Text:      joined,
			WordCount: words,
		})
		current = nil
		words = 0
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		n := len(strings.Fields(para))

		if words+n > maxWords && len(current) > 0 {
			flush()
		}
		current = append(current, para)
		words += n

		// Oversized single paragraph: close immediately so it stands alone.
		if len(current) == 1 && words > maxWords {
			flush()
		}
	}
	flush()

	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}
	return chunks, nil
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
