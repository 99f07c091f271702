// Package extract turns source files (plain text, DOCX, PDF) into the
// normalized text the summarization pipeline consumes.
package extract

import (
	"context"
	"fmt"
	"strings"
)

// MinWords is the minimum extracted word count for a document to be worth
// summarizing.
const MinWords = 10

// ErrorKind classifies extraction failures so batch processing can report
// them without string matching.
type ErrorKind string

const (
	KindPasswordProtected ErrorKind = "PASSWORD_PROTECTED"
	KindCorrupted         ErrorKind = "CORRUPTED"
	KindNoExtractableText ErrorKind = "NO_EXTRACTABLE_TEXT"
	KindTooShort          ErrorKind = "TOO_SHORT"
	KindUnsupported       ErrorKind = "UNSUPPORTED_FORMAT"
)

type Error struct {
	Kind  ErrorKind
	Path  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Kind, e.Cause)
	}
	return fmt.Sprintf("extract %s: %s", e.Path, e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Extraction is the normalized output of any extractor.
type Extraction struct {
	Text      string
	WordCount int
	PageCount int
}

// Extractor is one file-format adapter.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Extraction, error)
}

// normalize collapses runs of spaces and tabs inside lines while keeping
// blank lines, which the chunker uses as paragraph boundaries.
func normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// finish validates and packages normalized text.
func finish(path, text string, pages int) (*Extraction, error) {
	text = normalize(text)
	if text == "" {
		return nil, &Error{Kind: KindNoExtractableText, Path: path}
	}
	words := len(strings.Fields(text))
	if words < MinWords {
		return nil, &Error{
			Kind:  KindTooShort,
			Path:  path,
			Cause: fmt.Errorf("%d words, minimum %d", words, MinWords),
		}
	}
	return &Extraction{Text: text, WordCount: words, PageCount: pages}, nil
}
