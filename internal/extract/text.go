package extract

import (
	"context"
	"os"
)

// TextExtractor reads .txt and .md files as-is.
type TextExtractor struct{}

func (TextExtractor) Extract(_ context.Context, path string) (*Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindCorrupted, Path: path, Cause: err}
	}
	return finish(path, string(data), 0)
}
