// Package summarize is the document pipeline: split the text into chunks,
// summarize them concurrently through the completion backend, merge the
// partial summaries hierarchically and validate the final structured output.
package summarize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdmoraes/jurisdigest/constants"
)

// Config carries the pipeline knobs. Zero values are replaced by the
// defaults below.
type Config struct {
	Model             string
	Temperature       float32
	MaxRetries        int
	RetryBaseDelay    time.Duration
	MaxParallelChunks int
	ChunkMaxWords     int
	MergeBudgetWords  int
	MaxMergeFanIn     int
	MaxReductionDepth int
	DocumentTimeout   time.Duration
	ValidateOutput    bool
	EnableCache       bool
}

func DefaultConfig() Config {
	return Config{
		Model:             "gpt-4o-mini",
		Temperature:       0.2,
		MaxRetries:        3,
		RetryBaseDelay:    time.Second,
		MaxParallelChunks: 5,
		ChunkMaxWords:     3000,
		MergeBudgetWords:  2000,
		MaxMergeFanIn:     5,
		MaxReductionDepth: 5,
		DocumentTimeout:   10 * time.Minute,
		ValidateOutput:    true,
		EnableCache:       true,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = d.RetryBaseDelay
	}
	if c.MaxParallelChunks <= 0 {
		c.MaxParallelChunks = d.MaxParallelChunks
	}
	if c.ChunkMaxWords <= 0 {
		c.ChunkMaxWords = d.ChunkMaxWords
	}
	if c.MergeBudgetWords <= 0 {
		c.MergeBudgetWords = d.MergeBudgetWords
	}
	if c.MaxMergeFanIn <= 0 {
		c.MaxMergeFanIn = d.MaxMergeFanIn
	}
	if c.MaxReductionDepth <= 0 {
		c.MaxReductionDepth = d.MaxReductionDepth
	}
}

// PartialSummary is one chunk or merge output, tagged with the lowest
// original chunk index it covers so reduction stays deterministic.
type PartialSummary struct {
	ChunkIndex int
	Content    string
	WordCount  int
}

// StructuredSummary is the pipeline's final product. Fingerprint is the
// cache key of the source document (content, type, model), carried so
// downstream stores key by the same identity.
type StructuredSummary struct {
	DocType      constants.DocType `json:"doc_type"`
	Model        string            `json:"model"`
	Fingerprint  string            `json:"fingerprint"`
	Fields       map[string]any    `json:"fields"`
	Warnings     []string          `json:"warnings,omitempty"`
	ChunkCount   int               `json:"chunk_count"`
	FailedChunks []int             `json:"failed_chunks,omitempty"`
	Raw          json.RawMessage   `json:"raw"`
	FromCache    bool              `json:"from_cache,omitempty"`
}

// Partial reports whether some chunks failed and the summary covers only
// the surviving ones.
func (s *StructuredSummary) Partial() bool { return len(s.FailedChunks) > 0 }

func (s *StructuredSummary) Status() constants.ProcessingStatus {
	if s.Partial() {
		return constants.StatusPartial
	}
	return constants.StatusSuccess
}

// ReductionDepthExceededError means the merge hierarchy did not converge
// within the configured depth. In practice this signals a misconfigured
// budget/fan-in pair, not document size.
type ReductionDepthExceededError struct {
	Depth int
	Limit int
}

func (e *ReductionDepthExceededError) Error() string {
	return fmt.Sprintf("summarize: reduction did not converge after %d levels (limit %d)", e.Depth, e.Limit)
}

// DocumentTimeoutError means the whole-document deadline expired. The
// document is discarded; partial work is not kept.
type DocumentTimeoutError struct {
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *DocumentTimeoutError) Error() string {
	return fmt.Sprintf("summarize: document timed out after %s (limit %s)", e.Elapsed.Round(time.Millisecond), e.Limit)
}

// AllChunksFailedError means no chunk produced a usable partial summary.
type AllChunksFailedError struct {
	ChunkCount int
	Cause      error
}

func (e *AllChunksFailedError) Error() string {
	return fmt.Sprintf("summarize: all %d chunks failed: %v", e.ChunkCount, e.Cause)
}

func (e *AllChunksFailedError) Unwrap() error { return e.Cause }
