package docs

import (
	"fmt"
	"time"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/metadata"
	"github.com/pdmoraes/jurisdigest/internal/summarize"
)

// DocumentResult is the per-file outcome of a batch run. A failed file
// carries ErrorMessage and no Summary; a PARTIAL file carries both.
type DocumentResult struct {
	FilePath     string                       `json:"file_path"`
	Status       constants.ProcessingStatus   `json:"status"`
	DocType      constants.DocType            `json:"doc_type,omitempty"`
	Metadata     metadata.Metadata            `json:"metadata,omitempty"`
	Summary      *summarize.StructuredSummary `json:"summary,omitempty"`
	WordCount    int                          `json:"word_count,omitempty"`
	PageCount    int                          `json:"page_count,omitempty"`
	ErrorMessage string                       `json:"error,omitempty"`
	Elapsed      time.Duration                `json:"elapsed"`
}

// BatchResult aggregates one directory run.
type BatchResult struct {
	Results []DocumentResult `json:"results"`
	Elapsed time.Duration    `json:"elapsed"`
}

func (b *BatchResult) count(status constants.ProcessingStatus) int {
	n := 0
	for _, r := range b.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

func (b *BatchResult) Succeeded() int { return b.count(constants.StatusSuccess) }
func (b *BatchResult) Partial() int   { return b.count(constants.StatusPartial) }

func (b *BatchResult) Failed() int {
	return b.count(constants.StatusError) + b.count(constants.StatusEmptyContent)
}

// Summary is a one-line operator report.
func (b *BatchResult) Summary() string {
	return fmt.Sprintf("%d documentos: %d completos, %d parciais, %d com erro (%s)",
		len(b.Results), b.Succeeded(), b.Partial(), b.Failed(), b.Elapsed.Round(time.Second))
}
