package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/llm"
	"github.com/pdmoraes/jurisdigest/internal/metadata"
)

// completeChunk sends one chunk through the backend with the per-type
// system prompt.
func (p *Pipeline) completeChunk(ctx context.Context, dt constants.DocType, meta *metadata.Metadata, text string) (string, error) {
	out, err := p.completer.Complete(ctx, llm.Request{
		System:      p.builder.BuildChunk(dt, meta),
		User:        text,
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		ForceJSON:   true,
	})
	if err != nil {
		return "", fmt.Errorf("summarize chunk: %w", err)
	}
	return out, nil
}

// completeMerge combines one batch of partial summaries into a single
// partial of the same JSON shape.
func (p *Pipeline) completeMerge(ctx context.Context, dt constants.DocType, batch []PartialSummary) (string, error) {
	var sb strings.Builder
	for i, part := range batch {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "--- TRECHO %d ---\n%s", i+1, part.Content)
	}

	out, err := p.completer.Complete(ctx, llm.Request{
		System:      p.builder.BuildMerge(dt, len(batch)),
		User:        sb.String(),
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		ForceJSON:   true,
	})
	if err != nil {
		return "", fmt.Errorf("merge %d partials: %w", len(batch), err)
	}
	return out, nil
}
