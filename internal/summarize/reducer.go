package summarize

import (
	"context"
	"sort"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/chunk"
	"github.com/pdmoraes/jurisdigest/internal/executor"
)

// reduce merges partial summaries level by level until one remains. Each
// level groups consecutive partials into batches bounded by the merge word
// budget and the fan-in cap, merges the batches concurrently, then recurses
// on the merge outputs. Batch boundaries depend only on the ordered inputs,
// never on completion order, so results are reproducible.
func (p *Pipeline) reduce(ctx context.Context, exec *executor.Executor, runID string, dt constants.DocType, partials []PartialSummary) (string, error) {
	sort.Slice(partials, func(i, j int) bool { return partials[i].ChunkIndex < partials[j].ChunkIndex })

	depth := 0
	for len(partials) > 1 {
		if depth >= p.cfg.MaxReductionDepth {
			return "", &ReductionDepthExceededError{Depth: depth, Limit: p.cfg.MaxReductionDepth}
		}
		depth++

		batches := batchByBudget(partials, p.cfg.MergeBudgetWords, p.cfg.MaxMergeFanIn)
		p.logger.Info("summarize.reduce.level",
			"run_id", runID, "level", depth, "partials", len(partials), "batches", len(batches))
		p.emit(runID, StageReduce, depth, len(batches), nil)

		results := exec.Run(ctx, len(batches), func(taskCtx context.Context, i int) (string, error) {
			return p.completeMerge(taskCtx, dt, batches[i])
		})

		merged := make([]PartialSummary, 0, len(batches))
		for i, r := range results {
			if r.Err != nil {
				// A failed merge loses every partial underneath it; unlike a
				// failed chunk there is nothing meaningful to continue with.
				return "", r.Err
			}
			merged = append(merged, PartialSummary{
				ChunkIndex: batches[i][0].ChunkIndex,
				Content:    r.Output,
				WordCount:  chunk.WordCount(r.Output),
			})
		}
		partials = merged
	}

	return partials[0].Content, nil
}

// batchByBudget greedily packs consecutive partials into batches: a batch
// closes when adding the next partial would exceed the word budget or the
// fan-in cap. A single partial over the budget still forms its own batch.
func batchByBudget(partials []PartialSummary, budgetWords, fanIn int) [][]PartialSummary {
	var batches [][]PartialSummary
	var current []PartialSummary
	words := 0

	for _, part := range partials {
		overBudget := len(current) > 0 && words+part.WordCount > budgetWords
		overFanIn := len(current) >= fanIn
		if overBudget || overFanIn {
			batches = append(batches, current)
			current = nil
			words = 0
		}
		current = append(current, part)
		words += part.WordCount
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
