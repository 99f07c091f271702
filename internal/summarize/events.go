package summarize

// Stage identifies a pipeline phase in progress events.
type Stage string

const (
	StageChunking     Stage = "chunking"
	StageChunkSummary Stage = "chunk_summary"
	StageReduce       Stage = "reduce"
	StageValidate     Stage = "validate"
	StageCacheHit     Stage = "cache_hit"
	StageDone         Stage = "done"
)

// Event is a progress notification. Index/Total are stage-relative: chunk
// number during summarization, merge level during reduction.
type Event struct {
	RunID string
	Stage Stage
	Index int
	Total int
	Err   error
}

// emit never blocks; a slow listener loses events rather than stalling the
// pipeline.
func (p *Pipeline) emit(runID string, stage Stage, index, total int, err error) {
	if p.events == nil {
		return
	}
	select {
	case p.events <- Event{RunID: runID, Stage: stage, Index: index, Total: total, Err: err}:
	default:
	}
}
