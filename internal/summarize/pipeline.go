package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/cache"
	"github.com/pdmoraes/jurisdigest/internal/chunk"
	"github.com/pdmoraes/jurisdigest/internal/executor"
	"github.com/pdmoraes/jurisdigest/internal/llm"
	"github.com/pdmoraes/jurisdigest/internal/metadata"
	"github.com/pdmoraes/jurisdigest/internal/prompt"
	"github.com/pdmoraes/jurisdigest/internal/validate"
)

// Pipeline orchestrates chunking, concurrent summarization, hierarchical
// reduction, validation and caching for one document at a time. It is safe
// for concurrent use across documents.
type Pipeline struct {
	completer llm.Completer
	builder   *prompt.Builder
	store     cache.Store
	logger    *slog.Logger
	cfg       Config
	events    chan<- Event
}

type Option func(*Pipeline)

// WithCache enables fingerprint-keyed reuse of final summaries.
func WithCache(store cache.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithEvents streams progress events to ch. Sends never block.
func WithEvents(ch chan<- Event) Option {
	return func(p *Pipeline) { p.events = ch }
}

func New(completer llm.Completer, cfg Config, opts ...Option) *Pipeline {
	cfg.applyDefaults()
	p := &Pipeline{
		completer: completer,
		builder:   prompt.NewBuilder(),
		logger:    slog.Default(),
		cfg:       cfg,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SummarizeDocument runs the full pipeline over one document text. When some
// chunks fail after retries the summary still covers the surviving chunks
// and lists the failed indices; the result is then marked PARTIAL and never
// cached. A document-level timeout discards the whole document.
func (p *Pipeline) SummarizeDocument(ctx context.Context, text string, dt constants.DocType, meta *metadata.Metadata) (*StructuredSummary, error) {
	runID := uuid.NewString()
	start := time.Now()
	logger := p.logger.With("run_id", runID, "doc_type", dt)

	if p.cfg.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.DocumentTimeout)
		defer cancel()
	}

	fp := cache.NewFingerprint(text, dt, p.cfg.Model)
	if cached, ok := p.cacheGet(ctx, logger, fp); ok {
		p.emit(runID, StageCacheHit, 0, 0, nil)
		return cached, nil
	}

	chunks, err := chunk.Split(text, p.cfg.ChunkMaxWords)
	if err != nil {
		return nil, err
	}
	logger.Info("summarize.start", "chunks", len(chunks), "words", chunk.WordCount(text))
	p.emit(runID, StageChunking, 0, len(chunks), nil)

	exec := executor.New(logger,
		executor.WithMaxParallel(p.cfg.MaxParallelChunks),
		executor.WithMaxRetries(p.cfg.MaxRetries),
		executor.WithBaseDelay(p.cfg.RetryBaseDelay),
	)

	partials, failed, firstErr := p.summarizeChunks(ctx, exec, runID, dt, meta, chunks)
	if len(partials) == 0 {
		if terr := p.timeoutError(ctx, start); terr != nil {
			return nil, terr
		}
		return nil, &AllChunksFailedError{ChunkCount: len(chunks), Cause: firstErr}
	}

	final, err := p.reduce(ctx, exec, runID, dt, partials)
	if err != nil {
		if terr := p.timeoutError(ctx, start); terr != nil {
			return nil, terr
		}
		return nil, fmt.Errorf("reduce partial summaries: %w", err)
	}

	summary := &StructuredSummary{
		DocType:      dt,
		Model:        p.cfg.Model,
		Fingerprint:  fp.String(),
		ChunkCount:   len(chunks),
		FailedChunks: failed,
		Raw:          json.RawMessage(final),
	}

	if p.cfg.ValidateOutput {
		p.emit(runID, StageValidate, 0, 0, nil)
		res, err := validate.Validate(final, dt)
		if err != nil {
			logger.Error("summarize.validate.failed", "error", err)
			return nil, err
		}
		summary.Fields = res.Fields
		summary.Warnings = res.Warnings
		summary.Raw = res.Raw
	}

	if !summary.Partial() {
		p.cachePut(ctx, logger, fp, summary)
	}

	logger.Info("summarize.done",
		"status", summary.Status(),
		"failed_chunks", len(failed),
		"warnings", len(summary.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	p.emit(runID, StageDone, 0, 0, nil)
	return summary, nil
}

// summarizeChunks fans the chunks out through the executor and splits the
// outcome into surviving partials and failed chunk indices.
func (p *Pipeline) summarizeChunks(ctx context.Context, exec *executor.Executor, runID string, dt constants.DocType, meta *metadata.Metadata, chunks []chunk.Chunk) ([]PartialSummary, []int, error) {
	results := exec.Run(ctx, len(chunks), func(taskCtx context.Context, i int) (string, error) {
		out, err := p.completeChunk(taskCtx, dt, meta, chunks[i].Text)
		p.emit(runID, StageChunkSummary, i, len(chunks), err)
		return out, err
	})

	var (
		partials []PartialSummary
		failed   []int
		firstErr error
	)
	for _, r := range results {
		if r.Err != nil {
			p.logger.Warn("summarize.chunk.failed",
				"run_id", runID, "chunk", r.Index, "attempts", r.Attempts, "error", r.Err)
			failed = append(failed, r.Index)
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		partials = append(partials, PartialSummary{
			ChunkIndex: r.Index,
			Content:    r.Output,
			WordCount:  chunk.WordCount(r.Output),
		})
	}
	return partials, failed, firstErr
}

// timeoutError maps a deadline expiry on the per-document context to the
// pipeline's timeout error, with elapsed time for the operator.
func (p *Pipeline) timeoutError(ctx context.Context, start time.Time) error {
	if p.cfg.DocumentTimeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &DocumentTimeoutError{Elapsed: time.Since(start), Limit: p.cfg.DocumentTimeout}
	}
	return nil
}

func (p *Pipeline) cacheGet(ctx context.Context, logger *slog.Logger, fp cache.Fingerprint) (*StructuredSummary, bool) {
	if p.store == nil || !p.cfg.EnableCache {
		return nil, false
	}
	payload, ok, err := p.store.Get(ctx, fp)
	if err != nil {
		// A broken cache degrades to recomputation, never to failure.
		logger.Warn("summarize.cache.get_failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var summary StructuredSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		logger.Warn("summarize.cache.corrupt_entry", "error", err)
		return nil, false
	}
	summary.FromCache = true
	logger.Info("summarize.cache.hit", "fingerprint", fp.String()[:12])
	return &summary, true
}

func (p *Pipeline) cachePut(ctx context.Context, logger *slog.Logger, fp cache.Fingerprint, summary *StructuredSummary) {
	if p.store == nil || !p.cfg.EnableCache {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		logger.Warn("summarize.cache.marshal_failed", "error", err)
		return
	}
	if err := p.store.Put(ctx, fp, payload); err != nil {
		logger.Warn("summarize.cache.put_failed", "error", err)
	}
}
