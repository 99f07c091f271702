package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/cache"
	"github.com/pdmoraes/jurisdigest/internal/llm"
	"github.com/pdmoraes/jurisdigest/internal/validate"
)

// fakeCompleter scripts backend behavior per call and records every request.
type fakeCompleter struct {
	mu    sync.Mutex
	calls []llm.Request
	fn    func(req llm.Request, call int) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.fn(req, call)
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func isMergeRequest(req llm.Request) bool {
	return strings.Contains(req.System, "trechos")
}

const goodSummary = `{"resumo_executivo": "Resumo detalhado do documento processual analisado, cobrindo as partes envolvidas, os fatos narrados na inicial, a fundamentação jurídica apresentada e o desfecho registrado nos autos do processo."}`

// paragraphs builds n blank-line-separated paragraphs of wordsEach words.
func paragraphs(n, wordsEach int) string {
	var parts []string
	for i := 0; i < n; i++ {
		words := make([]string, wordsEach)
		for j := range words {
			words[j] = fmt.Sprintf("palavra%d-%d", i, j)
		}
		parts = append(parts, strings.Join(words, " "))
	}
	return strings.Join(parts, "\n\n")
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ChunkMaxWords = 12
	cfg.RetryBaseDelay = time.Millisecond
	cfg.DocumentTimeout = 0
	return cfg
}

func TestSummarizeDocumentSingleChunk(t *testing.T) {
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		return goodSummary, nil
	}}
	p := New(fake, testConfig())

	summary, err := p.SummarizeDocument(context.Background(), paragraphs(1, 10), constants.Outro, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Status() != constants.StatusSuccess {
		t.Errorf("status = %s, want SUCCESS", summary.Status())
	}
	if summary.ChunkCount != 1 || len(summary.FailedChunks) != 0 {
		t.Errorf("chunk accounting wrong: %+v", summary)
	}
	if _, ok := summary.Fields[constants.ExecutiveSummaryField]; !ok {
		t.Errorf("validated fields missing executive summary: %v", summary.Fields)
	}
	// One chunk means no merge call.
	if got := fake.callCount(); got != 1 {
		t.Errorf("backend calls = %d, want 1", got)
	}
}

func TestSummarizeDocumentMultiChunkMerges(t *testing.T) {
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		return goodSummary, nil
	}}
	p := New(fake, testConfig())

	summary, err := p.SummarizeDocument(context.Background(), paragraphs(3, 12), constants.Outro, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ChunkCount != 3 {
		t.Fatalf("chunk count = %d, want 3", summary.ChunkCount)
	}

	merges := 0
	for _, req := range fake.calls {
		if isMergeRequest(req) {
			merges++
		}
	}
	if got := fake.callCount(); got != 4 {
		t.Errorf("backend calls = %d, want 3 chunks + 1 merge", got)
	}
	if merges != 1 {
		t.Errorf("merge calls = %d, want 1", merges)
	}
}

func TestSummarizeDocumentCacheHit(t *testing.T) {
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		return goodSummary, nil
	}}
	store, err := cache.NewLRUStore(8)
	if err != nil {
		t.Fatal(err)
	}
	p := New(fake, testConfig(), WithCache(store))

	text := paragraphs(1, 10)
	first, err := p.SummarizeDocument(context.Background(), text, constants.Outro, nil)
	if err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := fake.callCount()

	second, err := p.SummarizeDocument(context.Background(), text, constants.Outro, nil)
	if err != nil {
		t.Fatal(err)
	}
	if fake.callCount() != callsAfterFirst {
		t.Errorf("cache hit must not call the backend")
	}
	if !second.FromCache || first.FromCache {
		t.Errorf("FromCache flags wrong: first=%v second=%v", first.FromCache, second.FromCache)
	}
	if second.Fields[constants.ExecutiveSummaryField] != first.Fields[constants.ExecutiveSummaryField] {
		t.Errorf("cached summary differs from original")
	}
}

func TestSummarizeDocumentTransientRetryThenSuccess(t *testing.T) {
	var failedOnce sync.Map
	fake := &fakeCompleter{fn: func(req llm.Request, call int) (string, error) {
		if _, done := failedOnce.LoadOrStore(req.User, true); !done && !isMergeRequest(req) {
			return "", llm.NewTransientError(429, "rate limited", nil)
		}
		return goodSummary, nil
	}}
	p := New(fake, testConfig())

	summary, err := p.SummarizeDocument(context.Background(), paragraphs(2, 12), constants.Outro, nil)
	if err != nil {
		t.Fatalf("retryable failures must not surface: %v", err)
	}
	if summary.Status() != constants.StatusSuccess {
		t.Errorf("status = %s, want SUCCESS after retries", summary.Status())
	}
}

func TestSummarizeDocumentPartialOnExhaustedChunk(t *testing.T) {
	// Chunk index 1 always fails fatally; the rest succeed.
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		if !isMergeRequest(req) && strings.Contains(req.User, "palavra1-0") {
			return "", llm.NewFatalError(400, "content rejected", nil)
		}
		return goodSummary, nil
	}}
	store, _ := cache.NewLRUStore(8)
	p := New(fake, testConfig(), WithCache(store))

	text := paragraphs(3, 12)
	summary, err := p.SummarizeDocument(context.Background(), text, constants.Outro, nil)
	if err != nil {
		t.Fatalf("partial coverage must still produce a summary: %v", err)
	}
	if summary.Status() != constants.StatusPartial {
		t.Errorf("status = %s, want PARTIAL", summary.Status())
	}
	if len(summary.FailedChunks) != 1 || summary.FailedChunks[0] != 1 {
		t.Errorf("failed chunks = %v, want [1]", summary.FailedChunks)
	}

	// Partial summaries are never cached.
	fp := cache.NewFingerprint(text, constants.Outro, p.cfg.Model)
	if _, ok, _ := store.Get(context.Background(), fp); ok {
		t.Errorf("partial summary must not be cached")
	}
}

func TestSummarizeDocumentAllChunksFailed(t *testing.T) {
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		return "", llm.NewFatalError(400, "content rejected", nil)
	}}
	p := New(fake, testConfig())

	_, err := p.SummarizeDocument(context.Background(), paragraphs(2, 12), constants.Outro, nil)
	var allFailed *AllChunksFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllChunksFailedError, got %v", err)
	}
	if allFailed.ChunkCount != 2 {
		t.Errorf("chunk count = %d, want 2", allFailed.ChunkCount)
	}
}

func TestSummarizeDocumentMalformedFinalOutput(t *testing.T) {
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		return "desculpe, não consigo resumir este documento", nil
	}}
	p := New(fake, testConfig())

	_, err := p.SummarizeDocument(context.Background(), paragraphs(1, 10), constants.Outro, nil)
	var malformed *validate.MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedOutputError, got %v", err)
	}
}

func TestSummarizeDocumentTimeout(t *testing.T) {
	// The only attempt fails after the deadline math allows; the retry wait
	// (250ms base) straddles the 50ms document deadline, so the run ends in
	// the backoff select and the whole document is discarded.
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "", llm.NewTransientError(429, "rate limited", nil)
	}}
	cfg := testConfig()
	cfg.DocumentTimeout = 50 * time.Millisecond
	cfg.RetryBaseDelay = 250 * time.Millisecond

	summary, err := New(fake, cfg).SummarizeDocument(context.Background(), paragraphs(1, 10), constants.Outro, nil)
	var timeoutErr *DocumentTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected DocumentTimeoutError, got %v", err)
	}
	if timeoutErr.Limit != cfg.DocumentTimeout {
		t.Errorf("limit = %s, want %s", timeoutErr.Limit, cfg.DocumentTimeout)
	}
	if summary != nil {
		t.Errorf("timed-out document must not keep partial results: %+v", summary)
	}
}

func TestSummarizeDocumentEmitsProgressEvents(t *testing.T) {
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		return goodSummary, nil
	}}
	events := make(chan Event, 64)
	p := New(fake, testConfig(), WithEvents(events))

	if _, err := p.SummarizeDocument(context.Background(), paragraphs(3, 12), constants.Outro, nil); err != nil {
		t.Fatal(err)
	}
	close(events)

	counts := make(map[Stage]int)
	runIDs := make(map[string]bool)
	for ev := range events {
		counts[ev.Stage]++
		runIDs[ev.RunID] = true
	}
	if counts[StageChunking] != 1 || counts[StageDone] != 1 || counts[StageValidate] != 1 {
		t.Errorf("stage counts wrong: %v", counts)
	}
	if counts[StageChunkSummary] != 3 {
		t.Errorf("chunk events = %d, want one per chunk", counts[StageChunkSummary])
	}
	if counts[StageReduce] < 1 {
		t.Errorf("expected at least one reduce-level event: %v", counts)
	}
	if len(runIDs) != 1 {
		t.Errorf("all events of a run must share one run id, got %d", len(runIDs))
	}
}

func TestSummarizeDocumentEventsNeverBlock(t *testing.T) {
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		return goodSummary, nil
	}}
	// Unbuffered channel with no reader: every send would block forever if
	// emission were not best-effort.
	events := make(chan Event)
	p := New(fake, testConfig(), WithEvents(events))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.SummarizeDocument(context.Background(), paragraphs(3, 12), constants.Outro, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline stalled on a full event channel")
	}
}

func TestSummarizeDocumentFingerprintMatchesCacheKey(t *testing.T) {
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		return goodSummary, nil
	}}
	cfg := testConfig()
	p := New(fake, cfg)

	text := paragraphs(1, 10)
	summary, err := p.SummarizeDocument(context.Background(), text, constants.Outro, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := cache.NewFingerprint(text, constants.Outro, cfg.Model).String()
	if summary.Fingerprint != want {
		t.Errorf("fingerprint = %s, want the content cache key %s", summary.Fingerprint, want)
	}
}

func TestSummarizeDocumentEmptyText(t *testing.T) {
	fake := &fakeCompleter{fn: func(req llm.Request, _ int) (string, error) {
		t.Fatal("backend must not be called for empty input")
		return "", nil
	}}
	p := New(fake, testConfig())

	if _, err := p.SummarizeDocument(context.Background(), "   \n\n  ", constants.Outro, nil); err == nil {
		t.Fatal("expected error for empty document")
	}
}
