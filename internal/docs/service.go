// Package docs drives whole files and directories through extraction,
// metadata detection and the summarization pipeline.
package docs

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/extract"
	"github.com/pdmoraes/jurisdigest/internal/metadata"
	"github.com/pdmoraes/jurisdigest/internal/summarize"
)

// Summarizer is the pipeline contract the service depends on.
type Summarizer interface {
	SummarizeDocument(ctx context.Context, text string, dt constants.DocType, meta *metadata.Metadata) (*summarize.StructuredSummary, error)
}

// Archiver persists finished summaries. Optional; persistence failures are
// logged and never fail the document.
type Archiver interface {
	SaveSummary(ctx context.Context, filePath string, summary *summarize.StructuredSummary) error
}

type Service struct {
	pipeline        Summarizer
	archiver        Archiver
	logger          *slog.Logger
	maxParallelDocs int
}

type Option func(*Service)

func WithMaxParallelDocs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxParallelDocs = n
		}
	}
}

func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(pipeline Summarizer, opts ...Option) *Service {
	s := &Service{
		pipeline:        pipeline,
		logger:          slog.Default(),
		maxParallelDocs: 3,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ProcessFile runs one file end to end. dt forces the document type; pass
// constants.Outro (or empty) to detect it from the text.
func (s *Service) ProcessFile(ctx context.Context, path string, dt constants.DocType) DocumentResult {
	start := time.Now()
	result := DocumentResult{FilePath: path, Status: constants.StatusError}
	defer func() { result.Elapsed = time.Since(start) }()

	adapter, err := extract.ForPath(path)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}
	ext, err := adapter.Extract(ctx, path)
	if err != nil {
		result.Status = extractionStatus(err)
		result.ErrorMessage = err.Error()
		return result
	}
	result.WordCount = ext.WordCount
	result.PageCount = ext.PageCount

	meta := metadata.Extract(ext.Text)
	if dt == "" || dt == constants.Outro {
		dt = meta.DocType
	}
	result.DocType = dt
	result.Metadata = meta

	summary, err := s.pipeline.SummarizeDocument(ctx, ext.Text, dt, &meta)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}
	result.Summary = summary
	result.Status = summary.Status()

	if s.archiver != nil {
		if err := s.archiver.SaveSummary(ctx, path, summary); err != nil {
			s.logger.Warn("docs.archive.failed", "file", path, "error", err)
		}
	}
	return result
}

// ProcessBatch summarizes the files concurrently, a few documents at a
// time. One failing document never aborts the batch.
func (s *Service) ProcessBatch(ctx context.Context, paths []string) *BatchResult {
	start := time.Now()
	results := make([]DocumentResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallelDocs)
	for i, path := range paths {
		g.Go(func() error {
			s.logger.Info("docs.batch.file", "file", path, "position", i+1, "total", len(paths))
			results[i] = s.ProcessFile(gctx, path, "")
			return nil
		})
	}
	// Workers only return nil; Wait is for completion, not errors.
	_ = g.Wait()

	batch := &BatchResult{Results: results, Elapsed: time.Since(start)}
	s.logger.Info("docs.batch.done", "summary", batch.Summary())
	return batch
}

// DiscoverFiles finds supported documents under dir, sorted for stable
// batch ordering.
func DiscoverFiles(dir string) ([]string, error) {
	supported := make(map[string]bool)
	for _, ext := range extract.SupportedExtensions() {
		supported[ext] = true
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && supported[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func extractionStatus(err error) constants.ProcessingStatus {
	var xerr *extract.Error
	if errors.As(err, &xerr) {
		switch xerr.Kind {
		case extract.KindNoExtractableText, extract.KindTooShort:
			return constants.StatusEmptyContent
		}
	}
	return constants.StatusError
}
