package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdmoraes/jurisdigest/internal/cache"
	"github.com/pdmoraes/jurisdigest/internal/common"
	"github.com/pdmoraes/jurisdigest/internal/docs"
	"github.com/pdmoraes/jurisdigest/internal/export"
	"github.com/pdmoraes/jurisdigest/internal/llm/openai"
	"github.com/pdmoraes/jurisdigest/internal/repository"
	"github.com/pdmoraes/jurisdigest/internal/summarize"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir     = flag.String("dir", "", "directory with documents to summarize (required)")
		out     = flag.String("out", "", "output XLSX report path (optional, defaults to parent directory)")
		cfgPath = flag.String("config", "jurisdigest.yaml", "optional YAML config file")
		model   = flag.String("model", "", "override the completion model")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "resumos.xlsx")
	}

	// Setup logger
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Load configuration: env first, optional YAML overlay, CLI override last
	cfg := common.LoadConfig()
	if err := cfg.ApplyFile(*cfgPath, true); err != nil {
		logger.Error("failed to load config file", "path", *cfgPath, "error", err)
		os.Exit(1)
	}
	if *model != "" {
		cfg.LLM.Model = *model
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Setup summary cache
	store, err := openCache(cfg, logger)
	if err != nil {
		logger.Error("failed to open cache", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close cache", "error", err)
		}
	}()

	// Setup OpenAI client
	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	logger.Info("OpenAI client initialized", "model", cfg.LLM.Model)

	// Setup pipeline
	pipeline := summarize.New(client, summarize.Config{
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		MaxRetries:        cfg.Pipeline.MaxRetries,
		MaxParallelChunks: cfg.Pipeline.MaxParallelChunks,
		ChunkMaxWords:     cfg.Pipeline.ChunkMaxWords,
		MergeBudgetWords:  cfg.Pipeline.MergeBudgetWords,
		MaxMergeFanIn:     cfg.Pipeline.MaxMergeFanIn,
		MaxReductionDepth: cfg.Pipeline.MaxReductionDepth,
		DocumentTimeout:   cfg.Pipeline.DocumentTimeout,
		ValidateOutput:    cfg.Pipeline.ValidateOutput,
		EnableCache:       cfg.Pipeline.EnableCache,
	}, summarize.WithCache(store), summarize.WithLogger(logger))

	// Wire the optional Postgres archive
	svcOpts := []docs.Option{
		docs.WithLogger(logger),
		docs.WithMaxParallelDocs(cfg.Batch.MaxParallelDocs),
	}
	if cfg.Database.DSN != "" {
		pool, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to archive database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		summariesRepo := repository.NewSummaryRepository(pool, logger)
		if err := summariesRepo.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare archive schema", "error", err)
			os.Exit(1)
		}
		svcOpts = append(svcOpts, docs.WithArchiver(summariesRepo))
	} else {
		logger.Info("DB_URL not configured, summaries will not be archived")
	}

	service := docs.NewService(pipeline, svcOpts...)

	// Discover and process documents
	paths, err := docs.DiscoverFiles(*dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		printError("Error: no supported documents found in %s\n", *dir)
		os.Exit(1)
	}
	logger.Info("starting batch", "dir", *dir, "files", len(paths))

	batch := service.ProcessBatch(ctx, paths)

	// Export the XLSX report
	logger.Info("exporting report", "output", *out)
	xlsxBytes, err := export.NewService(logger).BatchReportXLSX(batch)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Processamento concluído!\n")
	fmt.Printf("- %s\n", batch.Summary())
	fmt.Printf("- Relatório: %s\n", *out)

	if batch.Failed() > 0 {
		os.Exit(1)
	}
}

// openCache picks SQLite when a path is configured, in-memory LRU otherwise.
func openCache(cfg *common.Config, logger *slog.Logger) (cache.Store, error) {
	if cfg.Cache.Path != "" {
		logger.Info("using sqlite summary cache", "path", cfg.Cache.Path)
		return cache.NewSQLiteStore(cfg.Cache.Path)
	}
	return cache.NewLRUStore(cfg.Cache.Size)
}
