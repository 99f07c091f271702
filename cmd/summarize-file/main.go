// summarize-file runs one document through the pipeline and prints the
// structured summary as JSON on stdout. Useful for smoke tests and shell
// pipelines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/common"
	"github.com/pdmoraes/jurisdigest/internal/docs"
	"github.com/pdmoraes/jurisdigest/internal/llm/openai"
	"github.com/pdmoraes/jurisdigest/internal/summarize"
)

func main() {
	var (
		file    = flag.String("file", "", "document to summarize (required)")
		docType = flag.String("type", "", "force document type (peticao|sentenca|acordao|despacho); detected when empty")
		model   = flag.String("model", "", "override the completion model")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	// Logs go to stderr so stdout stays clean JSON.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *model != "" {
		cfg.LLM.Model = *model
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	forced := constants.DocType("")
	if *docType != "" {
		dt, ok := constants.ParseDocType(*docType)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown document type %q\n", *docType)
			os.Exit(1)
		}
		forced = dt
	}

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

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
		EnableCache:       false,
	}, summarize.WithLogger(logger))

	service := docs.NewService(pipeline, docs.WithLogger(logger))
	result := service.ProcessFile(context.Background(), *file, forced)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}

	if result.Status == constants.StatusError || result.Status == constants.StatusEmptyContent {
		os.Exit(1)
	}
}
