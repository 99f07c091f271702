package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("default model = %q", cfg.LLM.Model)
	}
	if cfg.Pipeline.ChunkMaxWords != 3000 || cfg.Pipeline.MergeBudgetWords != 2000 {
		t.Errorf("pipeline word limits wrong: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.DocumentTimeout != 10*time.Minute {
		t.Errorf("document timeout = %s", cfg.Pipeline.DocumentTimeout)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PIPELINE_MAX_PARALLEL_CHUNKS", "9")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg := LoadConfig()
	if cfg.Pipeline.MaxParallelChunks != 9 {
		t.Errorf("env override ignored: %d", cfg.Pipeline.MaxParallelChunks)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("model override ignored: %q", cfg.LLM.Model)
	}
}

func TestApplyFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "pipeline:\n  chunk_max_words: 1500\nllm:\n  model: gpt-4o\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig()
	if err := cfg.ApplyFile(path, false); err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.ChunkMaxWords != 1500 {
		t.Errorf("yaml overlay ignored: %d", cfg.Pipeline.ChunkMaxWords)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("yaml overlay ignored: %q", cfg.LLM.Model)
	}
	// Untouched keys keep their env/default values.
	if cfg.Pipeline.MergeBudgetWords != 2000 {
		t.Errorf("overlay clobbered unset key: %d", cfg.Pipeline.MergeBudgetWords)
	}
}

func TestApplyFileMissingOptional(t *testing.T) {
	cfg := LoadConfig()
	if err := cfg.ApplyFile("does-not-exist.yaml", true); err != nil {
		t.Errorf("optional missing file must not error: %v", err)
	}
	if err := cfg.ApplyFile("does-not-exist.yaml", false); err == nil {
		t.Errorf("required missing file must error")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("config with api key should validate: %v", err)
	}

	cfg.LLM.APIKey = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("missing api key must fail validation")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("validation error should wrap ErrInvalidInput, got %v", err)
	}
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
		t.Errorf("expected CONFIG_ERROR AppError, got %v", err)
	}
}
