package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Batch    BatchConfig    `yaml:"batch"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
}

// LLMConfig holds completion-backend configuration
type LLMConfig struct {
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// PipelineConfig holds the knobs of the summarization pipeline
type PipelineConfig struct {
	MaxRetries        int           `yaml:"max_retries"`
	MaxParallelChunks int           `yaml:"max_parallel_chunks"`
	ChunkMaxWords     int           `yaml:"chunk_max_words"`
	MergeBudgetWords  int           `yaml:"merge_budget_words"`
	MaxMergeFanIn     int           `yaml:"max_merge_fan_in"`
	MaxReductionDepth int           `yaml:"max_reduction_depth"`
	DocumentTimeout   time.Duration `yaml:"document_timeout"`
	ValidateOutput    bool          `yaml:"validate_output"`
	EnableCache       bool          `yaml:"enable_cache"`
}

// BatchConfig holds document-level processing configuration
type BatchConfig struct {
	MaxParallelDocs int `yaml:"max_parallel_docs"`
}

// CacheConfig holds cache-layer configuration
type CacheConfig struct {
	Path string `yaml:"path"` // SQLite file; empty means in-memory LRU
	Size int    `yaml:"size"` // LRU capacity
}

// DatabaseConfig holds the optional summary-archive configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxRetries:        getEnvAsInt("PIPELINE_MAX_RETRIES", 3),
			MaxParallelChunks: getEnvAsInt("PIPELINE_MAX_PARALLEL_CHUNKS", 5),
			ChunkMaxWords:     getEnvAsInt("PIPELINE_CHUNK_MAX_WORDS", 3000),
			MergeBudgetWords:  getEnvAsInt("PIPELINE_MERGE_BUDGET_WORDS", 2000),
			MaxMergeFanIn:     getEnvAsInt("PIPELINE_MAX_MERGE_FAN_IN", 5),
			MaxReductionDepth: getEnvAsInt("PIPELINE_MAX_REDUCTION_DEPTH", 5),
			DocumentTimeout:   getEnvAsDuration("PIPELINE_DOCUMENT_TIMEOUT", 10*time.Minute),
			ValidateOutput:    getEnvAsBool("PIPELINE_VALIDATE_OUTPUT", true),
			EnableCache:       getEnvAsBool("PIPELINE_ENABLE_CACHE", true),
		},
		Batch: BatchConfig{
			MaxParallelDocs: getEnvAsInt("BATCH_MAX_PARALLEL_DOCS", 3),
		},
		Cache: CacheConfig{
			Path: getEnv("CACHE_PATH", ""),
			Size: getEnvAsInt("CACHE_SIZE", 512),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
	}
}

// ApplyFile overlays a YAML config file on top of the env-derived config.
// Missing file is not an error when optional is true.
func (c *Config) ApplyFile(path string, optional bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "model must not be empty", ErrInvalidInput)
	}
	if c.Pipeline.ChunkMaxWords <= 0 {
		return NewAppError("CONFIG_ERROR", "chunk_max_words must be positive", ErrInvalidInput)
	}
	if c.Pipeline.MaxParallelChunks <= 0 {
		return NewAppError("CONFIG_ERROR", "max_parallel_chunks must be positive", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
