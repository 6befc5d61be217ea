package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/docqa/internal/pipeline"
)

type Config struct {
	Port string

	// Auth for /api routes. Empty disables auth.
	APIKey string

	// LLM provider (OpenAI-compatible chat completions).
	LLMAPIKey            string
	LLMBaseURL           string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	LLMRequestsPerMinute int
	LLMTimeout           time.Duration

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Summarization retry and batching
	BatchSize     int
	MaxRetries    int
	InitialDelay  time.Duration
	RetryDelay    time.Duration
	BatchCooldown time.Duration

	// Chat
	ChatMaxRetries    int
	ChatTruncateChars int

	// Upload limits
	MaxUploadBytes int64

	// Summary cache
	SummaryCacheTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	LogLevel slog.Level
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCQA_API_KEY"),

		LLMAPIKey:            os.Getenv("GROQ_API_KEY"),
		LLMBaseURL:           envOr("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:             envOr("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMTemperature:       envFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:         envInt("LLM_MAX_TOKENS", 2048),
		LLMRequestsPerMinute: envInt("LLM_REQUESTS_PER_MINUTE", 0),
		LLMTimeout:           envDuration("LLM_TIMEOUT", 120*time.Second),

		ChunkSize:    envInt("CHUNK_SIZE", 2000),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 100),

		BatchSize:     envInt("BATCH_SIZE", 3),
		MaxRetries:    envInt("MAX_RETRIES", 3),
		InitialDelay:  envDuration("INITIAL_DELAY", 1*time.Second),
		RetryDelay:    envDuration("RETRY_DELAY", 2*time.Second),
		BatchCooldown: envDuration("BATCH_COOLDOWN", 2*time.Second),

		ChatMaxRetries:    envInt("CHAT_MAX_RETRIES", 3),
		ChatTruncateChars: envInt("CHAT_TRUNCATE_CHARS", 1500),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		SummaryCacheTTL: envDuration("SUMMARY_CACHE_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = 2048
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 120 * time.Second
	}
	if cfg.ChatTruncateChars <= 0 {
		cfg.ChatTruncateChars = 1500
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be at least 1, got %d", c.BatchSize)
	}
	if c.MaxRetries < 0 || c.ChatMaxRetries < 0 {
		return fmt.Errorf("retry budgets must not be negative")
	}
	return nil
}

// Policy returns the cooldown policy for the summarization pipeline and chat.
func (c Config) Policy() pipeline.Policy {
	return pipeline.Policy{
		InitialDelay:  c.InitialDelay,
		RetryDelay:    c.RetryDelay,
		BatchCooldown: c.BatchCooldown,
	}
}

// PipelineOptions returns the chunking and batching knobs for the pipeline.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		ChunkSize:    c.ChunkSize,
		ChunkOverlap: c.ChunkOverlap,
		BatchSize:    c.BatchSize,
		MaxRetries:   c.MaxRetries,
		Policy:       c.Policy(),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}
