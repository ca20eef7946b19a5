// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds settings for the agent: where the dataset lives, where
// artifacts go, and the optional OpenAI integration.
type Config struct {
	DatasetPath string // parquet path or glob (DUCK_AGENT_DATA)
	RunsDir     string // artifact directory (default "runs")
	RunsKeep    int    // run directories kept after pruning (default 50)
	HistoryPath string // SQLite ask-history file (default "duck_agent_history.sqlite")
	ListenAddr  string // HTTP listen address (default ":8080")
	LogLevel    string // log level: debug, info, warn, error (default "info")

	// OpenAI settings are optional — the agent degrades to rule-only
	// planning without them.
	OpenAIKey       string
	OpenAIModel     string
	AllowRawPreview bool // permit result rows in model prompts

	// Rate limiting for the HTTP surface.
	RateLimitRPS   float64 // sustained requests per second (default 10)
	RateLimitBurst int     // burst capacity (default 20)

	// CORS
	CORSAllowedOrigins []string // allowed origins (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LLMEnabled returns true when an OpenAI key is configured.
func (c *Config) LLMEnabled() bool {
	return c.OpenAIKey != ""
}

// LoadFromEnv loads configuration from environment variables. Only the
// dataset path matters for answering questions; everything else has a
// workable default.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DatasetPath: os.Getenv("DUCK_AGENT_DATA"),
		RunsDir:     os.Getenv("RUNS_DIR"),
		HistoryPath: os.Getenv("HISTORY_DB_PATH"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
	}

	if v := os.Getenv("RUNS_RETENTION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("RUNS_RETENTION must be a positive integer, got %q", v)
		}
		cfg.RunsKeep = n
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}
	switch strings.ToLower(os.Getenv("ALLOW_LLM_RAW_PREVIEW")) {
	case "1", "true", "yes":
		cfg.AllowRawPreview = true
	}

	// Defaults
	if cfg.RunsDir == "" {
		cfg.RunsDir = "runs"
	}
	if cfg.RunsKeep == 0 {
		cfg.RunsKeep = 50
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = "duck_agent_history.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 20
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.DatasetPath == "" {
		cfg.Warnings = append(cfg.Warnings, "DUCK_AGENT_DATA not set — pass a dataset path on the command line or place parquet files under ./data")
	}
	if cfg.OpenAIKey == "" {
		cfg.Warnings = append(cfg.Warnings, "OPENAI_API_KEY not set — LLM fallback planning and summaries are disabled")
	}
	if cfg.AllowRawPreview && cfg.OpenAIKey != "" {
		cfg.Warnings = append(cfg.Warnings, "ALLOW_LLM_RAW_PREVIEW is enabled — result rows will be sent to the model")
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
