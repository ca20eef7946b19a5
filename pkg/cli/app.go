package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"duck-agent/internal/agent"
	"duck-agent/internal/analytics"
	"duck-agent/internal/config"
	"duck-agent/internal/engine"
	"duck-agent/internal/history"
	"duck-agent/internal/llm"
	"duck-agent/internal/report"
	"duck-agent/internal/schema"
)

// app bundles everything a subcommand needs to answer questions.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  *engine.Engine
	agent   *agent.Agent
	history *history.Store
	dataset string
}

// newApp opens the engine and history store and wires the agent. The
// caller must invoke close when done.
func newApp(opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	dataset, err := findParquetPath(cfg.DatasetPath)
	if err != nil {
		return nil, err
	}

	eng, err := engine.Open(logger)
	if err != nil {
		return nil, err
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		_ = eng.Close()
		return nil, err
	}

	var summarizer agent.Summarizer
	if cfg.LLMEnabled() {
		client := llm.New(cfg.OpenAIKey, cfg.OpenAIModel, logger)
		client.AllowRawPreview = cfg.AllowRawPreview
		summarizer = client
	}

	ag := agent.New(dataset, eng, schema.NewResolver(eng),
		analytics.NewRunner(eng, analytics.DefaultColumns()), logger, agent.Options{
			Profiles:   schema.NewProfileCache(eng),
			Summarizer: summarizer,
			Reporter:   report.New(cfg.RunsDir, cfg.RunsKeep, logger),
			History:    store,
		})

	return &app{
		cfg:     cfg,
		logger:  logger,
		engine:  eng,
		agent:   ag,
		history: store,
		dataset: dataset,
	}, nil
}

func (a *app) close() {
	if a.history != nil {
		_ = a.history.Close()
	}
	if a.engine != nil {
		_ = a.engine.Close()
	}
}

// defaultDataDir is searched for parquet files when no path is given.
const defaultDataDir = "data"

// findParquetPath resolves the dataset: an explicit path wins, otherwise
// the first .parquet file under ./data (sorted for determinism).
func findParquetPath(userPath string) (string, error) {
	if userPath != "" {
		if _, err := os.Stat(userPath); err == nil {
			abs, err := filepath.Abs(userPath)
			if err != nil {
				return userPath, nil
			}
			return abs, nil
		}
		return "", fmt.Errorf("dataset path %q does not exist", userPath)
	}

	entries, err := os.ReadDir(defaultDataDir)
	if err != nil {
		return "", fmt.Errorf("no parquet file found: pass --path or place a .parquet in ./%s/", defaultDataDir)
	}
	var candidates []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no parquet file found: pass --path or place a .parquet in ./%s/", defaultDataDir)
	}
	sort.Strings(candidates)
	abs, err := filepath.Abs(filepath.Join(defaultDataDir, candidates[0]))
	if err != nil {
		return filepath.Join(defaultDataDir, candidates[0]), nil
	}
	return abs, nil
}
