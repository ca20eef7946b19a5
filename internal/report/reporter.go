// Package report persists run artifacts: every answered question leaves a
// directory with the plan, the compiled SQL, a truncated result set, and a
// markdown summary. Old runs are pruned on each save.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"duck-agent/internal/domain"
)

// DefaultRetention is how many run directories survive pruning.
const DefaultRetention = 50

// resultRowCap bounds how many rows land in results.json.
const resultRowCap = 100

// Artifacts is everything a single run can leave behind. SQL and Summary
// may be empty; Plan may be a query plan or an analytic directive.
type Artifacts struct {
	Plan    interface{}
	SQL     string
	Result  *domain.Result
	Summary string
	Latency time.Duration
}

// Reporter writes run artifacts under a base directory.
type Reporter struct {
	baseDir   string
	retention int
	logger    *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Reporter. A non-positive retention falls back to the
// default.
func New(baseDir string, retention int, logger *slog.Logger) *Reporter {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Reporter{baseDir: baseDir, retention: retention, logger: logger, now: time.Now}
}

// Save writes one run directory and prunes old ones. It returns the run
// directory path. Pruning failures are logged, never returned: losing an
// old run must not fail the current one.
func (r *Reporter) Save(a Artifacts) (string, error) {
	name := fmt.Sprintf("%s-%s", r.now().Format("20060102-150405"), uuid.NewString()[:8])
	runDir := filepath.Join(r.baseDir, name)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}

	if err := writeJSON(filepath.Join(runDir, "plan.json"), a.Plan); err != nil {
		return "", err
	}
	if a.SQL != "" {
		if err := os.WriteFile(filepath.Join(runDir, "query.sql"), []byte(a.SQL), 0o644); err != nil {
			return "", fmt.Errorf("write query.sql: %w", err)
		}
	}
	if err := writeJSON(filepath.Join(runDir, "results.json"), encodeResult(a.Result)); err != nil {
		return "", err
	}

	summary := a.Summary
	if a.Latency > 0 {
		summary = fmt.Sprintf("Latency: %.2fs\n\n%s", a.Latency.Seconds(), summary)
	}
	if err := os.WriteFile(filepath.Join(runDir, "summary.md"), []byte(summary), 0o644); err != nil {
		return "", fmt.Errorf("write summary.md: %w", err)
	}

	r.prune()
	return runDir, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// encodeResult shapes a result for results.json: at most resultRowCap
// rows, with values the JSON encoder cannot render normalized to strings.
func encodeResult(res *domain.Result) map[string]interface{} {
	if res == nil {
		return map[string]interface{}{"columns": []string{}, "rows": [][]interface{}{}, "row_count": 0}
	}
	truncated := res.Truncated(resultRowCap)
	rows := make([][]interface{}, len(truncated.Rows))
	for i, row := range truncated.Rows {
		out := make([]interface{}, len(row))
		for j, v := range row {
			out[j] = encodeValue(v)
		}
		rows[i] = out
	}
	return map[string]interface{}{
		"columns":   truncated.Columns,
		"rows":      rows,
		"row_count": res.RowCount,
		"truncated": res.RowCount > len(rows),
	}
}

func encodeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	case []byte:
		return string(t)
	default:
		return v
	}
}

// prune removes the oldest run directories beyond the retention count.
// Run names sort chronologically, so lexical order is age order.
func (r *Reporter) prune() {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		return
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) <= r.retention {
		return
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, old := range dirs[r.retention:] {
		if err := os.RemoveAll(filepath.Join(r.baseDir, old)); err != nil && r.logger != nil {
			r.logger.Warn("prune run dir", "dir", old, "error", err)
		}
	}
}
