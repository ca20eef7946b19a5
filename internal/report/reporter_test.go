package report

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-agent/internal/domain"
)

func newReporter(t *testing.T, retention int) (*Reporter, string) {
	t.Helper()
	dir := t.TempDir()
	return New(dir, retention, slog.New(slog.NewTextHandler(io.Discard, nil))), dir
}

func TestSaveWritesAllArtifacts(t *testing.T) {
	r, _ := newReporter(t, 10)

	plan := &domain.QueryPlan{
		Aggregations: []domain.Projection{{Alias: "row_count", Expr: "COUNT(*)"}},
	}
	res := &domain.Result{
		Columns:  []string{"row_count"},
		Rows:     [][]interface{}{{int64(42)}},
		RowCount: 1,
	}
	runDir, err := r.Save(Artifacts{
		Plan:    plan,
		SQL:     "SELECT COUNT(*) AS row_count FROM read_parquet(?) LIMIT ?",
		Result:  res,
		Summary: "Answer: row_count = 42",
		Latency: 1500 * time.Millisecond,
	})
	require.NoError(t, err)

	sqlBytes, err := os.ReadFile(filepath.Join(runDir, "query.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(sqlBytes), "COUNT(*)")

	summary, err := os.ReadFile(filepath.Join(runDir, "summary.md"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Latency: 1.50s")
	assert.Contains(t, string(summary), "row_count = 42")

	var results map[string]interface{}
	data, err := os.ReadFile(filepath.Join(runDir, "results.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &results))
	assert.Equal(t, float64(1), results["row_count"])
	assert.Equal(t, false, results["truncated"])

	_, err = os.Stat(filepath.Join(runDir, "plan.json"))
	require.NoError(t, err)
}

func TestSaveOmitsQuerySQLWhenEmpty(t *testing.T) {
	r, _ := newReporter(t, 10)
	runDir, err := r.Save(Artifacts{Plan: map[string]string{"tool": "trends"}, Summary: "ok"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(runDir, "query.sql"))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveTruncatesResults(t *testing.T) {
	r, _ := newReporter(t, 10)

	rows := make([][]interface{}, 250)
	for i := range rows {
		rows[i] = []interface{}{int64(i)}
	}
	res := &domain.Result{Columns: []string{"n"}, Rows: rows, RowCount: 250}

	runDir, err := r.Save(Artifacts{Result: res, Summary: "big"})
	require.NoError(t, err)

	var results struct {
		Rows      [][]interface{} `json:"rows"`
		RowCount  int             `json:"row_count"`
		Truncated bool            `json:"truncated"`
	}
	data, err := os.ReadFile(filepath.Join(runDir, "results.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &results))
	assert.Len(t, results.Rows, 100)
	assert.Equal(t, 250, results.RowCount)
	assert.True(t, results.Truncated)
}

func TestPruneKeepsNewestRuns(t *testing.T) {
	r, base := newReporter(t, 2)

	stamps := []time.Time{
		time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC),
	}
	for _, ts := range stamps {
		r.now = func() time.Time { return ts }
		_, err := r.Save(Artifacts{Summary: "run"})
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "20260101", "oldest run should be pruned")
	}
}

func TestEncodeValueNormalizesTimes(t *testing.T) {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-01T00:00:00Z", encodeValue(ts))
	assert.Equal(t, "raw", encodeValue([]byte("raw")))
	assert.Equal(t, int64(5), encodeValue(int64(5)))
}
