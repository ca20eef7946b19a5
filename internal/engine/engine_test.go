package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-agent/internal/engine"
)

func openEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestQueryScansTypedRows(t *testing.T) {
	e := openEngine(t)

	res, err := e.Query(context.Background(),
		"SELECT * FROM (VALUES (1, 'alpha'), (2, 'beta')) AS t(id, name) ORDER BY id",
		nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, res.Columns)
	require.Equal(t, 2, res.RowCount)
	assert.Equal(t, "alpha", res.Rows[0][1])
	assert.Equal(t, "beta", res.Rows[1][1])
}

func TestQueryBindsParameters(t *testing.T) {
	e := openEngine(t)

	res, err := e.Query(context.Background(), "SELECT ? + ? AS total", []interface{}{int64(2), int64(3)})
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount)
	assert.EqualValues(t, 5, res.Rows[0][0])
}

func TestQueryErrorSurfaces(t *testing.T) {
	e := openEngine(t)

	_, err := e.Query(context.Background(), "SELECT * FROM no_such_table", nil)
	require.Error(t, err)
}

func TestDescribeMissingDataset(t *testing.T) {
	e := openEngine(t)

	_, err := e.Describe(context.Background(), "/nonexistent/dataset.parquet")
	require.Error(t, err)
}
