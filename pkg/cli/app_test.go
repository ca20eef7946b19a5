package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindParquetPathExplicit(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "flows.parquet")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	got, err := findParquetPath(file)
	require.NoError(t, err)
	assert.Equal(t, file, got)
}

func TestFindParquetPathExplicitMissing(t *testing.T) {
	_, err := findParquetPath(filepath.Join(t.TempDir(), "nope.parquet"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestFindParquetPathDiscovery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "b.parquet"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "a.parquet"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "notes.txt"), []byte("x"), 0o644))
	t.Chdir(dir)

	got, err := findParquetPath("")
	require.NoError(t, err)
	assert.Equal(t, "a.parquet", filepath.Base(got), "picks the first parquet in sorted order")
}

func TestFindParquetPathNothingFound(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := findParquetPath("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parquet file found")
}
