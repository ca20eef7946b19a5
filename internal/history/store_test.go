package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Entry{
		Question: "how many rows are there",
		Intent:   "deterministic",
		SQL:      "SELECT COUNT(*) AS row_count FROM read_parquet(?) LIMIT ?",
		RowCount: 1,
		RunDir:   "runs/20260829-101500-ab12cd34",
		Duration: 230 * time.Millisecond,
	}))
	require.NoError(t, store.Record(ctx, Entry{
		Question: "cluster pipelines k=3",
		Intent:   "analytic",
		Tool:     "clustering",
		RowCount: 12,
		Duration: 4 * time.Second,
	}))

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "cluster pipelines k=3", entries[0].Question)
	assert.Equal(t, "clustering", entries[0].Tool)
	assert.Equal(t, 4*time.Second, entries[0].Duration)
	assert.Equal(t, "how many rows are there", entries[1].Question)
	assert.Equal(t, "runs/20260829-101500-ab12cd34", entries[1].RunDir)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestListLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, Entry{Question: "q", Intent: "unknown"}))
	}

	entries, err := store.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestListEmptyStore(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), Entry{Question: "q", Intent: "unknown"}))
	require.NoError(t, store.Close())

	// Reopening runs migrations again without error and keeps data.
	store, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	entries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
