package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-agent/internal/domain"
	"duck-agent/internal/schema"
)

type fakeDescriber struct {
	columns []domain.ColumnInfo
	err     error
	calls   int
}

func (f *fakeDescriber) Describe(_ context.Context, _ string) ([]domain.ColumnInfo, error) {
	f.calls++
	return f.columns, f.err
}

var ctx = context.Background()

func TestResolveClassifiesDatetimeColumns(t *testing.T) {
	d := &fakeDescriber{columns: []domain.ColumnInfo{
		{Name: "pipeline_name", Type: "VARCHAR"},
		{Name: "eff_gas_day", Type: "DATE"},
		{Name: "created_at", Type: "TIMESTAMP WITH TIME ZONE"},
		{Name: "scheduled_quantity", Type: "DOUBLE"},
	}}
	r := schema.NewResolver(d)

	snap, err := r.Resolve(ctx, "data.parquet")
	require.NoError(t, err)

	assert.Equal(t, []string{"pipeline_name", "eff_gas_day", "created_at", "scheduled_quantity"}, snap.ColumnNames())
	assert.True(t, snap.HasDatetimeColumn("eff_gas_day"))
	assert.True(t, snap.HasDatetimeColumn("created_at"))
	assert.False(t, snap.HasDatetimeColumn("pipeline_name"))
}

func TestResolveMemoizesPerDataset(t *testing.T) {
	d := &fakeDescriber{columns: []domain.ColumnInfo{{Name: "a", Type: "VARCHAR"}}}
	r := schema.NewResolver(d)

	first, err := r.Resolve(ctx, "one.parquet")
	require.NoError(t, err)
	second, err := r.Resolve(ctx, "one.parquet")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, d.calls)

	_, err = r.Resolve(ctx, "two.parquet")
	require.NoError(t, err)
	assert.Equal(t, 2, d.calls, "distinct dataset identity introspects again")
}

func TestResolveWrapsIntrospectionFailure(t *testing.T) {
	boom := errors.New("no such file")
	r := schema.NewResolver(&fakeDescriber{err: boom})

	_, err := r.Resolve(ctx, "missing.parquet")
	var unreadable *domain.DatasetUnreadableError
	require.ErrorAs(t, err, &unreadable)
	assert.Equal(t, "missing.parquet", unreadable.Dataset)
	assert.ErrorIs(t, err, boom)
}

func TestCachedReturnsNilBeforeResolve(t *testing.T) {
	r := schema.NewResolver(&fakeDescriber{})
	assert.Nil(t, r.Cached("never.parquet"))
}
