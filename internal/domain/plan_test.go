package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterScalar(t *testing.T) {
	f, err := NewFilter("state_abb", OpEq, "TX")
	require.NoError(t, err)
	assert.Equal(t, "TX", f.Value)

	_, err = NewFilter("state_abb", OpEq, []interface{}{"TX", "LA"})
	var malformed *MalformedFilterValueError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, OpEq, malformed.Op)
}

func TestNewFilterIn(t *testing.T) {
	_, err := NewFilter("state_abb", OpIn, []interface{}{"TX", "LA"})
	require.NoError(t, err)

	_, err = NewFilter("state_abb", OpIn, []interface{}{})
	require.Error(t, err)

	_, err = NewFilter("state_abb", OpIn, "TX")
	require.Error(t, err)
}

func TestNewFilterBetween(t *testing.T) {
	_, err := NewFilter("eff_gas_day", OpBetween, []interface{}{"2024-01-01", "2024-12-31"})
	require.NoError(t, err)

	_, err = NewFilter("eff_gas_day", OpBetween, []interface{}{"2024-01-01"})
	require.Error(t, err)

	_, err = NewFilter("eff_gas_day", OpBetween, []interface{}{"a", "b", "c"})
	require.Error(t, err)
}

func TestResultFirstRow(t *testing.T) {
	res := &Result{
		Columns:  []string{"a", "b"},
		Rows:     [][]interface{}{{1, 2}, {3, 4}},
		RowCount: 2,
	}
	row := res.FirstRow()
	assert.Equal(t, 1, row["a"])
	assert.Equal(t, 2, row["b"])

	assert.Nil(t, (&Result{}).FirstRow())
	var nilRes *Result
	assert.Nil(t, nilRes.FirstRow())
}

func TestSchemaSnapshotDatetimeColumns(t *testing.T) {
	snap := NewSchemaSnapshot([]ColumnInfo{
		{Name: "eff_gas_day", Type: "DATE"},
		{Name: "loaded_at", Type: "TIMESTAMP WITH TIME ZONE"},
		{Name: "scheduled_quantity", Type: "DOUBLE"},
	})

	assert.True(t, snap.HasDatetimeColumn("eff_gas_day"))
	assert.True(t, snap.HasDatetimeColumn("loaded_at"))
	assert.False(t, snap.HasDatetimeColumn("scheduled_quantity"))
	assert.True(t, snap.HasColumn("scheduled_quantity"))
	assert.Equal(t, []string{"eff_gas_day", "loaded_at", "scheduled_quantity"}, snap.ColumnNames())
}
