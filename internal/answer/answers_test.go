package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-agent/internal/domain"
	"duck-agent/internal/schema"
)

func TestConciseRowCount(t *testing.T) {
	res := &domain.Result{
		Columns:  []string{"row_count"},
		Rows:     [][]interface{}{{int64(23042)}},
		RowCount: 1,
	}
	got := Concise(res, Context{Intent: domain.IntentDeterministic})
	assert.Equal(t, "Answer: row_count = 23042", got)
}

func TestConciseTopDimension(t *testing.T) {
	res := &domain.Result{
		Columns:  []string{"pipeline_name", "total_scheduled_quantity"},
		Rows:     [][]interface{}{{"ANR", float64(9.5e6)}, {"TGP", float64(8.1e6)}},
		RowCount: 2,
	}
	got := Concise(res, Context{Intent: domain.IntentDeterministic})
	assert.Contains(t, got, "top pipeline_name = ANR")
}

func TestConciseUngroupedTotal(t *testing.T) {
	res := &domain.Result{
		Columns:  []string{"total_scheduled_quantity"},
		Rows:     [][]interface{}{{float64(123456)}},
		RowCount: 1,
	}
	got := Concise(res, Context{})
	assert.Equal(t, "Answer: total_scheduled_quantity = 123456", got)
}

func TestConciseCorrelation(t *testing.T) {
	res := &domain.Result{
		Columns:  []string{"a", "b", "corr", "n"},
		Rows:     [][]interface{}{{"ANR", "TGP", 0.912, int64(365)}},
		RowCount: 1,
	}
	got := Concise(res, Context{Analytics: "correlation"})
	assert.Equal(t, "Answer: strongest correlation pair = ANR ↔ TGP (corr=0.912)", got)
}

func TestConciseClusteringCounts(t *testing.T) {
	res := &domain.Result{
		Columns: []string{"pipeline", "cluster", "k", "scaling", "silhouette"},
		Rows: [][]interface{}{
			{"ANR", 0, 2, "standard", 0.4},
			{"TGP", 1, 2, "standard", 0.4},
			{"NGPL", 0, 2, "standard", 0.4},
		},
		RowCount: 3,
	}
	got := Concise(res, Context{Analytics: "clustering"})
	assert.Contains(t, got, "k=2")
	assert.Contains(t, got, "c0=2, c1=1")
}

func TestConciseEmptyResultFallsBack(t *testing.T) {
	got := Concise(&domain.Result{}, Context{Analytics: "correlation"})
	assert.Equal(t, "Answer: computed top correlation pairs.", got)

	got = Concise(&domain.Result{}, Context{})
	assert.Equal(t, "Answer: results computed.", got)
}

func TestCaveatsSmallSampleAndNulls(t *testing.T) {
	res := &domain.Result{RowCount: 2}
	notes := Caveats(res, Context{Profile: map[string]schema.ColumnProfile{
		"connecting_pipeline": {NullRate: 0.8},
		"pipeline_name":       {NullRate: 0.0},
	}})
	require.Len(t, notes, 2)
	assert.Equal(t, "Small sample of rows; interpret with caution.", notes[0])
	assert.Contains(t, notes[1], "connecting_pipeline")
	assert.NotContains(t, notes[1], "pipeline_name,")
}

func TestCaveatsCorrelationMethodNotes(t *testing.T) {
	res := &domain.Result{RowCount: 20}
	notes := Caveats(res, Context{Analytics: "correlation", Method: "spearman", IncludePValue: true})
	require.Len(t, notes, 3)
	assert.Contains(t, notes[1], "Spearman")
	assert.Contains(t, notes[2], "P-values")
}

func TestPlanIsAggregateOnly(t *testing.T) {
	assert.False(t, PlanIsAggregateOnly(nil))
	assert.False(t, PlanIsAggregateOnly(&domain.QueryPlan{DirectColumns: []string{"pipeline_name"}}))
	assert.True(t, PlanIsAggregateOnly(&domain.QueryPlan{
		Aggregations: []domain.Projection{{Alias: "row_count", Expr: "COUNT(*)"}},
	}))
}

func TestRedactPreviewRows(t *testing.T) {
	assert.Equal(t, 20, RedactPreviewRows(100))
	assert.Equal(t, 5, RedactPreviewRows(5))
}

func TestLLMContextSummaryExposesNoValues(t *testing.T) {
	plan := &domain.QueryPlan{
		GroupByColumns: []string{"pipeline_name"},
		GroupByExprs:   []string{"date_trunc('month', \"eff_gas_day\")"},
		Aggregations:   []domain.Projection{{Alias: "total", Expr: "SUM(x)"}},
		SelectExprs:    []domain.Projection{{Alias: "month", Expr: "date_trunc('month', \"eff_gas_day\")"}},
	}
	summary := LLMContextSummary(8, plan)
	assert.Equal(t, 8, summary["schema_columns"])
	assert.Equal(t, true, summary["has_aggregations"])
	assert.Equal(t, 2, summary["num_group_by_cols"])
	assert.Equal(t, 1, summary["num_select_exprs"])
}
