package answer

import (
	"sort"
	"strings"

	"duck-agent/internal/domain"
)

// highNullThreshold flags columns whose sampled null rate suggests the
// result may silently drop rows.
const highNullThreshold = 0.5

// Caveats returns interpretation notes for a result: sample-size and
// data-quality warnings first, then tool-specific methodology notes.
func Caveats(res *domain.Result, ctx Context) []string {
	var notes []string

	rows := 0
	if res != nil {
		rows = res.RowCount
	}
	if rows < 5 {
		notes = append(notes, "Small sample of rows; interpret with caution.")
	}

	var highNull []string
	for col, p := range ctx.Profile {
		if p.NullRate > highNullThreshold {
			highNull = append(highNull, col)
		}
	}
	if len(highNull) > 0 {
		sort.Strings(highNull)
		if len(highNull) > 5 {
			highNull = highNull[:5]
		}
		notes = append(notes, "High null rates detected in: "+strings.Join(highNull, ", "))
	}

	switch ctx.Analytics {
	case "correlation":
		notes = append(notes, "Correlation does not imply causation; trends may be confounded.")
		if ctx.Method == "spearman" {
			notes = append(notes, "Spearman ranks monotonic relationships; ties and low variance can reduce interpretability.")
		}
		if ctx.IncludePValue {
			notes = append(notes, "P-values assume independence and sufficient observations; apply multiple-comparisons caution.")
		}
	case "clustering":
		notes = append(notes, "Cluster memberships depend on scaling and k; verify stability.")
	case "anomalies_vs_category":
		notes = append(notes, "Anomalies are relative to category baselines; investigate data quality and one-off events.")
	case "anomalies_iqr":
		notes = append(notes, "IQR fences flag global outliers; seasonal variation may require seasonal adjustment.")
	case "sudden_shifts":
		notes = append(notes, "Rolling-window z-scores are sensitive to window size; verify robustness across windows.")
	case "trends":
		notes = append(notes, "Growth rates can be unstable on small denominators; prefer longer horizons for stability.")
	}

	return notes
}

// PlanIsAggregateOnly reports whether the plan only emits aggregated
// values, meaning result rows never contain raw record values.
func PlanIsAggregateOnly(plan *domain.QueryPlan) bool {
	return plan != nil && len(plan.Aggregations) > 0
}

// RedactPreviewRows caps the rows shared as model context.
func RedactPreviewRows(rows int) int {
	if rows > 20 {
		return 20
	}
	return rows
}

// LLMContextSummary describes a plan's shape without exposing any data
// values, for inclusion in model prompts.
func LLMContextSummary(schemaColumns int, plan *domain.QueryPlan) map[string]interface{} {
	summary := map[string]interface{}{
		"schema_columns":    schemaColumns,
		"has_aggregations":  false,
		"num_group_by_cols": 0,
		"num_select_exprs":  0,
	}
	if plan != nil {
		summary["has_aggregations"] = len(plan.Aggregations) > 0
		summary["num_group_by_cols"] = len(plan.GroupByColumns) + len(plan.GroupByExprs)
		summary["num_select_exprs"] = len(plan.SelectExprs)
	}
	return summary
}
