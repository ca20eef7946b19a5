// Package answer turns tabular results into one-line answers and the
// caveat notes that accompany them. Everything here is best-effort string
// assembly over the first row; missing columns fall back to a generic
// sentence rather than an error.
package answer

import (
	"fmt"
	"sort"
	"strings"

	"duck-agent/internal/domain"
	"duck-agent/internal/schema"
)

// Context carries what the orchestrator knows about how a result was
// produced, so the answer and caveats can reference it.
type Context struct {
	Intent domain.Intent
	// Analytics is the tool name when the result came from an analytic
	// routine, empty otherwise.
	Analytics     string
	Method        string
	IncludePValue bool
	Profile       map[string]schema.ColumnProfile
}

// measureTotal is the alias the deterministic sum/top-N plans emit.
const measureTotal = "total_scheduled_quantity"

// dimensionOrder lists the columns worth naming alongside a total, in
// preference order.
var dimensionOrder = []string{"pipeline_name", "month", "loc_name", "state_abb", "category_short"}

// Concise builds a one-line answer from the first result row. Analytic
// results get tool-specific phrasing; deterministic results key off the
// well-known aliases the compiler emits.
func Concise(res *domain.Result, ctx Context) string {
	row := res.FirstRow()

	switch ctx.Analytics {
	case "correlation":
		a, aOK := row["a"]
		b, bOK := row["b"]
		corr, cOK := asFloat(row["corr"])
		if aOK && bOK && cOK {
			return fmt.Sprintf("Answer: strongest correlation pair = %v ↔ %v (corr=%.3f)", a, b, corr)
		}
		return "Answer: computed top correlation pairs."
	case "clustering":
		if summary := clusterSummary(res); summary != "" {
			return fmt.Sprintf("Answer: clustering complete (k=%v) — %s", row["k"], summary)
		}
		return "Answer: clustering complete."
	case "anomalies_vs_category":
		loc, ok := row["loc_name"]
		if !ok {
			return "Answer: identified anomalous locations vs category baselines."
		}
		z, _ := asFloat(row["max_abs_z"])
		return fmt.Sprintf("Answer: top anomalous location = %v (%v), max|z|=%.2f, anomaly_days=%v",
			loc, row["category_short"], z, row["anomaly_days"])
	}

	if v, ok := row["row_count"]; ok {
		return fmt.Sprintf("Answer: row_count = %v", v)
	}
	if v, ok := row["distinct_count"]; ok {
		return fmt.Sprintf("Answer: distinct_count = %v", v)
	}
	if v, ok := row[measureTotal]; ok {
		for _, dim := range dimensionOrder {
			if d, has := row[dim]; has {
				return fmt.Sprintf("Answer: top %s = %v (%s=%v)", dim, d, measureTotal, v)
			}
		}
		return fmt.Sprintf("Answer: %s = %v", measureTotal, v)
	}

	return "Answer: results computed."
}

// clusterSummary renders per-cluster member counts as "c0=3, c1=2".
func clusterSummary(res *domain.Result) string {
	if res == nil || res.RowCount == 0 {
		return ""
	}
	idx := -1
	for i, c := range res.Columns {
		if c == "cluster" {
			idx = i
		}
	}
	if idx < 0 {
		return ""
	}
	counts := map[int]int{}
	for _, row := range res.Rows {
		if idx < len(row) {
			if c, ok := asInt(row[idx]); ok {
				counts[c]++
			}
		}
	}
	if len(counts) == 0 {
		return ""
	}
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("c%d=%d", id, counts[id]))
	}
	return strings.Join(parts, ", ")
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
