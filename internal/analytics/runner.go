// Package analytics implements the statistical routines the classifier can
// dispatch to: correlation, clustering, outlier and shift detection, trend
// summaries, and category-baseline anomalies. Heavy lifting happens inside
// DuckDB (aggregation, window functions, quantiles); only k-means runs in
// process. Every routine returns the shared tabular Result.
package analytics

import (
	"context"
	"fmt"

	"duck-agent/internal/domain"
	"duck-agent/internal/planner"
)

// Querier executes a parameterized query and returns a tabular result.
type Querier interface {
	Query(ctx context.Context, sqlText string, params []interface{}) (*domain.Result, error)
}

// Columns names the dataset columns the routines aggregate over.
type Columns struct {
	Pipeline     string
	Location     string
	Category     string
	EffectiveDay string
	Measure      string
	Region       string
	Sign         string
}

// DefaultColumns matches the gas-pipeline scheduled-quantity dataset.
func DefaultColumns() Columns {
	return Columns{
		Pipeline:     "pipeline_name",
		Location:     "loc_name",
		Category:     "category_short",
		EffectiveDay: "eff_gas_day",
		Measure:      "scheduled_quantity",
		Region:       "state_abb",
		Sign:         "rec_del_sign",
	}
}

// Runner executes analytic directives against a dataset.
type Runner struct {
	querier Querier
	cols    Columns
}

// NewRunner creates a Runner over the given querier and column mapping.
func NewRunner(q Querier, cols Columns) *Runner {
	return &Runner{querier: q, cols: cols}
}

// Run dispatches a directive to the named routine. Unknown tool names are
// a validation error — the classifier and the LLM planner only emit names
// from the fixed tool set.
func (r *Runner) Run(ctx context.Context, datasetPath string, d *domain.AnalyticDirective) (*domain.Result, error) {
	switch d.Tool {
	case planner.ToolCorrelation:
		return r.Correlation(ctx, datasetPath, CorrelationParams{
			Method:        paramString(d.Params, "method", "pearson"),
			IncludePValue: paramBool(d.Params, "include_pvalue"),
		})
	case planner.ToolClustering:
		return r.Cluster(ctx, datasetPath, ClusterParams{
			K:       paramInt(d.Params, "k", planner.DefaultClusterK),
			Scaling: paramString(d.Params, "scaling", "standard"),
			Seed:    int64(paramInt(d.Params, "seed", planner.DefaultClusterSeed)),
		})
	case planner.ToolAnomaliesIQR:
		return r.AnomaliesIQR(ctx, datasetPath,
			paramFloat(d.Params, "k", planner.DefaultIQRK),
			paramInt(d.Params, "limit", planner.DefaultResultLimit))
	case planner.ToolSuddenShifts:
		return r.SuddenShifts(ctx, datasetPath,
			paramInt(d.Params, "window", planner.DefaultShiftWindow),
			paramFloat(d.Params, "sigma", planner.DefaultShiftSigma),
			paramInt(d.Params, "limit", planner.DefaultResultLimit))
	case planner.ToolTrends:
		return r.Trends(ctx, datasetPath,
			paramString(d.Params, "by", "month"),
			paramBool(d.Params, "yoy"))
	case planner.ToolAnomaliesVsCategory:
		p := CategoryAnomalyParams{
			Z:       paramFloat(d.Params, "z", planner.DefaultAnomalyZ),
			MinDays: paramInt(d.Params, "min_days", planner.DefaultMinAnomalyDay),
		}
		if v, ok := d.Params["year"]; ok {
			year := toInt(v)
			p.Year = &year
		}
		if v, ok := d.Params["state"].(string); ok {
			p.State = &v
		}
		if v, ok := d.Params["rec_del_sign"]; ok {
			sign := toInt(v)
			p.Sign = &sign
		}
		return r.AnomaliesVsCategory(ctx, datasetPath, p)
	default:
		return nil, domain.ErrValidation("unknown analytics tool %q", d.Tool)
	}
}

// Directive parameters arrive as native Go values from the classifier, or
// as float64/string after a JSON round trip through the LLM planner.

func paramInt(params map[string]interface{}, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}
	return toInt(v)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func paramFloat(params map[string]interface{}, key string, def float64) float64 {
	switch n := params[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

func paramString(params map[string]interface{}, key, def string) string {
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return def
}

func paramBool(params map[string]interface{}, key string) bool {
	b, _ := params[key].(bool)
	return b
}

func (r *Runner) ident(name string) string {
	return `"` + name + `"`
}

// dailyTotalsCTE is the shared "d" CTE: one row per day with the summed
// measure. Column names come from the trusted Columns mapping, never from
// question text.
func (r *Runner) dailyTotalsCTE() string {
	return fmt.Sprintf(
		"SELECT %s::DATE AS day, SUM(%s) AS total_qty FROM read_parquet(?) GROUP BY 1",
		r.ident(r.cols.EffectiveDay), r.ident(r.cols.Measure))
}
