package analytics

import (
	"context"
	"fmt"
	"math"

	"duck-agent/internal/domain"
)

// CorrelationParams controls the pairwise-correlation routine.
type CorrelationParams struct {
	// Method is "pearson" or "spearman".
	Method string
	// IncludePValue appends an approximate two-sided p-value column.
	IncludePValue bool
}

// topPipelines bounds the pairwise join; 10 series give 45 pairs.
const topPipelines = 10

// Correlation computes pairwise correlations of daily totals across the
// highest-volume pipelines. Spearman ranks each series first so monotonic
// relationships score regardless of shape. Pairs need at least 30 shared
// days to appear.
func (r *Runner) Correlation(ctx context.Context, datasetPath string, p CorrelationParams) (*domain.Result, error) {
	if p.Method != "pearson" && p.Method != "spearman" {
		return nil, domain.ErrValidation("correlation method must be pearson or spearman, got %q", p.Method)
	}

	series := "total"
	rankCTE := ""
	source := "d"
	if p.Method == "spearman" {
		rankCTE = `, r AS (
			SELECT pipeline, day, rank() OVER (PARTITION BY pipeline ORDER BY total) AS total
			FROM d
		)`
		source = "r"
	}

	sqlText := fmt.Sprintf(`WITH d AS (
			SELECT %s AS pipeline, %s::DATE AS day, SUM(%s) AS total
			FROM read_parquet(?) GROUP BY 1, 2
		), top AS (
			SELECT pipeline FROM d GROUP BY 1 ORDER BY SUM(total) DESC LIMIT %d
		)%s
		SELECT a.pipeline AS a, b.pipeline AS b,
		       corr(a.%s, b.%s) AS corr, COUNT(*) AS n
		FROM %s a JOIN %s b ON a.day = b.day AND a.pipeline < b.pipeline
		WHERE a.pipeline IN (SELECT pipeline FROM top)
		  AND b.pipeline IN (SELECT pipeline FROM top)
		GROUP BY 1, 2
		HAVING COUNT(*) >= 30 AND corr(a.%s, b.%s) IS NOT NULL
		ORDER BY ABS(corr(a.%s, b.%s)) DESC
		LIMIT 20`,
		r.ident(r.cols.Pipeline), r.ident(r.cols.EffectiveDay), r.ident(r.cols.Measure),
		topPipelines, rankCTE,
		series, series, source, source, series, series, series, series)

	res, err := r.querier.Query(ctx, sqlText, []interface{}{datasetPath})
	if err != nil {
		return nil, fmt.Errorf("correlation query: %w", err)
	}
	if !p.IncludePValue {
		return res, nil
	}
	return appendPValues(res)
}

// appendPValues adds an approximate two-sided p-value per pair, computed
// from the t statistic with a normal tail approximation. Adequate for the
// n >= 30 pairs the query emits.
func appendPValues(res *domain.Result) (*domain.Result, error) {
	corrIdx, nIdx := -1, -1
	for i, c := range res.Columns {
		switch c {
		case "corr":
			corrIdx = i
		case "n":
			nIdx = i
		}
	}
	if corrIdx < 0 || nIdx < 0 {
		return nil, domain.ErrValidation("correlation result missing corr/n columns")
	}

	out := &domain.Result{
		Columns:  append(append([]string{}, res.Columns...), "p_value"),
		RowCount: res.RowCount,
	}
	for _, row := range res.Rows {
		corr, _ := row[corrIdx].(float64)
		n := float64(toInt(row[nIdx]))
		p := 1.0
		if n > 2 && math.Abs(corr) < 1 {
			t := corr * math.Sqrt((n-2)/(1-corr*corr))
			p = math.Erfc(math.Abs(t) / math.Sqrt2)
		} else if math.Abs(corr) >= 1 {
			p = 0
		}
		out.Rows = append(out.Rows, append(append([]interface{}{}, row...), p))
	}
	return out, nil
}
