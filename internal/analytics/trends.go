package analytics

import (
	"context"
	"fmt"

	"duck-agent/internal/domain"
)

// Trends summarizes totals by month or day with short and long moving
// averages and, optionally, year-over-year growth against the same bucket
// one year back.
func (r *Runner) Trends(ctx context.Context, datasetPath string, by string, yoy bool) (*domain.Result, error) {
	var granularity string
	var shortWin, longWin, yoyLag int
	switch by {
	case "month":
		granularity, shortWin, longWin, yoyLag = "month", 3, 6, 12
	case "day":
		granularity, shortWin, longWin, yoyLag = "day", 7, 28, 365
	default:
		return nil, domain.ErrValidation("trend granularity must be month or day, got %q", by)
	}

	yoyCol := ""
	if yoy {
		yoyCol = fmt.Sprintf(`,
		       total_qty / NULLIF(LAG(total_qty, %d) OVER (ORDER BY bucket), 0) - 1 AS yoy_growth`, yoyLag)
	}

	sqlText := fmt.Sprintf(`WITH b AS (
			SELECT date_trunc('%s', %s) AS bucket, SUM(%s) AS total_qty
			FROM read_parquet(?) GROUP BY 1
		)
		SELECT bucket, total_qty,
		       AVG(total_qty) OVER (ORDER BY bucket ROWS BETWEEN %d PRECEDING AND CURRENT ROW) AS ma_%d,
		       AVG(total_qty) OVER (ORDER BY bucket ROWS BETWEEN %d PRECEDING AND CURRENT ROW) AS ma_%d%s
		FROM b
		ORDER BY bucket`,
		granularity, r.ident(r.cols.EffectiveDay), r.ident(r.cols.Measure),
		shortWin-1, shortWin, longWin-1, longWin, yoyCol)

	res, err := r.querier.Query(ctx, sqlText, []interface{}{datasetPath})
	if err != nil {
		return nil, fmt.Errorf("trend query: %w", err)
	}
	return res, nil
}
