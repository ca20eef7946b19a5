package analytics

import (
	"context"
	"fmt"
	"strings"

	"duck-agent/internal/domain"
)

// AnomaliesIQR flags daily totals outside Tukey fences: beyond k
// interquartile ranges from the quartiles.
func (r *Runner) AnomaliesIQR(ctx context.Context, datasetPath string, k float64, limit int) (*domain.Result, error) {
	if limit <= 0 {
		limit = 50
	}
	sqlText := fmt.Sprintf(`WITH d AS (%s), fences AS (
			SELECT quantile_cont(total_qty, 0.25) AS q1,
			       quantile_cont(total_qty, 0.75) AS q3
			FROM d
		)
		SELECT d.day, d.total_qty,
		       CASE WHEN d.total_qty > f.q3 + ? * (f.q3 - f.q1) THEN 'high' ELSE 'low' END AS side
		FROM d, fences f
		WHERE d.total_qty < f.q1 - ? * (f.q3 - f.q1)
		   OR d.total_qty > f.q3 + ? * (f.q3 - f.q1)
		ORDER BY d.day
		LIMIT ?`, r.dailyTotalsCTE())

	res, err := r.querier.Query(ctx, sqlText, []interface{}{datasetPath, k, k, k, limit})
	if err != nil {
		return nil, fmt.Errorf("iqr anomaly query: %w", err)
	}
	return res, nil
}

// SuddenShifts scores each day's total against the mean and stddev of the
// preceding window, surfacing the largest rolling z-scores. The window
// size lands in the frame clause directly — frame bounds cannot be bound
// parameters — but it is an integer the trigger already validated.
func (r *Runner) SuddenShifts(ctx context.Context, datasetPath string, window int, sigma float64, limit int) (*domain.Result, error) {
	if window < 2 {
		return nil, domain.ErrValidation("shift window must be at least 2, got %d", window)
	}
	if limit <= 0 {
		limit = 50
	}
	sqlText := fmt.Sprintf(`WITH d AS (%s), s AS (
			SELECT day, total_qty,
			       AVG(total_qty) OVER w AS win_mean,
			       STDDEV_SAMP(total_qty) OVER w AS win_sd
			FROM d
			WINDOW w AS (ORDER BY day ROWS BETWEEN %d PRECEDING AND 1 PRECEDING)
		)
		SELECT day, total_qty, win_mean,
		       (total_qty - win_mean) / NULLIF(win_sd, 0) AS zscore
		FROM s
		WHERE win_sd IS NOT NULL
		  AND ABS((total_qty - win_mean) / NULLIF(win_sd, 0)) >= ?
		ORDER BY ABS((total_qty - win_mean) / NULLIF(win_sd, 0)) DESC
		LIMIT ?`, r.dailyTotalsCTE(), window)

	res, err := r.querier.Query(ctx, sqlText, []interface{}{datasetPath, sigma, limit})
	if err != nil {
		return nil, fmt.Errorf("sudden shift query: %w", err)
	}
	return res, nil
}

// CategoryAnomalyParams controls the category-baseline anomaly routine.
type CategoryAnomalyParams struct {
	// Z is the per-day z-score threshold against the category baseline.
	Z float64
	// MinDays is the minimum count of anomalous days for a location to
	// surface at all.
	MinDays int
	Year    *int
	State   *string
	Sign    *int
}

// AnomaliesVsCategory compares each location's daily total to its
// category's same-day mean and stddev, surfacing locations with repeated
// large deviations.
func (r *Runner) AnomaliesVsCategory(ctx context.Context, datasetPath string, p CategoryAnomalyParams) (*domain.Result, error) {
	where := []string{"1 = 1"}
	params := []interface{}{datasetPath}
	if p.Year != nil {
		where = append(where, fmt.Sprintf("%s BETWEEN ? AND ?", r.ident(r.cols.EffectiveDay)))
		params = append(params, fmt.Sprintf("%d-01-01", *p.Year), fmt.Sprintf("%d-12-31", *p.Year))
	}
	if p.State != nil {
		where = append(where, fmt.Sprintf("%s = ?", r.ident(r.cols.Region)))
		params = append(params, *p.State)
	}
	if p.Sign != nil {
		where = append(where, fmt.Sprintf("%s = ?", r.ident(r.cols.Sign)))
		params = append(params, *p.Sign)
	}

	sqlText := fmt.Sprintf(`WITH d AS (
			SELECT %s AS loc_name, %s AS category_short, %s::DATE AS day, SUM(%s) AS total_qty
			FROM read_parquet(?)
			WHERE %s
			GROUP BY 1, 2, 3
		), baseline AS (
			SELECT category_short, day,
			       AVG(total_qty) AS cat_mean,
			       STDDEV_SAMP(total_qty) AS cat_sd
			FROM d GROUP BY 1, 2
		), scored AS (
			SELECT d.loc_name, d.category_short,
			       (d.total_qty - b.cat_mean) / NULLIF(b.cat_sd, 0) AS z
			FROM d JOIN baseline b
			  ON d.category_short = b.category_short AND d.day = b.day
		)
		SELECT loc_name, category_short,
		       COUNT(*) FILTER (WHERE ABS(z) >= ?) AS anomaly_days,
		       MAX(ABS(z)) AS max_abs_z
		FROM scored
		GROUP BY 1, 2
		HAVING COUNT(*) FILTER (WHERE ABS(z) >= ?) >= ?
		ORDER BY max_abs_z DESC
		LIMIT 50`,
		r.ident(r.cols.Location), r.ident(r.cols.Category),
		r.ident(r.cols.EffectiveDay), r.ident(r.cols.Measure),
		strings.Join(where, " AND "))

	params = append(params, p.Z, p.Z, p.MinDays)
	res, err := r.querier.Query(ctx, sqlText, params)
	if err != nil {
		return nil, fmt.Errorf("category anomaly query: %w", err)
	}
	return res, nil
}
