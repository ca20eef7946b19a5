package analytics

import (
	"context"
	"fmt"
	"sort"

	"duck-agent/internal/domain"
)

// ClusterParams controls pipeline clustering.
type ClusterParams struct {
	K int
	// Scaling is "standard", "minmax", or "none".
	Scaling string
	Seed    int64
}

// Cluster groups pipelines by the shape of their monthly totals: one
// feature vector per pipeline over the dataset's month range (missing
// months count as zero), scaled, then k-means. Output is one row per
// pipeline with its cluster id plus the run's mean silhouette score.
func (r *Runner) Cluster(ctx context.Context, datasetPath string, p ClusterParams) (*domain.Result, error) {
	if p.K < 1 || p.K > 20 {
		return nil, domain.ErrValidation("cluster count must be in 1..20, got %d", p.K)
	}
	switch p.Scaling {
	case "standard", "minmax", "none":
	default:
		return nil, domain.ErrValidation("scaling must be standard, minmax, or none, got %q", p.Scaling)
	}

	sqlText := fmt.Sprintf(`SELECT %s AS pipeline, date_trunc('month', %s) AS month, SUM(%s) AS total
		FROM read_parquet(?)
		GROUP BY 1, 2
		ORDER BY 1, 2`,
		r.ident(r.cols.Pipeline), r.ident(r.cols.EffectiveDay), r.ident(r.cols.Measure))
	res, err := r.querier.Query(ctx, sqlText, []interface{}{datasetPath})
	if err != nil {
		return nil, fmt.Errorf("monthly totals query: %w", err)
	}

	names, vectors := pivotMonthly(res)
	if len(names) == 0 {
		return &domain.Result{Columns: []string{"pipeline", "cluster", "k", "scaling", "silhouette"}}, nil
	}
	k := p.K
	if k > len(names) {
		k = len(names)
	}

	switch p.Scaling {
	case "standard":
		scaleStandard(vectors)
	case "minmax":
		scaleMinMax(vectors)
	}

	assignments := kmeans(vectors, k, p.Seed)
	silhouette := meanSilhouette(vectors, assignments, k)

	out := &domain.Result{
		Columns:  []string{"pipeline", "cluster", "k", "scaling", "silhouette"},
		RowCount: len(names),
	}
	for i, name := range names {
		out.Rows = append(out.Rows, []interface{}{name, assignments[i], k, p.Scaling, silhouette})
	}
	return out, nil
}

// pivotMonthly turns (pipeline, month, total) rows into one dense vector
// per pipeline across the sorted union of months.
func pivotMonthly(res *domain.Result) ([]string, [][]float64) {
	type cell struct {
		pipeline string
		month    string
		total    float64
	}
	var cells []cell
	monthSet := make(map[string]bool)
	for _, row := range res.Rows {
		if len(row) < 3 {
			continue
		}
		name, _ := row[0].(string)
		if name == "" {
			continue
		}
		month := fmt.Sprint(row[1])
		cells = append(cells, cell{pipeline: name, month: month, total: asFloat(row[2])})
		monthSet[month] = true
	}

	months := make([]string, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Strings(months)
	monthIdx := make(map[string]int, len(months))
	for i, m := range months {
		monthIdx[m] = i
	}

	byPipeline := make(map[string][]float64)
	var names []string
	for _, c := range cells {
		vec, ok := byPipeline[c.pipeline]
		if !ok {
			vec = make([]float64, len(months))
			byPipeline[c.pipeline] = vec
			names = append(names, c.pipeline)
		}
		vec[monthIdx[c.month]] = c.total
	}
	sort.Strings(names)

	vectors := make([][]float64, len(names))
	for i, n := range names {
		vectors[i] = byPipeline[n]
	}
	return names, vectors
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
