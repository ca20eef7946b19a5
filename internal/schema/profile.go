package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"duck-agent/internal/domain"
)

// Querier executes a parameterized query and returns a tabular result.
type Querier interface {
	Query(ctx context.Context, sqlText string, params []interface{}) (*domain.Result, error)
}

// ColumnProfile holds lightweight data-quality stats for one column,
// computed from a row sample plus a single approximate-distinct pass.
type ColumnProfile struct {
	NullRate       float64
	ApproxDistinct int64
}

type profileKey struct {
	dataset    string
	sampleRows int
}

// ProfileCache memoizes per-dataset column profiles. Profiles feed caveat
// generation (flagging high-null columns) and are never required for
// planning or compilation.
type ProfileCache struct {
	querier Querier

	mu       sync.Mutex
	profiles map[profileKey]map[string]ColumnProfile
}

// NewProfileCache creates a ProfileCache backed by the given querier.
func NewProfileCache(q Querier) *ProfileCache {
	return &ProfileCache{querier: q, profiles: make(map[profileKey]map[string]ColumnProfile)}
}

func escapeIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// GetOrProfile returns the memoized profile for (dataset, sampleRows),
// computing it on first use. Null rates come from a bounded sample; distinct
// counts use approx_count_distinct over the full dataset in one pass.
func (p *ProfileCache) GetOrProfile(ctx context.Context, datasetPath string, sampleRows int) (map[string]ColumnProfile, error) {
	key := profileKey{dataset: datasetPath, sampleRows: sampleRows}
	p.mu.Lock()
	if prof, ok := p.profiles[key]; ok {
		p.mu.Unlock()
		return prof, nil
	}
	p.mu.Unlock()

	describe, err := p.querier.Query(ctx, "DESCRIBE SELECT * FROM read_parquet(?) LIMIT 0", []interface{}{datasetPath})
	if err != nil {
		return nil, domain.ErrDatasetUnreadable(datasetPath, err)
	}
	var columns []string
	for _, row := range describe.Rows {
		if len(row) > 0 {
			if name, ok := row[0].(string); ok && name != "" {
				columns = append(columns, name)
			}
		}
	}

	profile := make(map[string]ColumnProfile, len(columns))
	if len(columns) > 0 {
		distinct, err := p.approxDistinct(ctx, datasetPath, columns)
		if err != nil {
			return nil, fmt.Errorf("approx distinct pass: %w", err)
		}

		nullRates := make([]float64, len(columns))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, col := range columns {
			g.Go(func() error {
				rate, err := p.nullRate(gctx, datasetPath, col, sampleRows)
				if err != nil {
					return fmt.Errorf("null rate for %s: %w", col, err)
				}
				nullRates[i] = rate
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, col := range columns {
			profile[col] = ColumnProfile{NullRate: nullRates[i], ApproxDistinct: distinct[i]}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.profiles[key]; ok {
		return existing, nil
	}
	p.profiles[key] = profile
	return profile, nil
}

func (p *ProfileCache) approxDistinct(ctx context.Context, datasetPath string, columns []string) ([]int64, error) {
	exprs := make([]string, len(columns))
	for i, c := range columns {
		exprs[i] = fmt.Sprintf("approx_count_distinct(%s)", escapeIdent(c))
	}
	res, err := p.querier.Query(ctx,
		fmt.Sprintf("SELECT %s FROM read_parquet(?)", strings.Join(exprs, ", ")),
		[]interface{}{datasetPath})
	if err != nil {
		return nil, err
	}
	counts := make([]int64, len(columns))
	if len(res.Rows) > 0 {
		for i := range columns {
			if i < len(res.Rows[0]) {
				counts[i] = toInt64(res.Rows[0][i])
			}
		}
	}
	return counts, nil
}

func (p *ProfileCache) nullRate(ctx context.Context, datasetPath string, column string, sampleRows int) (float64, error) {
	res, err := p.querier.Query(ctx,
		fmt.Sprintf(
			"SELECT SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END), COUNT(*) FROM (SELECT %s FROM read_parquet(?) USING SAMPLE ? ROWS)",
			escapeIdent(column), escapeIdent(column)),
		[]interface{}{datasetPath, sampleRows})
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) < 2 {
		return 0, nil
	}
	nulls := toInt64(res.Rows[0][0])
	total := toInt64(res.Rows[0][1])
	if total == 0 {
		return 0, nil
	}
	return float64(nulls) / float64(total), nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
