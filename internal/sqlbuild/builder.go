// Package sqlbuild compiles a domain.QueryPlan into a parameterized DuckDB
// query over a parquet dataset. Every literal value travels as a bound
// parameter; identifiers are quote-escaped.
package sqlbuild

import (
	"fmt"
	"strings"

	"duck-agent/internal/domain"
)

// DefaultRowLimit is the unconditional ceiling applied when a plan carries
// no explicit limit. Every compiled query has a LIMIT.
const DefaultRowLimit = 1000

// EscapeIdent wraps an identifier in double quotes, doubling any embedded
// quote characters so it can never break out of the quoted position.
func EscapeIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Build compiles a plan against the resolved schema into query text plus
// its positional parameters. The dataset path is the first parameter (the
// read_parquet argument) and the row limit is always the last.
//
// Column references in DirectColumns, GroupByColumns, and filters must
// exist in the schema; a miss returns UnknownColumnError, which indicates
// a classifier defect rather than bad user input.
func Build(datasetPath string, plan *domain.QueryPlan, schema *domain.SchemaSnapshot) (string, []interface{}, error) {
	if err := validate(plan, schema); err != nil {
		return "", nil, err
	}

	params := []interface{}{datasetPath}

	var selectParts []string
	for _, p := range plan.SelectExprs {
		selectParts = append(selectParts, fmt.Sprintf("%s AS %s", p.Expr, EscapeIdent(p.Alias)))
	}
	for _, p := range plan.Aggregations {
		selectParts = append(selectParts, fmt.Sprintf("%s AS %s", p.Expr, EscapeIdent(p.Alias)))
	}
	for _, c := range plan.DirectColumns {
		selectParts = append(selectParts, EscapeIdent(c))
	}
	if len(selectParts) == 0 {
		selectParts = []string{"*"}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selectParts, ", "))
	sb.WriteString(" FROM read_parquet(?)")

	var whereParts []string
	for _, f := range plan.Filters {
		clause, vals := compileFilter(f)
		whereParts = append(whereParts, clause)
		params = append(params, vals...)
	}
	if len(whereParts) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(whereParts, " AND "))
	}

	var groupParts []string
	groupParts = append(groupParts, plan.GroupByExprs...)
	for _, c := range plan.GroupByColumns {
		groupParts = append(groupParts, EscapeIdent(c))
	}
	if len(groupParts) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groupParts, ", "))
	}

	if len(plan.OrderBy) > 0 {
		var orderParts []string
		for _, o := range plan.OrderBy {
			orderParts = append(orderParts, fmt.Sprintf("%s %s", o.Expr, o.Direction))
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orderParts, ", "))
	}

	limit := DefaultRowLimit
	if plan.Limit != nil {
		limit = *plan.Limit
	}
	sb.WriteString(" LIMIT ?")
	params = append(params, limit)

	return sb.String(), params, nil
}

func compileFilter(f domain.Filter) (string, []interface{}) {
	col := EscapeIdent(f.Column)
	switch f.Op {
	case domain.OpIn:
		vals := f.Value.([]interface{})
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
		return fmt.Sprintf("%s IN (%s)", col, placeholders), vals
	case domain.OpBetween:
		vals := f.Value.([]interface{})
		return fmt.Sprintf("%s BETWEEN ? AND ?", col), vals
	default:
		return fmt.Sprintf("%s %s ?", col, f.Op), []interface{}{f.Value}
	}
}

func validate(plan *domain.QueryPlan, schema *domain.SchemaSnapshot) error {
	for _, c := range plan.DirectColumns {
		if !schema.HasColumn(c) {
			return domain.ErrUnknownColumn(c)
		}
	}
	for _, c := range plan.GroupByColumns {
		if !schema.HasColumn(c) {
			return domain.ErrUnknownColumn(c)
		}
	}
	for _, f := range plan.Filters {
		if !schema.HasColumn(f.Column) {
			return domain.ErrUnknownColumn(f.Column)
		}
		if err := f.Validate(); err != nil {
			return err
		}
	}

	// Colliding output aliases would make result columns ambiguous.
	seen := make(map[string]bool)
	for _, p := range plan.SelectExprs {
		if seen[p.Alias] {
			return domain.ErrValidation("duplicate output alias %q", p.Alias)
		}
		seen[p.Alias] = true
	}
	for _, p := range plan.Aggregations {
		if seen[p.Alias] {
			return domain.ErrValidation("duplicate output alias %q", p.Alias)
		}
		seen[p.Alias] = true
	}
	return nil
}
