package domain

// FilterOp is a filter comparison operator, spelled the way it appears in SQL.
type FilterOp string

const (
	OpEq      FilterOp = "="
	OpNeq     FilterOp = "!="
	OpGt      FilterOp = ">"
	OpGte     FilterOp = ">="
	OpLt      FilterOp = "<"
	OpLte     FilterOp = "<="
	OpIn      FilterOp = "IN"
	OpBetween FilterOp = "BETWEEN"
	OpLike    FilterOp = "LIKE"
)

// Filter is one conjunctive WHERE clause of a query plan. For IN the value
// is a non-empty []interface{}; for BETWEEN it is exactly [low, high]; for
// every other operator it is a single scalar. Column membership in the
// schema is checked at compile time, not at construction.
type Filter struct {
	Column string
	Op     FilterOp
	Value  interface{}
}

// NewFilter constructs a Filter, failing fast with a MalformedFilterValueError
// when the value shape does not match the operator's arity.
func NewFilter(column string, op FilterOp, value interface{}) (Filter, error) {
	f := Filter{Column: column, Op: op, Value: value}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Validate checks the operator/value arity contract.
func (f Filter) Validate() error {
	vals, isList := f.Value.([]interface{})
	switch f.Op {
	case OpIn:
		if !isList || len(vals) == 0 {
			return ErrMalformedFilter(f.Column, f.Op, "IN requires a non-empty value list")
		}
	case OpBetween:
		if !isList || len(vals) != 2 {
			return ErrMalformedFilter(f.Column, f.Op, "BETWEEN requires exactly two values")
		}
	default:
		if isList {
			return ErrMalformedFilter(f.Column, f.Op, "operator takes a single scalar value")
		}
	}
	return nil
}

// Projection is an alias bound to a raw SQL expression, used for both
// computed select-expressions and aggregations. Plans carry projections as
// ordered slices rather than maps so compiled query text is deterministic.
type Projection struct {
	Alias string
	Expr  string
}

// OrderDirection is an ORDER BY direction.
type OrderDirection string

const (
	Ascending  OrderDirection = "ASC"
	Descending OrderDirection = "DESC"
)

// OrderTerm is one ORDER BY term: an expression (usually an output alias)
// and its direction.
type OrderTerm struct {
	Expr      string
	Direction OrderDirection
}

// QueryPlan is the intermediate representation of a deterministic
// aggregation request. It is built once by the classifier, compiled once,
// and discarded — a value, not a managed resource.
type QueryPlan struct {
	// DirectColumns are raw column projections, emitted after computed
	// expressions and aggregations.
	DirectColumns []string
	// SelectExprs are computed projections, e.g. a month truncation.
	SelectExprs []Projection
	// Filters combine conjunctively.
	Filters []Filter
	// GroupByColumns are plain grouping keys.
	GroupByColumns []string
	// GroupByExprs are computed grouping keys matching SelectExprs.
	GroupByExprs []string
	// Aggregations map output aliases to aggregate expressions,
	// e.g. {total_qty, SUM(scheduled_quantity)}.
	Aggregations []Projection
	OrderBy      []OrderTerm
	// Limit is the explicit row limit; nil means the compiler applies its
	// default ceiling.
	Limit *int
}

// Intent classifies what the planner made of a question.
type Intent string

const (
	IntentDeterministic Intent = "deterministic"
	IntentAnalytic      Intent = "analytic"
	IntentUnknown       Intent = "unknown"
)

// AnalyticDirective names an external analytics routine and its resolved
// parameters, bypassing plan compilation entirely.
type AnalyticDirective struct {
	Tool   string
	Params map[string]interface{}
}

// ParseResult is the classifier's output. Exactly one of Plan (intent
// deterministic) or Directive (intent analytic) is set; both are nil for
// unknown intent, where Suggestions may carry column-name hints.
type ParseResult struct {
	Intent      Intent
	Plan        *QueryPlan
	Directive   *AnalyticDirective
	Notes       string
	Suggestions []string
}
