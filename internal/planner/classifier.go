package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"duck-agent/internal/domain"
)

// Classifier turns free-text questions into ParseResults. Dispatch is an
// ordered rule table: analytics keyword triggers first, then the
// deterministic aggregation patterns, first match wins. Classification is
// a pure function of (question, schema) — identical inputs yield
// identical results.
type Classifier struct {
	conv     Conventions
	topNFull *regexp.Regexp
	rules    []rule
}

// rule pairs a cheap "does this text belong to me" predicate with the
// extractor that builds the result. Predicates never extract parameters;
// extraction lives in the build funcs so each rule is testable alone.
type rule struct {
	name  string
	match func(lower string) bool
	build func(c *Classifier, question, lower string, schema *domain.SchemaSnapshot) domain.ParseResult
}

// New creates a Classifier using the given column conventions.
func New(conv Conventions) *Classifier {
	c := &Classifier{
		conv:     conv,
		topNFull: regexp.MustCompile(`top\s+(\d+)\s+([a-zA-Z0-9_]+).*by.*` + regexp.QuoteMeta(conv.Measure)),
	}
	sumMeasure := func(lower string) bool {
		return strings.Contains(lower, conv.Measure) &&
			(strings.Contains(lower, "sum") || strings.Contains(lower, "total"))
	}
	c.rules = []rule{
		{name: "correlation", match: matchSubstr("correlat"), build: (*Classifier).buildCorrelation},
		{name: "clustering", match: matchSubstr("cluster"), build: (*Classifier).buildClustering},
		{name: "anomalies_iqr", match: matchAny("iqr", "outlier"), build: (*Classifier).buildIQR},
		{name: "sudden_shifts", match: matchAny("sudden", "shift"), build: (*Classifier).buildShifts},
		{name: "trends", match: matchSubstr("trend"), build: (*Classifier).buildTrends},
		{name: "anomalies_vs_category", match: matchSubstr("anomal"), build: (*Classifier).buildCategoryAnomalies},
		{name: "row_count", match: matchRowCount, build: (*Classifier).buildRowCount},
		{name: "distinct_count", match: matchRegexp(distinctRe), build: (*Classifier).buildDistinct},
		{name: "sum_measure", match: sumMeasure, build: (*Classifier).buildSumMeasure},
		{name: "top_n", match: c.topNFull.MatchString, build: (*Classifier).buildTopN},
		{name: "group_totals", match: matchRegexp(groupTotalsRe), build: (*Classifier).buildGroupTotals},
	}
	return c
}

// Classify runs the rule table over the question. Failure to match any
// pattern is the expected common case for free text and is represented as
// unknown intent, never an error.
func (c *Classifier) Classify(question string, schema *domain.SchemaSnapshot) domain.ParseResult {
	lower := strings.ToLower(strings.TrimSpace(question))
	for _, r := range c.rules {
		if r.match(lower) {
			return r.build(c, strings.TrimSpace(question), lower, schema)
		}
	}
	return domain.ParseResult{Intent: domain.IntentUnknown, Notes: "no simple parse"}
}

var (
	distinctRe    = regexp.MustCompile(`distinct\s+([a-zA-Z0-9_]+)`)
	groupTotalsRe = regexp.MustCompile(`total.*\bby\s+([a-zA-Z0-9_]+(?:\s*,\s*[a-zA-Z0-9_]+)*)`)
	byClauseRe    = regexp.MustCompile(`\bby\s+([a-zA-Z0-9_]+(?:\s*,\s*[a-zA-Z0-9_]+)*)`)
	countWordRe   = regexp.MustCompile(`\bcount\b`)
)

func matchSubstr(sub string) func(string) bool {
	return func(lower string) bool { return strings.Contains(lower, sub) }
}

func matchAny(subs ...string) func(string) bool {
	return func(lower string) bool {
		for _, s := range subs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

func matchRegexp(re *regexp.Regexp) func(string) bool {
	return func(lower string) bool { return re.MatchString(lower) }
}

func matchRowCount(lower string) bool {
	return countWordRe.MatchString(lower) && !strings.Contains(lower, "distinct")
}

// timeBuckets maps the recognized "by <granularity>" phrases to date_trunc
// granularities, in fixed emission order.
var timeBuckets = []struct {
	phrase      string
	granularity string
}{
	{"by month", "month"},
	{"by quarter", "quarter"},
	{"by week", "week"},
	{"by year", "year"},
}

var bucketWords = map[string]bool{"month": true, "quarter": true, "week": true, "year": true, "day": true}

func (c *Classifier) buildRowCount(question, _ string, schema *domain.SchemaSnapshot) domain.ParseResult {
	plan := &domain.QueryPlan{
		Filters:      c.ExtractFilters(question, schema),
		Aggregations: []domain.Projection{{Alias: "row_count", Expr: "COUNT(*)"}},
	}
	return domain.ParseResult{Intent: domain.IntentDeterministic, Plan: plan, Notes: "count rows"}
}

func (c *Classifier) buildDistinct(question, lower string, schema *domain.SchemaSnapshot) domain.ParseResult {
	token := distinctRe.FindStringSubmatch(lower)[1]
	col, ok := ResolveColumn(schema, token)
	if !ok {
		return unknownWithSuggestions(schema, token)
	}
	plan := &domain.QueryPlan{
		Filters: c.ExtractFilters(question, schema),
		Aggregations: []domain.Projection{
			{Alias: "distinct_count", Expr: fmt.Sprintf("COUNT(DISTINCT %s)", col)},
		},
	}
	return domain.ParseResult{
		Intent: domain.IntentDeterministic,
		Plan:   plan,
		Notes:  "distinct count of " + col,
	}
}

func (c *Classifier) buildSumMeasure(question, lower string, schema *domain.SchemaSnapshot) domain.ParseResult {
	totalAlias := "total_" + c.conv.Measure

	var groupBy []string
	var dropped []string
	if m := byClauseRe.FindStringSubmatch(lower); m != nil {
		for _, token := range splitTokens(m[1]) {
			if bucketWords[token] {
				continue
			}
			if col, ok := ResolveColumn(schema, token); ok {
				groupBy = append(groupBy, col)
			} else {
				// Unresolved grouping tokens are dropped, not fatal. The
				// note surfaces them so callers can warn.
				dropped = append(dropped, token)
			}
		}
	}

	var selectExprs []domain.Projection
	var groupExprs []string
	if dayCol, ok := ResolveColumn(schema, c.conv.EffectiveDay); ok {
		for _, b := range timeBuckets {
			if strings.Contains(lower, b.phrase) {
				expr := fmt.Sprintf("date_trunc('%s', %s)", b.granularity, dayCol)
				selectExprs = append(selectExprs, domain.Projection{Alias: b.granularity, Expr: expr})
				groupExprs = append(groupExprs, expr)
			}
		}
	}

	grouped := len(groupBy) > 0 || len(groupExprs) > 0
	plan := &domain.QueryPlan{
		SelectExprs:    selectExprs,
		Filters:        c.ExtractFilters(question, schema),
		GroupByColumns: groupBy,
		GroupByExprs:   groupExprs,
		Aggregations: []domain.Projection{
			{Alias: totalAlias, Expr: fmt.Sprintf("SUM(%s)", c.conv.Measure)},
		},
	}
	if grouped {
		plan.OrderBy = []domain.OrderTerm{{Expr: totalAlias, Direction: domain.Descending}}
		limit := 10
		plan.Limit = &limit
	}

	notes := "sum " + c.conv.Measure
	if len(groupBy) > 0 {
		notes += " by " + strings.Join(groupBy, ", ")
	}
	if len(groupExprs) > 0 {
		notes += " by time bucket"
	}
	if len(dropped) > 0 {
		notes += " (dropped unresolved: " + strings.Join(dropped, ", ") + ")"
	}
	return domain.ParseResult{Intent: domain.IntentDeterministic, Plan: plan, Notes: notes}
}

func (c *Classifier) buildTopN(question, lower string, schema *domain.SchemaSnapshot) domain.ParseResult {
	m := c.topNFull.FindStringSubmatch(lower)
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return domain.ParseResult{Intent: domain.IntentUnknown, Notes: "no simple parse"}
	}
	col, ok := ResolveColumn(schema, m[2])
	if !ok {
		return unknownWithSuggestions(schema, m[2])
	}

	totalAlias := "total_" + c.conv.Measure
	plan := &domain.QueryPlan{
		DirectColumns:  []string{col},
		Filters:        c.ExtractFilters(question, schema),
		GroupByColumns: []string{col},
		Aggregations: []domain.Projection{
			{Alias: totalAlias, Expr: fmt.Sprintf("SUM(%s)", c.conv.Measure)},
		},
		OrderBy: []domain.OrderTerm{{Expr: totalAlias, Direction: domain.Descending}},
		Limit:   &n,
	}
	return domain.ParseResult{
		Intent: domain.IntentDeterministic,
		Plan:   plan,
		Notes:  fmt.Sprintf("top %d %s by total %s", n, col, c.conv.Measure),
	}
}

func (c *Classifier) buildGroupTotals(question, lower string, schema *domain.SchemaSnapshot) domain.ParseResult {
	m := groupTotalsRe.FindStringSubmatch(lower)
	var cols []string
	var firstUnresolved string
	for _, token := range splitTokens(m[1]) {
		if bucketWords[token] {
			continue
		}
		if col, ok := ResolveColumn(schema, token); ok {
			cols = append(cols, col)
		} else if firstUnresolved == "" {
			firstUnresolved = token
		}
	}
	if len(cols) == 0 {
		if firstUnresolved != "" {
			return unknownWithSuggestions(schema, firstUnresolved)
		}
		return domain.ParseResult{Intent: domain.IntentUnknown, Notes: "no simple parse"}
	}

	totalAlias := "total_" + c.conv.Measure
	plan := &domain.QueryPlan{
		DirectColumns:  cols,
		Filters:        c.ExtractFilters(question, schema),
		GroupByColumns: cols,
		Aggregations: []domain.Projection{
			{Alias: totalAlias, Expr: fmt.Sprintf("SUM(%s)", c.conv.Measure)},
		},
		OrderBy: []domain.OrderTerm{{Expr: totalAlias, Direction: domain.Descending}},
	}
	return domain.ParseResult{
		Intent: domain.IntentDeterministic,
		Plan:   plan,
		Notes:  "totals by " + strings.Join(cols, ", "),
	}
}

func unknownWithSuggestions(schema *domain.SchemaSnapshot, token string) domain.ParseResult {
	return domain.ParseResult{
		Intent:      domain.IntentUnknown,
		Notes:       fmt.Sprintf("could not resolve column %q", token),
		Suggestions: SuggestColumns(schema, token, 5),
	}
}

func splitTokens(list string) []string {
	var tokens []string
	for _, raw := range strings.Split(list, ",") {
		if t := strings.TrimSpace(raw); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
