package planner

import (
	"regexp"
	"strconv"
	"strings"

	"duck-agent/internal/domain"
)

// Analytics tool names, shared with the analytics runner and the LLM
// fallback planner.
const (
	ToolCorrelation         = "correlation"
	ToolClustering          = "clustering"
	ToolAnomaliesIQR        = "anomalies_iqr"
	ToolSuddenShifts        = "sudden_shifts"
	ToolTrends              = "trends"
	ToolAnomaliesVsCategory = "anomalies_vs_category"
)

// Documented parameter defaults for the analytics triggers.
const (
	DefaultClusterK      = 5
	DefaultClusterSeed   = 42
	DefaultIQRK          = 1.5
	DefaultShiftWindow   = 7
	DefaultShiftSigma    = 3.0
	DefaultAnomalyZ      = 3.0
	DefaultMinAnomalyDay = 3
	DefaultResultLimit   = 50
)

// scanInt extracts an embedded "key=value" integer from the question,
// falling back to def when absent or unparsable.
func scanInt(lower, key string, def int) int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\s*=\s*(\d+)`)
	m := re.FindStringSubmatch(lower)
	if m == nil {
		return def
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return def
	}
	return n
}

// scanFloat is scanInt for floating-point parameters like sigma=2.5.
func scanFloat(lower, key string, def float64) float64 {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\s*=\s*(\d+(?:\.\d+)?)`)
	m := re.FindStringSubmatch(lower)
	if m == nil {
		return def
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return def
	}
	return f
}

// scanWord extracts "key=word" restricted to an allowed vocabulary.
func scanWord(lower, key string, allowed []string, def string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\s*=\s*(` + strings.Join(allowed, "|") + `)\b`)
	m := re.FindStringSubmatch(lower)
	if m == nil {
		return def
	}
	return m[1]
}

func analyticResult(tool string, params map[string]interface{}, notes string) domain.ParseResult {
	return domain.ParseResult{
		Intent:    domain.IntentAnalytic,
		Directive: &domain.AnalyticDirective{Tool: tool, Params: params},
		Notes:     notes,
	}
}

func (c *Classifier) buildCorrelation(_, lower string, _ *domain.SchemaSnapshot) domain.ParseResult {
	method := scanWord(lower, "method", []string{"pearson", "spearman"}, "pearson")
	if method == "pearson" && strings.Contains(lower, "spearman") {
		method = "spearman"
	}
	return analyticResult(ToolCorrelation, map[string]interface{}{
		"method":         method,
		"include_pvalue": strings.Contains(lower, "pvalue") || strings.Contains(lower, "p-value"),
	}, "correlation of daily totals across top pipelines")
}

func (c *Classifier) buildClustering(_, lower string, _ *domain.SchemaSnapshot) domain.ParseResult {
	scaling := scanWord(lower, "scale", []string{"standard", "minmax", "none"}, "")
	if scaling == "" {
		scaling = scanWord(lower, "scaling", []string{"standard", "minmax", "none"}, "standard")
	}
	return analyticResult(ToolClustering, map[string]interface{}{
		"k":       scanInt(lower, "k", DefaultClusterK),
		"scaling": scaling,
		"seed":    scanInt(lower, "seed", DefaultClusterSeed),
	}, "k-means clustering of pipeline monthly totals")
}

func (c *Classifier) buildIQR(_, lower string, _ *domain.SchemaSnapshot) domain.ParseResult {
	return analyticResult(ToolAnomaliesIQR, map[string]interface{}{
		"k":     scanFloat(lower, "k", DefaultIQRK),
		"limit": scanInt(lower, "limit", DefaultResultLimit),
	}, "IQR outliers of daily totals")
}

func (c *Classifier) buildShifts(_, lower string, _ *domain.SchemaSnapshot) domain.ParseResult {
	return analyticResult(ToolSuddenShifts, map[string]interface{}{
		"window": scanInt(lower, "window", DefaultShiftWindow),
		"sigma":  scanFloat(lower, "sigma", DefaultShiftSigma),
		"limit":  scanInt(lower, "limit", DefaultResultLimit),
	}, "rolling-window deviations of daily totals")
}

func (c *Classifier) buildTrends(_, lower string, _ *domain.SchemaSnapshot) domain.ParseResult {
	by := scanWord(lower, "by", []string{"month", "day"}, "")
	if by == "" {
		by = "month"
		if strings.Contains(lower, "daily") || strings.Contains(lower, "by day") {
			by = "day"
		}
	}
	return analyticResult(ToolTrends, map[string]interface{}{
		"by":  by,
		"yoy": strings.Contains(lower, "yoy") || strings.Contains(lower, "year over year"),
	}, "trend summary with moving averages")
}

func (c *Classifier) buildCategoryAnomalies(question, lower string, _ *domain.SchemaSnapshot) domain.ParseResult {
	params := map[string]interface{}{
		"z":        scanFloat(lower, "z", DefaultAnomalyZ),
		"min_days": scanInt(lower, "min_days", DefaultMinAnomalyDay),
	}
	if m := yearRe.FindStringSubmatch(lower); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			params["year"] = year
		}
	}
	if m := stateRe.FindStringSubmatch(question); m != nil {
		params["state"] = m[1]
	}
	// Last keyword wins here, unlike the filter extractor: a directive
	// carries a single direction parameter.
	if strings.Contains(lower, "receipts") {
		params["rec_del_sign"] = -1
	}
	if strings.Contains(lower, "deliveries") {
		params["rec_del_sign"] = 1
	}
	return analyticResult(ToolAnomaliesVsCategory, params, "location anomalies vs category baselines")
}
