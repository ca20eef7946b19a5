package planner

import (
	"regexp"
	"strconv"
	"strings"

	"duck-agent/internal/domain"
)

var (
	yearRe        = regexp.MustCompile(`\b(20\d{2})\b`)
	stateRe       = regexp.MustCompile(`\b(?:[sS]tate|[iI]n)\s+([A-Z]{2})\b`)
	inListRe      = regexp.MustCompile(`\b([a-zA-Z0-9_]+)\s+in\s*\(([^)]+)\)`)
	inBareListRe  = regexp.MustCompile(`\b([a-zA-Z0-9_]+)\s+in\s+([^\s(][^\s]*(?:\s*,\s*[^\s,]+)+)`)
	betweenRe     = regexp.MustCompile(`\b([a-zA-Z0-9_]+)\s+between\s+(\d{4}-\d{2}-\d{2})\s+and\s+(\d{4}-\d{2}-\d{2})\b`)
	equalsRe      = regexp.MustCompile(`\b([a-zA-Z0-9_]+)\s*=\s*('[^']*'|"[^"]*"|[A-Za-z0-9_.\-]+)`)
	analyticParam = map[string]bool{
		"k": true, "scale": true, "scaling": true, "method": true, "window": true,
		"sigma": true, "z": true, "min_days": true, "limit": true, "by": true, "seed": true,
	}
)

// ExtractFilters scans question text for recognizable constraint phrases
// and emits typed filters in fixed rule order, so compiled query text is
// reproducible. Rules are independent and additive; each fires only when
// its column resolves against the schema.
//
// When both "receipts" and "deliveries" appear, both direction filters are
// emitted, ANDed into a contradiction that matches zero rows. That
// mirrors the long-standing behavior of the rules and is deliberate; the
// caller can warn, but the extractor does not pick a winner.
func (c *Classifier) ExtractFilters(text string, schema *domain.SchemaSnapshot) []domain.Filter {
	lower := strings.ToLower(text)
	// Value rules locate matches on the lowered text but slice values from
	// the original, so cased data values like state codes survive. Lowering
	// only preserves offsets byte for byte on ASCII text.
	src := text
	if len(src) != len(lower) {
		src = lower
	}
	var filters []domain.Filter

	// Bare year mention -> calendar-year range on the effective-day column.
	if m := yearRe.FindStringSubmatch(lower); m != nil {
		if col, ok := ResolveColumn(schema, c.conv.EffectiveDay); ok {
			year := m[1]
			f, err := domain.NewFilter(col, domain.OpBetween,
				[]interface{}{year + "-01-01", year + "-12-31"})
			if err == nil {
				filters = append(filters, f)
			}
		}
	}

	// Two-letter region code after "state" or "in". Matched against the
	// original text: region codes are only recognized uppercase.
	if m := stateRe.FindStringSubmatch(text); m != nil {
		if col, ok := ResolveColumn(schema, c.conv.RegionCode); ok {
			if f, err := domain.NewFilter(col, domain.OpEq, m[1]); err == nil {
				filters = append(filters, f)
			}
		}
	}

	// Signed-direction keywords.
	if col, ok := ResolveColumn(schema, c.conv.DirectionSign); ok {
		if strings.Contains(lower, "receipts") {
			if f, err := domain.NewFilter(col, domain.OpEq, -1); err == nil {
				filters = append(filters, f)
			}
		}
		if strings.Contains(lower, "deliveries") {
			if f, err := domain.NewFilter(col, domain.OpEq, 1); err == nil {
				filters = append(filters, f)
			}
		}
	}

	// Explicit "col in (a, b, c)" or "col in a,b,c".
	inIdx := inListRe.FindStringSubmatchIndex(lower)
	if inIdx == nil {
		inIdx = inBareListRe.FindStringSubmatchIndex(lower)
	}
	if inIdx != nil {
		if col, ok := ResolveColumn(schema, lower[inIdx[2]:inIdx[3]]); ok {
			var values []interface{}
			for _, raw := range strings.Split(src[inIdx[4]:inIdx[5]], ",") {
				v := strings.Trim(strings.TrimSpace(raw), `'"`)
				if v != "" {
					values = append(values, coerceScalar(v))
				}
			}
			if len(values) > 0 {
				if f, err := domain.NewFilter(col, domain.OpIn, values); err == nil {
					filters = append(filters, f)
				}
			}
		}
	}

	// Explicit "col between YYYY-MM-DD and YYYY-MM-DD".
	if m := betweenRe.FindStringSubmatch(lower); m != nil {
		if col, ok := ResolveColumn(schema, m[1]); ok {
			if f, err := domain.NewFilter(col, domain.OpBetween, []interface{}{m[2], m[3]}); err == nil {
				filters = append(filters, f)
			}
		}
	}

	// Explicit "col=value". Analytics parameter tokens (k=6, sigma=2.0)
	// are skipped so directive parameters never leak into filters.
	for _, idx := range equalsRe.FindAllStringSubmatchIndex(lower, -1) {
		name := lower[idx[2]:idx[3]]
		if analyticParam[name] {
			continue
		}
		col, ok := ResolveColumn(schema, name)
		if !ok {
			continue
		}
		value := strings.Trim(src[idx[4]:idx[5]], `'"`)
		if f, err := domain.NewFilter(col, domain.OpEq, coerceScalar(value)); err == nil {
			filters = append(filters, f)
		}
	}

	return filters
}

// coerceScalar turns a textual value into an int64 or float64 when it
// parses cleanly, otherwise keeps the string. Values stay bound parameters
// either way.
func coerceScalar(v string) interface{} {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
