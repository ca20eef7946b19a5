package domain

// Result is the single tabular value type every component consumes and
// produces: ordered column names, row-major values, and the row count.
type Result struct {
	Columns  []string
	Rows     [][]interface{}
	RowCount int
}

// FirstRow returns the first row keyed by column name, or nil when the
// result is empty. Used for concise-answer extraction.
func (r *Result) FirstRow() map[string]interface{} {
	if r == nil || r.RowCount == 0 || len(r.Rows) == 0 {
		return nil
	}
	row := make(map[string]interface{}, len(r.Columns))
	for i, name := range r.Columns {
		if i < len(r.Rows[0]) {
			row[name] = r.Rows[0][i]
		}
	}
	return row
}

// Truncated returns a copy limited to at most n rows. The backing row
// slices are shared, not copied.
func (r *Result) Truncated(n int) *Result {
	if r == nil || len(r.Rows) <= n {
		return r
	}
	return &Result{Columns: r.Columns, Rows: r.Rows[:n], RowCount: n}
}
