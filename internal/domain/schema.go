package domain

import "strings"

// ColumnInfo describes one physical column of a dataset: its name and the
// engine's declared type (e.g. VARCHAR, DATE, DOUBLE). Immutable once loaded.
type ColumnInfo struct {
	Name string
	Type string
}

// datetimeTypeHints are the substrings of a declared type name that mark a
// column as a datetime column. Matched case-insensitively.
var datetimeTypeHints = []string{"DATE", "TIMESTAMP", "TIME"}

// IsDatetimeType reports whether a declared column type names a date or
// time type.
func IsDatetimeType(typeName string) bool {
	upper := strings.ToUpper(typeName)
	for _, hint := range datetimeTypeHints {
		if strings.Contains(upper, hint) {
			return true
		}
	}
	return false
}

// SchemaSnapshot is the memoized schema of one dataset: the ordered column
// list plus the set of datetime-typed column names. Snapshots are created
// once per dataset identity and never mutated afterwards.
type SchemaSnapshot struct {
	Columns         []ColumnInfo
	DatetimeColumns map[string]bool
}

// NewSchemaSnapshot builds a snapshot from an ordered column list,
// classifying datetime columns by their declared type.
func NewSchemaSnapshot(columns []ColumnInfo) *SchemaSnapshot {
	dt := make(map[string]bool)
	for _, c := range columns {
		if IsDatetimeType(c.Type) {
			dt[c.Name] = true
		}
	}
	return &SchemaSnapshot{Columns: columns, DatetimeColumns: dt}
}

// HasColumn reports whether the exact column name exists in the schema.
func (s *SchemaSnapshot) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in schema order.
func (s *SchemaSnapshot) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// HasDatetimeColumn reports whether the named column exists and carries a
// datetime type.
func (s *SchemaSnapshot) HasDatetimeColumn(name string) bool {
	return s.DatetimeColumns[name]
}
