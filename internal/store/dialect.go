package store

import "time"

// Dialect abstracts database-specific SQL generation and behavior.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// NewParamBuilder creates a dialect-aware parameter builder.
	NewParamBuilder() ParamBuilder

	// ColumnType maps a scalar field kind to the database DDL type.
	ColumnType(kind string) string

	// StructuredColumnType returns the DDL type for array/object columns.
	StructuredColumnType() string

	// TimestampColumnType returns the DDL type for created_at/updated_at.
	TimestampColumnType() string

	// StructuredParam wraps a placeholder so the bound JSON text is stored as
	// a structured value.
	// PostgreSQL: "$n::jsonb". SQLite: "json(?n)".
	StructuredParam(placeholder string) string

	// ContainsExpr builds a case-insensitive substring match. The bound value
	// must already carry the surrounding % wildcards (see LikePattern).
	ContainsExpr(column, placeholder string) string

	// JSONContainsExpr builds a containment test of the bound JSON literal
	// against a structured column.
	JSONContainsExpr(column, placeholder string) string

	// MemberExpr tests whether the bound string is an element of a JSON array column.
	MemberExpr(column, placeholder string) string

	// StructuredIndexSQL returns an index statement for a structured column,
	// or empty string if the database has no suitable index type.
	StructuredIndexSQL(table, column string) string

	// AdvanceTimeExpr is the value assigned to a timestamp column on update.
	// PostgreSQL never lets it move backwards or stand still, even when the
	// clock does. SQLite assigns the bound value as is.
	AdvanceTimeExpr(column, placeholder string) string

	// TimeParam encodes a timestamp for binding.
	TimeParam(t time.Time) any

	// MapError inspects a driver error and returns a well-known sentinel error if applicable.
	MapError(err error) error
}

// ParamBuilder accumulates query parameters and generates dialect-specific placeholders.
type ParamBuilder interface {
	// Add appends a value and returns the placeholder string.
	Add(v any) string

	// Params returns all accumulated parameter values.
	Params() []any

	// Count returns the number of parameters added so far.
	Count() int
}

// NewDialect creates a Dialect for the given driver name ("postgres" or "sqlite").
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{}
	}
}

// LikePattern escapes LIKE metacharacters in s and wraps it in % wildcards,
// for use with ContainsExpr (which declares backslash as the escape character).
func LikePattern(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '%')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(append(out, '%'))
}

// paramBuilder numbers parameters in the order they are added, rendering
// each placeholder through the owning dialect.
type paramBuilder struct {
	placeholder func(int) string
	params      []any
}

func (p *paramBuilder) Add(v any) string {
	p.params = append(p.params, v)
	return p.placeholder(len(p.params))
}

func (p *paramBuilder) Params() []any { return p.params }
func (p *paramBuilder) Count() int    { return len(p.params) }
