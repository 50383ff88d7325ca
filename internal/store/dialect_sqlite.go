package store

import (
	"fmt"
	"strings"
	"time"
)

// SQLiteTimeLayout is the fixed-width UTC layout timestamps are stored in, so
// that text ordering matches chronological ordering.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &paramBuilder{placeholder: d.Placeholder}
}

func (d *SQLiteDialect) ColumnType(kind string) string {
	switch kind {
	case "int", "bool":
		return "INTEGER"
	case "float":
		return "REAL"
	default:
		return "TEXT"
	}
}

func (d *SQLiteDialect) StructuredColumnType() string { return "TEXT" }
func (d *SQLiteDialect) TimestampColumnType() string  { return "TEXT" }

func (d *SQLiteDialect) StructuredParam(placeholder string) string {
	return fmt.Sprintf("json(%s)", placeholder)
}

// ContainsExpr relies on SQLite's LIKE being case-insensitive for ASCII.
func (d *SQLiteDialect) ContainsExpr(column, placeholder string) string {
	return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, column, placeholder)
}

// JSONContainsExpr mirrors PostgreSQL's @> for one level: every element of the
// wanted array (or every key/value pair of the wanted object) must be present
// in the column.
func (d *SQLiteDialect) JSONContainsExpr(column, placeholder string) string {
	return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM json_each(%s) AS want WHERE NOT EXISTS "+
		"(SELECT 1 FROM json_each(%s) AS have WHERE have.value = want.value "+
		"AND (typeof(want.key) = 'integer' OR have.key = want.key)))", placeholder, column)
}

func (d *SQLiteDialect) MemberExpr(column, placeholder string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = %s)", column, placeholder)
}

func (d *SQLiteDialect) StructuredIndexSQL(_, _ string) string { return "" }

func (d *SQLiteDialect) AdvanceTimeExpr(_, placeholder string) string { return placeholder }

func (d *SQLiteDialect) TimeParam(t time.Time) any {
	return t.UTC().Format(SQLiteTimeLayout)
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "constraint failed: UNIQUE") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

// Compile-time check
var _ Dialect = (*SQLiteDialect)(nil)
