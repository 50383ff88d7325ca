package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &paramBuilder{placeholder: d.Placeholder}
}

func (d *PostgresDialect) ColumnType(kind string) string {
	switch kind {
	case "int":
		return "BIGINT"
	case "float":
		return "DOUBLE PRECISION"
	case "bool":
		return "BOOLEAN"
	case "date":
		return "DATE"
	default:
		return "TEXT"
	}
}

func (d *PostgresDialect) StructuredColumnType() string { return "JSONB" }
func (d *PostgresDialect) TimestampColumnType() string  { return "TIMESTAMPTZ" }

func (d *PostgresDialect) StructuredParam(placeholder string) string {
	return placeholder + "::jsonb"
}

func (d *PostgresDialect) ContainsExpr(column, placeholder string) string {
	return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, column, placeholder)
}

func (d *PostgresDialect) JSONContainsExpr(column, placeholder string) string {
	return fmt.Sprintf("%s @> %s::jsonb", column, placeholder)
}

func (d *PostgresDialect) MemberExpr(column, placeholder string) string {
	return fmt.Sprintf("%s @> jsonb_build_array(%s::text)", column, placeholder)
}

func (d *PostgresDialect) StructuredIndexSQL(table, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s USING GIN (%s)", table, column, table, column)
}

func (d *PostgresDialect) AdvanceTimeExpr(column, placeholder string) string {
	return fmt.Sprintf("GREATEST(%s, %s + interval '1 microsecond')", placeholder, column)
}

func (d *PostgresDialect) TimeParam(t time.Time) any {
	return t.UTC()
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

// Compile-time check
var _ Dialect = (*PostgresDialect)(nil)
