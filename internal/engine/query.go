package engine

import (
	"fmt"
	"strings"
	"time"

	"research-backend/internal/metadata"
	"research-backend/internal/store"
)

type QueryResult struct {
	SQL    string
	Params []any
}

// BuildSelectSQL builds the scoped SELECT for list (id empty) and get-one.
func BuildSelectSQL(d store.Dialect, res *metadata.Resource, identity string, filters map[string]any, id string) (QueryResult, error) {
	pb := d.NewParamBuilder()

	where, err := BuildFilter(d, pb, res, identity, filters)
	if err != nil {
		return QueryResult{}, err
	}
	if id != "" {
		where += fmt.Sprintf(" AND %s = %s", metadata.IDColumn, pb.Add(id))
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(res.Columns(), ", "), res.Table, where)
	if order := orderBy(res); order != "" {
		sql += " ORDER BY " + order
	}
	return QueryResult{SQL: sql, Params: pb.Params()}, nil
}

// BuildInsertSQL builds the INSERT for a new record. row is keyed by column
// and holds values already coerced for binding; structured columns hold JSON
// text.
func BuildInsertSQL(d store.Dialect, res *metadata.Resource, row map[string]any) QueryResult {
	pb := d.NewParamBuilder()

	cols := res.Columns()
	placeholders := make([]string, 0, len(cols))
	for _, col := range cols {
		ph := pb.Add(row[col])
		if f := res.FieldByColumn(col); f != nil && f.IsStructured() {
			ph = d.StructuredParam(ph)
		}
		placeholders = append(placeholders, ph)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		res.Table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(cols, ", "))
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildUpdateSQL builds a single scoped UPDATE ... RETURNING. Rows outside the
// identity's update scope are simply not matched.
func BuildUpdateSQL(d store.Dialect, res *metadata.Resource, identity, id string, updates map[string]any, now time.Time) (QueryResult, error) {
	pb := d.NewParamBuilder()

	sets, err := BuildUpdate(d, pb, res, updates, now)
	if err != nil {
		return QueryResult{}, err
	}
	idPh := pb.Add(id)
	scope := ScopeToIdentity(d, pb, res, identity, ActionUpdate)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s AND %s RETURNING %s",
		res.Table,
		strings.Join(sets, ", "),
		metadata.IDColumn, idPh,
		scope,
		strings.Join(res.Columns(), ", "))
	return QueryResult{SQL: sql, Params: pb.Params()}, nil
}

// BuildDeleteSQL builds a single owner-scoped DELETE that returns the removed row.
func BuildDeleteSQL(d store.Dialect, res *metadata.Resource, identity, id string) QueryResult {
	pb := d.NewParamBuilder()

	idPh := pb.Add(id)
	scope := ScopeToIdentity(d, pb, res, identity, ActionDelete)

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND %s RETURNING %s",
		res.Table,
		metadata.IDColumn, idPh,
		scope,
		strings.Join(res.Columns(), ", "))
	return QueryResult{SQL: sql, Params: pb.Params()}
}

func orderBy(res *metadata.Resource) string {
	parts := make([]string, 0, len(res.Ordering))
	for _, o := range res.Ordering {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", o.Column, dir))
	}
	return strings.Join(parts, ", ")
}
