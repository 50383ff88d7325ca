package store

import (
	"context"
	"fmt"
	"log"
	"strings"

	"research-backend/internal/metadata"
)

// Bootstrap creates the backing table of every resource if it does not exist.
// It never alters an existing table.
func (s *Store) Bootstrap(ctx context.Context, resources []*metadata.Resource) error {
	for _, res := range resources {
		for _, stmt := range TableSQL(s.Dialect, res) {
			if _, err := Exec(ctx, s.DB, stmt); err != nil {
				return fmt.Errorf("bootstrap %s: %w", res.Table, err)
			}
		}
	}
	log.Printf("Bootstrapped %d resource tables", len(resources))
	return nil
}

// TableSQL returns the CREATE TABLE and CREATE INDEX statements for a resource.
// Identifiers come from the validated registry only.
func TableSQL(d Dialect, res *metadata.Resource) []string {
	cols := []string{
		fmt.Sprintf("%s TEXT PRIMARY KEY", metadata.IDColumn),
		fmt.Sprintf("%s TEXT NOT NULL", res.OwnerField),
	}
	for _, f := range res.Fields {
		cols = append(cols, columnDef(d, f))
	}
	ts := d.TimestampColumnType()
	cols = append(cols,
		fmt.Sprintf("%s %s NOT NULL", metadata.CreatedAtColumn, ts),
		fmt.Sprintf("%s %s NOT NULL", metadata.UpdatedAtColumn, ts),
	)

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", res.Table, strings.Join(cols, ",\n    ")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", res.Table, res.OwnerField, res.Table, res.OwnerField),
	}
	if res.HasCollaborators() {
		if idx := d.StructuredIndexSQL(res.Table, res.CollaboratorField); idx != "" {
			stmts = append(stmts, idx)
		}
	}
	return stmts
}

func columnDef(d Dialect, f metadata.Field) string {
	switch f.Type {
	case metadata.Array:
		return fmt.Sprintf("%s %s NOT NULL DEFAULT '[]'", f.Column, d.StructuredColumnType())
	case metadata.Object:
		return fmt.Sprintf("%s %s NOT NULL DEFAULT '{}'", f.Column, d.StructuredColumnType())
	default:
		return fmt.Sprintf("%s %s", f.Column, d.ColumnType(f.ScalarKind()))
	}
}
