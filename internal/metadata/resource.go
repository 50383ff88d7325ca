package metadata

import (
	"fmt"
	"regexp"
)

// FilterMode selects how a filter value is compared against its column.
type FilterMode string

const (
	Equals            FilterMode = "equals"
	ContainsSubstring FilterMode = "contains-substring"
	JSONContains      FilterMode = "json-contains"
)

// Columns every resource table carries. They are managed by the engine and
// can never appear among a resource's Fields.
const (
	IDColumn        = "id"
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"

	IDKey        = "id"
	CreatedAtKey = "createdAt"
	UpdatedAtKey = "updatedAt"
)

type Filter struct {
	Key    string     `json:"key"`
	Column string     `json:"column"`
	Mode   FilterMode `json:"mode"`
}

type OrderClause struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

// Check is an expression rule evaluated against a write payload. The
// expression returns true when the payload violates it.
type Check struct {
	Field      string `json:"field,omitempty"`
	Expression string `json:"expression"`
	Message    string `json:"message"`

	// Compiled holds the compiled expression program (set lazily, not serialized).
	Compiled any `json:"-"`
}

type Resource struct {
	Name  string `json:"name"`  // resource-type tag, e.g. "notes"
	Label string `json:"label"` // human name used in messages
	Table string `json:"table"`

	OwnerField string `json:"owner_field"`
	OwnerKey   string `json:"owner_key"`

	// CollaboratorField names a JSON array column of identities granted read
	// access (and update access when CollaboratorsMayUpdate is set). Empty when
	// the resource is owner-only.
	CollaboratorField      string `json:"collaborator_field,omitempty"`
	CollaboratorsMayUpdate bool   `json:"collaborators_may_update,omitempty"`

	Fields   []Field       `json:"fields"`
	Filters  []Filter      `json:"filters"`
	Required []string      `json:"required"`
	Ordering []OrderClause `json:"ordering"`
	Checks   []*Check      `json:"checks,omitempty"`
}

// GetField returns a pointer to the field with the given external key, or nil.
func (r *Resource) GetField(key string) *Field {
	for i := range r.Fields {
		if r.Fields[i].Key == key {
			return &r.Fields[i]
		}
	}
	return nil
}

// FieldByColumn returns the field backed by the given column, or nil.
func (r *Resource) FieldByColumn(column string) *Field {
	for i := range r.Fields {
		if r.Fields[i].Column == column {
			return &r.Fields[i]
		}
	}
	return nil
}

// UpdatableFields returns fields that may be set on update, in declared order.
func (r *Resource) UpdatableFields() []Field {
	fields := make([]Field, 0, len(r.Fields))
	for _, f := range r.Fields {
		if f.CreateOnly {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// HasCollaborators reports whether the resource shares records with collaborators.
func (r *Resource) HasCollaborators() bool {
	return r.CollaboratorField != ""
}

// Columns returns every column of the backing table in select order.
func (r *Resource) Columns() []string {
	cols := []string{IDColumn, r.OwnerField}
	for _, f := range r.Fields {
		cols = append(cols, f.Column)
	}
	return append(cols, CreatedAtColumn, UpdatedAtColumn)
}

// IsRequired reports whether key must be present and non-empty on create.
func (r *Resource) IsRequired(key string) bool {
	for _, k := range r.Required {
		if k == key {
			return true
		}
	}
	return false
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks that every identifier the engine will ever interpolate into
// statement text is safe, and that no managed column is exposed as a field.
func (r *Resource) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("resource name required")
	}
	for _, ident := range []string{r.Table, r.OwnerField} {
		if !identRe.MatchString(ident) {
			return fmt.Errorf("resource %s: invalid identifier %q", r.Name, ident)
		}
	}
	if r.OwnerKey == "" {
		return fmt.Errorf("resource %s: owner key required", r.Name)
	}

	reservedCols := map[string]bool{
		IDColumn: true, CreatedAtColumn: true, UpdatedAtColumn: true, r.OwnerField: true,
	}
	reservedKeys := map[string]bool{
		IDKey: true, CreatedAtKey: true, UpdatedAtKey: true, r.OwnerKey: true,
	}

	seenKeys := make(map[string]bool, len(r.Fields))
	seenCols := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		if !identRe.MatchString(f.Column) {
			return fmt.Errorf("resource %s: invalid column %q", r.Name, f.Column)
		}
		if reservedCols[f.Column] || reservedKeys[f.Key] {
			return fmt.Errorf("resource %s: field %s is managed by the engine", r.Name, f.Key)
		}
		if seenKeys[f.Key] || seenCols[f.Column] {
			return fmt.Errorf("resource %s: duplicate field %s", r.Name, f.Key)
		}
		switch f.Type {
		case Scalar, Array, Object:
		default:
			return fmt.Errorf("resource %s: field %s has unknown type %q", r.Name, f.Key, f.Type)
		}
		seenKeys[f.Key] = true
		seenCols[f.Column] = true
	}

	if r.CollaboratorField != "" {
		f := r.FieldByColumn(r.CollaboratorField)
		if f == nil || f.Type != Array {
			return fmt.Errorf("resource %s: collaborator field %s must be an array field", r.Name, r.CollaboratorField)
		}
	}

	for _, flt := range r.Filters {
		if flt.Column != r.OwnerField && !seenCols[flt.Column] {
			return fmt.Errorf("resource %s: filter %s references unknown column %s", r.Name, flt.Key, flt.Column)
		}
		if flt.Mode == JSONContains {
			if f := r.FieldByColumn(flt.Column); f == nil || !f.IsStructured() {
				return fmt.Errorf("resource %s: json filter %s needs a structured column", r.Name, flt.Key)
			}
		}
	}

	for _, key := range r.Required {
		if r.GetField(key) == nil {
			return fmt.Errorf("resource %s: required key %s is not a field", r.Name, key)
		}
	}

	for _, o := range r.Ordering {
		if !identRe.MatchString(o.Column) {
			return fmt.Errorf("resource %s: invalid order column %q", r.Name, o.Column)
		}
		if !reservedCols[o.Column] && !seenCols[o.Column] {
			return fmt.Errorf("resource %s: order column %s is not a column", r.Name, o.Column)
		}
	}
	return nil
}
