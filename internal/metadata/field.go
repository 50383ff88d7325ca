package metadata

// FieldType tags how a column is stored and bound.
type FieldType string

const (
	Scalar FieldType = "scalar"
	Array  FieldType = "array"
	Object FieldType = "object"
)

// Scalar storage kinds. Only meaningful for Scalar fields.
const (
	KindText  = "text"
	KindInt   = "int"
	KindFloat = "float"
	KindBool  = "bool"
	KindDate  = "date"
)

type Field struct {
	Key        string    `json:"key"`    // external key as seen by clients
	Column     string    `json:"column"` // backing column, never taken from input
	Type       FieldType `json:"type"`
	Kind       string    `json:"kind,omitempty"`
	Default    any       `json:"default,omitempty"`
	CreateOnly bool      `json:"create_only,omitempty"`
}

// IsStructured returns true for array and object fields.
func (f Field) IsStructured() bool {
	return f.Type == Array || f.Type == Object
}

// EmptyValue returns the stored default for a structured field when the
// caller supplied nothing.
func (f Field) EmptyValue() any {
	switch f.Type {
	case Array:
		return []any{}
	case Object:
		return map[string]any{}
	default:
		return nil
	}
}

// ScalarKind returns the storage kind, defaulting to text.
func (f Field) ScalarKind() string {
	if f.Kind == "" {
		return KindText
	}
	return f.Kind
}
