package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"research-backend/internal/metadata"
	"research-backend/internal/store"
)

// Record is a resource row keyed by external field key.
type Record map[string]any

const dateLayout = "2006-01-02"

// coerceScalar converts a caller-supplied value to the Go type bound for the
// field's storage kind. It never converts between unrelated shapes: a string
// column rejects numbers, an int column rejects fractions.
func coerceScalar(f *metadata.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch v.(type) {
	case []any, map[string]any, []string:
		return nil, fmt.Errorf("must be a single value")
	}

	switch f.ScalarKind() {
	case metadata.KindInt:
		return toInt64(v)
	case metadata.KindFloat:
		return toFloat(v)
	case metadata.KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("must be a boolean")
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("must be a boolean")
	case metadata.KindDate:
		switch d := v.(type) {
		case time.Time:
			return d.Format(dateLayout), nil
		case string:
			s := strings.TrimSpace(d)
			if t, err := time.Parse(dateLayout, s); err == nil {
				return t.Format(dateLayout), nil
			}
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t.Format(dateLayout), nil
			}
		}
		return nil, fmt.Errorf("must be a date (YYYY-MM-DD)")
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return s, nil
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("must be an integer")
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		return i, nil
	}
	return 0, fmt.Errorf("must be an integer")
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		return f, nil
	}
	return 0, fmt.Errorf("must be a number")
}

// encodeStructured serializes an array/object value to the JSON literal that
// is bound as a parameter. A nil value becomes the type's empty default.
func encodeStructured(f *metadata.Field, v any) (string, error) {
	if v == nil {
		v = f.EmptyValue()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("must be valid JSON")
	}
	switch f.Type {
	case metadata.Array:
		if len(b) == 0 || b[0] != '[' {
			return "", fmt.Errorf("must be an array")
		}
	case metadata.Object:
		if len(b) == 0 || b[0] != '{' {
			return "", fmt.Errorf("must be an object")
		}
	}
	return string(b), nil
}

// encodeFilterJSON serializes a json-contains filter value. JSON text is used
// as given; any other value is wrapped into a one-element array.
func encodeFilterJSON(v any) (string, error) {
	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			var decoded any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
				return "", fmt.Errorf("must be valid JSON")
			}
			v = decoded
		} else {
			v = []any{s}
		}
	}
	switch v.(type) {
	case []any, []string, map[string]any:
	default:
		v = []any{v}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("must be valid JSON")
	}
	return string(b), nil
}

// isEmpty reports whether a create payload value counts as missing.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

// toRecord decodes a row keyed by column into a Record keyed by external key.
func toRecord(res *metadata.Resource, row map[string]any) Record {
	rec := Record{
		metadata.IDKey:        asString(row[metadata.IDColumn]),
		res.OwnerKey:          asString(row[res.OwnerField]),
		metadata.CreatedAtKey: decodeTime(row[metadata.CreatedAtColumn]),
		metadata.UpdatedAtKey: decodeTime(row[metadata.UpdatedAtColumn]),
	}
	for i := range res.Fields {
		f := &res.Fields[i]
		rec[f.Key] = decodeValue(f, row[f.Column])
	}
	return rec
}

func decodeValue(f *metadata.Field, raw any) any {
	if f.IsStructured() {
		return decodeStructured(f, raw)
	}
	if raw == nil {
		return nil
	}
	switch f.ScalarKind() {
	case metadata.KindBool:
		switch b := raw.(type) {
		case bool:
			return b
		case int64:
			return b != 0
		case string:
			parsed, _ := strconv.ParseBool(b)
			return parsed
		}
	case metadata.KindInt:
		if i, err := toInt64(raw); err == nil {
			return i
		}
	case metadata.KindFloat:
		if fl, err := toFloat(raw); err == nil {
			return fl
		}
	case metadata.KindDate:
		switch d := raw.(type) {
		case time.Time:
			return d.Format(dateLayout)
		case string:
			if len(d) >= len(dateLayout) {
				return d[:len(dateLayout)]
			}
		}
	}
	return raw
}

func decodeStructured(f *metadata.Field, raw any) any {
	var text string
	switch v := raw.(type) {
	case nil:
		return f.EmptyValue()
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		// Driver already decoded the JSON.
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil || decoded == nil {
		return f.EmptyValue()
	}
	return decoded
}

var timeLayouts = []string{
	store.SQLiteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func decodeTime(raw any) any {
	switch t := raw.(type) {
	case time.Time:
		return t.UTC()
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC()
			}
		}
	}
	return raw
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
