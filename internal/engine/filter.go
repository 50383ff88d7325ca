package engine

import (
	"fmt"
	"strings"

	"research-backend/internal/metadata"
	"research-backend/internal/store"
)

// BuildFilter returns the WHERE predicate for a read of res by identity. The
// visibility predicate comes first, then one condition per accepted filter in
// the order the resource declares its filters. Keys the resource does not
// declare are ignored, as are nil and empty-string values. Every value is
// bound through pb; only registry identifiers reach the statement text.
func BuildFilter(d store.Dialect, pb store.ParamBuilder, res *metadata.Resource, identity string, filters map[string]any) (string, error) {
	where := []string{ScopeToIdentity(d, pb, res, identity, ActionRead)}

	var errs []ErrorDetail
	for _, flt := range res.Filters {
		val, ok := filters[flt.Key]
		if !ok || val == nil {
			continue
		}
		if s, isStr := val.(string); isStr && s == "" {
			continue
		}

		clause, err := filterClause(d, pb, res, flt, val)
		if err != nil {
			errs = append(errs, ErrorDetail{
				Field:   flt.Key,
				Rule:    "filter",
				Message: fmt.Sprintf("%s %s", flt.Key, err.Error()),
			})
			continue
		}
		where = append(where, clause)
	}

	if len(errs) > 0 {
		return "", ValidationError(errs)
	}
	return strings.Join(where, " AND "), nil
}

func filterClause(d store.Dialect, pb store.ParamBuilder, res *metadata.Resource, flt metadata.Filter, val any) (string, error) {
	switch flt.Mode {
	case metadata.ContainsSubstring:
		s, ok := val.(string)
		if !ok {
			return "", fmt.Errorf("must be a string")
		}
		return d.ContainsExpr(flt.Column, pb.Add(store.LikePattern(s))), nil

	case metadata.JSONContains:
		literal, err := encodeFilterJSON(val)
		if err != nil {
			return "", err
		}
		return d.JSONContainsExpr(flt.Column, pb.Add(literal)), nil

	default:
		f := res.FieldByColumn(flt.Column)
		if f == nil {
			f = &metadata.Field{Key: flt.Key, Column: flt.Column, Type: metadata.Scalar}
		}
		coerced, err := coerceScalar(f, val)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", flt.Column, pb.Add(coerced)), nil
	}
}
