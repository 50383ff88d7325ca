package engine

import (
	"fmt"
	"time"

	"research-backend/internal/metadata"
	"research-backend/internal/store"
)

// BuildUpdate returns the SET assignments for a partial update. Only the
// resource's updatable fields are considered, in declared order; every other
// key is dropped. The last assignment always advances updated_at to now.
//
// An update with no updatable keys fails with NoUpdateFields before any value
// is bound.
func BuildUpdate(d store.Dialect, pb store.ParamBuilder, res *metadata.Resource, updates map[string]any, now time.Time) ([]string, error) {
	fields := res.UpdatableFields()
	accepted := fields[:0:0]
	for _, f := range fields {
		if _, ok := updates[f.Key]; ok {
			accepted = append(accepted, f)
		}
	}
	if len(accepted) == 0 {
		return nil, NoUpdateFieldsError()
	}

	var sets []string
	var errs []ErrorDetail
	for i := range accepted {
		f := &accepted[i]
		val := updates[f.Key]

		if res.IsRequired(f.Key) && isEmpty(val) {
			errs = append(errs, ErrorDetail{Field: f.Key, Rule: "required", Message: fmt.Sprintf("%s cannot be empty", f.Key)})
			continue
		}

		if f.IsStructured() {
			literal, err := encodeStructured(f, val)
			if err != nil {
				errs = append(errs, ErrorDetail{Field: f.Key, Rule: "type", Message: fmt.Sprintf("%s %s", f.Key, err.Error())})
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = %s", f.Column, d.StructuredParam(pb.Add(literal))))
			continue
		}

		coerced, err := coerceScalar(f, val)
		if err != nil {
			errs = append(errs, ErrorDetail{Field: f.Key, Rule: "type", Message: fmt.Sprintf("%s %s", f.Key, err.Error())})
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", f.Column, pb.Add(coerced)))
	}

	if len(errs) > 0 {
		return nil, ValidationError(errs)
	}

	sets = append(sets, fmt.Sprintf("%s = %s", metadata.UpdatedAtColumn,
		d.AdvanceTimeExpr(metadata.UpdatedAtColumn, pb.Add(d.TimeParam(now)))))
	return sets, nil
}

// updatePayload returns the coerced values of the updatable keys in updates,
// keyed by external key. It is the record the checks see on update.
func updatePayload(res *metadata.Resource, updates map[string]any) map[string]any {
	out := make(map[string]any)
	for _, f := range res.UpdatableFields() {
		val, ok := updates[f.Key]
		if !ok {
			continue
		}
		if f.IsStructured() {
			out[f.Key] = val
			continue
		}
		if coerced, err := coerceScalar(&f, val); err == nil {
			out[f.Key] = coerced
		}
	}
	return out
}
