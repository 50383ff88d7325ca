package engine

import (
	"fmt"

	"research-backend/internal/metadata"
	"research-backend/internal/store"
)

// Action is the kind of access a scope predicate grants.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ScopeToIdentity returns the visibility predicate restricting a statement to
// rows the identity may act on. Owners may do anything. Collaborators may read,
// and update when the resource allows it. Only owners delete.
//
// The predicate is always part of the single statement that reads or mutates
// the row, so a row that is missing and a row that belongs to someone else are
// indistinguishable to the caller.
func ScopeToIdentity(d store.Dialect, pb store.ParamBuilder, res *metadata.Resource, identity string, action Action) string {
	owner := fmt.Sprintf("%s = %s", res.OwnerField, pb.Add(identity))
	if !collaboratorsAllowed(res, action) {
		return owner
	}
	member := d.MemberExpr(res.CollaboratorField, pb.Add(identity))
	return fmt.Sprintf("(%s OR %s)", owner, member)
}

func collaboratorsAllowed(res *metadata.Resource, action Action) bool {
	if !res.HasCollaborators() {
		return false
	}
	switch action {
	case ActionRead:
		return true
	case ActionUpdate:
		return res.CollaboratorsMayUpdate
	default:
		return false
	}
}
