package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-backend/internal/metadata"
	"research-backend/internal/store"
)

var pg = store.NewDialect("postgres")

func TestBuildFilter_VisibilityOnly(t *testing.T) {
	pb := pg.NewParamBuilder()
	where, err := BuildFilter(pg, pb, metadata.NoteResource(), "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "user_id = $1", where)
	assert.Equal(t, []any{"alice"}, pb.Params())
}

func TestBuildFilter_CollaboratorVisibility(t *testing.T) {
	pb := pg.NewParamBuilder()
	where, err := BuildFilter(pg, pb, metadata.ProjectResource(), "bob", map[string]any{"status": "active"})
	require.NoError(t, err)
	assert.Equal(t, "(user_id = $1 OR collaborators @> jsonb_build_array($2::text)) AND status = $3", where)
	assert.Equal(t, []any{"bob", "bob", "active"}, pb.Params())
}

func TestBuildFilter_AllModesInDeclaredOrder(t *testing.T) {
	pb := pg.NewParamBuilder()
	where, err := BuildFilter(pg, pb, metadata.NoteResource(), "alice", map[string]any{
		"title":      "50%",
		"tags":       "ml",
		"bogus":      "ignored",
		"type":       "idea",
		"isFavorite": "true",
		"userId":     "mallory",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`user_id = $1 AND type = $2 AND is_favorite = $3 AND tags @> $4::jsonb AND title ILIKE $5 ESCAPE '\'`,
		where)
	assert.Equal(t, []any{"alice", "idea", true, `["ml"]`, `%50\%%`}, pb.Params())
}

func TestBuildFilter_JSONValues(t *testing.T) {
	pb := pg.NewParamBuilder()
	_, err := BuildFilter(pg, pb, metadata.ProjectResource(), "a", map[string]any{
		"tags":          `["x","y"]`,
		"collaborators": []any{"b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "a", `["x","y"]`, `["b"]`}, pb.Params())
}

func TestBuildFilter_CoercesToColumnKind(t *testing.T) {
	pb := pg.NewParamBuilder()
	where, err := BuildFilter(pg, pb, metadata.CitationResource(), "a", map[string]any{"year": "2024"})
	require.NoError(t, err)
	assert.Equal(t, "user_id = $1 AND year = $2", where)
	assert.Equal(t, []any{"a", int64(2024)}, pb.Params())
}

func TestBuildFilter_InvalidValue(t *testing.T) {
	pb := pg.NewParamBuilder()
	_, err := BuildFilter(pg, pb, metadata.CitationResource(), "a", map[string]any{"year": "recent"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "year", appErr.Details[0].Field)
}

func TestBuildFilter_SkipsEmptyValues(t *testing.T) {
	pb := pg.NewParamBuilder()
	where, err := BuildFilter(pg, pb, metadata.TimelineResource(), "a", map[string]any{"type": "", "priority": nil})
	require.NoError(t, err)
	assert.Equal(t, "user_id = $1", where)
}

// Every accepted filter adds exactly one placeholder on top of the visibility
// clause, for every subset of every resource's filters.
func TestBuildFilter_PlaceholderCount(t *testing.T) {
	for _, res := range metadata.Default().AllResources() {
		visibility := 1
		if res.HasCollaborators() {
			visibility = 2
		}
		n := len(res.Filters)
		for mask := 0; mask < 1<<n; mask++ {
			filters := map[string]any{"notAFilter": "x"}
			accepted := 0
			for i, f := range res.Filters {
				if mask&(1<<i) != 0 {
					filters[f.Key] = sampleFilterValue(res, f)
					accepted++
				}
			}

			pb := pg.NewParamBuilder()
			where, err := BuildFilter(pg, pb, res, "alice", filters)
			require.NoError(t, err, "%s mask %b", res.Name, mask)

			want := accepted + visibility
			assert.Equal(t, want, pb.Count(), "%s mask %b", res.Name, mask)
			assert.Len(t, pb.Params(), want)
			assert.Equal(t, want, strings.Count(where, "$"), "%s: %s", res.Name, where)
		}
	}
}

func sampleFilterValue(res *metadata.Resource, f metadata.Filter) any {
	if f.Mode != metadata.Equals {
		return "x"
	}
	switch res.FieldByColumn(f.Column).ScalarKind() {
	case metadata.KindInt:
		return "7"
	case metadata.KindBool:
		return "false"
	default:
		return "x"
	}
}

func TestScopeToIdentity(t *testing.T) {
	projects := metadata.ProjectResource()
	notes := metadata.NoteResource()

	tests := []struct {
		name   string
		res    *metadata.Resource
		action Action
		want   string
	}{
		{"project read", projects, ActionRead, "(user_id = $1 OR collaborators @> jsonb_build_array($2::text))"},
		{"project update", projects, ActionUpdate, "(user_id = $1 OR collaborators @> jsonb_build_array($2::text))"},
		{"project delete", projects, ActionDelete, "user_id = $1"},
		{"note read", notes, ActionRead, "user_id = $1"},
		{"note update", notes, ActionUpdate, "user_id = $1"},
		{"note delete", notes, ActionDelete, "user_id = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScopeToIdentity(pg, pg.NewParamBuilder(), tt.res, "u", tt.action))
		})
	}

	readOnly := metadata.ProjectResource()
	readOnly.CollaboratorsMayUpdate = false
	assert.Equal(t, "user_id = $1", ScopeToIdentity(pg, pg.NewParamBuilder(), readOnly, "u", ActionUpdate))
}
