package engine

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-backend/internal/config"
	"research-backend/internal/instrument"
	"research-backend/internal/metadata"
	"research-backend/internal/store"
)

// stepClock advances one second per reading so every write gets a distinct,
// strictly later timestamp.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type observation struct {
	resource, operation, outcome string
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (r *fakeRecorder) Observe(resource, operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{resource, operation, outcome})
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "research"})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Bootstrap(ctx, metadata.Default().AllResources()))
	return s
}

func testService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s := testStore(t)
	opts = append([]Option{WithClock(newStepClock().Now)}, opts...)
	svc, err := NewService(s.DB, s.Dialect, metadata.Default(), opts...)
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func TestCreateCitation(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, metadata.Citations, "alice", map[string]any{
		"type":    "article",
		"title":   "X",
		"authors": []any{"A"},
		"year":    float64(2024),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec["id"])
	assert.Equal(t, "alice", rec["userId"])
	assert.Equal(t, rec["createdAt"], rec["updatedAt"])
	assert.Equal(t, []any{"A"}, rec["authors"])
	assert.Equal(t, int64(2024), rec["year"])
	assert.Equal(t, false, rec["isFavorite"])
	assert.Equal(t, []any{}, rec["tags"])
	assert.Nil(t, rec["doi"])
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, metadata.Notes, "alice", map[string]any{"title": "Idea"})
	require.NoError(t, err)
	assert.Equal(t, "research", note["type"])
	assert.Equal(t, false, note["isPublic"])
	assert.Equal(t, []any{}, note["tags"])

	project, err := svc.Create(ctx, metadata.Projects, "alice", map[string]any{"title": "P", "description": "D"})
	require.NoError(t, err)
	assert.Equal(t, "planning", project["status"])
	assert.Equal(t, int64(0), project["progress"])
	assert.Equal(t, []any{}, project["collaborators"])

	file, err := svc.Create(ctx, metadata.Files, "alice", map[string]any{
		"name": "a.pdf", "type": "application/pdf", "size": 10, "url": "/a.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, file["metadata"])

	event, err := svc.Create(ctx, metadata.Timeline, "alice", map[string]any{
		"title": "Kickoff", "type": "milestone", "eventDate": "2024-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "medium", event["priority"])
	assert.Equal(t, false, event["completed"])
	assert.Equal(t, "2024-05-01", event["eventDate"])
}

func TestCreateIgnoresManagedKeys(t *testing.T) {
	svc := testService(t)

	rec, err := svc.Create(context.Background(), metadata.Notes, "alice", map[string]any{
		"title":     "Mine",
		"id":        "forged",
		"userId":    "mallory",
		"createdAt": "1999-01-01T00:00:00Z",
		"color":     "blue",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "forged", rec["id"])
	assert.Equal(t, "alice", rec["userId"])
	assert.NotContains(t, rec, "color")
}

func TestCreateValidation(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, metadata.Citations, "alice", map[string]any{
		"type": "book", "title": "  ", "authors": []any{},
	})
	assertCode(t, err, CodeValidation)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	fields := map[string]bool{}
	for _, d := range appErr.Details {
		fields[d.Field] = true
	}
	assert.Equal(t, map[string]bool{"title": true, "authors": true, "year": true}, fields)

	_, err = svc.Create(ctx, metadata.Notes, "alice", map[string]any{"title": "x", "tags": "a,b"})
	assertCode(t, err, CodeValidation)

	_, err = svc.Create(ctx, metadata.Projects, "alice", map[string]any{"title": "P", "description": "D", "progress": 150})
	assertCode(t, err, CodeValidation)

	_, err = svc.Create(ctx, metadata.Citations, "alice", map[string]any{
		"type": "book", "title": "T", "authors": []any{"A"}, "year": -3,
	})
	assertCode(t, err, CodeValidation)

	list, err := svc.List(ctx, metadata.Citations, "alice", nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListFiltersCitationsByType(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	article, err := svc.Create(ctx, metadata.Citations, "alice", map[string]any{
		"type": "article", "title": "A", "authors": []any{"X"}, "year": 2024,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, metadata.Citations, "alice", map[string]any{
		"type": "book", "title": "B", "authors": []any{"Y"}, "year": 2023,
	})
	require.NoError(t, err)

	list, err := svc.List(ctx, metadata.Citations, "alice", map[string]any{"type": "article", "unknown": "x"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, article["id"], list[0]["id"])

	all, err := svc.List(ctx, metadata.Citations, "alice", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0]["title"], "ordered by year descending")
}

func TestListOnlyReturnsOwnRecords(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, metadata.Notes, "alice", map[string]any{"title": "alice note"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, metadata.Notes, "bob", map[string]any{"title": "bob note"})
	require.NoError(t, err)

	list, err := svc.List(ctx, metadata.Notes, "bob", nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob note", list[0]["title"])

	none, err := svc.List(ctx, metadata.Notes, "carol", nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListFilterModes(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mk := func(title string, tags []any, fav bool) {
		_, err := svc.Create(ctx, metadata.Notes, "alice", map[string]any{"title": title, "tags": tags, "isFavorite": fav})
		require.NoError(t, err)
	}
	mk("Quantum computing", []any{"physics", "cs"}, true)
	mk("100% reproducible", []any{"cs"}, false)
	mk("1000 samples", []any{"stats"}, false)

	titles := func(filters map[string]any) []string {
		list, err := svc.List(ctx, metadata.Notes, "alice", filters)
		require.NoError(t, err)
		var out []string
		for _, r := range list {
			out = append(out, r["title"].(string))
		}
		return out
	}

	assert.Equal(t, []string{"Quantum computing"}, titles(map[string]any{"title": "QUANTUM"}))
	assert.Equal(t, []string{"100% reproducible"}, titles(map[string]any{"title": "100%"}))
	assert.ElementsMatch(t, []string{"Quantum computing", "100% reproducible"}, titles(map[string]any{"tags": "cs"}))
	assert.Equal(t, []string{"Quantum computing"}, titles(map[string]any{"tags": `["cs","physics"]`}))
	assert.Equal(t, []string{"Quantum computing"}, titles(map[string]any{"isFavorite": "true"}))
	assert.Empty(t, titles(map[string]any{"tags": "biology"}))

	_, err := svc.List(ctx, metadata.Notes, "alice", map[string]any{"isFavorite": "sometimes"})
	assertCode(t, err, CodeValidation)
}

func TestStructuredFieldsRoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, metadata.Notes, "alice", map[string]any{"title": "t", "tags": []any{"b", "a"}})
	require.NoError(t, err)

	got, err := svc.GetOne(ctx, metadata.Notes, "alice", rec["id"].(string), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "a"}, got["tags"])

	meta := map[string]any{"pages": float64(12), "lang": "en", "nested": map[string]any{"ok": true}}
	file, err := svc.Create(ctx, metadata.Files, "alice", map[string]any{
		"name": "paper.pdf", "type": "application/pdf", "size": 1, "url": "/p", "metadata": meta,
	})
	require.NoError(t, err)
	gotFile, err := svc.GetOne(ctx, metadata.Files, "alice", file["id"].(string), nil)
	require.NoError(t, err)
	assert.Equal(t, meta, gotFile["metadata"])
}

func TestProfileArraysRoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, metadata.Profiles, "alice", map[string]any{
		"name":           "Alice",
		"email":          "alice@uni.edu",
		"institution":    "State University",
		"researchTopics": []any{"graphs", "ml"},
		"methodologies":  []any{"survey"},
	})
	require.NoError(t, err)
	id := profile["id"].(string)
	assert.Equal(t, "public", profile["profileVisibility"])
	assert.Equal(t, true, profile["allowMessages"])
	assert.Equal(t, true, profile["researchUpdates"])
	assert.Equal(t, []any{}, profile["specializations"])

	got, err := svc.GetOne(ctx, metadata.Profiles, "alice", id, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"graphs", "ml"}, got["researchTopics"])
	assert.Equal(t, []any{"survey"}, got["methodologies"])

	updated, err := svc.Update(ctx, metadata.Profiles, "alice", id, map[string]any{
		"specializations": []any{"nlp"},
		"allowMessages":   false,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"nlp"}, updated["specializations"])
	assert.Equal(t, []any{"graphs", "ml"}, updated["researchTopics"])
	assert.Equal(t, false, updated["allowMessages"])

	byTopic, err := svc.List(ctx, metadata.Profiles, "alice", map[string]any{"researchTopics": "ml", "institution": "state"})
	require.NoError(t, err)
	require.Len(t, byTopic, 1)
	assert.Equal(t, id, byTopic[0]["id"])

	_, err = svc.GetOne(ctx, metadata.Profiles, "bob", id, nil)
	assertCode(t, err, CodeNotFound)

	_, err = svc.Create(ctx, metadata.Profiles, "bob", map[string]any{"name": "Bob"})
	assertCode(t, err, CodeValidation)
}

func TestCollaboratorCanUpdateProject(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	project, err := svc.Create(ctx, metadata.Projects, "A", map[string]any{
		"title": "Shared", "description": "D", "collaborators": []any{"B"},
	})
	require.NoError(t, err)
	id := project["id"].(string)

	updated, err := svc.Update(ctx, metadata.Projects, "B", id, map[string]any{"status": "active"})
	require.NoError(t, err)
	assert.Equal(t, "active", updated["status"])
	assert.Equal(t, "A", updated["userId"], "owner never changes")

	// Collaborators also see it.
	list, err := svc.List(ctx, metadata.Projects, "B", nil)
	require.NoError(t, err)
	require.Len(t, list, 1)

	byCollaborator, err := svc.List(ctx, metadata.Projects, "A", map[string]any{"collaborators": "B"})
	require.NoError(t, err)
	assert.Len(t, byCollaborator, 1)
}

func TestOutsiderCannotDeleteProject(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	project, err := svc.Create(ctx, metadata.Projects, "A", map[string]any{
		"title": "Shared", "description": "D", "collaborators": []any{"B"},
	})
	require.NoError(t, err)
	id := project["id"].(string)

	_, err = svc.Delete(ctx, metadata.Projects, "C", id)
	assertCode(t, err, CodeNotFound)
	assert.True(t, errors.Is(err, ErrNotFoundOrUnauthorized))

	// Collaborators cannot delete either.
	_, err = svc.Delete(ctx, metadata.Projects, "B", id)
	assertCode(t, err, CodeNotFound)

	list, err := svc.List(ctx, metadata.Projects, "A", nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])
}

func TestOtherIdentityCannotTouchRecord(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, metadata.Notes, "A", map[string]any{"title": "private"})
	require.NoError(t, err)
	id := note["id"].(string)

	_, err = svc.GetOne(ctx, metadata.Notes, "B", id, nil)
	assertCode(t, err, CodeNotFound)

	_, err = svc.Update(ctx, metadata.Notes, "B", id, map[string]any{"title": "hijacked"})
	assertCode(t, err, CodeNotFound)

	_, err = svc.Delete(ctx, metadata.Notes, "B", id)
	assertCode(t, err, CodeNotFound)

	got, err := svc.GetOne(ctx, metadata.Notes, "A", id, nil)
	require.NoError(t, err)
	assert.Equal(t, "private", got["title"])
	assert.Equal(t, note["updatedAt"], got["updatedAt"])
}

func TestNotFoundIsIndistinguishable(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, metadata.Notes, "A", map[string]any{"title": "x"})
	require.NoError(t, err)
	id := note["id"].(string)

	_, foreign := svc.GetOne(ctx, metadata.Notes, "B", id, nil)
	_, missing := svc.GetOne(ctx, metadata.Notes, "B", "does-not-exist", nil)

	var a, b *AppError
	require.True(t, errors.As(foreign, &a))
	require.True(t, errors.As(missing, &b))
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Status, b.Status)
	assert.Contains(t, a.Message, "not found or unauthorized")
	assert.Contains(t, b.Message, "not found or unauthorized")
}

func TestUpdateAdvancesUpdatedAt(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, metadata.Notes, "A", map[string]any{"title": "v1", "content": "body"})
	require.NoError(t, err)
	id := note["id"].(string)
	created := note["createdAt"].(time.Time)

	updated, err := svc.Update(ctx, metadata.Notes, "A", id, map[string]any{"title": "v2"})
	require.NoError(t, err)
	assert.Equal(t, "v2", updated["title"])
	assert.Equal(t, "body", updated["content"], "untouched fields are preserved")
	assert.Equal(t, created, updated["createdAt"])
	assert.True(t, updated["updatedAt"].(time.Time).After(created))

	again, err := svc.Update(ctx, metadata.Notes, "A", id, map[string]any{"isFavorite": true})
	require.NoError(t, err)
	assert.Equal(t, "v2", again["title"])
	assert.True(t, again["updatedAt"].(time.Time).After(updated["updatedAt"].(time.Time)))

	// A failed update leaves updatedAt alone.
	_, err = svc.Update(ctx, metadata.Notes, "A", id, map[string]any{"tags": "not-an-array"})
	assertCode(t, err, CodeValidation)
	got, err := svc.GetOne(ctx, metadata.Notes, "A", id, nil)
	require.NoError(t, err)
	assert.Equal(t, again["updatedAt"], got["updatedAt"])
}

func TestConcurrentPartialUpdatesBothPersist(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, metadata.Notes, "A", map[string]any{"title": "v1", "content": "body"})
	require.NoError(t, err)
	id := note["id"].(string)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, updates := range []map[string]any{
		{"title": "v2"},
		{"tags": []any{"x"}},
	} {
		wg.Add(1)
		go func(i int, updates map[string]any) {
			defer wg.Done()
			_, errs[i] = svc.Update(ctx, metadata.Notes, "A", id, updates)
		}(i, updates)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	got, err := svc.GetOne(ctx, metadata.Notes, "A", id, nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", got["title"])
	assert.Equal(t, []any{"x"}, got["tags"])
	assert.Equal(t, "body", got["content"])

	// Overlapping writes: the later one wins, the rest of the row is kept.
	_, err = svc.Update(ctx, metadata.Notes, "A", id, map[string]any{"title": "first", "isFavorite": true})
	require.NoError(t, err)
	_, err = svc.Update(ctx, metadata.Notes, "A", id, map[string]any{"title": "second"})
	require.NoError(t, err)

	got, err = svc.GetOne(ctx, metadata.Notes, "A", id, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", got["title"])
	assert.Equal(t, true, got["isFavorite"])
	assert.Equal(t, []any{"x"}, got["tags"])
}

func TestUpdateWithNoFields(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, metadata.Notes, "A", map[string]any{"title": "x"})
	require.NoError(t, err)
	id := note["id"].(string)

	_, err = svc.Update(ctx, metadata.Notes, "A", id, map[string]any{})
	assertCode(t, err, CodeNoUpdateFields)

	// Takes precedence over authorization: an outsider gets the same answer.
	_, err = svc.Update(ctx, metadata.Notes, "Z", id, map[string]any{"bogus": 1})
	assertCode(t, err, CodeNoUpdateFields)

	got, err := svc.GetOne(ctx, metadata.Notes, "A", id, nil)
	require.NoError(t, err)
	assert.Equal(t, note["updatedAt"], got["updatedAt"])
}

func TestUpdateChecksAndCreateOnly(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	project, err := svc.Create(ctx, metadata.Projects, "A", map[string]any{"title": "P", "description": "D"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, metadata.Projects, "A", project["id"].(string), map[string]any{"progress": 101})
	assertCode(t, err, CodeValidation)

	event, err := svc.Create(ctx, metadata.Timeline, "A", map[string]any{
		"projectId": "p1", "title": "T", "type": "deadline", "eventDate": "2024-02-01",
	})
	require.NoError(t, err)
	_, err = svc.Update(ctx, metadata.Timeline, "A", event["id"].(string), map[string]any{"projectId": "p2"})
	assertCode(t, err, CodeNoUpdateFields)

	moved, err := svc.Update(ctx, metadata.Timeline, "A", event["id"].(string), map[string]any{"projectId": "p2", "completed": true})
	require.NoError(t, err)
	assert.Equal(t, "p1", moved["projectId"])
	assert.Equal(t, true, moved["completed"])
}

func TestDeleteReturnsRemovedRecord(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, metadata.Notes, "A", map[string]any{"title": "gone soon", "tags": []any{"x"}})
	require.NoError(t, err)
	id := note["id"].(string)

	removed, err := svc.Delete(ctx, metadata.Notes, "A", id)
	require.NoError(t, err)
	assert.Equal(t, id, removed["id"])
	assert.Equal(t, []any{"x"}, removed["tags"])

	_, err = svc.GetOne(ctx, metadata.Notes, "A", id, nil)
	assertCode(t, err, CodeNotFound)

	_, err = svc.Delete(ctx, metadata.Notes, "A", id)
	assertCode(t, err, CodeNotFound)
}

func TestTimelineOrderedByEventDate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	for _, d := range []string{"2024-03-01", "2024-01-15", "2024-02-10"} {
		_, err := svc.Create(ctx, metadata.Timeline, "A", map[string]any{"title": d, "type": "milestone", "eventDate": d})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, metadata.Timeline, "A", nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-01-15", list[0]["eventDate"])
	assert.Equal(t, "2024-02-10", list[1]["eventDate"])
	assert.Equal(t, "2024-03-01", list[2]["eventDate"])
}

func TestUnknownResourceType(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "invoices", "A", map[string]any{"title": "x"})
	assertCode(t, err, CodeUnknownResourceType)
	_, err = svc.List(ctx, "invoices", "A", nil)
	assertCode(t, err, CodeUnknownResourceType)
	_, err = svc.GetOne(ctx, "invoices", "A", "1", nil)
	assertCode(t, err, CodeUnknownResourceType)
	_, err = svc.Update(ctx, "invoices", "A", "1", map[string]any{"title": "x"})
	assertCode(t, err, CodeUnknownResourceType)
	_, err = svc.Delete(ctx, "invoices", "A", "1")
	assertCode(t, err, CodeUnknownResourceType)
}

func TestEmptyIdentityRejected(t *testing.T) {
	svc := testService(t)

	_, err := svc.List(context.Background(), metadata.Notes, "", nil)
	assertCode(t, err, CodeUnauthorized)
	_, err = svc.Create(context.Background(), metadata.Notes, "", map[string]any{"title": "x"})
	assertCode(t, err, CodeUnauthorized)
}

func TestStoreFailureIsOpaque(t *testing.T) {
	s := testStore(t)
	svc, err := NewService(s.DB, s.Dialect, metadata.Default())
	require.NoError(t, err)
	s.Close()

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	ctx := instrument.WithUserID(instrument.WithTraceID(context.Background(), "trace-9"), "A")
	_, err = svc.List(ctx, metadata.Notes, "A", nil)
	assertCode(t, err, CodeStore)
	assert.Contains(t, logs.String(), "[trace=trace-9 user=A]")
	assert.True(t, errors.Is(err, ErrStore))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Internal server error", appErr.Message)
	assert.Error(t, errors.Unwrap(appErr), "cause kept for logging")
}

func TestRecorderObservesOutcomes(t *testing.T) {
	rec := &fakeRecorder{}
	svc := testService(t, WithRecorder(rec), WithIDGenerator(func() string { return "fixed-id" }))
	ctx := context.Background()

	note, err := svc.Create(ctx, metadata.Notes, "A", map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", note["id"])

	_, _ = svc.GetOne(ctx, metadata.Notes, "B", "fixed-id", nil)
	_, _ = svc.Update(ctx, metadata.Notes, "A", "fixed-id", nil)
	_, _ = svc.List(ctx, "invoices", "A", nil)

	assert.Equal(t, []observation{
		{"notes", "create", "ok"},
		{"notes", "get", "not_found"},
		{"notes", "update", "rejected"},
		{"unknown", "list", "rejected"},
	}, rec.obs)
}

func TestRecorderLabelDoesNotAliasTag(t *testing.T) {
	rec := &fakeRecorder{}
	svc := testService(t, WithRecorder(rec))

	// Mimic a router handing out a view into a buffer it reuses.
	buf := []byte(metadata.Projects)
	tag := unsafe.String(&buf[0], len(buf))
	_, err := svc.List(context.Background(), tag, "A", nil)
	require.NoError(t, err)
	copy(buf, "xxxxxxxx")

	require.Len(t, rec.obs, 1)
	assert.Equal(t, "projects", rec.obs[0].resource)
}
