package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"research-backend/internal/instrument"
	"research-backend/internal/metadata"
	"research-backend/internal/store"
)

// Service is the resource access facade. It resolves a resource-type tag
// through the registry, builds one scoped statement per operation and runs it
// against the injected store. It holds no mutable state and is safe for
// concurrent use.
type Service struct {
	db       store.Querier
	dialect  store.Dialect
	registry *metadata.Registry
	now      func() time.Time
	newID    func() string
	recorder instrument.Recorder
}

type Option func(*Service)

// WithClock replaces the source of record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the source of record ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithRecorder sets the recorder that observes every operation.
func WithRecorder(r instrument.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a Service over db. Every check expression of the
// registry is compiled here so a broken one fails at startup.
func NewService(db store.Querier, dialect store.Dialect, reg *metadata.Registry, opts ...Option) (*Service, error) {
	if err := CompileChecks(reg.AllResources()); err != nil {
		return nil, err
	}
	s := &Service{
		db:       db,
		dialect:  dialect,
		registry: reg,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
		recorder: instrument.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Registry returns the registry the service resolves tags against.
func (s *Service) Registry() *metadata.Registry {
	return s.registry
}

// Create validates payload and inserts a new record owned by identity. Keys
// that are not fields of the resource are ignored, including id, the owner
// and timestamps.
func (s *Service) Create(ctx context.Context, tag, identity string, payload map[string]any) (Record, error) {
	return s.CreateWithID(ctx, tag, identity, s.newID(), payload)
}

// CreateWithID is Create with an id chosen by the caller, for records whose
// id must be known before the insert (uploaded files link their blob by it).
func (s *Service) CreateWithID(ctx context.Context, tag, identity, id string, payload map[string]any) (rec Record, err error) {
	start := time.Now()
	defer func() { s.observe(tag, "create", start, err) }()

	res, err := s.resolve(tag, identity)
	if err != nil {
		return nil, err
	}

	row, checked, details := prepareCreate(res, payload)
	if len(details) == 0 {
		details = EvaluateChecks(res, checked, "create")
	}
	if len(details) > 0 {
		return nil, ValidationError(details)
	}

	now := s.dialect.TimeParam(s.now())
	row[metadata.IDColumn] = id
	row[res.OwnerField] = identity
	row[metadata.CreatedAtColumn] = now
	row[metadata.UpdatedAtColumn] = now

	q := BuildInsertSQL(s.dialect, res, row)
	created, err := store.QueryRow(ctx, s.db, q.SQL, q.Params...)
	if err != nil {
		return nil, s.storeError(ctx, res, "create", err)
	}
	return toRecord(res, created), nil
}

// List returns the records visible to identity that match filters, in the
// resource's default ordering.
func (s *Service) List(ctx context.Context, tag, identity string, filters map[string]any) (recs []Record, err error) {
	start := time.Now()
	defer func() { s.observe(tag, "list", start, err) }()

	res, err := s.resolve(tag, identity)
	if err != nil {
		return nil, err
	}

	q, err := BuildSelectSQL(s.dialect, res, identity, filters, "")
	if err != nil {
		return nil, err
	}
	rows, err := store.QueryRows(ctx, s.db, q.SQL, q.Params...)
	if err != nil {
		return nil, s.storeError(ctx, res, "list", err)
	}

	recs = make([]Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, toRecord(res, row))
	}
	return recs, nil
}

// GetOne returns a single record visible to identity. A record that does not
// exist and one that identity may not see fail the same way.
func (s *Service) GetOne(ctx context.Context, tag, identity, id string, filters map[string]any) (rec Record, err error) {
	start := time.Now()
	defer func() { s.observe(tag, "get", start, err) }()

	res, err := s.resolve(tag, identity)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, NotFoundError(res.Label, id)
	}

	q, err := BuildSelectSQL(s.dialect, res, identity, filters, id)
	if err != nil {
		return nil, err
	}
	row, err := store.QueryRow(ctx, s.db, q.SQL, q.Params...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundError(res.Label, id)
		}
		return nil, s.storeError(ctx, res, "get", err)
	}
	return toRecord(res, row), nil
}

// Update applies a partial update in one scoped statement. An update without
// updatable keys is rejected before the store is touched. Concurrent updates
// are last-write-wins per field.
func (s *Service) Update(ctx context.Context, tag, identity, id string, updates map[string]any) (rec Record, err error) {
	start := time.Now()
	defer func() { s.observe(tag, "update", start, err) }()

	res, err := s.resolve(tag, identity)
	if err != nil {
		return nil, err
	}

	q, err := BuildUpdateSQL(s.dialect, res, identity, id, updates, s.now())
	if err != nil {
		return nil, err
	}
	if details := EvaluateChecks(res, updatePayload(res, updates), "update"); len(details) > 0 {
		return nil, ValidationError(details)
	}
	if id == "" {
		return nil, NotFoundError(res.Label, id)
	}

	row, err := store.QueryRow(ctx, s.db, q.SQL, q.Params...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundError(res.Label, id)
		}
		return nil, s.storeError(ctx, res, "update", err)
	}
	return toRecord(res, row), nil
}

// Delete removes a record owned by identity and returns it as it was.
// Collaborators can never delete.
func (s *Service) Delete(ctx context.Context, tag, identity, id string) (rec Record, err error) {
	start := time.Now()
	defer func() { s.observe(tag, "delete", start, err) }()

	res, err := s.resolve(tag, identity)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, NotFoundError(res.Label, id)
	}

	q := BuildDeleteSQL(s.dialect, res, identity, id)
	row, err := store.QueryRow(ctx, s.db, q.SQL, q.Params...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundError(res.Label, id)
		}
		return nil, s.storeError(ctx, res, "delete", err)
	}
	return toRecord(res, row), nil
}

func (s *Service) resolve(tag, identity string) (*metadata.Resource, error) {
	res, err := s.registry.SchemaFor(tag)
	if err != nil {
		return nil, UnknownResourceError(tag)
	}
	if identity == "" {
		return nil, UnauthorizedError("Authentication required")
	}
	return res, nil
}

// storeError logs the driver failure and returns the opaque StoreError.
func (s *Service) storeError(ctx context.Context, res *metadata.Resource, op string, err error) error {
	err = store.MapError(s.dialect, err)
	log.Printf("ERROR: %s %s failed [trace=%s user=%s]: %v", op, res.Name, instrument.GetTraceID(ctx), instrument.GetUserID(ctx), err)
	return StoreError(err)
}

func (s *Service) observe(tag, op string, start time.Time, err error) {
	outcome := instrument.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFoundOrUnauthorized):
		outcome = instrument.OutcomeNotFound
	case errors.Is(err, ErrStore):
		outcome = instrument.OutcomeError
	default:
		outcome = instrument.OutcomeRejected
	}
	// The label is the registry's own string. Transports may pass tags that
	// alias reused request buffers, and the recorder keeps its labels.
	label := "unknown"
	if res, lookupErr := s.registry.SchemaFor(tag); lookupErr == nil {
		label = res.Name
	}
	s.recorder.Observe(label, op, outcome, time.Since(start))
}

// prepareCreate returns the insert row keyed by column, the coerced payload
// keyed by external key (what the checks see) and any validation failures.
func prepareCreate(res *metadata.Resource, payload map[string]any) (map[string]any, map[string]any, []ErrorDetail) {
	row := make(map[string]any, len(res.Fields)+4)
	checked := make(map[string]any, len(res.Fields))
	var details []ErrorDetail

	for i := range res.Fields {
		f := &res.Fields[i]
		val, present := payload[f.Key]

		if res.IsRequired(f.Key) && (!present || isEmpty(val)) {
			details = append(details, ErrorDetail{Field: f.Key, Rule: "required", Message: fmt.Sprintf("%s is required", f.Key)})
			continue
		}
		if !present || val == nil {
			val = f.Default
		}

		if f.IsStructured() {
			literal, err := encodeStructured(f, val)
			if err != nil {
				details = append(details, ErrorDetail{Field: f.Key, Rule: "type", Message: fmt.Sprintf("%s %s", f.Key, err.Error())})
				continue
			}
			row[f.Column] = literal
			if val == nil {
				val = f.EmptyValue()
			}
			checked[f.Key] = val
			continue
		}

		coerced, err := coerceScalar(f, val)
		if err != nil {
			details = append(details, ErrorDetail{Field: f.Key, Rule: "type", Message: fmt.Sprintf("%s %s", f.Key, err.Error())})
			continue
		}
		row[f.Column] = coerced
		checked[f.Key] = coerced
	}
	return row, checked, details
}
