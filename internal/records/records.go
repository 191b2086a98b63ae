// Package records is the gateway between the HTTP layer and the record
// store. It runs the roll number / email uniqueness pre-checks, merges
// updates into existing records and classifies every failure as a *Error
// with a Kind.
//
// The gateway holds no state between calls; the store is the only source of
// truth.
package records

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
	"github.com/aanand-mishra/student-records-api/internal/validation"
)

// Gateway exposes the five record operations.
type Gateway struct {
	store storage.Storage
	log   *slog.Logger
}

// New returns a gateway over store. The store is opened once at startup and
// shared by every request.
func New(store storage.Storage, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{store: store, log: log}
}

// ParseRollNo converts a path segment to a roll number.
func ParseRollNo(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalidRollNo(err)
	}
	return n, nil
}

// Create stores a validated record after checking that neither its roll
// number nor its email is taken.
//
// The pre-checks and the insert are separate store calls. If a concurrent
// create slips in between, the store's own unique index rejects the insert
// and that failure is reported as KindInternal, not KindConflict.
func (g *Gateway) Create(ctx context.Context, student types.Student) (types.Student, error) {
	_, err := g.store.GetStudentByRollNo(ctx, student.RollNo)
	switch {
	case err == nil:
		return types.Student{}, conflict(SummaryCreateFailed, DetailRollNoExists, nil)
	case !errors.Is(err, storage.ErrNotFound):
		return types.Student{}, NewInternalError("check roll number", err)
	}

	_, err = g.store.GetStudentByEmail(ctx, student.Email)
	switch {
	case err == nil:
		return types.Student{}, conflict(SummaryCreateFailed, DetailEmailExists, nil)
	case !errors.Is(err, storage.ErrNotFound):
		return types.Student{}, NewInternalError("check email", err)
	}

	created, err := g.store.CreateStudent(ctx, student)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			g.log.Warn("duplicate rejected by store after pre-check passed",
				slog.Int64("roll_no", student.RollNo),
				slog.String("error", err.Error()))
		}
		return types.Student{}, NewInternalError("create student", err)
	}
	return created, nil
}

// List returns every record in store order.
func (g *Gateway) List(ctx context.Context) ([]types.Student, error) {
	students, err := g.store.GetStudents(ctx)
	if err != nil {
		return nil, NewInternalError("list students", err)
	}
	if students == nil {
		students = []types.Student{}
	}
	return students, nil
}

// Get fetches one record by the raw roll number from the request path.
func (g *Gateway) Get(ctx context.Context, rawRollNo string) (types.Student, error) {
	rollNo, err := ParseRollNo(rawRollNo)
	if err != nil {
		return types.Student{}, err
	}
	return g.find(ctx, rawRollNo, rollNo)
}

// Update validates fields (all of them, or only those supplied when partial
// is set) and merges them into the record at rawRollNo.
//
// Roll number and email are not pre-checked against other records. If the
// merged record collides with another one, the store rejects the write and
// the caller gets KindConflict.
func (g *Gateway) Update(ctx context.Context, rawRollNo string, fields map[string]any, partial bool) (types.Student, error) {
	rollNo, err := ParseRollNo(rawRollNo)
	if err != nil {
		return types.Student{}, err
	}

	existing, err := g.find(ctx, rawRollNo, rollNo)
	if err != nil {
		return types.Student{}, err
	}

	in, err := validation.Validate(fields, partial)
	if err != nil {
		return types.Student{}, NewValidationError(SummaryUpdateFailed, err)
	}

	updated, err := g.store.UpdateStudentByRollNo(ctx, rollNo, existing.Merge(in))
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, storage.ErrNotFound):
		return types.Student{}, notFound(rawRollNo, err)
	case errors.Is(err, storage.ErrDuplicate):
		return types.Student{}, conflict(SummaryUpdateFailed, DetailDuplicate, err)
	default:
		return types.Student{}, NewInternalError("update student", err)
	}
}

// Delete removes the record at rawRollNo and returns its roll number.
func (g *Gateway) Delete(ctx context.Context, rawRollNo string) (int64, error) {
	rollNo, err := ParseRollNo(rawRollNo)
	if err != nil {
		return 0, err
	}

	if _, err := g.find(ctx, rawRollNo, rollNo); err != nil {
		return 0, err
	}

	err = g.store.DeleteStudentByRollNo(ctx, rollNo)
	switch {
	case err == nil:
		return rollNo, nil
	case errors.Is(err, storage.ErrNotFound):
		return 0, notFound(rawRollNo, err)
	default:
		return 0, NewInternalError("delete student", err)
	}
}

func (g *Gateway) find(ctx context.Context, rawRollNo string, rollNo int64) (types.Student, error) {
	student, err := g.store.GetStudentByRollNo(ctx, rollNo)
	switch {
	case err == nil:
		return student, nil
	case errors.Is(err, storage.ErrNotFound):
		return types.Student{}, notFound(rawRollNo, err)
	default:
		return types.Student{}, NewInternalError("get student", err)
	}
}
