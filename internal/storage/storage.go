// Package storage defines the Storage interface, the contract every database
// backend satisfies to work with this application.
//
// The records gateway depends only on this interface, so the backend is a
// configuration choice (see package backend) and tests can run against the
// in-memory implementation.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records-api/internal/types"
)

var (
	// ErrNotFound is returned when no student matches the lookup key.
	ErrNotFound = errors.New("storage: student not found")

	// ErrDuplicate is returned when a write would break the uniqueness of
	// roll_no or email. Every backend enforces this on its own, independent
	// of any pre-check done by callers.
	ErrDuplicate = errors.New("storage: duplicate roll number or email")
)

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a record and returns it with the store-assigned
	// ID. Any ID on the argument is ignored.
	CreateStudent(ctx context.Context, student types.Student) (types.Student, error)

	// GetStudentByRollNo fetches a single student by roll number.
	GetStudentByRollNo(ctx context.Context, rollNo int64) (types.Student, error)

	// GetStudentByEmail fetches a single student by (lower-cased) email.
	GetStudentByEmail(ctx context.Context, email string) (types.Student, error)

	// GetStudents returns every student in store-native order.
	// Returns an empty slice (not nil) if there are none.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByRollNo replaces the business fields of the student
	// currently holding rollNo. The replacement may carry a different roll
	// number or email. Returns the stored record.
	UpdateStudentByRollNo(ctx context.Context, rollNo int64, student types.Student) (types.Student, error)

	// DeleteStudentByRollNo removes a student permanently.
	DeleteStudentByRollNo(ctx context.Context, rollNo int64) error

	// Migrate creates the table / collection indexes the backend needs.
	// It is idempotent.
	Migrate(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}
