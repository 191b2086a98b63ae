// Package storagetest holds a conformance suite every storage.Storage
// implementation must pass. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// Factory returns a fresh, migrated and empty store. The suite closes it.
type Factory func(t *testing.T) storage.Storage

// Alice and Bob are fixtures shared with other test packages.
var (
	Alice = types.Student{Name: "Alice", RollNo: 101, Course: "CS", Marks: 85, Email: "alice@x.com"}
	Bob   = types.Student{Name: "Bob", RollNo: 102, Course: "Maths", Marks: 72, Email: "bob@x.com"}
)

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"GetByEmail", testGetByEmail},
		{"NotFound", testNotFound},
		{"DuplicateRollNo", testDuplicateRollNo},
		{"DuplicateEmail", testDuplicateEmail},
		{"ListEmpty", testListEmpty},
		{"List", testList},
		{"Update", testUpdate},
		{"UpdateChangesKey", testUpdateChangesKey},
		{"UpdateDuplicate", testUpdateDuplicate},
		{"Delete", testDelete},
		{"MigrateIdempotent", testMigrateIdempotent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func create(t *testing.T, s storage.Storage, student types.Student) types.Student {
	t.Helper()
	created, err := s.CreateStudent(context.Background(), student)
	require.NoError(t, err)
	return created
}

func assertSameFields(t *testing.T, want, got types.Student) {
	t.Helper()
	want.ID, got.ID = "", ""
	assert.Equal(t, want, got)
}

func testCreateAndGet(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	created := create(t, s, Alice)
	assert.NotEmpty(t, created.ID)
	assertSameFields(t, Alice, created)

	got, err := s.GetStudentByRollNo(ctx, Alice.RollNo)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func testGetByEmail(t *testing.T, s storage.Storage) {
	created := create(t, s, Alice)

	got, err := s.GetStudentByEmail(context.Background(), Alice.Email)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func testNotFound(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	_, err := s.GetStudentByRollNo(ctx, 999)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "get: %v", err)

	_, err = s.GetStudentByEmail(ctx, "nobody@x.com")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "get by email: %v", err)

	_, err = s.UpdateStudentByRollNo(ctx, 999, Alice)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "update: %v", err)

	err = s.DeleteStudentByRollNo(ctx, 999)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "delete: %v", err)
}

func testDuplicateRollNo(t *testing.T, s storage.Storage) {
	create(t, s, Alice)

	dup := Bob
	dup.RollNo = Alice.RollNo
	_, err := s.CreateStudent(context.Background(), dup)
	assert.True(t, errors.Is(err, storage.ErrDuplicate), "got %v", err)
}

func testDuplicateEmail(t *testing.T, s storage.Storage) {
	create(t, s, Alice)

	dup := Bob
	dup.Email = Alice.Email
	_, err := s.CreateStudent(context.Background(), dup)
	assert.True(t, errors.Is(err, storage.ErrDuplicate), "got %v", err)
}

func testListEmpty(t *testing.T, s storage.Storage) {
	students, err := s.GetStudents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func testList(t *testing.T, s storage.Storage) {
	a := create(t, s, Alice)
	b := create(t, s, Bob)

	students, err := s.GetStudents(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.Student{a, b}, students)
}

func testUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := create(t, s, Alice)

	changed := Alice
	changed.Marks = 99
	changed.Course = "Physics"

	updated, err := s.UpdateStudentByRollNo(ctx, Alice.RollNo, changed)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assertSameFields(t, changed, updated)

	got, err := s.GetStudentByRollNo(ctx, Alice.RollNo)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func testUpdateChangesKey(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := create(t, s, Alice)

	moved := Alice
	moved.RollNo = 555
	moved.Email = "alice@y.com"

	updated, err := s.UpdateStudentByRollNo(ctx, Alice.RollNo, moved)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	_, err = s.GetStudentByRollNo(ctx, Alice.RollNo)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "old roll number: %v", err)

	got, err := s.GetStudentByRollNo(ctx, 555)
	require.NoError(t, err)
	assertSameFields(t, moved, got)

	_, err = s.GetStudentByEmail(ctx, Alice.Email)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "old email: %v", err)

	got, err = s.GetStudentByEmail(ctx, "alice@y.com")
	require.NoError(t, err)
	assert.Equal(t, int64(555), got.RollNo)

	// The old keys are free again.
	create(t, s, Alice)
}

func testUpdateDuplicate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	create(t, s, Alice)
	create(t, s, Bob)

	stolen := Bob
	stolen.Email = Alice.Email
	_, err := s.UpdateStudentByRollNo(ctx, Bob.RollNo, stolen)
	assert.True(t, errors.Is(err, storage.ErrDuplicate), "email: %v", err)

	stolen = Bob
	stolen.RollNo = Alice.RollNo
	_, err = s.UpdateStudentByRollNo(ctx, Bob.RollNo, stolen)
	assert.True(t, errors.Is(err, storage.ErrDuplicate), "roll number: %v", err)

	// Bob is untouched by the rejected writes.
	got, err := s.GetStudentByRollNo(ctx, Bob.RollNo)
	require.NoError(t, err)
	assertSameFields(t, Bob, got)
}

func testDelete(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	create(t, s, Alice)

	require.NoError(t, s.DeleteStudentByRollNo(ctx, Alice.RollNo))

	_, err := s.GetStudentByRollNo(ctx, Alice.RollNo)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	_, err = s.GetStudentByEmail(ctx, Alice.Email)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	err = s.DeleteStudentByRollNo(ctx, Alice.RollNo)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "second delete: %v", err)
}

func testMigrateIdempotent(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	create(t, s, Alice)

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	_, err := s.GetStudentByRollNo(ctx, Alice.RollNo)
	assert.NoError(t, err)
}
