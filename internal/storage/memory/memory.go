// Package memory provides an in-process implementation of storage.Storage.
//
// Records live in a slice guarded by a mutex and disappear with the process.
// It enforces the same uniqueness rules as the database backends, which makes
// it the default choice for handler and gateway tests and for quick local runs
// (storage.driver: memory).
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// Memory is the in-process store. The zero value is not usable; call New.
type Memory struct {
	mu       sync.RWMutex
	students []types.Student // insertion order
	closed   bool
}

// New returns an empty store.
func New() *Memory {
	return &Memory{}
}

func (m *Memory) CreateStudent(_ context.Context, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return types.Student{}, err
	}
	if m.conflicts(-1, student) {
		return types.Student{}, fmt.Errorf("CreateStudent: %w", storage.ErrDuplicate)
	}

	student.ID = uuid.NewString()
	m.students = append(m.students, student)
	return student, nil
}

func (m *Memory) GetStudentByRollNo(_ context.Context, rollNo int64) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkOpen(); err != nil {
		return types.Student{}, err
	}
	i := m.indexOf(func(s types.Student) bool { return s.RollNo == rollNo })
	if i < 0 {
		return types.Student{}, fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
	}
	return m.students[i], nil
}

func (m *Memory) GetStudentByEmail(_ context.Context, email string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkOpen(); err != nil {
		return types.Student{}, err
	}
	i := m.indexOf(func(s types.Student) bool { return s.Email == email })
	if i < 0 {
		return types.Student{}, fmt.Errorf("no student found with email %q: %w", email, storage.ErrNotFound)
	}
	return m.students[i], nil
}

func (m *Memory) GetStudents(_ context.Context) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	students := make([]types.Student, len(m.students))
	copy(students, m.students)
	return students, nil
}

func (m *Memory) UpdateStudentByRollNo(_ context.Context, rollNo int64, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return types.Student{}, err
	}
	i := m.indexOf(func(s types.Student) bool { return s.RollNo == rollNo })
	if i < 0 {
		return types.Student{}, fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
	}
	if m.conflicts(i, student) {
		return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: %w", storage.ErrDuplicate)
	}

	student.ID = m.students[i].ID
	m.students[i] = student
	return student, nil
}

func (m *Memory) DeleteStudentByRollNo(_ context.Context, rollNo int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return err
	}
	i := m.indexOf(func(s types.Student) bool { return s.RollNo == rollNo })
	if i < 0 {
		return fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
	}
	m.students = append(m.students[:i], m.students[i+1:]...)
	return nil
}

// Migrate is a no-op; there is no schema.
func (m *Memory) Migrate(context.Context) error { return nil }

// Close drops all records. Later calls fail.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = nil
	m.closed = true
	return nil
}

func (m *Memory) checkOpen() error {
	if m.closed {
		return fmt.Errorf("memory: store is closed")
	}
	return nil
}

func (m *Memory) indexOf(match func(types.Student) bool) int {
	for i, s := range m.students {
		if match(s) {
			return i
		}
	}
	return -1
}

// conflicts reports whether candidate shares a roll number or email with any
// stored record other than the one at index skip.
func (m *Memory) conflicts(skip int, candidate types.Student) bool {
	for i, s := range m.students {
		if i == skip {
			continue
		}
		if s.RollNo == candidate.RollNo || s.Email == candidate.Email {
			return true
		}
	}
	return false
}
