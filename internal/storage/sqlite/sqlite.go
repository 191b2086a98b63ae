// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite keeps everything in a single file on disk with no server process,
// which makes it the backend of choice for single-node deployments and for
// local development without a MongoDB instance.
//
// The sqlite3 import registers the driver with database/sql and also gives us
// sqlite3.Error, which is how UNIQUE violations are recognised.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// schema is idempotent, so Migrate can run on every startup.
//
//	id     : integer primary key, exposed to clients as a string
//	roll_no: business key, UNIQUE
//	email  : stored lower-cased, UNIQUE
const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		name    TEXT    NOT NULL,
		roll_no INTEGER NOT NULL UNIQUE,
		course  TEXT    NOT NULL,
		marks   INTEGER NOT NULL CHECK (marks BETWEEN 0 AND 100),
		email   TEXT    NOT NULL UNIQUE
	)
`

const selectColumns = "SELECT id, name, roll_no, course, marks, email FROM students"

// SQLite is the concrete implementation of storage.Storage.
// Db is a connection pool managed by database/sql and is safe for concurrent
// use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// New opens the database file at cfg.Path. It does not create the table;
// call Migrate for that.
func New(cfg config.SQLite) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// sql.Open is lazy; Ping makes a bad path fail at startup.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLite{Db: db}, nil
}

// Migrate creates the students table if it does not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.Db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("Migrate: create table: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// CreateStudent inserts a new row. Values go through ? placeholders, never
// string concatenation.
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students (name, roll_no, course, marks, email) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		student.Name, student.RollNo, student.Course, student.Marks, student.Email)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", translate(err))
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}

	student.ID = strconv.FormatInt(lastID, 10)
	return student, nil
}

// GetStudentByRollNo fetches exactly one row matched by roll number.
func (s *SQLite) GetStudentByRollNo(ctx context.Context, rollNo int64) (types.Student, error) {
	student, err := s.getOne(ctx, "roll_no", rollNo)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByRollNo: %w", err)
	}
	return student, nil
}

// GetStudentByEmail fetches exactly one row matched by email.
func (s *SQLite) GetStudentByEmail(ctx context.Context, email string) (types.Student, error) {
	student, err := s.getOne(ctx, "email", email)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, fmt.Errorf("no student found with email %q: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByEmail: %w", err)
	}
	return student, nil
}

// getOne runs a single-row lookup on column. column is always one of our
// own constants, never user input.
func (s *SQLite) getOne(ctx context.Context, column string, value any) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, selectColumns+" WHERE "+column+" = ? LIMIT 1")
	if err != nil {
		return types.Student{}, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	// QueryRow surfaces sql.ErrNoRows only when Scan is called.
	return scanStudent(stmt.QueryRowContext(ctx, value))
}

// GetStudents returns all rows in rowid order.
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, selectColumns)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty table encodes as [] rather than null.
	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudentByRollNo rewrites the row currently holding rollNo and returns
// it re-read from the database under its (possibly new) roll number.
func (s *SQLite) UpdateStudentByRollNo(ctx context.Context, rollNo int64, student types.Student) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"UPDATE students SET name = ?, roll_no = ?, course = ?, marks = ?, email = ? WHERE roll_no = ?",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		student.Name, student.RollNo, student.Course, student.Marks, student.Email, rollNo)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: exec: %w", translate(err))
	}

	if err := requireOneRow(result, rollNo); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: %w", err)
	}

	return s.GetStudentByRollNo(ctx, student.RollNo)
}

// DeleteStudentByRollNo removes a row by roll number.
func (s *SQLite) DeleteStudentByRollNo(ctx context.Context, rollNo int64) error {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE roll_no = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByRollNo: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, rollNo)
	if err != nil {
		return fmt.Errorf("DeleteStudentByRollNo: exec: %w", err)
	}

	if err := requireOneRow(result, rollNo); err != nil {
		return fmt.Errorf("DeleteStudentByRollNo: %w", err)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanStudent reads columns in selectColumns order.
func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		id      int64
	)
	if err := row.Scan(
		&id,
		&student.Name,
		&student.RollNo,
		&student.Course,
		&student.Marks,
		&student.Email,
	); err != nil {
		return types.Student{}, err
	}
	student.ID = strconv.FormatInt(id, 10)
	return student, nil
}

func requireOneRow(result sql.Result, rollNo int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
	}
	return nil
}

// translate maps a UNIQUE constraint failure to storage.ErrDuplicate and
// leaves every other error alone.
func translate(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %s", storage.ErrDuplicate, sqliteErr.Error())
	}
	return err
}
