// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The database lives in memory: nothing is written to disk and a restart
// resets the directory to the seed set, same as the memory backend.
// The pool is pinned to ONE connection because every new connection to
// ":memory:" would open a brand-new, empty database.
//
// Insertion order is kept by the AUTOINCREMENT "seq" column; the
// student id is a separate UNIQUE column assigned by the caller.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/student-directory/internal/storage"
	"github.com/aanand-mishra/student-directory/internal/types"

	"github.com/mattn/go-sqlite3"
	"github.com/oapi-codegen/nullable"
)

// SQLite is the concrete implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB
}

// New opens a private in-memory database, creates the students table
// and inserts seed in order.
func New(seed types.Directory) (*SQLite, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			seq   INTEGER PRIMARY KEY AUTOINCREMENT,
			id    INTEGER NOT NULL UNIQUE,
			name  TEXT    NOT NULL,
			age   INTEGER NOT NULL,
			grade INTEGER NOT NULL,
			email TEXT    NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	s := &SQLite{Db: db}
	for _, e := range seed {
		if _, err := s.CreateStudent(e.ID, e.Student); err != nil && !errors.Is(err, storage.ErrConflict) {
			db.Close()
			return nil, fmt.Errorf("sqlite.New: seed: %w", err)
		}
	}

	return s, nil
}

// CreateStudent inserts a new row. A duplicate id trips the UNIQUE
// constraint, which is reported as storage.ErrConflict.
func (s *SQLite) CreateStudent(id int, student types.Student) (types.Student, error) {
	stmt, err := s.Db.Prepare(
		"INSERT INTO students (id, name, age, grade, email) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(id, student.Name, student.Age, student.Grade, student.Email)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return types.Student{}, fmt.Errorf("CreateStudent %d: %w", id, storage.ErrConflict)
		}
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return student, nil
}

// GetStudentByID fetches exactly one row matched by student id.
func (s *SQLite) GetStudentByID(id int) (types.Student, error) {
	stmt, err := s.Db.Prepare(
		"SELECT name, age, grade, email FROM students WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	var student types.Student
	err = stmt.QueryRow(id).Scan(&student.Name, &student.Age, &student.Grade, &student.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("GetStudentByID %d: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudents returns every row in insertion order.
func (s *SQLite) GetStudents() (types.Directory, error) {
	rows, err := s.Db.Query("SELECT id, name, age, grade, email FROM students ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	dir := make(types.Directory, 0)
	for rows.Next() {
		var e types.Entry
		if err := rows.Scan(&e.ID, &e.Student.Name, &e.Student.Age, &e.Student.Grade, &e.Student.Email); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		dir = append(dir, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return dir, nil
}

// FindByName relies on SQLite's default BINARY collation, so "=" is
// case-sensitive.
func (s *SQLite) FindByName(name string) (types.Student, bool, error) {
	return s.first("FindByName",
		"SELECT name, age, grade, email FROM students WHERE name = ? ORDER BY seq LIMIT 1",
		name)
}

// FindByAge adds the exact name to the WHERE clause when one is given.
func (s *SQLite) FindByAge(age int, name nullable.Nullable[string]) (types.Student, bool, error) {
	if n, err := name.Get(); err == nil {
		return s.first("FindByAge",
			"SELECT name, age, grade, email FROM students WHERE age = ? AND name = ? ORDER BY seq LIMIT 1",
			age, n)
	}
	return s.first("FindByAge",
		"SELECT name, age, grade, email FROM students WHERE age = ? ORDER BY seq LIMIT 1",
		age)
}

// FindByNameAndID narrows by id in SQL and compares names in Go: SQLite's
// lower() only folds ASCII, strings.ToLower folds everything.
func (s *SQLite) FindByNameAndID(name string, id nullable.Nullable[int]) (types.Student, bool, error) {
	query := "SELECT name, age, grade, email FROM students ORDER BY seq"
	var args []any
	if wantID, err := id.Get(); err == nil {
		query = "SELECT name, age, grade, email FROM students WHERE id = ? ORDER BY seq"
		args = append(args, wantID)
	}

	rows, err := s.Db.Query(query, args...)
	if err != nil {
		return types.Student{}, false, fmt.Errorf("FindByNameAndID: query: %w", err)
	}
	defer rows.Close()

	name = strings.ToLower(name)
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(&student.Name, &student.Age, &student.Grade, &student.Email); err != nil {
			return types.Student{}, false, fmt.Errorf("FindByNameAndID: scan row: %w", err)
		}
		if strings.ToLower(student.Name) == name {
			return student, true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return types.Student{}, false, fmt.Errorf("FindByNameAndID: rows iteration: %w", err)
	}

	return types.Student{}, false, nil
}

// UpdateStudentByID reads, patches and writes back inside one transaction.
func (s *SQLite) UpdateStudentByID(id int, patch types.StudentPatch) (types.Student, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: begin: %w", err)
	}
	defer tx.Rollback()

	var stored types.Student
	err = tx.QueryRow("SELECT name, age, grade, email FROM students WHERE id = ?", id).
		Scan(&stored.Name, &stored.Age, &stored.Grade, &stored.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("UpdateStudentByID %d: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("UpdateStudentByID: scan: %w", err)
	}

	updated := patch.Apply(stored)
	_, err = tx.Exec(
		"UPDATE students SET name = ?, age = ?, grade = ?, email = ? WHERE id = ?",
		updated.Name, updated.Age, updated.Grade, updated.Email, id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: commit: %w", err)
	}
	return updated, nil
}

// DeleteStudentByID removes a row by student id.
func (s *SQLite) DeleteStudentByID(id int) error {
	result, err := s.Db.Exec("DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("DeleteStudentByID %d: %w", id, storage.ErrNotFound)
	}

	return nil
}

// Close closes the connection, which also discards the database.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func (s *SQLite) first(op, query string, args ...any) (types.Student, bool, error) {
	var student types.Student
	err := s.Db.QueryRow(query, args...).Scan(&student.Name, &student.Age, &student.Grade, &student.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, false, nil
	}
	if err != nil {
		return types.Student{}, false, fmt.Errorf("%s: scan: %w", op, err)
	}
	return student, true, nil
}
