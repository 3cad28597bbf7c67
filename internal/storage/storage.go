// Package storage defines the Storage interface: the contract any
// directory backend must satisfy to work with this application.
//
// Handlers only depend on this interface, so the in-memory map and the
// SQLite table are interchangeable, and tests can run the same checks
// against both.
package storage

import (
	"errors"

	"github.com/aanand-mishra/student-directory/internal/types"
	"github.com/oapi-codegen/nullable"
)

// Sentinel errors. Backends wrap them with fmt.Errorf("...: %w", ...),
// callers test with errors.Is.
var (
	ErrNotFound = errors.New("student not found")
	ErrConflict = errors.New("student already exists")
)

// Storage is the directory contract.
//
// Lookups that can legitimately miss (the Find* family) report the miss
// through ok=false rather than an error. Operations on a specific id
// report a missing id as ErrNotFound.
type Storage interface {
	// GetStudents returns a copy of the whole directory in insertion order.
	GetStudents() (types.Directory, error)

	// GetStudentByID fetches the record stored under id, or ErrNotFound.
	GetStudentByID(id int) (types.Student, error)

	// FindByName returns the first record, in insertion order, whose name
	// equals name exactly (case-sensitive).
	FindByName(name string) (types.Student, bool, error)

	// FindByAge returns the first record whose age equals age. When name
	// carries a value, the record's name must also equal it exactly.
	FindByAge(age int, name nullable.Nullable[string]) (types.Student, bool, error)

	// FindByNameAndID matches names case-insensitively. With id given, only
	// the record stored under id qualifies; there is no fallback to a
	// name-only match. Otherwise the first name match wins.
	FindByNameAndID(name string, id nullable.Nullable[int]) (types.Student, bool, error)

	// CreateStudent stores s under id, or fails with ErrConflict if the id
	// is taken (leaving the stored record untouched).
	CreateStudent(id int, s types.Student) (types.Student, error)

	// UpdateStudentByID applies the set fields of patch and returns the
	// full updated record, or ErrNotFound.
	UpdateStudentByID(id int, patch types.StudentPatch) (types.Student, error)

	// DeleteStudentByID removes the record, or fails with ErrNotFound.
	DeleteStudentByID(id int) error

	// Close releases backend resources.
	Close() error
}

// Seed is the directory every backend starts from. Restarting the
// process resets the directory to exactly this set.
var Seed = types.Directory{
	{ID: 1, Student: types.Student{Name: "Eduardo", Age: 17, Grade: 12, Email: "eduardo@email.com"}},
	{ID: 2, Student: types.Student{Name: "Mariana", Age: 18, Grade: 12, Email: "mariana@email.com"}},
	{ID: 3, Student: types.Student{Name: "Lucas", Age: 17, Grade: 11, Email: "lucas@email.com"}},
	{ID: 4, Student: types.Student{Name: "Ana", Age: 18, Grade: 12, Email: "ana@email.com"}},
	{ID: 5, Student: types.Student{Name: "Rafael", Age: 16, Grade: 10, Email: "rafael@email.com"}},
	{ID: 6, Student: types.Student{Name: "Beatriz", Age: 17, Grade: 11, Email: "beatriz@email.com"}},
	{ID: 7, Student: types.Student{Name: "Gabriel", Age: 18, Grade: 12, Email: "gabriel@email.com"}},
	{ID: 8, Student: types.Student{Name: "Camila", Age: 15, Grade: 9, Email: "camila@email.com"}},
	{ID: 9, Student: types.Student{Name: "Thiago", Age: 16, Grade: 10, Email: "thiago@email.com"}},
	{ID: 10, Student: types.Student{Name: "Isabela", Age: 17, Grade: 11, Email: "isabela@email.com"}},
	{ID: 11, Student: types.Student{Name: "Eduardo", Age: 15, Grade: 5, Email: "eduardo2@email.com"}},
}
