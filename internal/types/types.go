// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, and utils can all import types without depending
// on each other.
package types

import (
	"github.com/oapi-codegen/nullable"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Student represents a student record in the directory.
//
// The ID is NOT part of the record: it is the key the record is stored
// under, assigned by the caller when the student is created.
type Student struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Grade int    `json:"grade"`
	Email string `json:"email"`
}

// NewStudent is the request body for POST /create-student/{id}.
//
// Fields are pointers so that a missing "age" can be told apart from an
// explicit 0. validate:"required" on a pointer means "must be present",
// so an empty name or a zero age are both accepted.
type NewStudent struct {
	Name  *string `json:"name"  validate:"required"`
	Age   *int    `json:"age"   validate:"required,gte=0"`
	Grade *int    `json:"grade" validate:"required,gte=0"`
	Email *string `json:"email" validate:"required"`
}

// Student converts a validated request body into a record.
// Call it only after validation passed, otherwise fields may be nil.
func (n NewStudent) Student() Student {
	return Student{
		Name:  *n.Name,
		Age:   *n.Age,
		Grade: *n.Grade,
		Email: *n.Email,
	}
}

// StudentPatch is a partial update. Each field is unspecified (key absent,
// leave the stored value alone), null, or a value. Student fields are never
// nullable, so a null is rejected by the handler via NullField.
type StudentPatch struct {
	Name  nullable.Nullable[string] `json:"name"`
	Age   nullable.Nullable[int]    `json:"age"`
	Grade nullable.Nullable[int]    `json:"grade"`
	Email nullable.Nullable[string] `json:"email"`
}

// NullField returns the JSON name of the first field sent as null, or "".
func (p StudentPatch) NullField() string {
	switch {
	case p.Name.IsNull():
		return "name"
	case p.Age.IsNull():
		return "age"
	case p.Grade.IsNull():
		return "grade"
	case p.Email.IsNull():
		return "email"
	}
	return ""
}

// Apply returns s with every field of p that carries a value copied over.
func (p StudentPatch) Apply(s Student) Student {
	if v, err := p.Name.Get(); err == nil {
		s.Name = v
	}
	if v, err := p.Age.Get(); err == nil {
		s.Age = v
	}
	if v, err := p.Grade.Get(); err == nil {
		s.Grade = v
	}
	if v, err := p.Email.Get(); err == nil {
		s.Email = v
	}
	return s
}

// Entry is one (id, record) pair of a Directory.
type Entry struct {
	ID      int
	Student Student
}

// Directory is a snapshot of the whole student table in insertion order.
//
// Encoded to JSON it becomes an object keyed by ID:
//
//	{ "1": { "name": "Eduardo", ... }, "2": { ... } }
type Directory []Entry

// MarshalJSON encodes through an ordered map: a plain map[int]Student
// would come out with its keys sorted.
func (d Directory) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[int, Student](len(d))
	for _, e := range d {
		om.Set(e.ID, e.Student)
	}
	return om.MarshalJSON()
}
