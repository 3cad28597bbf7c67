// Package memory provides the default storage.Storage backend: a
// process-local ordered map that lives exactly as long as the process does.
//
// Lookups scan in insertion order, which is what makes "first match wins"
// deterministic. Every operation runs under a single mutex because the
// HTTP server handles requests concurrently.
package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aanand-mishra/student-directory/internal/storage"
	"github.com/aanand-mishra/student-directory/internal/types"
	"github.com/oapi-codegen/nullable"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Memory is the in-memory implementation of storage.Storage.
type Memory struct {
	mu       sync.Mutex
	students *orderedmap.OrderedMap[int, types.Student]
}

// New returns a Memory pre-populated with seed. Pass storage.Seed for the
// production data set, or nil for an empty directory. A repeated id in
// seed keeps its first record.
func New(seed types.Directory) *Memory {
	m := &Memory{
		students: orderedmap.New[int, types.Student](len(seed)),
	}
	for _, e := range seed {
		if _, exists := m.students.Get(e.ID); exists {
			continue
		}
		m.students.Set(e.ID, e.Student)
	}
	return m
}

// GetStudents copies the directory out in insertion order.
func (m *Memory) GetStudents() (types.Directory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := make(types.Directory, 0, m.students.Len())
	for pair := m.students.Oldest(); pair != nil; pair = pair.Next() {
		dir = append(dir, types.Entry{ID: pair.Key, Student: pair.Value})
	}
	return dir, nil
}

// GetStudentByID returns the record under id, or storage.ErrNotFound.
func (m *Memory) GetStudentByID(id int) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students.Get(id)
	if !ok {
		return types.Student{}, fmt.Errorf("GetStudentByID %d: %w", id, storage.ErrNotFound)
	}
	return s, nil
}

// FindByName is an exact, case-sensitive match.
func (m *Memory) FindByName(name string) (types.Student, bool, error) {
	s, ok := m.first(func(_ int, s types.Student) bool {
		return s.Name == name
	})
	return s, ok, nil
}

// FindByAge matches age, and the exact name too when one is given.
func (m *Memory) FindByAge(age int, name nullable.Nullable[string]) (types.Student, bool, error) {
	wantName, err := name.Get()
	byName := err == nil
	s, ok := m.first(func(_ int, s types.Student) bool {
		if s.Age != age {
			return false
		}
		return !byName || s.Name == wantName
	})
	return s, ok, nil
}

// FindByNameAndID lowercases both sides before comparing names.
func (m *Memory) FindByNameAndID(name string, id nullable.Nullable[int]) (types.Student, bool, error) {
	name = strings.ToLower(name)
	wantID, err := id.Get()
	byID := err == nil
	s, ok := m.first(func(sid int, s types.Student) bool {
		if strings.ToLower(s.Name) != name {
			return false
		}
		return !byID || sid == wantID
	})
	return s, ok, nil
}

// CreateStudent appends s under id, or fails with storage.ErrConflict.
func (m *Memory) CreateStudent(id int, s types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.students.Get(id); exists {
		return types.Student{}, fmt.Errorf("CreateStudent %d: %w", id, storage.ErrConflict)
	}
	m.students.Set(id, s)
	return s, nil
}

// UpdateStudentByID patches the record in place; its position is kept.
func (m *Memory) UpdateStudentByID(id int, patch types.StudentPatch) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.students.Get(id)
	if !ok {
		return types.Student{}, fmt.Errorf("UpdateStudentByID %d: %w", id, storage.ErrNotFound)
	}
	updated := patch.Apply(stored)
	m.students.Set(id, updated)
	return updated, nil
}

// DeleteStudentByID removes the record, or fails with storage.ErrNotFound.
func (m *Memory) DeleteStudentByID(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students.Delete(id); !ok {
		return fmt.Errorf("DeleteStudentByID %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// Close is a no-op; there is nothing to release.
func (m *Memory) Close() error {
	return nil
}

// first scans in insertion order and returns the first record matching.
func (m *Memory) first(match func(id int, s types.Student) bool) (types.Student, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for pair := m.students.Oldest(); pair != nil; pair = pair.Next() {
		if match(pair.Key, pair.Value) {
			return pair.Value, true
		}
	}
	return types.Student{}, false
}
