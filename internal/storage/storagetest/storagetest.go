// Package storagetest holds behaviour tests every storage.Storage backend
// must pass. Backend packages call Run from their own _test.go files.
package storagetest

import (
	"sync"
	"testing"

	"github.com/aanand-mishra/student-directory/internal/storage"
	"github.com/aanand-mishra/student-directory/internal/types"
	"github.com/oapi-codegen/nullable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds a fresh backend holding seed.
type Factory func(t *testing.T, seed types.Directory) storage.Storage

// Run executes the whole suite, one fresh backend per subtest.
func Run(t *testing.T, newStore Factory) {
	open := func(t *testing.T) storage.Storage {
		s := newStore(t, storage.Seed)
		t.Cleanup(func() { s.Close() })
		return s
	}

	t.Run("GetStudentsKeepsSeedOrder", func(t *testing.T) {
		s := open(t)
		dir, err := s.GetStudents()
		require.NoError(t, err)
		assert.Equal(t, storage.Seed, dir)
	})

	t.Run("GetStudentsReturnsCopy", func(t *testing.T) {
		s := open(t)
		dir, err := s.GetStudents()
		require.NoError(t, err)
		dir[0].Student.Name = "Changed"

		got, err := s.GetStudentByID(1)
		require.NoError(t, err)
		assert.Equal(t, "Eduardo", got.Name)
	})

	t.Run("GetStudentByIDMissing", func(t *testing.T) {
		s := open(t)
		_, err := s.GetStudentByID(999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("CreateThenGet", func(t *testing.T) {
		s := open(t)
		rec := types.Student{Name: "Joana", Age: 14, Grade: 8, Email: "joana@email.com"}

		created, err := s.CreateStudent(42, rec)
		require.NoError(t, err)
		assert.Equal(t, rec, created)

		got, err := s.GetStudentByID(42)
		require.NoError(t, err)
		assert.Equal(t, rec, got)

		dir, err := s.GetStudents()
		require.NoError(t, err)
		assert.Equal(t, 42, dir[len(dir)-1].ID)
	})

	t.Run("CreateConflictLeavesRecord", func(t *testing.T) {
		s := open(t)
		_, err := s.CreateStudent(2, types.Student{Name: "Impostor"})
		assert.ErrorIs(t, err, storage.ErrConflict)

		got, err := s.GetStudentByID(2)
		require.NoError(t, err)
		assert.Equal(t, "Mariana", got.Name)
	})

	t.Run("UpdateOnlyAge", func(t *testing.T) {
		s := open(t)
		before, err := s.GetStudentByID(4)
		require.NoError(t, err)

		updated, err := s.UpdateStudentByID(4, types.StudentPatch{Age: nullable.NewNullableWithValue(30)})
		require.NoError(t, err)

		want := before
		want.Age = 30
		assert.Equal(t, want, updated)

		got, err := s.GetStudentByID(4)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := open(t)
		_, err := s.UpdateStudentByID(999, types.StudentPatch{Name: nullable.NewNullableWithValue("x")})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DeleteThenGet", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.DeleteStudentByID(3))

		_, err := s.GetStudentByID(3)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		err = s.DeleteStudentByID(3)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("RecreateAfterDeleteGoesLast", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.DeleteStudentByID(1))
		_, err := s.CreateStudent(1, types.Student{Name: "Eduardo", Age: 20, Grade: 1, Email: "e@email.com"})
		require.NoError(t, err)

		// id=11 is now the earliest Eduardo.
		got, ok, err := s.FindByName("Eduardo")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "eduardo2@email.com", got.Email)
	})

	t.Run("FindByNameFirstMatchWins", func(t *testing.T) {
		s := open(t)
		got, ok, err := s.FindByName("Eduardo")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "eduardo@email.com", got.Email)
	})

	t.Run("FindByNameIsCaseSensitive", func(t *testing.T) {
		s := open(t)
		_, ok, err := s.FindByName("eduardo")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("FindByAge", func(t *testing.T) {
		s := open(t)
		got, ok, err := s.FindByAge(16, nullable.Nullable[string]{})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Rafael", got.Name)

		_, ok, err = s.FindByAge(99, nullable.Nullable[string]{})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("FindByAgeNarrowsByName", func(t *testing.T) {
		s := open(t)
		got, ok, err := s.FindByAge(16, nullable.NewNullableWithValue("Thiago"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "thiago@email.com", got.Email)

		_, ok, err = s.FindByAge(16, nullable.NewNullableWithValue("Ana"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("FindByNameAndIDWithID", func(t *testing.T) {
		s := open(t)
		got, ok, err := s.FindByNameAndID("eduardo", nullable.NewNullableWithValue(11))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "eduardo2@email.com", got.Email)
	})

	t.Run("FindByNameAndIDUnknownIDHasNoFallback", func(t *testing.T) {
		s := open(t)
		_, ok, err := s.FindByNameAndID("eduardo", nullable.NewNullableWithValue(999))
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.FindByNameAndID("eduardo", nullable.NewNullableWithValue(2))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("FindByNameAndIDWithoutID", func(t *testing.T) {
		s := open(t)
		got, ok, err := s.FindByNameAndID("EDUARDO", nullable.Nullable[int]{})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "eduardo@email.com", got.Email)
	})

	t.Run("ConcurrentUpdates", func(t *testing.T) {
		s := open(t)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.UpdateStudentByID(5, types.StudentPatch{Grade: nullable.NewNullableWithValue(i)})
				assert.NoError(t, err)
				_, err = s.GetStudents()
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := s.GetStudentByID(5)
		require.NoError(t, err)
		assert.Equal(t, "Rafael", got.Name)
	})
}
