// Package student contains all HTTP handlers related to the Student resource.
//
// Every handler is built by a factory that receives the storage and
// returns the func(http.ResponseWriter, *http.Request) the router needs:
//
//	mux.HandleFunc("GET /get-student/{id}", student.GetByID(storage))
//
// Input is checked here, before the store is reached: ids must be
// positive integers, numeric query parameters must parse, and bodies must
// pass validation. Rejections get the error envelope with 400/422.
//
// Lookups that miss and operations on missing or taken ids are NOT
// rejections: they answer 200 with a domain body such as
// {"Data": "Not found"} or {"Error": "Student exists"}.
package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-directory/internal/http/middleware"
	"github.com/aanand-mishra/student-directory/internal/storage"
	"github.com/aanand-mishra/student-directory/internal/types"
	"github.com/aanand-mishra/student-directory/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/nullable"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// GetList handles GET /students.
// Returns the whole directory as an object keyed by id, in insertion order.
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())
		log.Info("getting all students")

		students, err := storage.GetStudents()
		if err != nil {
			log.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// GetByID handles GET /get-student/{id}.
//
// Error responses:
//
//	422 — id is not a positive integer
//	404 — no student under id: { "Error": "Student not found" }
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())

		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("getting a student", slog.Int("id", id))

		student, err := storage.GetStudentByID(id)
		if errors.Is(err, errNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.DomainError{Error: response.StudentMissingText})
			return
		}
		if err != nil {
			log.Error("error getting student", slog.Int("id", id), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetByName handles GET /get-by-name?name=...
// Exact, case-sensitive match; the first student in insertion order wins.
// Without ?name= nothing can match.
func GetByName(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())
		q := r.URL.Query()

		if !q.Has("name") {
			response.WriteJSON(w, http.StatusOK, response.Data{Data: response.NotFoundText})
			return
		}
		name := q.Get("name")
		log.Info("finding a student by name", slog.String("name", name))

		student, ok, err := storage.FindByName(name)
		writeLookup(w, log, student, ok, err, response.NotFoundText)
	}
}

// GetByAge handles GET /get-by-age?age=...&name=...
// age is required. When name is given it must match as well.
func GetByAge(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())
		q := r.URL.Query()

		if !q.Has("age") {
			writeInvalid(w, errors.New("query parameter age is required"))
			return
		}
		age, err := strconv.Atoi(q.Get("age"))
		if err != nil {
			writeInvalid(w, errors.New("query parameter age must be an integer"))
			return
		}

		var name nullable.Nullable[string]
		if q.Has("name") {
			name = nullable.NewNullableWithValue(q.Get("name"))
		}
		log.Info("finding a student by age", slog.Int("age", age))

		student, ok, err := storage.FindByAge(age, name)
		writeLookup(w, log, student, ok, err, response.NotFoundText)
	}
}

// GetByNameAndID handles GET /get-by-name/{name}?student_id=...
// Names compare case-insensitively. With student_id, the student stored
// under that id must carry the name; otherwise the first name match wins.
func GetByNameAndID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())
		name := r.PathValue("name")
		q := r.URL.Query()

		var id nullable.Nullable[int]
		if q.Has("student_id") {
			v, err := strconv.Atoi(q.Get("student_id"))
			if err != nil {
				writeInvalid(w, errors.New("query parameter student_id must be an integer"))
				return
			}
			id = nullable.NewNullableWithValue(v)
		}
		log.Info("finding a student by name and id",
			slog.String("name", name),
			slog.String("student_id", q.Get("student_id")))

		student, ok, err := storage.FindByNameAndID(name, id)
		writeLookup(w, log, student, ok, err, response.NotFoundByNameText)
	}
}

// New handles POST /create-student/{id}.
//
// Request body (JSON), every field required:
//
//	{ "name": "Joana", "age": 14, "grade": 8, "email": "joana@email.com" }
//
// Responds with the stored record, or { "Error": "Student exists" }.
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())

		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("creating a student", slog.Int("id", id))

		var body types.NewStudent
		if !decodeBody(w, r, &body) {
			return
		}

		if err := validate.Struct(body); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusUnprocessableEntity, response.ValidationError(validateErrs))
				return
			}
			writeInvalid(w, err)
			return
		}

		student, err := storage.CreateStudent(id, body.Student())
		if errors.Is(err, errConflict) {
			response.WriteJSON(w, http.StatusOK, response.DomainError{Error: response.StudentExistsText})
			return
		}
		if err != nil {
			log.Error("error creating student", slog.Int("id", id), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		log.Info("student created", slog.Int("id", id))
		response.WriteJSON(w, http.StatusOK, student)
	}
}

// Update handles PUT /update-student/{id}.
//
// Request body (JSON), any subset of fields:
//
//	{ "age": 19 }
//
// Absent fields are left unchanged; null is rejected. Responds with the
// full updated record, or { "Error": "Student not found" }.
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())

		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("updating a student", slog.Int("id", id))

		var patch types.StudentPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		if field := patch.NullField(); field != "" {
			writeInvalid(w, fmt.Errorf("field %s must not be null", field))
			return
		}

		if err := validate.Struct(newPatchRules(patch)); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusUnprocessableEntity, response.ValidationError(validateErrs))
				return
			}
			writeInvalid(w, err)
			return
		}

		updated, err := storage.UpdateStudentByID(id, patch)
		if errors.Is(err, errNotFound) {
			response.WriteJSON(w, http.StatusOK, response.DomainError{Error: response.StudentMissingText})
			return
		}
		if err != nil {
			log.Error("error updating student", slog.Int("id", id), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		log.Info("student updated", slog.Int("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /student-delete/{id}.
// Responds with { "Message": "Student deleted" } or { "Error": "Student not found" }.
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context())

		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("deleting a student", slog.Int("id", id))

		err := storage.DeleteStudentByID(id)
		if errors.Is(err, errNotFound) {
			response.WriteJSON(w, http.StatusOK, response.DomainError{Error: response.StudentMissingText})
			return
		}
		if err != nil {
			log.Error("error deleting student", slog.Int("id", id), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		log.Info("student deleted", slog.Int("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: response.StudentDeletedText})
	}
}

// The handler parameters are named storage, shadowing the package.
var (
	errNotFound = storage.ErrNotFound
	errConflict = storage.ErrConflict
)

// patchRules mirrors StudentPatch as pointers so validator can skip
// fields that carry no value.
type patchRules struct {
	Age   *int `validate:"omitnil,gte=0"`
	Grade *int `validate:"omitnil,gte=0"`
}

func newPatchRules(p types.StudentPatch) patchRules {
	var rules patchRules
	if v, err := p.Age.Get(); err == nil {
		rules.Age = &v
	}
	if v, err := p.Grade.Get(); err == nil {
		rules.Grade = &v
	}
	return rules
}

// pathID parses {id} and rejects anything that is not a positive integer.
// On failure the response is already written.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeInvalid(w, fmt.Errorf("invalid id %q: must be an integer", raw))
		return 0, false
	}
	if err := validate.Var(id, "gt=0"); err != nil {
		writeInvalid(w, fmt.Errorf("invalid id %d: must be greater than 0", id))
		return 0, false
	}
	return id, true
}

// decodeBody reads exactly one JSON value into dst. On failure the
// response is already written.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	switch {
	case errors.Is(err, io.EOF):
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return false
	case err != nil:
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body must contain a single JSON value")))
		return false
	}
	return true
}

func writeInvalid(w http.ResponseWriter, err error) {
	response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
}

func writeLookup(w http.ResponseWriter, log *slog.Logger, student types.Student, ok bool, err error, missing string) {
	if err != nil {
		log.Error("error finding student", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
		return
	}
	if !ok {
		response.WriteJSON(w, http.StatusOK, response.Data{Data: missing})
		return
	}
	response.WriteJSON(w, http.StatusOK, student)
}
