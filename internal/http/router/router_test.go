package router_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-directory/internal/http/router"
	"github.com/aanand-mishra/student-directory/internal/storage"
	"github.com/aanand-mishra/student-directory/internal/storage/memory"
	"github.com/aanand-mishra/student-directory/internal/storage/sqlite"
	"github.com/aanand-mishra/student-directory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends lists every storage.Storage the router is served over; each
// test runs once per entry, against a freshly seeded store.
var backends = []struct {
	name string
	open func(t *testing.T) storage.Storage
}{
	{
		name: "memory",
		open: func(t *testing.T) storage.Storage { return memory.New(storage.Seed) },
	},
	{
		name: "sqlite",
		open: func(t *testing.T) storage.Storage {
			s, err := sqlite.New(storage.Seed)
			require.NoError(t, err)
			return s
		},
	},
}

func forEachBackend(t *testing.T, test func(t *testing.T, srv *httptest.Server)) {
	t.Helper()
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			t.Cleanup(func() { store.Close() })

			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			srv := httptest.NewServer(router.New(store, log))
			t.Cleanup(srv.Close)

			test(t, srv)
		})
	}
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, strings.TrimSpace(string(raw))
}

func decodeStudent(t *testing.T, body string) types.Student {
	t.Helper()
	var s types.Student
	require.NoError(t, json.Unmarshal([]byte(body), &s))
	return s
}

func TestIndex(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {
		status, body := do(t, srv, http.MethodGet, "/", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"name":"First Data"}`, body)

		status, _ = do(t, srv, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestHealth(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {
		status, body := do(t, srv, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"status":"ok"}`, body)
	})
}

func TestListStudentsKeyedByIDInOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {
		status, body := do(t, srv, http.MethodGet, "/students", "")
		require.Equal(t, http.StatusOK, status)

		var dir map[string]types.Student
		require.NoError(t, json.Unmarshal([]byte(body), &dir))
		assert.Len(t, dir, len(storage.Seed))
		assert.Equal(t, "Isabela", dir["10"].Name)

		assert.True(t, strings.HasPrefix(body, `{"1":`))
		assert.Less(t, strings.Index(body, `"9":`), strings.Index(body, `"10":`))
	})
}

func TestGetStudent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {

		status, body := do(t, srv, http.MethodGet, "/get-student/2", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"name":"Mariana","age":18,"grade":12,"email":"mariana@email.com"}`, body)

		status, body = do(t, srv, http.MethodGet, "/get-student/999", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"Error":"Student not found"}`, body)
	})
}

func TestGetStudentRejectsBadIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {
		for _, id := range []string{"-1", "0", "abc"} {
			status, body := do(t, srv, http.MethodGet, "/get-student/"+id, "")
			assert.Equal(t, http.StatusUnprocessableEntity, status, id)
			assert.Contains(t, body, `"status":"error"`, id)
		}
	})
}

func TestGetByName(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {

		status, body := do(t, srv, http.MethodGet, "/get-by-name?name=Eduardo", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "eduardo@email.com", decodeStudent(t, body).Email)

		_, body = do(t, srv, http.MethodGet, "/get-by-name?name=eduardo", "")
		assert.JSONEq(t, `{"Data":"Not found"}`, body)

		status, body = do(t, srv, http.MethodGet, "/get-by-name", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"Data":"Not found"}`, body)
	})
}

func TestGetByAge(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {

		_, body := do(t, srv, http.MethodGet, "/get-by-age?age=15", "")
		assert.Equal(t, "Camila", decodeStudent(t, body).Name)

		_, body = do(t, srv, http.MethodGet, "/get-by-age?age=15&name=Eduardo", "")
		assert.Equal(t, "eduardo2@email.com", decodeStudent(t, body).Email)

		_, body = do(t, srv, http.MethodGet, "/get-by-age?age=40", "")
		assert.JSONEq(t, `{"Data":"Not found"}`, body)

		status, _ := do(t, srv, http.MethodGet, "/get-by-age", "")
		assert.Equal(t, http.StatusUnprocessableEntity, status)

		status, _ = do(t, srv, http.MethodGet, "/get-by-age?age=old", "")
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})
}

func TestGetByNameAndID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {

		_, body := do(t, srv, http.MethodGet, "/get-by-name/eduardo?student_id=11", "")
		assert.Equal(t, "eduardo2@email.com", decodeStudent(t, body).Email)

		_, body = do(t, srv, http.MethodGet, "/get-by-name/eduardo", "")
		assert.Equal(t, "eduardo@email.com", decodeStudent(t, body).Email)

		status, body := do(t, srv, http.MethodGet, "/get-by-name/eduardo?student_id=999", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"Data":"Not Found"}`, body)

		status, _ = do(t, srv, http.MethodGet, "/get-by-name/eduardo?student_id=x", "")
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})
}

func TestCreateStudent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {
		rec := `{"name":"Joana","age":0,"grade":1,"email":"joana@email.com"}`

		status, body := do(t, srv, http.MethodPost, "/create-student/12", rec)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, rec, body)

		_, body = do(t, srv, http.MethodGet, "/get-student/12", "")
		assert.JSONEq(t, rec, body)

		status, body = do(t, srv, http.MethodPost, "/create-student/12",
			`{"name":"Other","age":1,"grade":1,"email":"o@email.com"}`)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"Error":"Student exists"}`, body)

		_, body = do(t, srv, http.MethodGet, "/get-student/12", "")
		assert.JSONEq(t, rec, body)
	})
}

func TestCreateStudentRejectsBadInput(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {

		status, body := do(t, srv, http.MethodPost, "/create-student/20", `{"name":"Joana","grade":1,"email":"j@email.com"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, body, "field age is required")

		status, body = do(t, srv, http.MethodPost, "/create-student/20", `{"name":"Joana","age":-3,"grade":1,"email":"j@email.com"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, body, "field age must be at least 0")

		status, body = do(t, srv, http.MethodPost, "/create-student/20", "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body, "request body is empty")

		status, _ = do(t, srv, http.MethodPost, "/create-student/20", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = do(t, srv, http.MethodPost, "/create-student/0", `{"name":"a","age":1,"grade":1,"email":"a"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, status)

		status, body = do(t, srv, http.MethodGet, "/get-student/20", "")
		assert.Equal(t, http.StatusNotFound, status, body)
	})
}

func TestUpdateStudent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {

		status, body := do(t, srv, http.MethodPut, "/update-student/4", `{"age":19}`)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"name":"Ana","age":19,"grade":12,"email":"ana@email.com"}`, body)

		status, body = do(t, srv, http.MethodPut, "/update-student/4", `{}`)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"name":"Ana","age":19,"grade":12,"email":"ana@email.com"}`, body)

		status, body = do(t, srv, http.MethodPut, "/update-student/999", `{"age":19}`)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"Error":"Student not found"}`, body)
	})
}

func TestUpdateStudentRejectsBadInput(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {

		status, _ := do(t, srv, http.MethodPut, "/update-student/4", `{"name":null}`)
		assert.Equal(t, http.StatusUnprocessableEntity, status)

		status, body := do(t, srv, http.MethodPut, "/update-student/4", `{"grade":-1}`)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, body, "field grade must be at least 0")

		status, _ = do(t, srv, http.MethodPut, "/update-student/4", `{"age":"nineteen"}`)
		assert.Equal(t, http.StatusBadRequest, status)

		_, body = do(t, srv, http.MethodGet, "/get-student/4", "")
		assert.JSONEq(t, `{"name":"Ana","age":18,"grade":12,"email":"ana@email.com"}`, body)
	})
}

func TestDeleteStudent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {

		status, body := do(t, srv, http.MethodDelete, "/student-delete/3", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"Message":"Student deleted"}`, body)

		status, _ = do(t, srv, http.MethodGet, "/get-student/3", "")
		assert.Equal(t, http.StatusNotFound, status)

		status, body = do(t, srv, http.MethodDelete, "/student-delete/3", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"Error":"Student not found"}`, body)

		status, _ = do(t, srv, http.MethodDelete, "/student-delete/-1", "")
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})
}

func TestMethodMismatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {
		status, _ := do(t, srv, http.MethodPost, "/students", "{}")
		assert.Equal(t, http.StatusMethodNotAllowed, status)
	})
}

func TestRequestIDEchoed(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {
		resp, err := srv.Client().Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})
}

func TestBodyWithTrailingDataRejected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, srv *httptest.Server) {
		status, body := do(t, srv, http.MethodPut, "/update-student/4", `{"age":19} trailing`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body, "request body must contain a single JSON value")

		status, _ = do(t, srv, http.MethodPut, "/update-student/4", `{"age":19}{"age":20}`)
		assert.Equal(t, http.StatusBadRequest, status)

		_, body = do(t, srv, http.MethodGet, "/get-student/4", "")
		assert.JSONEq(t, `{"name":"Ana","age":18,"grade":12,"email":"ana@email.com"}`, body)

		status, _ = do(t, srv, http.MethodPost, "/create-student/30",
			`{"name":"Joana","age":14,"grade":8,"email":"joana@email.com"} x`)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = do(t, srv, http.MethodGet, "/get-student/30", "")
		assert.Equal(t, http.StatusNotFound, status)
	})
}
