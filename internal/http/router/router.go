// Package router builds the application's http.Handler: the route table
// plus the middleware every request passes through.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-directory/internal/http/handlers/home"
	"github.com/aanand-mishra/student-directory/internal/http/handlers/student"
	"github.com/aanand-mishra/student-directory/internal/http/middleware"
	"github.com/aanand-mishra/student-directory/internal/storage"
)

// New registers every route against storage.
//
// Route table:
//
//	GET    /                          → homepage
//	GET    /healthz                   → liveness
//	GET    /students                  → whole directory
//	GET    /get-student/{id}          → one student by id
//	GET    /get-by-name?name=         → first exact name match
//	GET    /get-by-age?age=&name=     → first age match
//	GET    /get-by-name/{name}        → case-insensitive name, optional ?student_id=
//	POST   /create-student/{id}       → create under a caller-chosen id
//	PUT    /update-student/{id}       → partial update
//	DELETE /student-delete/{id}       → delete
func New(storage storage.Storage, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// {$} anchors the pattern so "/" does not swallow unknown paths.
	mux.HandleFunc("GET /{$}", home.Index())
	mux.HandleFunc("GET /healthz", home.Health())

	mux.HandleFunc("GET /students", student.GetList(storage))
	mux.HandleFunc("GET /get-student/{id}", student.GetByID(storage))
	mux.HandleFunc("GET /get-by-name", student.GetByName(storage))
	mux.HandleFunc("GET /get-by-age", student.GetByAge(storage))
	mux.HandleFunc("GET /get-by-name/{name}", student.GetByNameAndID(storage))
	mux.HandleFunc("POST /create-student/{id}", student.New(storage))
	mux.HandleFunc("PUT /update-student/{id}", student.Update(storage))
	mux.HandleFunc("DELETE /student-delete/{id}", student.Delete(storage))

	return middleware.Chain(mux,
		middleware.RequestID(log),
		middleware.AccessLog,
	)
}
