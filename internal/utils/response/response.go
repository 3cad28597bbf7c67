// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Two families of bodies leave this package:
//
//   - the error envelope { "status": "error", "error": "..." } for requests
//     rejected at the boundary (bad ids, malformed bodies, failed validation);
//   - the directory's own domain bodies, { "Data": "Not found" },
//     { "Error": "Student exists" }, { "Message": "Student deleted" }, which
//     clients receive with a 200 status.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for rejected requests.
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Error  string `json:"error"`  // human-readable error detail
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Domain body texts. The capitalisation differences are part of the API.
const (
	NotFoundText       = "Not found"
	NotFoundByNameText = "Not Found"
	StudentExistsText  = "Student exists"
	StudentMissingText = "Student not found"
	StudentDeletedText = "Student deleted"
	HomepageName       = "First Data"
)

// Data is the { "Data": ... } sentinel returned when a lookup matched nothing.
type Data struct {
	Data string `json:"Data"`
}

// DomainError is the { "Error": ... } body for conflicts and missing ids.
type DomainError struct {
	Error string `json:"Error"`
}

// Message is the { "Message": ... } confirmation body.
type Message struct {
	Message string `json:"Message"`
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
// Example output:
//
//	{ "status": "error", "error": "field name is required, field age must be at least 0" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		field := strings.ToLower(e.Field())
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", field))
		case "gte", "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s", field, e.Param()))
		case "gt":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be greater than %s", field, e.Param()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", field))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", field))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
