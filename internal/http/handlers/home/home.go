// Package home serves the endpoints that are not about students.
package home

import (
	"net/http"

	"github.com/aanand-mishra/student-directory/internal/utils/response"
)

// Index handles GET /.
func Index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"name": response.HomepageName})
	}
}

// Health handles GET /healthz for load balancers and orchestrators.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": response.StatusOK})
	}
}
