package api

import "net/http"

// HealthHandler implements the health check endpoint
func (s *ApiService) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
