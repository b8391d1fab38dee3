// Package v1 implements the route handlers for the Datalayer server
// extension.
package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalayer/datalayer-go/pkg/versions"
)

// HealthzRouter sets up the health route.
func HealthzRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/", getHealthz)
	return r
}

type healthzResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func getHealthz(w http.ResponseWriter, _ *http.Request) {
	resp := healthzResponse{
		Status:  "ok",
		Version: versions.GetVersionInfo().Version,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode health response", http.StatusInternalServerError)
	}
}
