package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalayer/datalayer-go/pkg/client"
	"github.com/datalayer/datalayer-go/pkg/dlyerr"
	"github.com/datalayer/datalayer-go/pkg/logger"
)

// EnvironmentsRouter proxies environment listings to the platform.
func EnvironmentsRouter(apiClient *client.Client) http.Handler {
	routes := &platformRoutes{client: apiClient}
	r := chi.NewRouter()
	r.Get("/", routes.listEnvironments)
	return r
}

// RuntimesRouter proxies runtime operations to the platform.
func RuntimesRouter(apiClient *client.Client) http.Handler {
	routes := &platformRoutes{client: apiClient}
	r := chi.NewRouter()
	r.Get("/", routes.listRuntimes)
	r.Post("/", routes.createRuntime)
	r.Delete("/{podName}", routes.terminateRuntime)
	return r
}

type platformRoutes struct {
	client *client.Client
}

func (p *platformRoutes) listEnvironments(w http.ResponseWriter, r *http.Request) {
	environments, err := p.client.Environments.List(r.Context())
	if err != nil {
		writeServiceError(w, "list environments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"environments": environments,
	})
}

func (p *platformRoutes) listRuntimes(w http.ResponseWriter, r *http.Request) {
	runtimes, err := p.client.Runtimes.List(r.Context())
	if err != nil {
		writeServiceError(w, "list runtimes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"runtimes": runtimes,
	})
}

func (p *platformRoutes) createRuntime(w http.ResponseWriter, r *http.Request) {
	var spec client.RuntimeSpec
	if err := decodeJSON(r, &spec); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	runtime, err := p.client.Runtimes.Create(r.Context(), spec)
	if err != nil {
		writeServiceError(w, "create runtime", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"runtime": runtime,
	})
}

func (p *platformRoutes) terminateRuntime(w http.ResponseWriter, r *http.Request) {
	podName := chi.URLParam(r, "podName")
	if err := p.client.Runtimes.Terminate(r.Context(), podName); err != nil {
		writeServiceError(w, "terminate runtime", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps a typed client error onto an HTTP status. The
// upstream message is logged but not echoed to the frontend.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	logger.Errorf("failed to %s: %v", op, err)

	status := http.StatusBadGateway
	switch {
	case dlyerr.IsUnauthenticated(err):
		status = http.StatusUnauthorized
	case dlyerr.IsForbidden(err):
		status = http.StatusForbidden
	case dlyerr.IsNotFound(err):
		status = http.StatusNotFound
	case dlyerr.IsInvalidArgument(err):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": "failed to " + op,
	})
}
