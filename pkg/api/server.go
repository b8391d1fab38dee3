// Package api contains the Datalayer server extension: a small REST
// surface that Jupyter-style frontends talk to.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/datalayer/datalayer-go/pkg/api/v1"
	"github.com/datalayer/datalayer-go/pkg/auth"
	"github.com/datalayer/datalayer-go/pkg/config"
	"github.com/datalayer/datalayer-go/pkg/logger"
)

const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func headersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") && !strings.HasSuffix(r.URL.Path, "/login") {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// Router assembles the extension routes. Exposed separately from Serve so
// tests can drive it with httptest.
func Router(cfg *config.Config, manager *auth.Manager) (http.Handler, error) {
	apiClient, err := manager.APIClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(middlewareTimeout),
		headersMiddleware,
	)

	routers := map[string]http.Handler{
		"/api/datalayer/healthz":      v1.HealthzRouter(),
		"/api/datalayer/config":       v1.ConfigRouter(cfg),
		"/api/datalayer/login":        v1.LoginRouter(apiClient),
		"/api/datalayer/environments": v1.EnvironmentsRouter(apiClient),
		"/api/datalayer/runtimes":     v1.RuntimesRouter(apiClient),
		"/api/datalayer/chat":         v1.ChatRouter(cfg),
	}
	for prefix, router := range routers {
		r.Mount(prefix, router)
	}

	return r, nil
}

// Serve starts the extension server on the given address and blocks until
// ctx is cancelled, then shuts down gracefully. It is assumed that the
// caller sets up appropriate signal handling.
func Serve(ctx context.Context, address string, cfg *config.Config, manager *auth.Manager) error {
	handler, err := Router(cfg, manager)
	if err != nil {
		return err
	}

	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	logger.Infof("starting Datalayer extension server on %s", address)

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panicf("server stopped with error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Infof("extension server stopped")
	return nil
}
