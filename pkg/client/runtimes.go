package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/datalayer/datalayer-go/pkg/dlyerr"
)

// RuntimesService wraps the runtime lifecycle endpoints.
type RuntimesService struct {
	client *Client
}

// notFoundf builds a not_found error with a formatted message.
func notFoundf(format string, args ...any) error {
	return dlyerr.NewNotFoundError(fmt.Sprintf(format, args...), nil)
}

// List returns the caller's running runtimes.
func (s *RuntimesService) List(ctx context.Context) ([]Runtime, error) {
	var resp runtimesResponse
	if err := s.client.do(ctx, http.MethodGet, s.client.runtimesPath("runtimes"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Runtimes, nil
}

// Get returns a runtime by pod name.
func (s *RuntimesService) Get(ctx context.Context, podName string) (*Runtime, error) {
	if podName == "" {
		return nil, dlyerr.NewInvalidArgumentError("pod name is required", nil)
	}

	var resp runtimeResponse
	if err := s.client.do(ctx, http.MethodGet, s.client.runtimesPath("runtimes", podName), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Runtime == nil {
		return nil, notFoundf("runtime %q not found", podName)
	}
	return resp.Runtime, nil
}

// Create starts a new runtime from an environment (or a snapshot when
// spec.FromSnapshot is set). A given name is generated when omitted so the
// caller can report it without waiting for the service.
func (s *RuntimesService) Create(ctx context.Context, spec RuntimeSpec) (*Runtime, error) {
	if spec.EnvironmentName == "" && spec.FromSnapshot == "" {
		return nil, dlyerr.NewInvalidArgumentError("environment name or snapshot is required", nil)
	}
	if spec.GivenName == "" {
		spec.GivenName = generatedRuntimeName()
	}
	if spec.Type == "" {
		spec.Type = "notebook"
	}

	var resp runtimeResponse
	if err := s.client.do(ctx, http.MethodPost, s.client.runtimesPath("runtimes"), spec, &resp); err != nil {
		return nil, err
	}
	if resp.Runtime == nil {
		return nil, dlyerr.NewAPIError("create runtime response is missing the runtime", nil)
	}
	return resp.Runtime, nil
}

// Terminate stops a runtime and releases its resources.
func (s *RuntimesService) Terminate(ctx context.Context, podName string) error {
	if podName == "" {
		return dlyerr.NewInvalidArgumentError("pod name is required", nil)
	}
	return s.client.do(ctx, http.MethodDelete, s.client.runtimesPath("runtimes", podName), nil, nil)
}

// generatedRuntimeName matches the service's default naming so the CLI can
// print the name before the POST round-trips.
func generatedRuntimeName() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "runtime-" + id[:8]
}
