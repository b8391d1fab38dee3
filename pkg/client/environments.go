package client

import (
	"context"
	"net/http"
)

// EnvironmentsService wraps the environment catalog endpoints.
type EnvironmentsService struct {
	client *Client
}

// List returns the environments available to the current user.
func (s *EnvironmentsService) List(ctx context.Context) ([]Environment, error) {
	var resp environmentsResponse
	if err := s.client.do(ctx, http.MethodGet, s.client.runtimesPath("environments"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Environments, nil
}

// Get returns a single environment by name, or a not_found error.
func (s *EnvironmentsService) Get(ctx context.Context, name string) (*Environment, error) {
	environments, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range environments {
		if environments[i].Name == name {
			return &environments[i], nil
		}
	}
	return nil, notFoundf("environment %q not found", name)
}
