package client

import (
	"context"
	"net/http"

	"github.com/datalayer/datalayer-go/pkg/dlyerr"
)

// SecretsService wraps the platform secrets endpoints. Secrets live
// server-side and are injected into runtimes; they are unrelated to the
// local credential store.
type SecretsService struct {
	client *Client
}

// SecretSpec describes a secret to create.
type SecretSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Value       string `json:"value"`
	// Variant distinguishes generic secrets from typed ones (e.g. "key").
	Variant string `json:"variant,omitempty"`
}

// List returns the caller's secrets. Values are never returned.
func (s *SecretsService) List(ctx context.Context) ([]Secret, error) {
	var resp secretsResponse
	if err := s.client.do(ctx, http.MethodGet, s.client.iamPath("secrets"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Secrets, nil
}

// Create stores a new secret on the platform.
func (s *SecretsService) Create(ctx context.Context, spec SecretSpec) (*Secret, error) {
	if spec.Name == "" {
		return nil, dlyerr.NewInvalidArgumentError("secret name is required", nil)
	}
	if spec.Value == "" {
		return nil, dlyerr.NewInvalidArgumentError("secret value is required", nil)
	}
	if spec.Variant == "" {
		spec.Variant = "generic"
	}

	var resp secretResponse
	if err := s.client.do(ctx, http.MethodPost, s.client.iamPath("secrets"), spec, &resp); err != nil {
		return nil, err
	}
	if resp.Secret == nil {
		return nil, dlyerr.NewAPIError("create secret response is missing the secret", nil)
	}
	return resp.Secret, nil
}

// Delete removes a secret by UID.
func (s *SecretsService) Delete(ctx context.Context, uid string) error {
	if uid == "" {
		return dlyerr.NewInvalidArgumentError("secret uid is required", nil)
	}
	return s.client.do(ctx, http.MethodDelete, s.client.iamPath("secrets", uid), nil, nil)
}
