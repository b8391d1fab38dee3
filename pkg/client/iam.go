package client

import (
	"context"
	"net/http"

	"github.com/datalayer/datalayer-go/pkg/dlyerr"
)

// IAMService wraps the Datalayer IAM endpoints.
type IAMService struct {
	client *Client
}

// LoginResult is what IAM returns for a successful credentials login.
type LoginResult struct {
	Token string
	User  *User
}

// Login exchanges a handle/password pair for a bearer token.
func (s *IAMService) Login(ctx context.Context, handle, password string) (*LoginResult, error) {
	if handle == "" || password == "" {
		return nil, dlyerr.NewInvalidArgumentError("handle and password are required", nil)
	}

	body := map[string]string{
		"handle":   handle,
		"password": password,
	}

	var resp loginResponse
	if err := s.client.do(ctx, http.MethodPost, s.client.iamPath("login"), body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Token == "" {
		return nil, dlyerr.NewUnauthenticatedError(resp.Message, nil)
	}

	return &LoginResult{Token: resp.Token, User: resp.User}, nil
}

// Logout invalidates the current token server-side.
func (s *IAMService) Logout(ctx context.Context) error {
	return s.client.do(ctx, http.MethodGet, s.client.iamPath("logout"), nil, nil)
}

// Whoami returns the identity behind the current credential.
func (s *IAMService) Whoami(ctx context.Context) (*User, error) {
	var resp whoamiResponse
	if err := s.client.do(ctx, http.MethodGet, s.client.iamPath("whoami"), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Profile == nil {
		return nil, dlyerr.NewAPIError("whoami response is missing the profile", nil)
	}
	return resp.Profile, nil
}
