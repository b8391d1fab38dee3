package client

import (
	"context"
	"net/http"
	"time"

	"github.com/datalayer/datalayer-go/pkg/dlyerr"
)

// TokensService wraps the IAM API-token endpoints.
type TokensService struct {
	client *Client
}

// TokenSpec describes an API token to create.
type TokenSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// ExpirationDate is when the token stops working. Zero means the
	// service default.
	ExpirationDate time.Time `json:"expiration_date,omitempty"`
}

// CreatedToken pairs the token metadata with the one-time secret value.
type CreatedToken struct {
	Token *Token
	// Value is the raw bearer token. It is only ever returned at creation
	// time; the caller must show or store it immediately.
	Value string
}

// List returns the caller's API tokens.
func (s *TokensService) List(ctx context.Context) ([]Token, error) {
	var resp tokensResponse
	if err := s.client.do(ctx, http.MethodGet, s.client.iamPath("tokens"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

// Create issues a new API token.
func (s *TokensService) Create(ctx context.Context, spec TokenSpec) (*CreatedToken, error) {
	if spec.Name == "" {
		return nil, dlyerr.NewInvalidArgumentError("token name is required", nil)
	}

	var resp tokenResponse
	if err := s.client.do(ctx, http.MethodPost, s.client.iamPath("tokens"), spec, &resp); err != nil {
		return nil, err
	}
	if resp.Token == nil || resp.RawToken == "" {
		return nil, dlyerr.NewAPIError("create token response is missing the token", nil)
	}
	return &CreatedToken{Token: resp.Token, Value: resp.RawToken}, nil
}

// Delete revokes an API token by UID.
func (s *TokensService) Delete(ctx context.Context, uid string) error {
	if uid == "" {
		return dlyerr.NewInvalidArgumentError("token uid is required", nil)
	}
	return s.client.do(ctx, http.MethodDelete, s.client.iamPath("tokens", uid), nil, nil)
}
