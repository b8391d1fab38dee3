package server

import (
	"fmt"

	"github.com/datalayer/datalayer-go/pkg/auth"
	"github.com/datalayer/datalayer-go/pkg/client"
	"github.com/datalayer/datalayer-go/pkg/config"
)

// Handler handles MCP tool requests against the Datalayer platform.
type Handler struct {
	client *client.Client
}

// NewHandler creates a Handler wired to the credential chain.
func NewHandler(cfg *config.Config, explicitToken string) (*Handler, error) {
	manager, err := auth.NewManager(cfg, explicitToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth manager: %w", err)
	}

	apiClient, err := manager.APIClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return &Handler{client: apiClient}, nil
}

// NewHandlerWithClient creates a Handler around an existing API client.
func NewHandlerWithClient(apiClient *client.Client) *Handler {
	return &Handler{client: apiClient}
}
