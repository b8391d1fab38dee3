package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/datalayer/datalayer-go/pkg/client"
)

// EnvironmentInfo is the per-environment tool output.
type EnvironmentInfo struct {
	Name        string  `json:"name"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Language    string  `json:"language,omitempty"`
	BurnRate    float64 `json:"burn_rate"`
}

// ListEnvironmentsResponse is the list_environments tool output.
type ListEnvironmentsResponse struct {
	Environments []EnvironmentInfo `json:"environments"`
}

// ListEnvironments lists the available compute environments.
func (h *Handler) ListEnvironments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	environments, err := h.client.Environments.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list environments: %v", err)), nil
	}

	var results []EnvironmentInfo
	for _, env := range environments {
		results = append(results, environmentInfo(env))
	}

	return mcp.NewToolResultStructuredOnly(ListEnvironmentsResponse{Environments: results}), nil
}

func environmentInfo(env client.Environment) EnvironmentInfo {
	return EnvironmentInfo{
		Name:        env.Name,
		Title:       env.Title,
		Description: env.Description,
		Language:    env.Language,
		BurnRate:    env.BurnRate,
	}
}
